package repo

import (
	"os"
	"path/filepath"

	kerrors "keel/internal/errors"
	"keel/internal/journal"
)

// WriteFile writes data to path and commits the change, returning the new
// revision. The containing directory and the file are created with the
// configured modes when missing. A physical write failure surfaces before
// anything is staged; files already written are left in place if the
// staging or commit step fails afterwards.
func (r *Repository) WriteFile(path string, data []byte, message string) (string, error) {
	if path == "" {
		return "", kerrors.InvalidArgument("write requires a path")
	}

	local := r.ResolveLocalPath(path)
	full := r.ResolveFullPath(path)

	if err := os.MkdirAll(filepath.Dir(full), r.dirMode); err != nil {
		return "", kerrors.Environment("creating directory for "+local, err)
	}
	if err := os.WriteFile(full, data, r.fileMode); err != nil {
		return "", kerrors.Environment("writing "+local, err)
	}

	if message == "" {
		message = "write " + local
	}
	rev, err := r.commitPaths(message, []string{local}, func() error {
		return r.Add([]string{local}, false)
	})
	if err != nil {
		return "", err
	}

	r.record(journal.Entry{
		Op:       "write",
		Paths:    []string{local},
		Revision: rev,
		Message:  message,
	})
	return rev, nil
}

// RemoveFile stages removal of path and commits it, returning the new
// revision.
func (r *Repository) RemoveFile(path, message string, recursive, force bool) (string, error) {
	if path == "" {
		return "", kerrors.InvalidArgument("remove requires a path")
	}

	local := r.ResolveLocalPath(path)
	if message == "" {
		message = "remove " + local
	}

	rev, err := r.commitPaths(message, []string{local}, func() error {
		return r.Remove([]string{local}, recursive, force)
	})
	if err != nil {
		return "", err
	}

	r.record(journal.Entry{
		Op:       "remove",
		Paths:    []string{local},
		Revision: rev,
		Message:  message,
	})
	return rev, nil
}

// RenameFile stages a rename and commits it restricted to both paths, so the
// commit captures the deletion and the addition. Returns the new revision.
func (r *Repository) RenameFile(from, to, message string, force bool) (string, error) {
	localFrom := r.ResolveLocalPath(from)
	localTo := r.ResolveLocalPath(to)
	if message == "" {
		message = "rename " + localFrom + " to " + localTo
	}

	rev, err := r.commitPaths(message, []string{localFrom, localTo}, func() error {
		return r.Move(localFrom, localTo, force)
	})
	if err != nil {
		return "", err
	}

	r.record(journal.Entry{
		Op:       "rename",
		Paths:    []string{localFrom, localTo},
		Revision: rev,
		Message:  message,
	})
	return rev, nil
}

// commitPaths runs a staging step, commits restricted to the given paths and
// returns the resulting revision. Failures surface as-is; rollback is only
// guaranteed at transaction granularity.
func (r *Repository) commitPaths(message string, paths []string, stage func() error) (string, error) {
	if err := stage(); err != nil {
		return "", err
	}
	if err := r.Commit(message, paths); err != nil {
		return "", err
	}
	return r.CurrentCommit()
}
