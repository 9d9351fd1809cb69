package repo

import (
	"fmt"
	"strconv"
	"strings"

	kerrors "keel/internal/errors"
)

// Commit records the staged changes with the given message, using the
// configured author identity when one is set. A non-nil files slice
// restricts the commit to those paths.
func (r *Repository) Commit(message string, files []string) error {
	args := []string{"-m", message}
	if r.author != "" {
		args = append(args, "--author="+r.author)
	}
	if files != nil {
		args = append(args, "--")
		args = append(args, r.ResolveLocalPaths(files)...)
	}

	_, err := r.run("committing", "commit", args...)
	return err
}

// CurrentCommit resolves the revision at the tip of the current history
// pointer. Fails on an unborn HEAD.
func (r *Repository) CurrentCommit() (string, error) {
	out, err := r.run("resolving current revision", "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch resolves the symbolic name of the current position in
// history. Fails on detached or unborn states.
func (r *Repository) CurrentBranch() (string, error) {
	out, err := r.run("resolving current branch", "name-rev", "--name-only", "HEAD")
	if err != nil {
		return "", err
	}

	branch := strings.TrimSpace(out)
	if branch == "" || branch == "undefined" {
		return "", kerrors.CommandFailed(
			fmt.Sprintf("resolving current branch in %s", r.root), 0, branch)
	}
	return branch, nil
}

// Log returns the most recent commits as trimmed per-commit text blocks.
// limit bounds the count when positive; skip offsets from the most recent
// entry.
func (r *Repository) Log(limit, skip int) ([]string, error) {
	args := []string{"-z"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	if skip > 0 {
		args = append(args, "--skip="+strconv.Itoa(skip))
	}

	out, err := r.run("reading log", "log", args...)
	if err != nil {
		return nil, err
	}
	return splitRecords(out), nil
}

// ShowCommit returns the raw textual detail of one commit.
func (r *Repository) ShowCommit(hash string) (string, error) {
	if cached, ok := r.cachedShow(hash); ok {
		return cached, nil
	}

	out, err := r.run("showing commit "+hash, "show", hash)
	if err != nil {
		return "", err
	}
	r.cacheShow(hash, out)
	return out, nil
}

// ShowFile returns the full content of a file as it existed at ref.
func (r *Repository) ShowFile(path, ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	object := ref + ":" + r.ResolveLocalPath(path)

	if cached, ok := r.cachedShow(object); ok {
		return cached, nil
	}

	out, err := r.run("showing file "+path+" at "+ref, "show", object)
	if err != nil {
		return "", err
	}
	r.cacheShow(object, out)
	return out, nil
}

// ListDirectory lists the entries of a tree at ref. dir defaults to the
// repository root when empty or ".".
func (r *Repository) ListDirectory(dir, ref string) ([]string, error) {
	if ref == "" {
		ref = "HEAD"
	}

	args := []string{"--name-only", "-z", ref}
	local := r.ResolveLocalPath(dir)
	if local != "" && local != "." {
		args = append(args, local+"/")
	}

	out, err := r.run("listing "+dir+" at "+ref, "ls-tree", args...)
	if err != nil {
		return nil, err
	}
	return splitRecords(out), nil
}

// Status decodes the working-tree and staging-area state. Produced fresh on
// every call, in the tool's output order.
func (r *Repository) Status() ([]StatusEntry, error) {
	out, err := r.run("reading status", "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseStatus(out)
}

// IsDirty reports whether anything is staged, modified or untracked.
func (r *Repository) IsDirty() (bool, error) {
	entries, err := r.Status()
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// splitRecords splits NUL-separated tool output into trimmed, non-empty
// records.
func splitRecords(out string) []string {
	records := make([]string, 0)
	for _, rec := range strings.Split(out, "\x00") {
		rec = strings.TrimSpace(rec)
		if rec != "" {
			records = append(records, rec)
		}
	}
	return records
}
