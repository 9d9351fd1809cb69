package repo

import (
	kerrors "keel/internal/errors"
)

// Add stages the given paths, resolved to repository-relative form. A nil
// files slice stages everything outstanding. force overrides the tool's
// refusal to stage ignored paths.
func (r *Repository) Add(files []string, force bool) error {
	args := []string{}
	if force {
		args = append(args, "-f")
	}
	if files == nil {
		args = append(args, "-A")
	} else {
		args = append(args, "--")
		args = append(args, r.ResolveLocalPaths(files)...)
	}

	_, err := r.run("staging files", "add", args...)
	return err
}

// Remove stages removal of the given paths. An explicit non-empty set is
// required; there is no remove-everything mode.
func (r *Repository) Remove(files []string, recursive, force bool) error {
	if len(files) == 0 {
		return kerrors.InvalidArgument("remove requires at least one path")
	}

	args := []string{}
	if recursive {
		args = append(args, "-r")
	}
	if force {
		args = append(args, "-f")
	}
	args = append(args, "--")
	args = append(args, r.ResolveLocalPaths(files)...)

	_, err := r.run("staging removal", "rm", args...)
	return err
}

// Move stages a rename from one path to another, both resolved to
// repository-relative form.
func (r *Repository) Move(from, to string, force bool) error {
	if from == "" || to == "" {
		return kerrors.InvalidArgument("move requires a source and a destination")
	}

	args := []string{}
	if force {
		args = append(args, "-f")
	}
	args = append(args, r.ResolveLocalPath(from), r.ResolveLocalPath(to))

	_, err := r.run("staging rename", "mv", args...)
	return err
}
