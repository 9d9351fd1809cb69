// Package repo is a programmatic facade over a git working directory. File
// writes, deletes and renames become atomic stage+commit operations; reads
// decode the tool's machine output into typed values.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"keel/internal/command"
	kerrors "keel/internal/errors"
	"keel/internal/journal"
)

const metadataDir = ".git"

// Auditor receives a journal entry for every mutation the repository
// performs. Recording is advisory; the repository logs and ignores failures.
type Auditor interface {
	Record(entry journal.Entry) error
}

// Options configures a Repository.
type Options struct {
	// FileMode and DirMode are applied to files and directories the
	// repository itself creates, not to anything git writes. Zero values
	// fall back to 0644 and 0755.
	FileMode os.FileMode
	DirMode  os.FileMode

	// Author, when set, is passed to every commit as the author identity.
	Author string

	// CacheSize bounds the show-content cache. Zero falls back to 128.
	CacheSize int

	Runner  command.Runner
	Auditor Auditor
	Logger  *zap.Logger
}

// Repository owns a resolved repository root and the configuration applied
// to operations against it. The root is fixed for the object's lifetime;
// modes and author may be changed at any time.
type Repository struct {
	root     string
	fileMode os.FileMode
	dirMode  os.FileMode
	author   string

	runner  command.Runner
	auditor Auditor
	logger  *zap.Logger

	showCache *lru.Cache[string, string]
}

// FindRoot walks upward from startDir until a directory containing the git
// metadata directory is found.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", kerrors.Environment("resolving "+startDir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, metadataDir)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", kerrors.InvalidArgument("no repository found above " + startDir)
}

// Open discovers the repository containing dir and returns a facade over it.
func Open(dir string, opts Options) (*Repository, error) {
	root, err := FindRoot(dir)
	if err != nil {
		return nil, err
	}
	return newRepository(root, opts)
}

// Init creates a repository at dir if none exists there or above it, then
// opens it. An existing repository is opened as-is.
func Init(dir string, opts Options) (*Repository, error) {
	if root, err := FindRoot(dir); err == nil {
		return newRepository(root, opts)
	}

	r, err := newRepository(dir, opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, r.dirMode); err != nil {
		return nil, kerrors.Environment("creating directory "+dir, err)
	}
	if _, err := r.run("initialize repository", "init", "."); err != nil {
		return nil, err
	}
	return r, nil
}

func newRepository(root string, opts Options) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, kerrors.Environment("resolving "+root, err)
	}

	r := &Repository{
		root:     filepath.Clean(abs),
		fileMode: opts.FileMode,
		dirMode:  opts.DirMode,
		author:   opts.Author,
		runner:   opts.Runner,
		auditor:  opts.Auditor,
		logger:   opts.Logger,
	}
	if r.fileMode == 0 {
		r.fileMode = 0644
	}
	if r.dirMode == 0 {
		r.dirMode = 0755
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.runner == nil {
		r.runner = command.NewExecRunner(r.logger)
	}

	size := opts.CacheSize
	if size == 0 {
		size = 128
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating content cache: %w", err)
	}
	r.showCache = cache

	return r, nil
}

// Root returns the normalized absolute path of the repository root.
func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) SetAuthor(author string) {
	r.author = author
}

func (r *Repository) SetFileMode(mode os.FileMode) {
	r.fileMode = mode
}

func (r *Repository) SetDirMode(mode os.FileMode) {
	r.dirMode = mode
}

// run issues one named operation against the repository root and enforces
// the zero-exit contract. action describes the attempt for diagnostics.
func (r *Repository) run(action string, op string, args ...string) (string, error) {
	res, err := r.runner.Run(r.root, op, args...)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", kerrors.CommandFailed(
			fmt.Sprintf("%s in %s", action, r.root),
			res.ExitCode, res.Output())
	}
	return res.Stdout, nil
}

// record hands an entry to the auditor, if one is attached. Journal failures
// never fail the fronting operation.
func (r *Repository) record(entry journal.Entry) {
	if r.auditor == nil {
		return
	}
	if err := r.auditor.Record(entry); err != nil {
		r.logger.Warn("journal write failed",
			zap.String("op", entry.Op),
			zap.Error(err))
	}
}
