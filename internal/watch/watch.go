// Package watch observes a repository's working tree and re-reads status
// whenever something changes on disk.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"keel/internal/repo"
)

const debounce = 200 * time.Millisecond

// Watcher delivers a fresh status snapshot after each burst of filesystem
// activity under the repository root.
type Watcher struct {
	repo       *repo.Repository
	watcher    *fsnotify.Watcher
	ignoreDirs map[string]bool
	events     chan []repo.StatusEntry
	done       chan struct{}
	logger     *zap.Logger
}

func New(r *repo.Repository, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		repo:    r,
		watcher: fsw,
		ignoreDirs: map[string]bool{
			".git":         true,
			"node_modules": true,
			"vendor":       true,
			"dist":         true,
			"build":        true,
		},
		events: make(chan []repo.StatusEntry, 1),
		done:   make(chan struct{}),
		logger: logger,
	}, nil
}

// Start registers the repository tree with the filesystem watcher and begins
// delivering snapshots on Events.
func (w *Watcher) Start() error {
	root := w.repo.Root()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Events delivers one status snapshot per settled burst of changes.
func (w *Watcher) Events() <-chan []repo.StatusEntry {
	return w.events
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(ev.Name) {
				continue
			}
			// New directories need their own watch.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(ev.Name); err != nil {
						w.logger.Warn("watching new directory",
							zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			entries, err := w.repo.Status()
			if err != nil {
				w.logger.Warn("reading status after change", zap.Error(err))
				continue
			}
			select {
			case w.events <- entries:
			case <-w.done:
				return
			default:
				// Receiver is behind; drop this snapshot, the next burst
				// delivers a fresh one.
			}
		}
	}
}

func (w *Watcher) ignored(path string) bool {
	rel := w.repo.ResolveLocalPath(path)
	for _, part := range strings.Split(rel, "/") {
		if w.ignoreDirs[part] {
			return true
		}
	}
	return false
}
