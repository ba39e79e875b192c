package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogplugins/internal/logfields"
)

// ContentWatcher monitors a content tree and reports bursts of changes once
// they have been quiet for the debounce window.
type ContentWatcher struct {
	root     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewContentWatcher watches root and every directory below it.
func NewContentWatcher(root string, debounce time.Duration, onChange func(), logger *slog.Logger) (*ContentWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve content path: %w", err)
	}

	cw := &ContentWatcher{
		root:     absRoot,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		watcher:  watcher,
	}
	if err := cw.addTree(absRoot); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return cw, nil
}

// addTree registers dir and its subdirectories; fsnotify is not recursive.
func (cw *ContentWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != cw.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := cw.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (cw *ContentWatcher) Run(ctx context.Context) {
	defer func() {
		if err := cw.watcher.Close(); err != nil {
			cw.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	cw.logger.Info("Watching content", logfields.Path(cw.root))
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := cw.addTree(event.Name); err != nil {
						cw.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			cw.logger.Debug("Content change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(cw.debounce)
			} else {
				timer.Reset(cw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cw.onChange()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Content watcher error", logfields.Error(err))
		}
	}
}

// relevant drops attribute-only changes, hidden files and editor swap files.
func (cw *ContentWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}
	return true
}
