package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// IgnoreChecker is used by the watcher to skip paths that a scan would
// never cover.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Watcher provides recursive file system watching with debouncing. New
// subdirectories created under the root are picked up automatically.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	debouncer     *Debouncer
	ignoreChecker IgnoreChecker
	rootDir       string
	logger        *slog.Logger
}

// New creates a recursive watcher on rootDir. Every non-ignored
// subdirectory is registered up front.
func New(rootDir string, ignoreChecker IgnoreChecker, debounceInterval time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		debouncer:     NewDebouncer(debounceInterval),
		ignoreChecker: ignoreChecker,
		rootDir:       rootDir,
		logger:        logger,
	}

	err = filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries that can't be read
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootDir && ignoreChecker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if watchErr := fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// Changes returns the channel that receives debounced change batches.
func (w *Watcher) Changes() <-chan []Change {
	return w.debouncer.Output()
}

// Start listens for file system events until the watcher is closed. Call
// it in a goroutine.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// A freshly created directory needs its own watch; directory events
	// themselves are not forwarded.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if !w.ignoreChecker.ShouldIgnoreDir(path) {
				if err := w.fsWatcher.Add(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if w.ignoreChecker.ShouldIgnore(path) {
		return
	}

	var kind ChangeKind
	switch {
	case event.Has(fsnotify.Create):
		kind = KindCreate
	case event.Has(fsnotify.Write):
		kind = KindModify
	case event.Has(fsnotify.Remove):
		kind = KindRemove
	case event.Has(fsnotify.Rename):
		kind = KindRename
	default:
		return
	}

	w.debouncer.Record(path, kind)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
