// Package monitor watches the data directory for writes made by other
// processes. The store offers no cross-process coordination (last write
// wins), so the watcher surfaces the race in the logs instead of hiding
// it.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher logs external modifications to project documents.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	// suppress reports whether a path change originated from this
	// process and should not be logged.
	suppress func(path string) bool
}

// NewWatcher starts watching dir. suppress may be nil to log everything.
func NewWatcher(dir string, suppress func(path string) bool, logger *zap.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{watcher: fw, logger: logger, suppress: suppress}, nil
}

// Run consumes watch events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("data directory watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
		return
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ".json") {
		return
	}
	if w.suppress != nil && w.suppress(ev.Name) {
		return
	}
	w.logger.Warn("project document changed outside this process; concurrent writers race, last write wins",
		zap.String("file", name),
		zap.String("op", ev.Op.String()))
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
