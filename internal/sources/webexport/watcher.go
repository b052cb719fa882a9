package webexport

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/marque-app/marque/internal/logger"
)

const (
	debounceDelay = 500 * time.Millisecond
	importTimeout = 30 * time.Second
)

// Watcher re-imports an export file whenever it changes on disk.
// Editors tend to emit bursts of events on save, so changes are
// debounced before triggering a run.
type Watcher struct {
	importer *Importer
	path     string
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher starts watching path and re-imports on change.
func NewWatcher(imp *Importer, path string, log logger.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, which would
	// drop a watch placed on the file itself.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		if cerr := fsWatcher.Close(); cerr != nil {
			log.Warn("failed to close file watcher", logger.Error(cerr))
		}
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		importer: imp,
		path:     path,
		logger:   log,
		watcher:  fsWatcher,
		stopCh:   make(chan struct{}),
	}

	go w.loop()
	log.Info("watching export file", logger.String("path", path))

	return w, nil
}

// Stop ends the watch loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

func (w *Watcher) loop() {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("failed to close file watcher", logger.Error(err))
		}
	}()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		var fired <-chan time.Time
		if debounce != nil {
			fired = debounce.C
		}

		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				debounce.Reset(debounceDelay)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", logger.Error(err))

		case <-fired:
			debounce = nil
			w.runImport()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

func (w *Watcher) runImport() {
	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	n, err := w.importer.ImportFile(ctx, w.path)
	if err != nil {
		w.logger.Error("re-import failed",
			logger.String("path", w.path),
			logger.Error(err))
		return
	}
	w.logger.Info("re-import complete",
		logger.String("path", w.path),
		logger.Int("imported", n))
}
