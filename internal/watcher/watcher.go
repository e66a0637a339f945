// Package watcher turns filesystem events under the drop directory into
// ingestion pipeline runs.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/ingest"
)

// debounceDelay coalesces the burst of events one file save produces.
const debounceDelay = 500 * time.Millisecond

// Watcher watches the drop directory and feeds added or changed files to the
// pipeline. A periodic Sweep covers events fsnotify misses on some mounts.
type Watcher struct {
	dir      string
	pipeline *ingest.Pipeline
	logger   *logrus.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]time.Time // last processed mtime per path
}

// New creates a new directory watcher
func New(dir string, pipeline *ingest.Pipeline, logger *logrus.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		pipeline: pipeline,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
		seen:     make(map[string]time.Time),
	}
}

// Run watches until the context is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	// Baseline existing files so startup and sweeps only pick up changes
	w.baseline()

	w.logger.WithField("dir", w.dir).Info("Watching drop directory")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

// baseline records current mtimes without processing, so pre-existing files
// are not re-sent on every restart.
func (w *Watcher) baseline() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.WithError(err).Warn("Failed to baseline drop directory")
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		w.seen[filepath.Join(w.dir, entry.Name())] = info.ModTime()
	}
}

// schedule debounces repeated events for the same path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(path)
	})
}

func (w *Watcher) process(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	w.seen[path] = info.ModTime()
	w.mu.Unlock()

	if err := w.pipeline.ProcessFile(context.Background(), path); err != nil {
		w.logger.WithError(err).WithField("file", path).Error("Failed to process drop file")
	}
}

// Sweep re-scans the directory and processes files whose modification time
// moved past the last processed one. Run on a schedule as a safety net.
func (w *Watcher) Sweep() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.WithError(err).Warn("Failed to sweep drop directory")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())

		w.mu.Lock()
		last, known := w.seen[path]
		w.mu.Unlock()

		if known && !info.ModTime().After(last) {
			continue
		}
		w.logger.WithField("file", path).Debug("Sweep picked up changed file")
		w.process(path)
	}
}
