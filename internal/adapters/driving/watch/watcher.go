// Package watch ingests documents automatically as files appear in a
// watched directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docq/internal/core/ports/driving"
	"github.com/custodia-labs/docq/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is
// ingested. Editors and downloads produce bursts of write events.
const DefaultDebounce = 500 * time.Millisecond

// Event reports one completed ingestion attempt from the watcher.
type Event struct {
	// Path is the file that triggered the ingestion.
	Path string

	// Result is set when ingestion succeeded.
	Result *driving.IngestResult

	// Err is set when ingestion failed.
	Err error
}

// Watcher ingests supported files as they are created or modified in a
// directory.
type Watcher struct {
	ingestor   driving.IngestionService
	extensions map[string]bool
	debounce   time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher that ingests files with the given extensions
// (without the leading dot).
func New(ingestor driving.IngestionService, extensions []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Watcher{
		ingestor:   ingestor,
		extensions: exts,
		debounce:   debounce,
		timers:     make(map[string]*time.Timer),
	}
}

// Run watches dir until ctx is cancelled. Each completed ingestion attempt
// is reported on events. The events channel is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, dir string, events chan<- Event) error {
	defer close(events)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching %s: not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ready := make(chan string)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.wants(event) {
				logger.Debug("File event: %s %s", event.Op, event.Name)
				w.schedule(ctx, event.Name, ready)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case path := <-ready:
			events <- w.ingest(ctx, path)
		}
	}
}

// wants reports whether an event should trigger an ingestion.
func (w *Watcher) wants(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return w.extensions[ext]
}

// schedule arms (or re-arms) the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

// ingest reads the settled file and hands it to the ingestion service.
func (w *Watcher) ingest(ctx context.Context, path string) Event {
	content, err := os.ReadFile(path)
	if err != nil {
		return Event{Path: path, Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	result, err := w.ingestor.Ingest(ctx, content, path)
	if err != nil {
		return Event{Path: path, Err: err}
	}
	return Event{Path: path, Result: result}
}
