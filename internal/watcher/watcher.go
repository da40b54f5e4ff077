// Package watcher reports changes to spec files so generation can re-run.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"orivus/internal/slogutil"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ChangeHandler receives one debounced batch of events.
type ChangeHandler func(events []Event)

// Config tunes a Watcher.
type Config struct {
	// Debounce is the quiet period before a batch is emitted.
	Debounce time.Duration
	// Ignore holds doublestar patterns matched against slash paths.
	Ignore []string
	// Match selects the files whose events are reported; nil reports all.
	Match func(path string) bool
}

// Watcher watches directory trees and reports debounced file events.
type Watcher struct {
	config    Config
	fs        *fsnotify.Watcher
	fsMu      sync.Mutex
	debouncer *BatchDebouncer
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a watcher that calls handler with each batch of events.
func New(config Config, logger *slog.Logger, handler ChangeHandler) (*Watcher, error) {
	for _, p := range config.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if config.Debounce <= 0 {
		config.Debounce = 300 * time.Millisecond
	}
	w := &Watcher{
		config: config,
		fs:     fsw,
		logger: slogutil.OrDiscard(logger).With(slogutil.ComponentKey, "watcher"),
	}
	w.debouncer = NewBatchDebouncer(config.Debounce, func(events []Event) {
		w.logger.Debug("changes detected", "count", len(events))
		if handler != nil {
			handler(events)
		}
	})
	return w, nil
}

// AddRoot watches root and every directory below it that is not ignored.
func (w *Watcher) AddRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	if err := w.add(root); err != nil {
		return err
	}
	w.logger.Info("watching", "path", root)
	return nil
}

func (w *Watcher) add(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.IsIgnored(path) {
			return filepath.SkipDir
		}
		w.fsMu.Lock()
		err = w.fs.Add(path)
		w.fsMu.Unlock()
		if err != nil {
			w.logger.Debug("failed to watch directory", "path", path, "error", err.Error())
		}
		return nil
	})
}

// Start begins delivering events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.IsIgnored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.add(ev.Name); err != nil {
				w.logger.Debug("failed to watch new directory", "path", ev.Name, "error", err.Error())
			}
			return
		}
	}
	if w.config.Match != nil && !w.config.Match(ev.Name) {
		return
	}

	var t EventType
	switch {
	case ev.Has(fsnotify.Create):
		t = EventCreate
	case ev.Has(fsnotify.Write):
		t = EventModify
	case ev.Has(fsnotify.Remove):
		t = EventDelete
	case ev.Has(fsnotify.Rename):
		t = EventRename
	default:
		return
	}
	w.logger.Debug("file event", "path", ev.Name, "op", t.String())
	w.debouncer.Add(Event{Type: t, Path: ev.Name, Timestamp: time.Now()})
}

// IsIgnored reports whether path is hidden or matches an ignore pattern.
func (w *Watcher) IsIgnored(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	slash := filepath.ToSlash(path)
	for _, pattern := range w.config.Ignore {
		if ok, _ := doublestar.Match(pattern, slash); ok {
			return true
		}
	}
	return false
}

// Stop stops delivery, drops pending events and releases the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	if running {
		w.cancel()
	}
	w.mu.Unlock()

	if running {
		<-w.done
	}
	w.debouncer.Cancel()

	w.fsMu.Lock()
	defer w.fsMu.Unlock()
	return w.fs.Close()
}
