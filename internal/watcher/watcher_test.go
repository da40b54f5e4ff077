package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.eventType.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	if _, err := New(Config{Ignore: []string{"[unclosed"}}, nil, nil); err == nil {
		t.Fatal("New() error = nil, want invalid pattern error")
	}
}

func TestWatcherIsIgnored(t *testing.T) {
	w, err := New(Config{Ignore: []string{"**/node_modules/**", "**/*.orivus-new", "**/_drafts/**"}}, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	tests := []struct {
		path string
		want bool
	}{
		{"/p/specs/user.spec.json", false},
		{"/p/specs/node_modules/x/user.spec.json", true},
		{"/p/src/domain/user/user.service.ts.orivus-new", true},
		{"/p/specs/_drafts/wip.spec.json", true},
		{"/p/specs/.user.spec.json.swp", true},
		{"/p/specs/post.spec.yaml", false},
	}
	for _, tt := range tests {
		if got := w.IsIgnored(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBatchDebouncerCoalesces(t *testing.T) {
	var mu sync.Mutex
	var batches [][]Event
	b := NewBatchDebouncer(20*time.Millisecond, func(events []Event) {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "b.json"})
	b.Add(Event{Type: EventCreate, Path: "a.json"})
	b.Add(Event{Type: EventModify, Path: "b.json"})
	if got := b.EventCount(); got != 2 {
		t.Errorf("EventCount() = %d, want 2", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(batches)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	got := batches[0]
	if len(got) != 2 || got[0].Path != "a.json" || got[1].Path != "b.json" {
		t.Fatalf("batch = %+v, want a.json then b.json", got)
	}
	if got[1].Type != EventModify {
		t.Errorf("b.json type = %v, want modify", got[1].Type)
	}
}

func TestBatchDebouncerCancel(t *testing.T) {
	called := false
	b := NewBatchDebouncer(10*time.Millisecond, func([]Event) { called = true })
	b.Add(Event{Path: "a.json"})
	b.Cancel()
	time.Sleep(40 * time.Millisecond)
	if called {
		t.Error("emit called after Cancel")
	}
	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d after Cancel, want 0", b.EventCount())
	}
}

func TestBatchDebouncerFlush(t *testing.T) {
	var got []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) { got = events })
	b.Add(Event{Path: "a.json"})
	b.Flush()
	if len(got) != 1 || got[0].Path != "a.json" {
		t.Fatalf("Flush emitted %+v, want a.json", got)
	}

	got = nil
	b.Flush()
	if got != nil {
		t.Errorf("Flush with no events emitted %+v", got)
	}
}

func TestWatcherReportsMatchingFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "blog"), 0o755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []Event, 4)
	w, err := New(Config{
		Debounce: 50 * time.Millisecond,
		Match:    func(p string) bool { return strings.HasSuffix(p, ".spec.json") },
	}, nil, func(events []Event) { batches <- events })
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()
	if err := w.AddRoot(root); err != nil {
		t.Fatalf("AddRoot() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	want := filepath.Join(root, "blog", "user.spec.json")
	if err := os.WriteFile(filepath.Join(root, "blog", "notes.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case events := <-batches:
		for _, e := range events {
			if e.Path != want {
				t.Errorf("unexpected event for %s", e.Path)
			}
		}
		if len(events) == 0 {
			t.Error("empty batch")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no events within 5s")
	}
}

func TestWatcherAddRootMissing(t *testing.T) {
	w, err := New(Config{}, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()
	if err := w.AddRoot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("AddRoot() error = nil for a missing directory")
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w, err := New(Config{}, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
