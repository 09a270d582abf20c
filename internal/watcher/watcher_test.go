package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, events <-chan Event, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestWatch_EmitsSettledPDF(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := New(50*time.Millisecond, nil).Watch(ctx, dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	path := filepath.Join(dir, "new.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}

	ev, ok := waitForEvent(t, events, 2*time.Second)
	if !ok {
		t.Fatal("expected an event for new.pdf")
	}
	if ev.Path != path {
		t.Errorf("expected path %q, got %q", path, ev.Path)
	}
}

func TestWatch_IgnoresNonPDF(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := New(50*time.Millisecond, nil).Watch(ctx, dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if ev, ok := waitForEvent(t, events, 300*time.Millisecond); ok {
		t.Fatalf("unexpected event for non-PDF: %+v", ev)
	}
}

func TestWatch_DebouncesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := New(100*time.Millisecond, nil).Watch(ctx, dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	path := filepath.Join(dir, "burst.pdf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.Write([]byte("chunk")); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	f.Close()

	if _, ok := waitForEvent(t, events, 2*time.Second); !ok {
		t.Fatal("expected one event after the burst settles")
	}
	if ev, ok := waitForEvent(t, events, 300*time.Millisecond); ok {
		t.Fatalf("burst must collapse into a single event, got extra %+v", ev)
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := New(50*time.Millisecond, nil).Watch(ctx, dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected a closed channel, got an event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := New(0, nil).Watch(ctx, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
