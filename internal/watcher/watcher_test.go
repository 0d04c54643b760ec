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

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) onIndex(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) count(suffix string) int {
	n := 0
	for _, p := range r.snapshot() {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startWatcher(t *testing.T, roots []string, exts []string, rec *recorder) *Watcher {
	t.Helper()
	w := NewWatcher(roots, exts, true, rec.onIndex, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, []string{".txt"}, rec)

	fPath := filepath.Join(dir, "note.txt")
	for i := 0; i < 5; i++ {
		if err := writeFile(fPath, strings.Repeat("x", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(dir, "skip.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rec.count("note.txt") >= 1 })
	time.Sleep(150 * time.Millisecond)
	if n := rec.count("note.txt"); n != 1 {
		t.Errorf("burst of writes should be ingested once, got %d", n)
	}
	if rec.count("skip.xyz") != 0 {
		t.Error("skip.xyz should not be ingested")
	}
}

func TestWatcher_RemoveCancelsPendingIngest(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.onIndex, WithDebounce(300*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(dir, "gone.txt")
	if err := writeFile(fPath, "short lived"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(fPath); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)
	if n := rec.count("gone.txt"); n != 0 {
		t.Errorf("removed file was ingested %d times", n)
	}
}

func TestExtFilter(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{"txt"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
	}
	for _, tt := range tests {
		got := newExtFilter(tt.extensions).match(tt.path)
		if got != tt.want {
			t.Errorf("match(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := within(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{filepath.Join(dir, "a.txt"), filepath.Join(sub, "b.txt"), filepath.Join(dir, "ignore.xyz")} {
		if err := writeFile(p, "hello"); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("recursive", func(t *testing.T) {
		rec := &recorder{}
		NewWatcher([]string{dir}, []string{".txt"}, true, rec.onIndex).SyncExistingFiles()
		if got := rec.snapshot(); len(got) != 2 {
			t.Errorf("got %v, want a.txt and sub/b.txt", got)
		}
	})
	t.Run("top level only", func(t *testing.T) {
		rec := &recorder{}
		NewWatcher([]string{dir}, []string{".txt"}, false, rec.onIndex).SyncExistingFiles()
		if got := rec.snapshot(); len(got) != 1 || !strings.HasSuffix(got[0], "a.txt") {
			t.Errorf("got %v, want only a.txt", got)
		}
	})
}

func TestWatcher_RunIngestsExistingAndStops(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "early.txt"), "already here"); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.onIndex, WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return rec.count("early.txt") == 1 })
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "me")
	rec := &recorder{}
	w := startWatcher(t, []string{root}, []string{".txt"}, rec)
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, []string{".txt", ".md"}, rec)

	nested := filepath.Join(dir, "level1", "level2")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.txt"), "deep content"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rec.count("deep.txt") >= 1 })
	if rec.count("ignore.xyz") != 0 {
		t.Error("ignore.xyz should not be ingested")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

func TestDebouncer_CoalescesAndCancels(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	var mu sync.Mutex
	calls := map[string]int{}
	fn := func(path string) {
		mu.Lock()
		calls[path]++
		mu.Unlock()
	}
	for i := 0; i < 5; i++ {
		d.schedule("a.txt", fn)
	}
	d.schedule("b.txt", fn)
	d.cancel("b.txt")
	if n := d.pending(); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls["a.txt"] != 1 {
		t.Errorf("a.txt called %d times, want 1", calls["a.txt"])
	}
	if calls["b.txt"] != 0 {
		t.Errorf("cancelled b.txt called %d times", calls["b.txt"])
	}
}

func TestWatcher_RestartAfterStopFails(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, false, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error restarting a stopped watcher")
	}
}
