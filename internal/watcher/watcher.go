// Package watcher feeds files dropped into inbox directories to an ingest callback.
// Notes are append-only, so removals are ignored.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

var errStopped = errors.New("watcher: stopped watchers cannot be restarted")

// Watcher watches inbox directories and hands new or rewritten files to onIndex.
type Watcher struct {
	inboxes   []string
	filter    extFilter
	recursive bool
	onIndex   func(path string)
	quiet     *debouncer
	logger    *zap.Logger // optional

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger logs inbox events at debug level.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before it is ingested.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.quiet.delay = d }
}

// NewWatcher creates a watcher over the inbox directories. An empty extension list accepts every file.
func NewWatcher(inboxes []string, extensions []string, recursive bool, onIndex func(path string), opts ...WatcherOption) *Watcher {
	cleaned := make([]string, len(inboxes))
	for i, dir := range inboxes {
		cleaned[i] = filepath.Clean(dir)
	}
	w := &Watcher{
		inboxes:   cleaned,
		filter:    newExtFilter(extensions),
		recursive: recursive,
		onIndex:   onIndex,
		quiet:     newDebouncer(defaultDebounce),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) debug(msg string, fields ...zap.Field) {
	if w.logger != nil {
		w.logger.Debug(msg, fields...)
	}
}

// Start creates missing inboxes, subscribes to them and handles events in the background
// until ctx is cancelled or Stop is called. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	select {
	case <-w.done:
		return errStopped
	default:
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.inboxes {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := w.subscribe(fsw, dir); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.debug("inbox watcher started",
		zap.Strings("inboxes", w.inboxes),
		zap.Bool("recursive", w.recursive),
	)
	go w.loop(ctx, fsw)
	return nil
}

// Run starts the watcher, ingests files already present, and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	w.SyncExistingFiles()
	<-ctx.Done()
	w.Stop()
	return nil
}

// subscribe adds dir, and every directory below it when recursive, to fsw.
func (w *Watcher) subscribe(fsw *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.dispatch(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Warn("inbox watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) dispatch(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !w.inInbox(ev.Name) {
		return
	}
	w.debug("inbox event", zap.Stringer("op", ev.Op), zap.String("path", ev.Name))

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		// the file is gone; its notes stay
		w.quiet.cancel(ev.Name)
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if w.recursive {
			if err := w.subscribe(fsw, ev.Name); err != nil {
				w.debug("inbox subdirectory not watched", zap.String("path", ev.Name), zap.Error(err))
			}
			w.ingestTree(ev.Name)
		}
		return
	}
	if w.filter.match(ev.Name) {
		w.quiet.schedule(ev.Name, w.ingest)
	}
}

func (w *Watcher) ingest(path string) {
	w.debug("inbox file ready", zap.String("path", path))
	if w.onIndex != nil {
		w.onIndex(path)
	}
}

func (w *Watcher) inInbox(path string) bool {
	path = filepath.Clean(path)
	for _, dir := range w.inboxes {
		if within(dir, path) {
			return true
		}
	}
	return false
}

// ingestTree hands every matching file under dir to onIndex, descending only when recursive.
func (w *Watcher) ingestTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && path != dir && !w.recursive:
			return filepath.SkipDir
		case !d.IsDir() && w.filter.match(path):
			w.ingest(path)
		}
		return nil
	})
}

// Directories returns a copy of the watched inbox directories.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.inboxes...)
}

// SyncExistingFiles ingests the files already present in each inbox.
func (w *Watcher) SyncExistingFiles() {
	for _, dir := range w.inboxes {
		w.ingestTree(dir)
	}
}

// Stop closes the fsnotify watcher. Files still inside their quiet period are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	w.quiet.stopAll()
	_ = fsw.Close()
	w.stopOnce.Do(func() { close(w.done) })
}
