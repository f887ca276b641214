package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/park285/cheese-viewer/internal/domain"
)

// File reads the game document from local disk, where the producing engine
// writes it.
type File struct {
	path string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewFile(path string) *File {
	return &File{path: path, changes: make(chan struct{}, 1)}
}

func (f *File) Name() string { return f.path }

func (f *File) Fetch(ctx context.Context) (domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr("read %s: %v", f.path, err)
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fetchErr("read %s: %v", f.path, err)
	}
	return decode(raw)
}

// Changes fires (coalesced) when the watched file is written, created or
// renamed into place. It never fires unless Watch succeeded.
func (f *File) Changes() <-chan struct{} { return f.changes }

// Watch starts an fsnotify watcher on the file's directory. Producers often
// replace the file by rename, so the directory is watched and events are
// filtered by name.
func (f *File) Watch(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}
	f.watcher = w
	f.done = make(chan struct{})
	f.wg.Add(1)
	go f.run(w, filepath.Clean(f.path), logger)
	return nil
}

func (f *File) run(w *fsnotify.Watcher, target string, logger *zap.Logger) {
	defer f.wg.Done()
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case f.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("file watch error", zap.String("path", target), zap.Error(err))
		}
	}
}

func (f *File) Close() error {
	f.mu.Lock()
	w := f.watcher
	f.watcher = nil
	f.mu.Unlock()
	if w == nil {
		return nil
	}
	close(f.done)
	err := w.Close()
	f.wg.Wait()
	return err
}
