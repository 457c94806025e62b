// Package watch reports changed descriptor files under a deployment root.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/descriptor"
)

// Watcher watches root/domains and root/apps and sends batches of changed
// descriptor files once events settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    *zap.Logger
	root      string
	debounce  time.Duration
	changes   chan []string
	done      chan struct{}
	stop      sync.Once
}

// Config holds watcher options.
type Config struct {
	Logger      *zap.Logger
	Root        string
	DebounceDur time.Duration
}

// DefaultConfig returns the defaults for root.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		DebounceDur: 500 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Watcher{
		fsWatcher: fsw,
		logger:    cfg.Logger,
		root:      cfg.Root,
		debounce:  cfg.DebounceDur,
		changes:   make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the descriptor directories. The returned channel receives
// the sorted set of descriptor files touched since the last batch.
// A missing descriptor directory is skipped; Start fails only when neither
// exists.
func (w *Watcher) Start() (<-chan []string, error) {
	watched := 0
	for _, sub := range []string{descriptor.DomainsDir, descriptor.AppsDir} {
		dir := filepath.Join(w.root, sub)
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("descriptor directory missing, not watched", zap.String("dir", dir))
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return nil, fmt.Errorf("no descriptor directories under %s", w.root)
	}
	go w.loop()
	return w.changes, nil
}

// Stop terminates the watcher. Calls after the first do nothing.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]struct{})
	)
	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !Relevant(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC():
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for name := range pending {
				batch = append(batch, name)
			}
			sort.Strings(batch)
			select {
			case w.changes <- batch:
				pending = make(map[string]struct{})
			case <-w.done:
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Relevant reports whether event touches a descriptor file.
func Relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return descriptor.IsDescriptorFile(event.Name)
}
