package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/prismengine/prism/engine/core"
)

// Watcher observes a configuration file and republishes it to subscribers
// whenever it changes on disk. Subscribers receive the freshly decoded
// config; applying it (e.g. flipping vsync) is the subscriber's business.
type Watcher struct {
	path     string
	fsnotify *fsnotify.Watcher

	mutex       sync.Mutex
	subscribers []chan *AppConfig

	done     chan struct{}
	isClosed bool
}

func NewWatcher(path string) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}

	// Watch the directory, not the file: editors replace files on save.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	go w.start()

	return w, nil
}

// Subscribe returns a channel delivering each successfully reloaded config.
func (w *Watcher) Subscribe() <-chan *AppConfig {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	ch := make(chan *AppConfig, 1)
	w.subscribers = append(w.subscribers, ch)
	return ch
}

func (w *Watcher) start() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("config reload skipped: %s", err.Error())
				continue
			}
			w.publish(cfg)
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher error: %s", err.Error())
		}
	}
}

func (w *Watcher) publish(cfg *AppConfig) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.isClosed {
		return
	}
	for _, ch := range w.subscribers {
		select {
		case ch <- cfg:
		default:
			// Subscriber has not drained the previous update yet.
		}
	}
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.isClosed {
		return nil
	}
	w.isClosed = true
	close(w.done)
	for _, ch := range w.subscribers {
		close(ch)
	}
	w.subscribers = nil
	return w.fsnotify.Close()
}
