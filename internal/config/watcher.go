package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"acejump/internal/eventbus"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay coalesces the burst of events editors produce on save
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and
// publishes a ConfigChangedEvent with the new *Config
type Watcher struct {
	bus   eventbus.EventBus
	svc   ConfigService
	path  string
	delay time.Duration

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWatcher creates a watcher for the file the service is bound to
func NewWatcher(bus eventbus.EventBus, svc ConfigService) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	path, err := filepath.Abs(svc.Path())
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return &Watcher{
		bus:   bus,
		svc:   svc,
		path:  path,
		delay: DefaultReloadDelay,
		fsw:   fsw,
		done:  make(chan struct{}),
	}, nil
}

// SetDelay changes the reload debounce delay
func (w *Watcher) SetDelay(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delay = d
}

// Start watches the directory holding the config file. Watching the
// directory keeps working when editors replace the file by renaming.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.wg.Add(1)
	go w.loop(ctx)
	log.Printf("Config: watching %s", w.path)
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Config: watcher error: %v", err)
			w.bus.Publish(eventbus.ErrorEvent{Message: "config watcher failed", Err: err})
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	cfg, err := w.svc.LoadFromPath(w.path)
	if err != nil {
		log.Printf("Config: reload of %s failed: %v", w.path, err)
		w.bus.Publish(eventbus.ErrorEvent{Message: "config reload failed", Err: err})
		return
	}

	log.Printf("Config: reloaded %s", w.path)
	w.bus.Publish(eventbus.ConfigChangedEvent{Path: w.path, Config: cfg})
}
