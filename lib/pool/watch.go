package pool

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/go-i2p/connpool/lib/errors"
)

// reloadDebounce coalesces the event bursts editors and config
// management tools produce for a single save. Reconfigure force-closes
// the pool's connections, so one save must mean one reload.
const reloadDebounce = 100 * time.Millisecond

// ConfigWatcher reloads a pool's configuration when its config file
// changes on disk.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	pool    *Pool

	mu       sync.Mutex
	debounce *time.Timer
	closed   bool

	done chan struct{}
}

// WatchConfig watches the TOML config file at path and applies it to
// the pool whenever it changes. Files are often replaced rather than
// written in place, so the watch covers the file's directory and
// filters events by name.
//
// A change that fails to load or validate is logged and skipped; the
// pool keeps its current configuration.
func WatchConfig(path string, p *Pool) (*ConfigWatcher, error) {
	if path == "" {
		return nil, apperrors.ErrWatchPathEmpty
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "create file watcher", err)
	}

	cw := &ConfigWatcher{
		watcher: w,
		path:    filepath.Clean(path),
		pool:    p,
		done:    make(chan struct{}),
	}

	if err := w.Add(filepath.Dir(cw.path)); err != nil {
		w.Close()
		return nil, apperrors.Wrap(apperrors.CodeInternal, "watch config directory", err)
	}

	go cw.loop()

	log.WithField("path", cw.path).Debug("watching config file")
	return cw, nil
}

// loop consumes watcher events until Close.
func (cw *ConfigWatcher) loop() {
	defer close(cw.done)

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cw.scheduleReload()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("config watcher error")
		}
	}
}

// scheduleReload arms the debounce timer, restarting it if another
// event arrives before it fires.
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.closed {
		return
	}
	if cw.debounce == nil {
		cw.debounce = time.AfterFunc(reloadDebounce, cw.reload)
		return
	}
	cw.debounce.Reset(reloadDebounce)
}

// reload reads the config file and applies it to the pool.
func (cw *ConfigWatcher) reload() {
	cw.mu.Lock()
	if cw.closed {
		cw.mu.Unlock()
		return
	}
	cw.mu.Unlock()

	cfg, err := LoadConfig(cw.path)
	if err != nil {
		log.WithError(err).WithField("path", cw.path).Warn("config file changed but could not be loaded, keeping current configuration")
		return
	}
	if err := cw.pool.Reconfigure(*cfg); err != nil {
		log.WithError(err).Warn("config file changed but could not be applied, keeping current configuration")
		return
	}
	log.WithField("path", cw.path).Info("configuration reloaded from file")
}

// Close stops watching the config file. A second Close returns
// ErrWatcherClosed.
func (cw *ConfigWatcher) Close() error {
	cw.mu.Lock()
	if cw.closed {
		cw.mu.Unlock()
		return apperrors.ErrWatcherClosed
	}
	cw.closed = true
	if cw.debounce != nil {
		cw.debounce.Stop()
	}
	cw.mu.Unlock()

	err := cw.watcher.Close()
	<-cw.done
	return err
}
