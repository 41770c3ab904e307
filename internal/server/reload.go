package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce is how long the watcher waits after the last change.
const reloadDebounce = 500 * time.Millisecond

// Reloader swaps reason wording when the config file changes. It watches
// the file's directory so that editors which save by rename are seen, and
// so a config created after startup is picked up.
type Reloader struct {
	watcher *fsnotify.Watcher
	server  *Server
	path    string
}

// NewReloader watches path on behalf of s. The directory must exist.
func NewReloader(s *Server, path string) (*Reloader, error) {
	if path == "" {
		return nil, fmt.Errorf("no config path to watch")
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}
	return &Reloader{watcher: watcher, server: s, path: path}, nil
}

// Path returns the config file being watched.
func (r *Reloader) Path() string {
	return r.path
}

func (r *Reloader) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != r.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Run handles file events until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	fire := make(chan struct{}, 1)
	timer := time.AfterFunc(time.Hour, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if r.relevant(ev) {
				timer.Reset(reloadDebounce)
			}

		case <-fire:
			r.reload()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.server.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) reload() {
	err := r.server.ReloadReasons()
	r.server.cfg.Metrics.ObserveReload(err)
	if err != nil {
		r.server.log.Error("hot-reload failed", zap.String("file", r.path), zap.Error(err))
		return
	}
	r.server.log.Info("hot-reload: reasons reloaded",
		zap.String("file", r.path),
		zap.String("config_hash", r.server.ConfigHash()))
}
