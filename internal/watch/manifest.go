// Package watch reloads the topic manifest when its file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/topics"
)

// ApplyFunc installs a freshly loaded manifest.
type ApplyFunc func(ctx context.Context, m *topics.Manifest) error

// ManifestWatcher loads the manifest at path and hands it to apply, either
// on demand through Reload or on file changes through Run.
type ManifestWatcher struct {
	path     string
	debounce time.Duration
	apply    ApplyFunc
	rec      metrics.Recorder
	log      *slog.Logger

	// mu orders load and apply so an older file never lands last.
	mu sync.Mutex

	// ready is closed once Run watches the directory.
	ready chan struct{}
}

func NewManifestWatcher(path string, debounce time.Duration, apply ApplyFunc, rec metrics.Recorder, log *slog.Logger) (*ManifestWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ManifestWatcher{
		path:     abs,
		debounce: debounce,
		apply:    apply,
		rec:      rec,
		log:      log,
		ready:    make(chan struct{}),
	}, nil
}

// Reload loads the manifest and applies it. A manifest that fails to load
// leaves the running one in place.
func (w *ManifestWatcher) Reload(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	m, err := topics.LoadManifest(w.path)
	if err == nil {
		err = w.apply(ctx, m)
	}
	w.rec.IncManifestReload(err == nil)
	if err != nil {
		w.log.Error("manifest reload failed", logfields.Path(w.path), logfields.Error(err))
		return err
	}
	w.log.Info("manifest reloaded", logfields.Path(w.path),
		logfields.DurationMS(time.Since(start).Milliseconds()))
	return nil
}

// Run watches the manifest's directory until ctx is cancelled. Editors often
// replace files instead of writing them, so the directory is watched rather
// than the file and bursts of events are collapsed into one reload.
func (w *ManifestWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	dir, file := filepath.Split(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	close(w.ready)
	w.log.Info("watching manifest", logfields.Path(w.path))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				w.log.Debug("manifest change detected", logfields.Path(ev.Name), "op", ev.Op.String())
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			case ev.Has(fsnotify.Remove):
				w.log.Warn("manifest removed, keeping current topics", logfields.Path(ev.Name))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("manifest watcher error", logfields.Error(err))

		case <-fire:
			fire = nil
			_ = w.Reload(ctx)
		}
	}
}
