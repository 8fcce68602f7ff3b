package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the configuration when the config file changes, so persona
// templates and keyword lists can be edited without restarting the session.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  zerolog.Logger
	done    chan struct{}
}

// Watch observes the resolved config file and invokes onReload with the
// freshly loaded configuration after each write. Returns nil and no watcher
// when no config file is in use.
func Watch(logger zerolog.Logger, onReload func(*Config)) (*Watcher, error) {
	path := Path()
	if path == "" {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch placed on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		logger:  logger.With().Str("component", "config-watch").Logger(),
		done:    make(chan struct{}),
	}

	go w.run(path, onReload)
	return w, nil
}

func (w *Watcher) run(path string, onReload func(*Config)) {
	var lastReload time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Editors fire bursts of writes per save.
			if time.Since(lastReload) < 200*time.Millisecond {
				continue
			}
			lastReload = time.Now()

			cfg, err := Load()
			if err != nil {
				w.logger.Warn().Err(err).Msg("Config reload failed, keeping previous")
				continue
			}
			w.logger.Info().Str("path", path).Msg("Config reloaded")
			onReload(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")

		case <-w.done:
			return
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
