package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// reloadDelay batches the several write events editors emit for one save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads path whenever it changes and passes the new configuration to
// apply. Files that fail to load are logged and skipped. Watch returns once
// the watcher is set up; it stops when ctx is cancelled.
func Watch(ctx context.Context, path string, l *log.Logger, apply func(Config)) error {
	if l == nil {
		l = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	// The directory is watched so that atomic replace-on-save keeps working.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if name, _ := filepath.Abs(event.Name); name != abs {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					cfg, err := Load(abs)
					if err != nil {
						l.Warn("config reload failed", "path", abs, "err", err)
						return
					}
					l.Info("config reloaded", "path", abs)
					apply(cfg)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.Warn("config watcher error", "err", err)
			}
		}
	}()
	return nil
}
