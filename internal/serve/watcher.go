package serve

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startWatcher logs when the served tree changes on disk, debounced so a
// full re-optimization pass produces one line instead of hundreds. Returns
// a stop function.
func startWatcher(dir string, debounce time.Duration, logger *slog.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		var debounceTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Chmod != 0 {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Reset(debounce)
				} else {
					debounceTimer = time.AfterFunc(debounce, func() {
						logger.Info("site tree changed, refresh the browser")
					})
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	}()

	return func() {
		_ = watcher.Close()
		wg.Wait()
	}, nil
}
