package configwatcher

import (
	"path/filepath"
	"time"

	"closer_club_backend/internal/config"
	"closer_club_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg interface{})

// WatchConfig reloads the config file on change and hands the result to
// reloader. The parent directory is watched rather than the file itself so
// that editors which replace the file via rename keep triggering events.
// Reloads are debounced to one per second.
func WatchConfig(configPath string, reloader ConfigReloader) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("Config watcher disabled, bad path", zap.String("path", configPath), zap.Error(err))
		return
	}
	dir := filepath.Dir(absPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("Config watcher disabled", zap.Error(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		logger.Log.Error("Config watcher disabled", zap.String("dir", dir), zap.Error(err))
		return
	}

	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(time.Second)

		case <-debounce.C:
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				logger.Log.Error("Config reload failed, keeping previous config", zap.Error(err))
				continue
			}
			logger.Log.Info("Config reloaded", zap.String("path", absPath))
			reloader(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
