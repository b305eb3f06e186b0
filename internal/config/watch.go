package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/PratikDhanave/water-history-service/internal/logging"
)

// WatchAPIKey monitors the settings file and calls onChange with the newly
// resolved API key each time the file is written. It runs until ctx is
// cancelled. The WATER_API_KEY environment variable still takes precedence
// during resolution, so a file edit cannot weaken an env-pinned key.
func (c *Config) WatchAPIKey(ctx context.Context, onChange func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(c.EnvFile); err != nil {
		return err
	}

	logger := logging.From(ctx)
	logger.Info("watching settings file for API key changes", "path", c.EnvFile)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so catch Create as well as Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			logger.Info("settings file changed, refreshing API key", "path", c.EnvFile)
			onChange(c.ResolveAPIKey())

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(c.EnvFile)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("settings file watcher error", "error", err)
		}
	}
}
