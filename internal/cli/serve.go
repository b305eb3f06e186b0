package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/PratikDhanave/water-history-service/internal/auth"
	"github.com/PratikDhanave/water-history-service/internal/config"
	"github.com/PratikDhanave/water-history-service/internal/history"
	"github.com/PratikDhanave/water-history-service/internal/httpserver"
	"github.com/PratikDhanave/water-history-service/internal/logging"
	"github.com/PratikDhanave/water-history-service/internal/store"
)

func serveCommand() *cli.Command {
	var cfg config.Config

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the history sync server",
		Flags: configFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return goerr.Wrap(err, "failed to create data dir", goerr.V("dir", cfg.DataDir))
			}
			if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
				return goerr.Wrap(err, "failed to create export dir", goerr.V("dir", cfg.ExportDir))
			}

			logger := logging.Default()
			cfg.APIKey = cfg.ResolveAPIKey()
			if cfg.RequireAPIKey && cfg.APIKey == "" {
				logger.Warn("API key enforcement is on but no key is configured; all requests will be rejected")
			}

			historyLog := store.NewHistoryLog(filepath.Join(cfg.DataDir, "history.csv"))
			devices := store.NewDeviceStore(filepath.Join(cfg.DataDir, "devices.json"))
			snapshots := store.NewSnapshotStore(cfg.ExportDir)

			svc := history.NewService(historyLog, snapshots, cfg.MaxHistoryEntries, cfg.MaxEntryAmountML)
			guard := auth.NewGuard(cfg.RequireAPIKey, cfg.APIKey)

			// Rotating API_KEY in the settings file takes effect without a
			// restart; resolution still prefers WATER_API_KEY from the env.
			if _, err := os.Stat(cfg.EnvFile); err == nil {
				watchCtx := logging.With(ctx, logger)
				go func() {
					if err := cfg.WatchAPIKey(watchCtx, guard.SetKey); err != nil {
						logger.Error("settings file watch failed", "error", err)
					}
				}()
			}

			router := httpserver.NewRouter(guard, svc, devices, logger)

			logger.Info("server started",
				"addr", cfg.Addr,
				"data_dir", cfg.DataDir,
				"export_dir", cfg.ExportDir,
				"require_api_key", cfg.RequireAPIKey,
			)
			if err := router.Run(cfg.Addr); err != nil {
				return goerr.Wrap(err, "server stopped", goerr.V("addr", cfg.Addr))
			}
			return nil
		},
	}
}
