package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/PratikDhanave/water-history-service/internal/config"
	"github.com/PratikDhanave/water-history-service/internal/logging"
)

// Run executes the water-history command tree and returns a process exit
// code. The log level comes from WATER_LOG_LEVEL (default "info").
func Run(ctx context.Context, argv []string) int {
	logging.SetDefault(logging.New(os.Getenv("WATER_LOG_LEVEL"), os.Stdout))

	cmd := &cli.Command{
		Name:  "water-history",
		Usage: "Self-hosted sync server for the water reminder app",
		Commands: []*cli.Command{
			serveCommand(),
			gencertCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return 1
	}
	return 0
}

// configFlags returns the flags shared by commands that read the runtime
// configuration, each with its environment source.
func configFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("WATER_ADDR"),
			Destination: &cfg.Addr,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for the history log and device list",
			Value:       "data",
			Sources:     cli.EnvVars("WATER_DATA_DIR"),
			Destination: &cfg.DataDir,
		},
		&cli.StringFlag{
			Name:        "export-dir",
			Usage:       "Directory for per-ingestion snapshot exports",
			Value:       defaultExportDir(),
			Sources:     cli.EnvVars("WATER_EXPORT_DIR"),
			Destination: &cfg.ExportDir,
		},
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "Settings file holding API_KEY and DEVICE_IP",
			Value:       ".env",
			Sources:     cli.EnvVars("WATER_ENV_FILE"),
			Destination: &cfg.EnvFile,
		},
		&cli.IntFlag{
			Name:        "max-history-entries",
			Usage:       "Maximum entries per history batch",
			Value:       config.DefaultMaxHistoryEntries,
			Sources:     cli.EnvVars("MAX_HISTORY_ENTRIES"),
			Destination: &cfg.MaxHistoryEntries,
		},
		&cli.IntFlag{
			Name:        "max-entry-amount-ml",
			Usage:       "Maximum amountMl per entry",
			Value:       config.DefaultMaxEntryAmountML,
			Sources:     cli.EnvVars("MAX_ENTRY_AMOUNT_ML"),
			Destination: &cfg.MaxEntryAmountML,
		},
		&cli.BoolFlag{
			Name:        "require-api-key",
			Usage:       "Reject requests without a valid X-API-Key",
			Value:       true,
			Sources:     cli.EnvVars("REQUIRE_API_KEY"),
			Destination: &cfg.RequireAPIKey,
		},
	}
}

func defaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "exports"
	}
	return filepath.Join(home, "Downloads")
}
