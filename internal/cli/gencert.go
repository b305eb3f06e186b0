package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/PratikDhanave/water-history-service/internal/certgen"
	"github.com/PratikDhanave/water-history-service/internal/config"
	"github.com/PratikDhanave/water-history-service/internal/logging"
)

func gencertCommand() *cli.Command {
	var (
		certsDir string
		envFile  string
		deviceIP string
	)

	return &cli.Command{
		Name:  "gencert",
		Usage: "Generate a dev CA and server certificate for local TLS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "certs-dir",
				Usage:       "Output directory for PEM files",
				Value:       "certs",
				Sources:     cli.EnvVars("WATER_CERTS_DIR"),
				Destination: &certsDir,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "Settings file holding DEVICE_IP",
				Value:       ".env",
				Sources:     cli.EnvVars("WATER_ENV_FILE"),
				Destination: &envFile,
			},
			&cli.StringFlag{
				Name:        "device-ip",
				Usage:       "Extra SAN address (overrides DEVICE_IP from the settings file)",
				Sources:     cli.EnvVars("DEVICE_IP"),
				Destination: &deviceIP,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if deviceIP == "" {
				deviceIP = config.EnvFileValue(envFile, "DEVICE_IP")
			}

			opts := certgen.Options{Dir: certsDir}
			if deviceIP != "" {
				opts.IPs = []string{deviceIP}
			}
			if err := certgen.Generate(opts); err != nil {
				return err
			}

			logging.From(ctx).Info("generated certificates", "dir", certsDir, "device_ip", deviceIP)
			return nil
		},
	}
}
