// cmd/analytics/main.go
package main

import (
	"os"

	"github.com/andresuchdata/platform-analytics/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// flagKeys maps global flags onto the configuration keys they override.
var flagKeys = map[string]string{
	"today":         "ANALYTICS_TODAY",
	"data-dir":      "DATA_DIR",
	"cache-backend": "CACHE_BACKEND",
	"cache-path":    "METRICS_CACHE_PATH",
	"db-url":        "DATABASE_URL",
	"db-driver":     "DB_DRIVER",
	"min-merchants": "MIN_MERCHANTS",
	"log-level":     "LOG_LEVEL",
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "analytics",
		Usage: "Compute platform merchant and customer analytics from exported files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "today",
				Usage: "Reference date (YYYY-MM-DD) for active-customer windows",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Root directory searched by the default file patterns",
			},
			&cli.StringFlag{
				Name:  "cache-backend",
				Usage: "Snapshot backend: file, redis, postgres or none",
			},
			&cli.StringFlag{
				Name:  "cache-path",
				Usage: "Snapshot file for the file backend",
			},
			&cli.StringFlag{
				Name:  "db-url",
				Usage: "Database connection string for the postgres backend",
			},
			&cli.StringFlag{
				Name:  "db-driver",
				Usage: "database/sql driver: postgres (lib/pq) or pgx",
			},
			&cli.IntFlag{
				Name:  "min-merchants",
				Usage: "Minimum merchant count required to pass validation (0 disables)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "zerolog level",
			},
		},
		Before: func(c *cli.Context) error {
			cfg := loadConfig(c)
			logger.SetLevel(cfg.LogLevel)
			return nil
		},
		Commands: []*cli.Command{
			runCommand(),
			exportCommand(),
			syncS3Command(),
			syncDriveCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("analytics command failed")
		os.Exit(exitCode(err))
	}
}
