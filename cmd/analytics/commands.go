package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/andresuchdata/platform-analytics/internal/analytics"
	"github.com/andresuchdata/platform-analytics/internal/app"
	"github.com/andresuchdata/platform-analytics/internal/config"
	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/drive"
	"github.com/andresuchdata/platform-analytics/internal/export"
	"github.com/andresuchdata/platform-analytics/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	exitValidation = 2
	exitFailure    = 1
)

// loadConfig applies explicitly set global flags on top of the environment
// before the configuration is materialized.
func loadConfig(c *cli.Context) *config.Config {
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			viper.Set(key, c.Value(flag))
		}
	}
	return config.Load()
}

func exitCode(err error) int {
	if errors.Is(err, analytics.ErrValidation) {
		return exitValidation
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return exitFailure
}

func withApp(fn func(ctx context.Context, a *app.App, c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := app.New(config.Load())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(c.Context, a, c)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the pipeline once and print the summary and changes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the metrics as JSON instead of a text summary",
			},
		},
		Action: withApp(func(ctx context.Context, a *app.App, c *cli.Context) error {
			result, err := a.Pipeline.Run(ctx)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Metrics)
			}
			printSummary(result)
			return nil
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Run the pipeline and write the customer and merchant CSV exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Directory receiving the CSV files",
				Value:   "exports",
				EnvVars: []string{"EXPORT_DIR"},
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "Also publish the exports to the configured S3 bucket",
			},
			&cli.StringFlag{
				Name:    "upload-prefix",
				Usage:   "Key prefix for uploaded exports",
				Value:   "exports",
				EnvVars: []string{"S3_EXPORT_PREFIX"},
			},
		},
		Action: withApp(func(ctx context.Context, a *app.App, c *cli.Context) error {
			result, err := a.Pipeline.Run(ctx)
			if err != nil {
				return err
			}

			paths, err := export.WriteFiles(c.String("dir"), result)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}

			if !c.Bool("upload") {
				return nil
			}
			store, err := storage.NewMinioClient(a.Config.Storage)
			if err != nil {
				return err
			}
			return storage.PublishExports(ctx, store, c.String("upload-prefix"), paths)
		}),
	}
}

func syncS3Command() *cli.Command {
	return &cli.Command{
		Name:  "sync-s3",
		Usage: "Download export files from an S3-compatible bucket into the data directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Object key prefix to mirror",
				EnvVars: []string{"S3_PREFIX"},
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Destination directory (defaults to the data directory)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			store, err := storage.NewMinioClient(cfg.Storage)
			if err != nil {
				return err
			}
			dest := destDir(c, cfg)
			written, err := storage.SyncPrefix(c.Context, store, c.String("prefix"), dest)
			if err != nil {
				return err
			}
			log.Info().Int("files", len(written)).Str("dest", dest).Msg("s3 sync complete")
			return nil
		},
	}
}

func syncDriveCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-drive",
		Usage: "Download export files from a Google Drive folder into the data directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "folder",
				Usage:   "Drive folder path, e.g. exports/august",
				EnvVars: []string{"GOOGLE_DRIVE_FOLDER"},
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Destination directory (defaults to the data directory)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			creds, err := readCredentials(cfg.Drive.CredentialsJSON)
			if err != nil {
				return err
			}
			svc, err := drive.NewService(c.Context, creds)
			if err != nil {
				return err
			}
			dest := destDir(c, cfg)
			written, err := drive.SyncFolder(c.Context, svc, c.String("folder"), dest)
			if err != nil {
				return err
			}
			log.Info().Int("files", len(written)).Str("dest", dest).Msg("drive sync complete")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the analytics HTTP API",
		Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Context) error {
			if _, err := a.Analytics.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("initial analytics run failed")
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		}),
	}
}

func destDir(c *cli.Context, cfg *config.Config) string {
	if d := c.String("dest"); d != "" {
		return d
	}
	return cfg.App.DataDir
}

// readCredentials accepts either the service account JSON itself or a path
// to it.
func readCredentials(value string) (string, error) {
	if value == "" {
		return "", errors.New("GOOGLE_DRIVE_CREDENTIALS is not set")
	}
	if json.Valid([]byte(value)) {
		return value, nil
	}
	data, err := os.ReadFile(filepath.Clean(value))
	if err != nil {
		return "", fmt.Errorf("read drive credentials: %w", err)
	}
	return string(data), nil
}

func printSummary(result *domain.Result) {
	m := result.Metrics
	fmt.Printf("Run date:               %s\n", result.Diagnostics.RunDate.Format("2006-01-02"))
	for _, c := range domain.Categories() {
		fmt.Printf("%-23s %d files\n", c.Label()+":", result.Diagnostics.FilesDiscovered[c])
	}
	fmt.Printf("Merchants:              %s (%s with item data)\n",
		humanize.Comma(int64(m.MerchantsTotal)), humanize.Comma(int64(m.MerchantsWithItemData)))
	fmt.Printf("Customers:              %s (%s active)\n",
		humanize.Comma(int64(m.CustomersTotal)), humanize.Comma(int64(m.CustomersActive)))
	fmt.Printf("Platform 60d net sales: $%s\n", humanize.FormatFloat("#,###.##", m.PlatformTotal60d))
	fmt.Printf("Daily / weekly / month: $%s / $%s / $%s\n",
		humanize.FormatFloat("#,###.##", m.PlatformDaily),
		humanize.FormatFloat("#,###.##", m.PlatformWeekly),
		humanize.FormatFloat("#,###.##", m.PlatformMonthly))
	for i, t := range m.TopMerchants {
		fmt.Printf("Top %d:                  %s ($%s)\n", i+1, t.Name, humanize.FormatFloat("#,###.##", t.NetSales60d))
	}
	fmt.Println()
	for _, line := range result.Diff {
		fmt.Println(line)
	}
}
