package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"psnhub/config"
	"psnhub/mapping"
	"psnhub/metrics"
	"psnhub/services"
	"psnhub/storage"
	"psnhub/utils"
)

func main() {
	logger := utils.NewLogger()

	app := &cli.App{
		Name:  "psnhub",
		Usage: "convert developer spreadsheets into catalog JSON and build site statistics",
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "convert every spreadsheet in SOURCE_DIR into per-developer catalogs",
				Action: func(c *cli.Context) error { return runConvert(logger) },
			},
			{
				Name:   "stats",
				Usage:  "aggregate all catalogs in DEVELOPERS_DIR into STATS_FILE",
				Action: func(c *cli.Context) error { return runStats(logger) },
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func loadConfig(logger *utils.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.SetDebug(cfg.LogLevel == "debug")
	return cfg, nil
}

func runConvert(logger *utils.Logger) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if err := mapping.Validate(mapping.Registry); err != nil {
		return fmt.Errorf("invalid developer mapping: %w", err)
	}

	logger.Info("=== PSNHUB convert starting ===")
	logger.Info("Config: source %s | output %s | csv export %v | db mirror %v",
		cfg.SourceDir, cfg.DevelopersDir, cfg.ExportCSV, cfg.MirrorEnabled())

	m := metrics.New()
	converter := services.NewConverter(logger, mapping.Registry, storage.NewCatalogStore(cfg.DevelopersDir))
	converter.SetMetrics(m)

	if cfg.ExportCSV {
		converter.AddSink(storage.NewCSVWriter(cfg.DevelopersDir))
	}

	if cfg.MirrorEnabled() {
		store, err := storage.NewSQLStore(cfg.DBDriver, cfg.DatabaseURL, storage.DefaultRetry(cfg.DBConnectRetries, logger))
		if err != nil {
			logger.Error("Database mirror disabled: %v", err)
		} else {
			defer store.Close()
			converter.AddSink(store)
			logger.Info("Mirroring catalogs to %s", cfg.DBDriver)
		}
	}

	summary := converter.Run(cfg.SourceDir)
	converter.Print(summary)

	m.MarkRun("convert", time.Now())
	writeMetrics(logger, m, cfg.MetricsTextfile)
	return nil
}

func runStats(logger *utils.Logger) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	logger.Info("=== PSNHUB stats starting ===")

	m := metrics.New()
	svc := services.NewStatsService(logger)
	svc.SetMetrics(m)

	stats, err := svc.Run(cfg.DevelopersDir, cfg.StatsFile)
	if err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	svc.Print(stats)

	m.MarkRun("stats", time.Now())
	writeMetrics(logger, m, cfg.MetricsTextfile)
	return nil
}

func writeMetrics(logger *utils.Logger, m *metrics.Metrics, path string) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("Metrics not written: %v", err)
		return
	}
	logger.Debug("Metrics written to %s", path)
}
