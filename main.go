package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"naver-map-bookmarker/bookmarker/naver"
	"naver-map-bookmarker/browser"
	"naver-map-bookmarker/config"
	"naver-map-bookmarker/metrics"
	"naver-map-bookmarker/services"
	"naver-map-bookmarker/storage"
	"naver-map-bookmarker/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetDebug(cfg.Debug)

	if len(os.Args) > 1 {
		cfg.InputPath = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// a second Ctrl+C kills the process, e.g. while blocked on a prompt
		stop()
	}()

	logger.Info("=== Naver Map Bookmarker starting ===")
	logger.Info("Config: input: %s | element timeout: %dms | settle: %dms | row delay: %dms",
		cfg.InputPath, cfg.ElementTimeoutMs, cfg.SettleDelayMs, cfg.RowDelayMs)

	table, err := storage.LoadPlaces(cfg.InputPath, storage.LoadOptions{
		Sheet:         cfg.SheetName,
		NameColumn:    cfg.NameColumn,
		AddressColumn: cfg.AddressColumn,
	})
	if err != nil {
		var schemaErr *storage.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error("Input is missing required columns: %s", strings.Join(schemaErr.Missing, ", "))
			logger.Error("Columns present: %s", strings.Join(schemaErr.Present, ", "))
		} else {
			logger.Error("Failed to read input file: %v", err)
		}
		return 1
	}

	places := services.NewCleaner(logger).Clean(table.Places)
	reporter := services.NewReporter(os.Stdout)
	reporter.PrintPreview(places)

	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	session, err := browser.New(browser.Options{
		Headless:        cfg.Headless,
		ChromeBin:       cfg.ChromeBin,
		UserDataDir:     cfg.UserDataDir,
		NavigateRetries: cfg.NavigateRetries,
	}, logger)
	if err != nil {
		logger.Error("Failed to launch browser: %v", err)
		return 1
	}
	defer session.Quit()

	bm := naver.New(cfg, logger, session, utils.NewStdinPrompter(logger), reporter)
	bm.SetMetrics(appMetrics)

	if cfg.FailedCSVPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.FailedCSVPath, cfg.NameColumn, cfg.AddressColumn)
		if err != nil {
			logger.Warn("Failed rows will not be recorded: %v", err)
		} else {
			defer csvWriter.Close()
			bm.SetResultWriter(csvWriter)
		}
	}

	summary, runErr := bm.Run(ctx, places)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile, reg); err != nil {
			logger.Warn("Failed to write metrics to %s: %v", cfg.MetricsTextfile, err)
		}
	}

	if runErr != nil {
		return 1
	}
	if summary.Failure > 0 && cfg.FailedCSVPath != "" {
		logger.Info("Failed rows saved to %s", cfg.FailedCSVPath)
	}
	return 0
}
