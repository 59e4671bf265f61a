package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"land-gap-scraper/config"
	"land-gap-scraper/scraper/land"
	"land-gap-scraper/storage"
	"land-gap-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Land Gap Collection Engine starting ===")
	logger.Info("Config — start: (%.4f, %.4f) z%d | assets: %s | workers: %d | rate: %dms",
		cfg.StartLat, cfg.StartLon, cfg.StartZoom, cfg.AssetTypes, cfg.DetailWorkers, cfg.RateLimitMs)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath, storage.LabelsFor(cfg.ExportLocale))
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	store, err := storage.NewSessionStore(cfg.SQLitePath)
	if err != nil {
		logger.Error("Failed to open session store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		defer pgWriter.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper := land.New(cfg, logger)
	result, err := scraper.Collect(ctx)
	if err != nil {
		logger.Error("Collection run failed: %v", err)
		os.Exit(1)
	}

	sess := result.Session
	snapshot := storage.SessionSnapshot{
		RunID:    sess.RunID,
		Markers:  sess.Markers(),
		Listings: sess.Listings(),
		Leases:   sess.LeaseRecords(),
	}
	if err := store.SaveSnapshot(snapshot); err != nil {
		logger.Error("Session snapshot save failed: %v", err)
	} else {
		logger.Info("Session snapshot saved to %s (run %s)", cfg.SQLitePath, sess.RunID[:8])
	}

	if len(result.Candidates) == 0 {
		logger.Warn("No candidates matched the gap filter. Raw capture is still in %s.", cfg.SQLitePath)
		return
	}

	if err := csvWriter.WriteCandidates(result.Candidates); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("%d candidates saved to %s", len(result.Candidates), cfg.CSVOutputPath)
	}

	if pgWriter != nil {
		if err := pgWriter.WriteCandidates(sess.RunID, result.Candidates); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("Candidates stored in PostgreSQL (table: candidates)")
		}
		if stored, err := pgWriter.FetchAll(); err != nil {
			logger.Warn("Failed to read back stored candidates: %v", err)
		} else {
			logger.Info("PostgreSQL now holds %d candidates across all runs", len(stored))
		}
	}

	best := result.Candidates[0]
	logger.Info("Top candidate: %s (%s) — sale %d, gap %d (ratio %.4f)",
		best.Listing.Name, best.Listing.ID, best.SaleWon, best.GapAmountWon, best.GapRatio)

	fmt.Printf("  Done. Candidates → %s | Raw session → %s\n\n",
		cfg.CSVOutputPath, cfg.SQLitePath)
}
