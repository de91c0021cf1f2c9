package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HumbledDS/job-market-pipeline/internal/classify"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Classify unenriched rows, then refresh views",
	Long:  "Runs the skill/seniority/location classifier over rows not yet enriched and rebuilds the analytic views. Needs no API credentials.",
	RunE:  runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enriched, err := st.EnrichPending(ctx, classify.New(cfg.HomeCountry))
	if err != nil {
		logger.Error("enrichment failed", "error", err, "enriched", enriched)
		os.Exit(1)
	}

	if err := st.MaterializeViews(ctx); err != nil {
		logger.Error("refreshing views failed", "error", err)
		os.Exit(1)
	}

	logger.Info("enrichment complete", "enriched", enriched)
	return nil
}
