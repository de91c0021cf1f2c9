package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full pipeline pass",
	Long:  "Fetches all configured searches from Adzuna, reloads the database, enriches new rows and refreshes the analytic views.",
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Adzuna.RequireCredentials(); err != nil {
		logger.Error("missing credentials", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"database", cfg.DatabasePath,
		"country", cfg.Country,
		"searches", len(cfg.Searches),
		"max_pages", cfg.Adzuna.MaxPages,
	)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := buildRunner(cfg, st, logger)
	res, err := runner.Run(ctx)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("dataset ready",
		"total_jobs", res.Stats.TotalJobs,
		"companies", res.Stats.UniqueCompanies,
		"locations", res.Stats.UniqueLocations,
		"avg_max_salary", res.Stats.AvgMaxSalary,
	)
	return nil
}
