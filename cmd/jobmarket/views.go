package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Rebuild the analytic views",
	Long:  "Drops and recreates stg_jobs, dim_companies and skills_analysis against the configured salary floor.",
	RunE:  runViews,
}

func init() {
	rootCmd.AddCommand(viewsCmd)
}

func runViews(cmd *cobra.Command, args []string) error {
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

	if err := st.MaterializeViews(context.Background()); err != nil {
		logger.Error("rebuilding views failed", "error", err)
		os.Exit(1)
	}

	logger.Info("views rebuilt", "salary_floor", cfg.Pipeline.SalaryFloor)
	return nil
}
