package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/HumbledDS/job-market-pipeline/internal/dash"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Browse the dataset interactively (TUI)",
	Long:  "Opens a tabbed terminal dashboard over the staged jobs, company and skill views.",
	RunE:  runDash,
}

func init() {
	rootCmd.AddCommand(dashCmd)
}

func runDash(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The dashboard runs on the alt screen; log output before it starts
	// corrupts the display, so the store gets a silent logger.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := openStore(cfg, silentLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	jobs, err := st.StagedJobs(ctx, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read staged jobs: %v\n", err)
		os.Exit(1)
	}
	companies, err := st.CompanyAggregates(ctx, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read company aggregates: %v\n", err)
		os.Exit(1)
	}
	skills, err := st.SkillAggregates(ctx, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read skill aggregates: %v\n", err)
		os.Exit(1)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read stats: %v\n", err)
		os.Exit(1)
	}

	if err := dash.Run(jobs, companies, skills, stats); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		os.Exit(1)
	}
	return nil
}
