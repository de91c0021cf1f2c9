package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HumbledDS/job-market-pipeline/internal/adzuna"
	"github.com/HumbledDS/job-market-pipeline/internal/classify"
	"github.com/HumbledDS/job-market-pipeline/internal/config"
	"github.com/HumbledDS/job-market-pipeline/internal/model"
	"github.com/HumbledDS/job-market-pipeline/internal/normalize"
	"github.com/HumbledDS/job-market-pipeline/internal/pipeline"
	"github.com/HumbledDS/job-market-pipeline/internal/ratelimit"
	"github.com/HumbledDS/job-market-pipeline/internal/retry"
	"github.com/HumbledDS/job-market-pipeline/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobmarket",
	Short: "Job market analytics pipeline",
	Long:  "Jobmarket pulls postings from the Adzuna search API, enriches them with skill, seniority and location tags, and serves analytics from a local SQLite database.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBMARKET_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBMARKET_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBMARKET_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DatabasePath, cfg.Pipeline.BatchSize, cfg.Pipeline.SalaryFloor, logger)
}

// buildSearcher assembles the Adzuna client behind its decorators. The rate
// limiter sits inside the retry wrapper so retry attempts are spaced too.
func buildSearcher(cfg *config.Config, logger *slog.Logger) model.Searcher {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	var searcher model.Searcher = adzuna.NewClient(
		cfg.Adzuna.AppID,
		cfg.Adzuna.AppKey,
		cfg.Country,
		cfg.Adzuna.MaxPages,
		httpClient,
	)
	searcher = ratelimit.NewRateLimitedSearcher(searcher, ratelimit.NewLimiter(cfg.Pipeline.RateLimitDelay))
	searcher = retry.NewRetrySearcher(searcher, cfg.Pipeline.MaxRetries, cfg.Pipeline.RetryDelay, logger)
	return searcher
}

func buildRunner(cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) *pipeline.Runner {
	searches := make([]pipeline.Search, 0, len(cfg.Searches))
	for _, s := range cfg.Searches {
		searches = append(searches, pipeline.Search{Keyword: s.Keyword, Location: s.Location})
	}

	return pipeline.NewRunner(
		buildSearcher(cfg, logger),
		normalize.New(logger),
		classify.New(cfg.HomeCountry),
		st,
		searches,
		logger,
	)
}
