package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
	"github.com/HumbledDS/job-market-pipeline/internal/normalize"
)

// Search is one keyword/location query the pipeline runs.
type Search struct {
	Keyword  string
	Location string
}

// Result reports what one pipeline run did.
type Result struct {
	RunID    string
	Fetched  int // raw records returned by the searches
	Loaded   int // rows written after normalization
	Enriched int // rows the classifier filled in
	Stats    model.DatasetStats
}

// Runner owns the full pipeline for one configured set of searches:
// extract → clear → load → enrich → materialize views → stats.
type Runner struct {
	searcher   model.Searcher
	normalizer *normalize.Normalizer
	classifier model.Classifier
	store      model.JobStore
	searches   []Search
	logger     *slog.Logger
}

// NewRunner creates a pipeline runner wired with all its dependencies.
func NewRunner(
	searcher model.Searcher,
	normalizer *normalize.Normalizer,
	classifier model.Classifier,
	store model.JobStore,
	searches []Search,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		searcher:   searcher,
		normalizer: normalizer,
		classifier: classifier,
		store:      store,
		searches:   searches,
		logger:     logger,
	}
}

// Run executes one full pipeline pass. The store is cleared only after all
// searches have succeeded, so a failed extraction leaves the previous
// dataset intact. Run stops at the first failing stage and returns the
// error wrapped with the stage name; work committed by earlier stages
// stands, and re-running is safe because loading is idempotent and
// enrichment selects only rows not yet classified.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: ulid.Make().String()}
	logger := r.logger.With("run_id", res.RunID)

	logger.Info("pipeline run started", "searches", len(r.searches))

	var records []model.SourceRecord
	for _, search := range r.searches {
		found, err := r.searcher.Search(ctx, search.Keyword, search.Location)
		if err != nil {
			return res, fmt.Errorf("extract stage (%q in %q): %w", search.Keyword, search.Location, err)
		}
		logger.Info("search complete",
			"keyword", search.Keyword,
			"location", search.Location,
			"records", len(found),
		)
		records = append(records, found...)
	}
	res.Fetched = len(records)

	normalized := r.normalizer.Normalize(records)

	if err := r.store.Clear(ctx); err != nil {
		return res, fmt.Errorf("clear stage: %w", err)
	}

	loaded, err := r.store.UpsertRecords(ctx, normalized)
	res.Loaded = loaded
	if err != nil {
		return res, fmt.Errorf("load stage: %w", err)
	}
	logger.Info("load complete", "rows", loaded)

	enriched, err := r.store.EnrichPending(ctx, r.classifier)
	res.Enriched = enriched
	if err != nil {
		return res, fmt.Errorf("enrich stage: %w", err)
	}
	logger.Info("enrichment complete", "rows", enriched)

	if err := r.store.MaterializeViews(ctx); err != nil {
		return res, fmt.Errorf("views stage: %w", err)
	}

	stats, err := r.store.Stats(ctx)
	if err != nil {
		return res, fmt.Errorf("stats stage: %w", err)
	}
	res.Stats = stats

	logger.Info("pipeline run finished",
		"fetched", res.Fetched,
		"loaded", res.Loaded,
		"enriched", res.Enriched,
		"total_jobs", stats.TotalJobs,
		"companies", stats.UniqueCompanies,
	)

	return res, nil
}
