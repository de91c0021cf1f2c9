package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/HumbledDS/job-market-pipeline/internal/classify"
	"github.com/HumbledDS/job-market-pipeline/internal/model"
	"github.com/HumbledDS/job-market-pipeline/internal/normalize"
)

// --- Fakes ---

// fakeSearcher returns canned records per keyword, recording each call.
type fakeSearcher struct {
	results map[string][]model.SourceRecord
	err     error
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, keyword, location string) ([]model.SourceRecord, error) {
	f.calls = append(f.calls, keyword+"/"+location)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[keyword], nil
}

// fakeStore records the order in which stages touch it and can fail any
// single stage.
type fakeStore struct {
	ops       []string
	records   []model.JobRecord
	clearErr  error
	upsertErr error
	enrichErr error
	viewsErr  error
	statsErr  error
	stats     model.DatasetStats
}

func (s *fakeStore) InitSchema(_ context.Context) error {
	s.ops = append(s.ops, "init")
	return nil
}

func (s *fakeStore) Clear(_ context.Context) error {
	s.ops = append(s.ops, "clear")
	return s.clearErr
}

func (s *fakeStore) UpsertRecords(_ context.Context, recs []model.JobRecord) (int, error) {
	s.ops = append(s.ops, "upsert")
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.records = append(s.records, recs...)
	return len(recs), nil
}

func (s *fakeStore) EnrichPending(_ context.Context, _ model.Classifier) (int, error) {
	s.ops = append(s.ops, "enrich")
	if s.enrichErr != nil {
		return 0, s.enrichErr
	}
	return len(s.records), nil
}

func (s *fakeStore) MaterializeViews(_ context.Context) error {
	s.ops = append(s.ops, "views")
	return s.viewsErr
}

func (s *fakeStore) Stats(_ context.Context) (model.DatasetStats, error) {
	s.ops = append(s.ops, "stats")
	if s.statsErr != nil {
		return model.DatasetStats{}, s.statsErr
	}
	return s.stats, nil
}

func (s *fakeStore) CompanyAggregates(_ context.Context, _ int) ([]model.CompanyAggregate, error) {
	return nil, nil
}

func (s *fakeStore) SkillAggregates(_ context.Context, _ int) ([]model.SkillAggregate, error) {
	return nil, nil
}

func (s *fakeStore) StagedJobs(_ context.Context, _ int) ([]model.StagedJob, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeRecords(ids ...string) []model.SourceRecord {
	records := make([]model.SourceRecord, len(ids))
	for i, id := range ids {
		records[i] = model.SourceRecord{
			"id":          id,
			"title":       "Data Engineer",
			"company":     "Acme",
			"description": "Python and SQL",
		}
	}
	return records
}

func newTestRunner(searcher model.Searcher, store model.JobStore, searches []Search) *Runner {
	return NewRunner(
		searcher,
		normalize.New(discardLogger()),
		classify.New("FR"),
		store,
		searches,
		discardLogger(),
	)
}

// --- Tests ---

func TestRun_StageOrder(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]model.SourceRecord{
		"data engineer":  makeRecords("1", "2", "3"),
		"data scientist": makeRecords("4", "5"),
	}}
	store := &fakeStore{stats: model.DatasetStats{TotalJobs: 5}}

	runner := newTestRunner(searcher, store, []Search{
		{Keyword: "data engineer", Location: "paris"},
		{Keyword: "data scientist", Location: "london"},
	})

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCalls := []string{"data engineer/paris", "data scientist/london"}
	if len(searcher.calls) != len(wantCalls) {
		t.Fatalf("searcher calls = %v, want %v", searcher.calls, wantCalls)
	}
	for i, call := range wantCalls {
		if searcher.calls[i] != call {
			t.Errorf("search %d = %s, want %s", i, searcher.calls[i], call)
		}
	}

	wantOps := []string{"clear", "upsert", "enrich", "views", "stats"}
	if len(store.ops) != len(wantOps) {
		t.Fatalf("store ops = %v, want %v", store.ops, wantOps)
	}
	for i, op := range wantOps {
		if store.ops[i] != op {
			t.Errorf("op %d = %s, want %s", i, store.ops[i], op)
		}
	}

	if res.Fetched != 5 || res.Loaded != 5 || res.Enriched != 5 {
		t.Errorf("counts = %d/%d/%d, want 5/5/5", res.Fetched, res.Loaded, res.Enriched)
	}
	if res.Stats.TotalJobs != 5 {
		t.Errorf("stats.TotalJobs = %d, want 5", res.Stats.TotalJobs)
	}
}

func TestRun_ExtractFailureLeavesStoreUntouched(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("network down")}
	store := &fakeStore{}

	runner := newTestRunner(searcher, store, []Search{{Keyword: "data engineer", Location: "paris"}})

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "extract stage") {
		t.Errorf("error %q does not name the extract stage", err)
	}
	if len(store.ops) != 0 {
		t.Errorf("store was touched after failed extraction: %v", store.ops)
	}
}

func TestRun_LoadFailureStopsPipeline(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]model.SourceRecord{
		"data engineer": makeRecords("1"),
	}}
	store := &fakeStore{upsertErr: errors.New("disk full")}

	runner := newTestRunner(searcher, store, []Search{{Keyword: "data engineer", Location: "paris"}})

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "load stage") {
		t.Errorf("error %q does not name the load stage", err)
	}

	wantOps := []string{"clear", "upsert"}
	if len(store.ops) != len(wantOps) || store.ops[0] != "clear" || store.ops[1] != "upsert" {
		t.Errorf("store ops = %v, want %v", store.ops, wantOps)
	}
}

func TestRun_EnrichFailureStopsPipeline(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]model.SourceRecord{
		"data engineer": makeRecords("1"),
	}}
	store := &fakeStore{enrichErr: errors.New("db locked")}

	runner := newTestRunner(searcher, store, []Search{{Keyword: "data engineer", Location: "paris"}})

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "enrich stage") {
		t.Errorf("error %q does not name the enrich stage", err)
	}

	last := store.ops[len(store.ops)-1]
	if last != "enrich" {
		t.Errorf("pipeline continued past failing enrich stage: %v", store.ops)
	}
}

func TestRun_DropsRecordsWithoutID(t *testing.T) {
	records := makeRecords("1")
	records = append(records, model.SourceRecord{"title": "no id here"})

	searcher := &fakeSearcher{results: map[string][]model.SourceRecord{
		"data engineer": records,
	}}
	store := &fakeStore{}

	runner := newTestRunner(searcher, store, []Search{{Keyword: "data engineer", Location: "paris"}})

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fetched != 2 {
		t.Errorf("Fetched = %d, want 2", res.Fetched)
	}
	if res.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1", res.Loaded)
	}
}

func TestRun_UniqueRunIDs(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]model.SourceRecord{}}
	store := &fakeStore{}

	runner := newTestRunner(searcher, store, []Search{{Keyword: "data engineer", Location: "paris"}})

	first, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.RunID == "" || second.RunID == "" {
		t.Fatal("expected non-empty run IDs")
	}
	if first.RunID == second.RunID {
		t.Errorf("expected distinct run IDs, both were %s", first.RunID)
	}
}
