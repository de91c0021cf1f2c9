package model

import (
	"context"
	"time"
)

// SourceRecord is one job posting as decoded from a source API response.
// It stays schemaless so extractors can stamp provenance fields next to
// whatever the upstream returned.
type SourceRecord map[string]any

// JobRecord is the flattened row persisted to raw_jobs.
type JobRecord struct {
	ID             string     // unique per source
	Title          string     // "Unknown" when absent
	Company        string     // "Unknown" when absent
	Location       string     // raw display string, "Unknown" when absent
	SalaryMin      float64    // 0 when absent
	SalaryMax      float64    // 0 when absent
	Description    string
	Category       string
	ContractType   string
	Created        *time.Time // posting date, nullable (not all sources provide it)
	RedirectURL    string     // direct apply link
	SearchKeyword  string     // query that surfaced this record
	SearchLocation string
	ExtractedAt    *time.Time // our clock (set at fetch time)
	RawPayload     string     // original record re-serialized as JSON
}

// Enrichment holds the derived columns a Classifier computes from free text.
// Skills empty means "classified, nothing matched", which is distinct from
// the columns still being NULL (never classified).
type Enrichment struct {
	Skills    string // comma-joined canonical tags
	Seniority string // Senior / Mid / Junior
	IsRemote  bool
	City      string
	State     string
	Country   string
}

// DatasetStats summarizes the rows above the salary floor.
type DatasetStats struct {
	TotalJobs       int
	UniqueCompanies int
	UniqueLocations int
	AvgMaxSalary    float64
	EarliestPosting string // DATE bounds of created, YYYY-MM-DD, empty when no rows
	LatestPosting   string
}

// CompanyAggregate is one dim_companies row.
type CompanyAggregate struct {
	Company      string
	TotalJobs    int
	AvgMaxSalary float64
	FirstPosted  string // YYYY-MM-DD
	LastPosted   string
}

// SkillAggregate is one skills_analysis row: demand and pay for a single
// canonical skill within one seniority level.
type SkillAggregate struct {
	Skill     string
	JobCount  int
	AvgSalary float64
	Seniority string
}

// StagedJob is one stg_jobs row as read back for dashboards and exports.
type StagedJob struct {
	ID          string
	Title       string
	Company     string
	Location    string
	SalaryMin   float64
	SalaryMax   float64
	Seniority   string
	Skills      string
	IsRemote    bool
	City        string
	Country     string
	Keyword     string // search provenance
	PostedDate  string // YYYY-MM-DD, empty when the source gave no date
	FetchedDate string
}

// Searcher fetches raw postings for one keyword/location query.
type Searcher interface {
	Search(ctx context.Context, keyword, location string) ([]SourceRecord, error)
}

// Classifier derives analytic attributes from a record's free-text fields.
type Classifier interface {
	Enrich(title, description, location string) Enrichment
}

// JobStore persists normalized records and serves the analytic views.
type JobStore interface {
	InitSchema(ctx context.Context) error
	Clear(ctx context.Context) error
	UpsertRecords(ctx context.Context, records []JobRecord) (int, error)
	EnrichPending(ctx context.Context, c Classifier) (int, error)
	MaterializeViews(ctx context.Context) error
	Stats(ctx context.Context) (DatasetStats, error)
	CompanyAggregates(ctx context.Context, limit int) ([]CompanyAggregate, error)
	SkillAggregates(ctx context.Context, limit int) ([]SkillAggregate, error)
	StagedJobs(ctx context.Context, limit int) ([]StagedJob, error)
	Close() error
}
