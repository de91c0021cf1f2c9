package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// SQLiteStore persists normalized job records in a single-file SQLite
// database and serves the analytic views built over them.
type SQLiteStore struct {
	db          *sql.DB
	chunkSize   int
	salaryFloor float64
	logger      *slog.Logger
}

var _ model.JobStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and applies
// the schema. chunkSize bounds the rows per write transaction. salaryFloor
// is the max-salary value at or below which a row is treated as having no
// usable salary data.
func NewSQLiteStore(dbPath string, chunkSize int, salaryFloor float64, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if chunkSize < 1 {
		chunkSize = 100
	}

	s := &SQLiteStore{
		db:          db,
		chunkSize:   chunkSize,
		salaryFloor: salaryFloor,
		logger:      logger,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the raw table and the location dimension if absent,
// then adds any missing derived columns. Safe to call repeatedly.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	createRawJobs := `CREATE TABLE IF NOT EXISTS raw_jobs (
		id              TEXT PRIMARY KEY,
		title           TEXT,
		company         TEXT,
		location        TEXT,
		salary_min      REAL,
		salary_max      REAL,
		description     TEXT,
		contract_type   TEXT,
		category        TEXT,
		created         TEXT,
		redirect_url    TEXT,
		search_location TEXT,
		search_keyword  TEXT,
		extracted_at    TEXT,
		raw_data        TEXT
	)`
	if _, err := s.db.ExecContext(ctx, createRawJobs); err != nil {
		return fmt.Errorf("creating raw_jobs table: %w", err)
	}

	createDimLocations := `CREATE TABLE IF NOT EXISTS dim_locations (
		location TEXT PRIMARY KEY,
		city     TEXT,
		state    TEXT,
		country  TEXT
	)`
	if _, err := s.db.ExecContext(ctx, createDimLocations); err != nil {
		return fmt.Errorf("creating dim_locations table: %w", err)
	}

	return s.ensureDerivedColumns(ctx)
}

// derivedColumns are owned by the classifier and stay NULL until a row has
// been enriched. They are added by migration rather than in the base DDL so
// databases written before a column existed pick it up on the next run.
var derivedColumns = []struct {
	name string
	typ  string
}{
	{"skills_extracted", "TEXT"},
	{"seniority_level", "TEXT"},
	{"is_remote", "INTEGER"},
	{"location_city", "TEXT"},
	{"location_state", "TEXT"},
	{"location_country", "TEXT"},
}

// ensureDerivedColumns inspects the live schema and adds whichever derived
// columns are missing. Inspecting first keeps the migration idempotent
// without parsing "duplicate column" errors.
func (s *SQLiteStore) ensureDerivedColumns(ctx context.Context) error {
	existing, err := s.tableColumns(ctx, "raw_jobs")
	if err != nil {
		return err
	}

	for _, col := range derivedColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE raw_jobs ADD COLUMN %s %s", col.name, col.typ)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("adding column %s: %w", col.name, err)
		}
		s.logger.Debug("added derived column", "column", col.name)
	}
	return nil
}

func (s *SQLiteStore) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("inspecting %s columns: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning %s column info: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Clear deletes all raw rows and location dimensions. The schema is kept.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM raw_jobs"); err != nil {
		return fmt.Errorf("clearing raw_jobs: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM dim_locations"); err != nil {
		return fmt.Errorf("clearing dim_locations: %w", err)
	}
	return nil
}

const insertRawJob = `INSERT OR REPLACE INTO raw_jobs (
	id, title, company, location, salary_min, salary_max,
	description, contract_type, category, created, redirect_url,
	search_location, search_keyword, extracted_at, raw_data
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertRecords writes records in chunks, one transaction per chunk, and
// returns the count written. A record sharing an existing id fully replaces
// the prior row; the explicit column list leaves the derived columns NULL,
// so replaced rows are picked up by the next enrichment pass. On failure
// the committed chunks stand and the returned *model.LoadError carries the
// count already written.
func (s *SQLiteStore) UpsertRecords(ctx context.Context, records []model.JobRecord) (int, error) {
	written := 0
	for start := 0; start < len(records); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.upsertChunk(ctx, records[start:end]); err != nil {
			return written, &model.LoadError{Written: written, Err: err}
		}
		written = end
		s.logger.Debug("chunk committed", "written", written, "total", len(records))
	}
	return written, nil
}

func (s *SQLiteStore) upsertChunk(ctx context.Context, chunk []model.JobRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning chunk transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRawJob)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range chunk {
		_, err := stmt.ExecContext(ctx,
			rec.ID, rec.Title, rec.Company, rec.Location,
			rec.SalaryMin, rec.SalaryMax,
			rec.Description, rec.ContractType, rec.Category,
			timeText(rec.Created), rec.RedirectURL,
			rec.SearchLocation, rec.SearchKeyword,
			timeText(rec.ExtractedAt), rec.RawPayload,
		)
		if err != nil {
			return fmt.Errorf("upserting record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// timeText renders a nullable timestamp as RFC3339 UTC text. The textual
// form sorts chronologically and is accepted by SQLite's date functions.
func timeText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// pendingJob is one row awaiting enrichment.
type pendingJob struct {
	id          string
	title       string
	description string
	location    string
}

// EnrichPending applies the classifier to every row whose derived columns
// are still NULL and writes the results back in chunked transactions,
// returning the count enriched. A row classified with no skill matches gets
// an empty (non-NULL) skills_extracted, so it is not selected again; an
// interrupted pass resumes from the rows the last committed chunk did not
// reach. Distinct location strings are upserted into dim_locations along
// the way.
func (s *SQLiteStore) EnrichPending(ctx context.Context, c model.Classifier) (int, error) {
	pending, err := s.selectPending(ctx)
	if err != nil {
		return 0, err
	}

	enriched := 0
	for start := 0; start < len(pending); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := s.enrichChunk(ctx, c, pending[start:end]); err != nil {
			return enriched, err
		}
		enriched = end
		s.logger.Debug("enrichment chunk committed", "enriched", enriched, "pending", len(pending))
	}
	return enriched, nil
}

func (s *SQLiteStore) selectPending(ctx context.Context) ([]pendingJob, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, location FROM raw_jobs WHERE skills_extracted IS NULL")
	if err != nil {
		return nil, fmt.Errorf("selecting pending rows: %w", err)
	}
	defer rows.Close()

	var pending []pendingJob
	for rows.Next() {
		var p pendingJob
		var title, description, location sql.NullString
		if err := rows.Scan(&p.id, &title, &description, &location); err != nil {
			return nil, fmt.Errorf("scanning pending row: %w", err)
		}
		p.title = title.String
		p.description = description.String
		p.location = location.String
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading pending rows: %w", err)
	}
	return pending, nil
}

func (s *SQLiteStore) enrichChunk(ctx context.Context, c model.Classifier, chunk []pendingJob) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning enrichment transaction: %w", err)
	}
	defer tx.Rollback()

	update, err := tx.PrepareContext(ctx, `UPDATE raw_jobs
		SET skills_extracted = ?, seniority_level = ?, is_remote = ?,
		    location_city = ?, location_state = ?, location_country = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing enrichment update: %w", err)
	}
	defer update.Close()

	upsertLoc, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO dim_locations
		(location, city, state, country) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing location upsert: %w", err)
	}
	defer upsertLoc.Close()

	for _, p := range chunk {
		e := c.Enrich(p.title, p.description, p.location)
		_, err := update.ExecContext(ctx,
			e.Skills, e.Seniority, e.IsRemote,
			e.City, e.State, e.Country, p.id)
		if err != nil {
			return fmt.Errorf("enriching record %s: %w", p.id, err)
		}
		if p.location != "" {
			if _, err := upsertLoc.ExecContext(ctx, p.location, e.City, e.State, e.Country); err != nil {
				return fmt.Errorf("recording location %q: %w", p.location, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing enrichment chunk: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
