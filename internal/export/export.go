package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// Source is the read side of the store the exporter consumes.
type Source interface {
	StagedJobs(ctx context.Context, limit int) ([]model.StagedJob, error)
	CompanyAggregates(ctx context.Context, limit int) ([]model.CompanyAggregate, error)
	SkillAggregates(ctx context.Context, limit int) ([]model.SkillAggregate, error)
	Stats(ctx context.Context) (model.DatasetStats, error)
}

// Exporter writes the analytic views to timestamped analysis files.
type Exporter struct {
	source Source
	outDir string
	logger *slog.Logger
}

// New creates an exporter writing into outDir. The directory is created on
// first use.
func New(source Source, outDir string, logger *slog.Logger) *Exporter {
	return &Exporter{
		source: source,
		outDir: outDir,
		logger: logger,
	}
}

// table is one exportable view: a header plus typed rows. Cells stay typed
// so the XLSX writer keeps numbers numeric; the CSV writer stringifies.
type table struct {
	name   string // file stem for CSV exports
	sheet  string // sheet name for XLSX exports
	header []string
	rows   [][]any
}

func (e *Exporter) tables(ctx context.Context) ([]table, error) {
	jobs, err := e.source.StagedJobs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("reading staged jobs: %w", err)
	}
	companies, err := e.source.CompanyAggregates(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("reading company aggregates: %w", err)
	}
	skills, err := e.source.SkillAggregates(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("reading skill aggregates: %w", err)
	}

	return []table{
		{
			name:  "jobs",
			sheet: "Jobs",
			header: []string{
				"id", "title", "company", "location", "salary_min", "salary_max",
				"seniority", "skills", "is_remote", "city", "country",
				"search_keyword", "posted_date", "extracted_date",
			},
			rows: jobRows(jobs),
		},
		{
			name:  "companies",
			sheet: "Companies",
			header: []string{
				"company", "total_jobs_posted", "avg_max_salary",
				"first_job_posted", "last_job_posted",
			},
			rows: companyRows(companies),
		},
		{
			name:   "skills",
			sheet:  "Skills",
			header: []string{"skill", "job_count", "avg_salary", "seniority_level"},
			rows:   skillRows(skills),
		},
	}, nil
}

func jobRows(jobs []model.StagedJob) [][]any {
	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []any{
			j.ID, j.Title, j.Company, j.Location, j.SalaryMin, j.SalaryMax,
			j.Seniority, j.Skills, j.IsRemote, j.City, j.Country,
			j.Keyword, j.PostedDate, j.FetchedDate,
		})
	}
	return rows
}

func companyRows(companies []model.CompanyAggregate) [][]any {
	rows := make([][]any, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []any{
			c.Company, c.TotalJobs, c.AvgMaxSalary, c.FirstPosted, c.LastPosted,
		})
	}
	return rows
}

func skillRows(skills []model.SkillAggregate) [][]any {
	rows := make([][]any, 0, len(skills))
	for _, s := range skills {
		rows = append(rows, []any{s.Skill, s.JobCount, s.AvgSalary, s.Seniority})
	}
	return rows
}

// WriteCSV writes one CSV file per analytic view into the output directory
// and returns the paths written, in view order.
func (e *Exporter) WriteCSV(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	tables, err := e.tables(ctx)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().Format("20060102_150405")
	var paths []string
	for _, t := range tables {
		path := filepath.Join(e.outDir, fmt.Sprintf("%s_%s.csv", t.name, stamp))
		if err := writeCSVFile(path, t); err != nil {
			return paths, err
		}
		paths = append(paths, path)
		e.logger.Info("wrote csv export", "path", path, "rows", len(t.rows))
	}
	return paths, nil
}

func writeCSVFile(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = stringify(v)
		}
		if err := w.Write(cells); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
