package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/HumbledDS/job-market-pipeline/internal/classify"
	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// viewSpec names one analytic view and builds its definition from the
// store's parameters.
type viewSpec struct {
	name string
	body func(s *SQLiteStore) string
}

// Views are listed in dependency order: dim_companies and skills_analysis
// select from stg_jobs.
var viewSpecs = []viewSpec{
	{name: "stg_jobs", body: stgJobsBody},
	{name: "dim_companies", body: dimCompaniesBody},
	{name: "skills_analysis", body: skillsAnalysisBody},
}

// MaterializeViews (re)defines the analytic views. Each view is dropped and
// recreated so that a changed salary floor or a grown skill vocabulary
// takes effect on an existing database.
func (s *SQLiteStore) MaterializeViews(ctx context.Context) error {
	for _, spec := range viewSpecs {
		if _, err := s.db.ExecContext(ctx, "DROP VIEW IF EXISTS "+spec.name); err != nil {
			return fmt.Errorf("dropping view %s: %w", spec.name, err)
		}
		stmt := fmt.Sprintf("CREATE VIEW %s AS\n%s", spec.name, spec.body(s))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating view %s: %w", spec.name, err)
		}
		s.logger.Debug("materialized view", "view", spec.name)
	}
	return nil
}

// stg_jobs is the staging view: raw rows that pass the salary filter, with
// the posting and extraction timestamps projected to dates.
func stgJobsBody(s *SQLiteStore) string {
	return fmt.Sprintf(`SELECT
	id, title, company, location,
	CAST(salary_min AS REAL) AS salary_min,
	CAST(salary_max AS REAL) AS salary_max,
	seniority_level, skills_extracted, is_remote,
	location_city, location_state, location_country,
	search_keyword, search_location,
	DATE(created) AS job_posted_date,
	DATE(extracted_at) AS data_extracted_date
FROM raw_jobs
WHERE salary_max > %g`, s.salaryFloor)
}

// dim_companies aggregates per company over the staging view. Companies
// with a single posting carry no trend signal and are left out.
func dimCompaniesBody(_ *SQLiteStore) string {
	return `SELECT
	company,
	COUNT(*) AS total_jobs_posted,
	AVG(salary_max) AS avg_max_salary,
	MIN(job_posted_date) AS first_job_posted,
	MAX(job_posted_date) AS last_job_posted
FROM stg_jobs
GROUP BY company
HAVING COUNT(*) >= 2`
}

// skillsAnalysisBody generates one branch per vocabulary entry, so a row
// tagged with several skills contributes to each of them. Matching glues
// delimiters onto both ends of skills_extracted and looks for the
// delimited token, so "java" never matches inside "javascript".
func skillsAnalysisBody(_ *SQLiteStore) string {
	branches := make([]string, 0, len(classify.Vocabulary))
	for _, skill := range classify.Vocabulary {
		branches = append(branches, fmt.Sprintf(
			"\tSELECT '%[1]s' AS skill_name, salary_max, seniority_level FROM stg_jobs WHERE INSTR(',' || skills_extracted || ',', ',%[1]s,') > 0",
			skill))
	}
	return fmt.Sprintf(`SELECT
	skill_name,
	COUNT(*) AS job_count,
	AVG(salary_max) AS avg_salary,
	seniority_level
FROM (
%s
)
GROUP BY skill_name, seniority_level`, strings.Join(branches, "\n\tUNION ALL\n"))
}

// Stats summarizes the dataset over rows passing the salary filter. Date
// bounds come back as YYYY-MM-DD, empty when no row qualifies.
func (s *SQLiteStore) Stats(ctx context.Context) (model.DatasetStats, error) {
	query := `SELECT
	COUNT(*),
	COUNT(DISTINCT company),
	COUNT(DISTINCT location),
	COALESCE(AVG(salary_max), 0),
	COALESCE(MIN(DATE(created)), ''),
	COALESCE(MAX(DATE(created)), '')
FROM raw_jobs
WHERE salary_max > ?`

	var st model.DatasetStats
	err := s.db.QueryRowContext(ctx, query, s.salaryFloor).Scan(
		&st.TotalJobs, &st.UniqueCompanies, &st.UniqueLocations,
		&st.AvgMaxSalary, &st.EarliestPosting, &st.LatestPosting,
	)
	if err != nil {
		return model.DatasetStats{}, fmt.Errorf("computing dataset stats: %w", err)
	}
	return st, nil
}

// limitArg maps "no limit" onto SQLite's negative-limit convention.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// CompanyAggregates returns up to limit dim_companies rows ordered by
// posting volume. limit <= 0 returns all rows.
func (s *SQLiteStore) CompanyAggregates(ctx context.Context, limit int) ([]model.CompanyAggregate, error) {
	query := `SELECT
	company, total_jobs_posted, avg_max_salary,
	COALESCE(first_job_posted, ''), COALESCE(last_job_posted, '')
FROM dim_companies
ORDER BY total_jobs_posted DESC, company
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("querying dim_companies: %w", err)
	}
	defer rows.Close()

	var aggs []model.CompanyAggregate
	for rows.Next() {
		var a model.CompanyAggregate
		if err := rows.Scan(&a.Company, &a.TotalJobs, &a.AvgMaxSalary, &a.FirstPosted, &a.LastPosted); err != nil {
			return nil, fmt.Errorf("scanning dim_companies row: %w", err)
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading dim_companies rows: %w", err)
	}
	return aggs, nil
}

// SkillAggregates returns up to limit skills_analysis rows ordered by
// demand. limit <= 0 returns all rows.
func (s *SQLiteStore) SkillAggregates(ctx context.Context, limit int) ([]model.SkillAggregate, error) {
	query := `SELECT skill_name, job_count, avg_salary, seniority_level
FROM skills_analysis
ORDER BY job_count DESC, skill_name, seniority_level
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("querying skills_analysis: %w", err)
	}
	defer rows.Close()

	var aggs []model.SkillAggregate
	for rows.Next() {
		var a model.SkillAggregate
		if err := rows.Scan(&a.Skill, &a.JobCount, &a.AvgSalary, &a.Seniority); err != nil {
			return nil, fmt.Errorf("scanning skills_analysis row: %w", err)
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading skills_analysis rows: %w", err)
	}
	return aggs, nil
}

// StagedJobs returns up to limit stg_jobs rows, most recently posted first.
// Rows loaded but not yet enriched appear with empty derived fields.
// limit <= 0 returns all rows.
func (s *SQLiteStore) StagedJobs(ctx context.Context, limit int) ([]model.StagedJob, error) {
	query := `SELECT
	id, title, company, location, salary_min, salary_max,
	COALESCE(seniority_level, ''), COALESCE(skills_extracted, ''),
	COALESCE(is_remote, 0),
	COALESCE(location_city, ''), COALESCE(location_country, ''),
	search_keyword,
	COALESCE(job_posted_date, ''), COALESCE(data_extracted_date, '')
FROM stg_jobs
ORDER BY job_posted_date DESC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("querying stg_jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.StagedJob
	for rows.Next() {
		var j model.StagedJob
		err := rows.Scan(
			&j.ID, &j.Title, &j.Company, &j.Location,
			&j.SalaryMin, &j.SalaryMax,
			&j.Seniority, &j.Skills, &j.IsRemote,
			&j.City, &j.Country, &j.Keyword,
			&j.PostedDate, &j.FetchedDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stg_jobs row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stg_jobs rows: %w", err)
	}
	return jobs, nil
}
