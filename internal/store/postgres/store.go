// Package postgres is the production store of the match service, built on
// pgx. It implements matching.Store and kanban.Store.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/model"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Store wraps a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store on pool. The caller owns the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates any missing table, constraint and index.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

// GetJob returns a job with its qualifications (in posting order) and metrics.
func (s *Store) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var j model.Job
	err := s.pool.QueryRow(ctx,
		`SELECT j.id, j.title, j.company_name, j.company_address, j.industry_tags,
		        j.priority_categories, j.description, j.salary_range, j.contact, j.created_at,
		        COALESCE(m.views, 0), COALESCE(m.applications, 0),
		        COALESCE(m.saved, 0), COALESCE(m.qualified, 0)
		 FROM jobs j
		 LEFT JOIN job_metrics m ON m.job_id = j.id
		 WHERE j.id = $1`,
		jobID,
	).Scan(
		&j.ID, &j.Title, &j.CompanyName, &j.CompanyAddress, &j.IndustryTags,
		&j.PriorityCategories, &j.Description, &j.SalaryRange, &j.Contact, &j.CreatedAt,
		&j.Metrics.Views, &j.Metrics.Applications, &j.Metrics.Saved, &j.Metrics.Qualified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getJob query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, requirement, possible_credentials, categories, priority
		 FROM qualifications WHERE job_id = $1 ORDER BY position`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("getJob qualifications: %w", err)
	}
	defer rows.Close()

	j.Qualifications = make([]model.Qualification, 0)
	for rows.Next() {
		var q model.Qualification
		if err := rows.Scan(&q.ID, &q.Requirement, &q.PossibleCredentials, &q.Categories, &q.Priority); err != nil {
			return nil, fmt.Errorf("getJob qualification scan: %w", err)
		}
		j.Qualifications = append(j.Qualifications, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getJob qualifications: %w", err)
	}
	return &j, nil
}

// ListApplicantIDs returns every applicant profile id.
func (s *Store) ListApplicantIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM applicant_profiles ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listApplicantIDs query: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listApplicantIDs scan: %w", err)
	}
	return ids, nil
}

// ─── Match scores ────────────────────────────────────────────────────────────

// ApplicantExists implements matching.Store.
func (s *Store) ApplicantExists(ctx context.Context, applicantID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applicant_profiles WHERE id = $1)`, applicantID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("applicantExists: %w", err)
	}
	return ok, nil
}

// ListUnscoredJobIDs returns, in catalog order, the jobs with no Match Score
// for applicantID.
func (s *Store) ListUnscoredJobIDs(ctx context.Context, applicantID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT j.id FROM jobs j
		 WHERE NOT EXISTS (
		   SELECT 1 FROM match_scores ms
		   WHERE ms.job_id = j.id AND ms.applicant_id = $1
		 )
		 ORDER BY j.created_at, j.id`,
		applicantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listUnscoredJobIDs query: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listUnscoredJobIDs scan: %w", err)
	}
	return ids, nil
}

// HasMatchScore implements matching.Store.
func (s *Store) HasMatchScore(ctx context.Context, applicantID, jobID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM match_scores WHERE applicant_id = $1 AND job_id = $2)`,
		applicantID, jobID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("hasMatchScore: %w", err)
	}
	return ok, nil
}

// InsertMatchScore inserts ms unless the pair is already scored.
func (s *Store) InsertMatchScore(ctx context.Context, ms model.MatchScore) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO match_scores (id, applicant_id, job_id, score, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (applicant_id, job_id) DO NOTHING`,
		ms.ID, ms.ApplicantID, ms.JobID, ms.Score, ms.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insertMatchScore: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListScoredJobs returns the applicant's scored jobs, best score first.
func (s *Store) ListScoredJobs(ctx context.Context, applicantID string) ([]model.ScoredJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ms.id, ms.job_id, ms.score, j.title, j.company_name, j.company_address, ms.created_at
		 FROM match_scores ms
		 JOIN jobs j ON j.id = ms.job_id
		 WHERE ms.applicant_id = $1
		 ORDER BY ms.score DESC, ms.created_at, ms.job_id`,
		applicantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listScoredJobs query: %w", err)
	}
	defer rows.Close()

	out := make([]model.ScoredJob, 0)
	for rows.Next() {
		var sj model.ScoredJob
		if err := rows.Scan(&sj.MatchScoreID, &sj.JobID, &sj.Score, &sj.Title,
			&sj.CompanyName, &sj.CompanyAddress, &sj.ScoredAt); err != nil {
			return nil, fmt.Errorf("listScoredJobs scan: %w", err)
		}
		out = append(out, sj)
	}
	return out, rows.Err()
}

// ─── Applications ────────────────────────────────────────────────────────────

const applicationColumns = `id, applicant_id, job_id, match_score_id, status, history_log, created_at, updated_at`

func scanApplication(row pgx.Row) (*kanban.Application, error) {
	var a kanban.Application
	err := row.Scan(&a.ID, &a.ApplicantID, &a.JobID, &a.MatchScoreID, &a.Status,
		&a.History, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.History == nil {
		a.History = []kanban.StatusChange{}
	}
	return &a, nil
}

// CreateApplication implements kanban.Store.
func (s *Store) CreateApplication(ctx context.Context, app kanban.Application) (*kanban.Application, error) {
	history := app.History
	if history == nil {
		history = []kanban.StatusChange{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("createApplication: marshal history: %w", err)
	}

	var created *kanban.Application
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var msApplicant, msJob string
		err := tx.QueryRow(ctx,
			`SELECT applicant_id, job_id FROM match_scores WHERE id = $1`, app.MatchScoreID,
		).Scan(&msApplicant, &msJob)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("match score %s does not exist: %w", app.MatchScoreID, model.ErrInvalidMatchScore)
		}
		if err != nil {
			return fmt.Errorf("query match score: %w", err)
		}
		if msApplicant != app.ApplicantID || msJob != app.JobID {
			return fmt.Errorf("match score %s scores (%s, %s): %w", app.MatchScoreID, msApplicant, msJob, model.ErrInvalidMatchScore)
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM applications WHERE applicant_id = $1 AND job_id = $2)`,
			app.ApplicantID, app.JobID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check existing application: %w", err)
		}
		if exists {
			return model.ErrDuplicateApplication
		}

		// uq_applications_pair still catches a racing insert.

		created, err = scanApplication(tx.QueryRow(ctx,
			`INSERT INTO applications (id, applicant_id, job_id, match_score_id, status, history_log, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
			 RETURNING `+applicationColumns,
			app.ID, app.ApplicantID, app.JobID, app.MatchScoreID, string(app.Status),
			string(historyJSON), app.CreatedAt, app.UpdatedAt,
		))
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateApplication
			}
			return fmt.Errorf("insert application: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO job_metrics (job_id, applications) VALUES ($1, 1)
			 ON CONFLICT (job_id) DO UPDATE SET applications = job_metrics.applications + 1`,
			app.JobID,
		); err != nil {
			return fmt.Errorf("increment applications metric: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("createApplication: %w", err)
	}
	return created, nil
}

// GetApplication implements kanban.Store.
func (s *Store) GetApplication(ctx context.Context, id string) (*kanban.Application, error) {
	return getApplication(ctx, s.pool, id)
}

func getApplication(ctx context.Context, q querier, id string) (*kanban.Application, error) {
	app, err := scanApplication(q.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getApplication: %w", err)
	}
	return app, nil
}

// UpdateStatus implements kanban.Store. The row is only updated while its
// status still equals from.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to kanban.Status, change kanban.StatusChange) (*kanban.Application, error) {
	return updateStatus(ctx, s.pool, id, from, to, change)
}

func updateStatus(ctx context.Context, q querier, id string, from, to kanban.Status, change kanban.StatusChange) (*kanban.Application, error) {
	entry, err := json.Marshal([]kanban.StatusChange{change})
	if err != nil {
		return nil, fmt.Errorf("updateStatus: marshal history: %w", err)
	}

	app, err := scanApplication(q.QueryRow(ctx,
		`UPDATE applications
		 SET status      = $1,
		     history_log = history_log || $2::jsonb,
		     updated_at  = $3
		 WHERE id = $4 AND status = $5
		 RETURNING `+applicationColumns,
		string(to), string(entry), change.At, id, string(from),
	))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("updateStatus: %w", err)
	}

	// No row matched: tell a missing application apart from a stale status.
	current, err := getApplication(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("status is %s, not %s: %w", current.Status, from, model.ErrIllegalTransition)
}

// ListApplications implements kanban.Store. Newest first.
func (s *Store) ListApplications(ctx context.Context, applicantID string, status kanban.Status) ([]kanban.ApplicationView, error) {
	const base = `
		SELECT a.id, a.applicant_id, a.job_id, a.match_score_id, a.status, a.history_log,
		       a.created_at, a.updated_at,
		       j.title, j.company_name, j.company_address, ms.score
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN match_scores ms ON ms.id = a.match_score_id
		WHERE a.applicant_id = $1`

	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.pool.Query(ctx, base+` AND a.status = $2 ORDER BY a.created_at DESC, a.id DESC`, applicantID, string(status))
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY a.created_at DESC, a.id DESC`, applicantID)
	}
	if err != nil {
		return nil, fmt.Errorf("listApplications query: %w", err)
	}
	defer rows.Close()

	out := make([]kanban.ApplicationView, 0)
	for rows.Next() {
		var v kanban.ApplicationView
		if err := rows.Scan(
			&v.ID, &v.ApplicantID, &v.JobID, &v.MatchScoreID, &v.Status, &v.History,
			&v.CreatedAt, &v.UpdatedAt,
			&v.JobTitle, &v.CompanyName, &v.CompanyAddress, &v.Score,
		); err != nil {
			return nil, fmt.Errorf("listApplications scan: %w", err)
		}
		if v.History == nil {
			v.History = []kanban.StatusChange{}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
