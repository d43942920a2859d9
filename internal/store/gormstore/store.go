// Package gormstore is the embedded SQLite backend of the match service,
// built on gorm. It is used for local runs (STORE_DRIVER=sqlite) and by the
// persistence-backed tests.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/model"
)

// Store implements matching.Store and kanban.Store on gorm.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// OpenSQLite opens (creating if needed) the SQLite file at path and migrates
// the schema. SQLite allows one writer, so the pool is capped at one
// connection.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory %q: %w", dir, err)
		}
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates every table and index.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

// CreateJob inserts a job with its qualifications and a zeroed metrics row.
// Job posting is owned by the employer service; this exists for seeding and
// tests.
func (s *Store) CreateJob(ctx context.Context, job model.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&jobRow{
			ID:                 job.ID,
			Title:              job.Title,
			CompanyName:        job.CompanyName,
			CompanyAddress:     job.CompanyAddress,
			IndustryTags:       job.IndustryTags,
			PriorityCategories: job.PriorityCategories,
			Description:        job.Description,
			SalaryRange:        job.SalaryRange,
			Contact:            job.Contact,
			CreatedAt:          job.CreatedAt,
		}).Error; err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		for i, q := range job.Qualifications {
			id := q.ID
			if id == "" {
				id = fmt.Sprintf("%s-q%d", job.ID, i)
			}
			if err := tx.Create(&qualificationRow{
				ID:                  id,
				JobID:               job.ID,
				Position:            i,
				Requirement:         q.Requirement,
				PossibleCredentials: q.PossibleCredentials,
				Categories:          q.Categories,
				Priority:            q.Priority,
			}).Error; err != nil {
				return fmt.Errorf("insert qualification: %w", err)
			}
		}
		if err := tx.Create(&metricsRow{
			JobID:        job.ID,
			Views:        job.Metrics.Views,
			Applications: job.Metrics.Applications,
			Saved:        job.Metrics.Saved,
			Qualified:    job.Metrics.Qualified,
		}).Error; err != nil {
			return fmt.Errorf("insert metrics: %w", err)
		}
		return nil
	})
}

// CreateApplicant inserts an applicant profile. Seeding and tests only.
func (s *Store) CreateApplicant(ctx context.Context, p model.ApplicantProfile) error {
	err := s.db.WithContext(ctx).Create(&applicantRow{
		ID:           p.ID,
		Education:    p.Education,
		Skills:       p.Skills,
		Experience:   p.Experience,
		Certificates: p.Certificates,
		CreatedAt:    time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("insert applicant: %w", err)
	}
	return nil
}

// GetJob returns a job with its qualifications (in posting order) and metrics.
func (s *Store) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	db := s.db.WithContext(ctx)

	var row jobRow
	if err := db.Where("id = ?", jobID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("query job: %w", err)
	}

	var quals []qualificationRow
	if err := db.Where("job_id = ?", jobID).Order("position asc").Find(&quals).Error; err != nil {
		return nil, fmt.Errorf("query qualifications: %w", err)
	}

	var metrics metricsRow
	if err := db.Where("job_id = ?", jobID).Limit(1).Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}

	job := &model.Job{
		ID:                 row.ID,
		Title:              row.Title,
		CompanyName:        row.CompanyName,
		CompanyAddress:     row.CompanyAddress,
		IndustryTags:       nonNil(row.IndustryTags),
		PriorityCategories: nonNil(row.PriorityCategories),
		Description:        row.Description,
		SalaryRange:        row.SalaryRange,
		Contact:            row.Contact,
		Qualifications:     make([]model.Qualification, 0, len(quals)),
		Metrics: model.Metrics{
			Views:        metrics.Views,
			Applications: metrics.Applications,
			Saved:        metrics.Saved,
			Qualified:    metrics.Qualified,
		},
		CreatedAt: row.CreatedAt,
	}
	for _, q := range quals {
		job.Qualifications = append(job.Qualifications, model.Qualification{
			ID:                  q.ID,
			Requirement:         q.Requirement,
			PossibleCredentials: nonNil(q.PossibleCredentials),
			Categories:          nonNil(q.Categories),
			Priority:            q.Priority,
		})
	}
	return job, nil
}

// ListApplicantIDs returns every applicant profile id.
func (s *Store) ListApplicantIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&applicantRow{}).Order("created_at asc, id asc").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}
	return ids, nil
}

// ─── Match scores ────────────────────────────────────────────────────────────

// ApplicantExists implements matching.Store.
func (s *Store) ApplicantExists(ctx context.Context, applicantID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&applicantRow{}).Where("id = ?", applicantID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("query applicant: %w", err)
	}
	return n > 0, nil
}

// ListUnscoredJobIDs returns, in catalog order, the jobs with no Match Score
// for applicantID.
func (s *Store) ListUnscoredJobIDs(ctx context.Context, applicantID string) ([]string, error) {
	db := s.db.WithContext(ctx)
	scored := db.Model(&matchScoreRow{}).Select("job_id").Where("applicant_id = ?", applicantID)

	var ids []string
	if err := db.Model(&jobRow{}).
		Where("id NOT IN (?)", scored).
		Order("created_at asc, id asc").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("query unscored jobs: %w", err)
	}
	return ids, nil
}

// HasMatchScore implements matching.Store.
func (s *Store) HasMatchScore(ctx context.Context, applicantID, jobID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&matchScoreRow{}).
		Where("applicant_id = ? AND job_id = ?", applicantID, jobID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("query match score: %w", err)
	}
	return n > 0, nil
}

// InsertMatchScore inserts ms unless the pair is already scored.
func (s *Store) InsertMatchScore(ctx context.Context, ms model.MatchScore) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "applicant_id"}, {Name: "job_id"}},
			DoNothing: true,
		}).
		Create(&matchScoreRow{
			ID:          ms.ID,
			ApplicantID: ms.ApplicantID,
			JobID:       ms.JobID,
			Score:       ms.Score,
			CreatedAt:   ms.CreatedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("insert match score: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListScoredJobs returns the applicant's scored jobs, best score first.
func (s *Store) ListScoredJobs(ctx context.Context, applicantID string) ([]model.ScoredJob, error) {
	out := make([]model.ScoredJob, 0)
	err := s.db.WithContext(ctx).
		Table("match_scores AS ms").
		Select(`ms.id AS match_score_id, ms.job_id, ms.score, ms.created_at AS scored_at,
		        j.title, j.company_name, j.company_address`).
		Joins("JOIN jobs j ON j.id = ms.job_id").
		Where("ms.applicant_id = ?", applicantID).
		Order("ms.score DESC, ms.created_at ASC, ms.job_id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query scored jobs: %w", err)
	}
	return out, nil
}

// ─── Applications ────────────────────────────────────────────────────────────

// CreateApplication implements kanban.Store.
func (s *Store) CreateApplication(ctx context.Context, app kanban.Application) (*kanban.Application, error) {
	history, err := json.Marshal(nonNilHistory(app.History))
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ms matchScoreRow
		if err := tx.Where("id = ?", app.MatchScoreID).Take(&ms).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("match score %s does not exist: %w", app.MatchScoreID, model.ErrInvalidMatchScore)
			}
			return fmt.Errorf("query match score: %w", err)
		}
		if ms.ApplicantID != app.ApplicantID || ms.JobID != app.JobID {
			return fmt.Errorf("match score %s scores (%s, %s): %w", ms.ID, ms.ApplicantID, ms.JobID, model.ErrInvalidMatchScore)
		}

		var n int64
		if err := tx.Model(&applicationRow{}).
			Where("applicant_id = ? AND job_id = ?", app.ApplicantID, app.JobID).
			Count(&n).Error; err != nil {
			return fmt.Errorf("query existing application: %w", err)
		}
		if n > 0 {
			return model.ErrDuplicateApplication
		}

		if err := tx.Create(&applicationRow{
			ID:           app.ID,
			ApplicantID:  app.ApplicantID,
			JobID:        app.JobID,
			MatchScoreID: app.MatchScoreID,
			Status:       string(app.Status),
			HistoryLog:   string(history),
			CreatedAt:    app.CreatedAt,
			UpdatedAt:    app.UpdatedAt,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return model.ErrDuplicateApplication
			}
			return fmt.Errorf("insert application: %w", err)
		}

		res := tx.Model(&metricsRow{}).
			Where("job_id = ?", app.JobID).
			UpdateColumn("applications", gorm.Expr("applications + 1"))
		if res.Error != nil {
			return fmt.Errorf("increment applications metric: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&metricsRow{JobID: app.JobID, Applications: 1}).Error; err != nil {
				return fmt.Errorf("create metrics: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created := app
	created.History = nonNilHistory(app.History)
	return &created, nil
}

// GetApplication implements kanban.Store.
func (s *Store) GetApplication(ctx context.Context, id string) (*kanban.Application, error) {
	return getApplication(s.db.WithContext(ctx), id)
}

// UpdateStatus implements kanban.Store. The update only applies while the
// stored status still equals from.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to kanban.Status, change kanban.StatusChange) (*kanban.Application, error) {
	var updated *kanban.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := getApplication(tx, id)
		if err != nil {
			return err
		}
		if current.Status != from {
			return fmt.Errorf("status is %s, not %s: %w", current.Status, from, model.ErrIllegalTransition)
		}

		history, err := json.Marshal(append(current.History, change))
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}

		res := tx.Model(&applicationRow{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{
				"status":      string(to),
				"history_log": string(history),
				"updated_at":  change.At,
			})
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("status changed concurrently: %w", model.ErrIllegalTransition)
		}

		updated, err = getApplication(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListApplications implements kanban.Store. Newest first.
func (s *Store) ListApplications(ctx context.Context, applicantID string, status kanban.Status) ([]kanban.ApplicationView, error) {
	q := s.db.WithContext(ctx).
		Table("applications AS a").
		Select(`a.id, a.applicant_id, a.job_id, a.match_score_id, a.status, a.history_log,
		        a.created_at, a.updated_at,
		        j.title AS job_title, j.company_name, j.company_address, ms.score`).
		Joins("JOIN jobs j ON j.id = a.job_id").
		Joins("JOIN match_scores ms ON ms.id = a.match_score_id").
		Where("a.applicant_id = ?", applicantID)
	if status != "" {
		q = q.Where("a.status = ?", string(status))
	}

	var rows []applicationViewRow
	if err := q.Order("a.created_at DESC, a.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	out := make([]kanban.ApplicationView, 0, len(rows))
	for _, r := range rows {
		history, err := decodeHistory(r.HistoryLog)
		if err != nil {
			return nil, err
		}
		out = append(out, kanban.ApplicationView{
			Application: kanban.Application{
				ID:           r.ID,
				ApplicantID:  r.ApplicantID,
				JobID:        r.JobID,
				MatchScoreID: r.MatchScoreID,
				Status:       kanban.Status(r.Status),
				History:      history,
				CreatedAt:    r.CreatedAt,
				UpdatedAt:    r.UpdatedAt,
			},
			JobTitle:       r.JobTitle,
			CompanyName:    r.CompanyName,
			CompanyAddress: r.CompanyAddress,
			Score:          r.Score,
		})
	}
	return out, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func getApplication(db *gorm.DB, id string) (*kanban.Application, error) {
	var row applicationRow
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("query application: %w", err)
	}
	history, err := decodeHistory(row.HistoryLog)
	if err != nil {
		return nil, err
	}
	return &kanban.Application{
		ID:           row.ID,
		ApplicantID:  row.ApplicantID,
		JobID:        row.JobID,
		MatchScoreID: row.MatchScoreID,
		Status:       kanban.Status(row.Status),
		History:      history,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func decodeHistory(raw string) ([]kanban.StatusChange, error) {
	history := []kanban.StatusChange{}
	if strings.TrimSpace(raw) == "" {
		return history, nil
	}
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("decode history log: %w", err)
	}
	return history, nil
}

func nonNilHistory(h []kanban.StatusChange) []kanban.StatusChange {
	if h == nil {
		return []kanban.StatusChange{}
	}
	return h
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
