// Package matching scores an applicant against every job they have not been
// scored for yet and persists each Match Score at most once.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmate/match-service/internal/events"
	"jobmate/match-service/internal/model"
	"jobmate/match-service/internal/scoring"
)

const defaultWorkers = 4

// Scorer is the scoring-engine boundary. scoring.Client implements it.
type Scorer interface {
	Score(ctx context.Context, jobID, applicantID string) (scoring.Result, error)
}

// Store is the persistence the orchestrator needs.
//
// InsertMatchScore must be a no-op returning created=false when a score for
// the pair already exists; the store's unique constraint on
// (applicant_id, job_id) is the source of truth for that, not HasMatchScore.
type Store interface {
	ApplicantExists(ctx context.Context, applicantID string) (bool, error)
	ListUnscoredJobIDs(ctx context.Context, applicantID string) ([]string, error)
	HasMatchScore(ctx context.Context, applicantID, jobID string) (bool, error)
	InsertMatchScore(ctx context.Context, ms model.MatchScore) (created bool, err error)
	ListScoredJobs(ctx context.Context, applicantID string) ([]model.ScoredJob, error)
}

// Result is the aggregate outcome of one evaluation.
type Result struct {
	ApplicantID string             `json:"applicantId"`
	Created     []model.MatchScore `json:"created"`
	// Skipped lists jobs that were scored by a concurrent evaluation between
	// discovery and insert.
	Skipped  []string          `json:"skipped"`
	Failures []*model.JobError `json:"-"`
}

// Summary is the user-facing line, e.g. "3 new matches found".
func (r *Result) Summary() string {
	switch len(r.Created) {
	case 1:
		return "1 new match found"
	default:
		return strconv.Itoa(len(r.Created)) + " new matches found"
	}
}

// Warnings renders the per-job failures as non-fatal messages.
func (r *Result) Warnings() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	return out
}

// Orchestrator runs evaluations.
type Orchestrator struct {
	store   Store
	scorer  Scorer
	pub     events.Publisher
	logger  *zap.Logger
	workers int
	now     func() time.Time
}

// NewOrchestrator returns an Orchestrator that runs at most workers scoring
// calls at once.
func NewOrchestrator(store Store, scorer Scorer, pub events.Publisher, logger *zap.Logger, workers int) *Orchestrator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:   store,
		scorer:  scorer,
		pub:     pub,
		logger:  logger,
		workers: workers,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateApplicant scores applicantID against every job without a Match
// Score and persists the new scores.
//
// Unknown applicants return model.ErrNotFound before any write. Scoring
// failures are isolated per job and reported in Result.Failures. Store
// failures are returned as an error, together with the partial Result.
func (o *Orchestrator) EvaluateApplicant(ctx context.Context, applicantID string) (*Result, error) {
	exists, err := o.store.ApplicantExists(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("evaluateApplicant: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("applicant %s: %w", applicantID, model.ErrNotFound)
	}

	jobIDs, err := o.store.ListUnscoredJobIDs(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("evaluateApplicant: %w", err)
	}

	log := o.logger.With(zap.String("applicant_id", applicantID))
	log.Debug("evaluation started", zap.Int("unscored_jobs", len(jobIDs)))

	res := &Result{
		ApplicantID: applicantID,
		Created:     []model.MatchScore{},
		Skipped:     []string{},
	}
	order := make(map[string]int, len(jobIDs))
	for i, id := range jobIDs {
		order[id] = i
	}

	var (
		mu        sync.Mutex
		storeErrs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, jobID := range jobIDs {
		jobID := jobID
		g.Go(func() error {
			ms, created, err := o.evaluateJob(gctx, applicantID, jobID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && !isScoringError(err):
				storeErrs = append(storeErrs, &model.JobError{JobID: jobID, Err: err})
			case err != nil:
				log.Warn("job evaluation failed", zap.String("job_id", jobID), zap.Error(err))
				res.Failures = append(res.Failures, &model.JobError{JobID: jobID, Err: err})
			case !created:
				res.Skipped = append(res.Skipped, jobID)
			default:
				res.Created = append(res.Created, ms)
			}
			// Per-job failures never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(res.Created, func(i, j int) bool { return order[res.Created[i].JobID] < order[res.Created[j].JobID] })
	sort.Slice(res.Failures, func(i, j int) bool { return order[res.Failures[i].JobID] < order[res.Failures[j].JobID] })
	sort.Slice(res.Skipped, func(i, j int) bool { return order[res.Skipped[i]] < order[res.Skipped[j]] })

	log.Info("evaluation completed",
		zap.Int("candidates", len(jobIDs)),
		zap.Int("created", len(res.Created)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failures)),
	)

	if len(storeErrs) > 0 {
		return res, fmt.Errorf("evaluateApplicant: %w", errors.Join(storeErrs...))
	}

	if len(res.Created) > 0 {
		if err := o.pub.Publish(ctx, events.Event{
			Type: events.TypeMatchesFound,
			Fields: map[string]string{
				"applicantId": applicantID,
				"count":       strconv.Itoa(len(res.Created)),
			},
		}); err != nil {
			log.Warn("publish event failed", zap.String("type", events.TypeMatchesFound), zap.Error(err))
		}
	}

	return res, nil
}

func isScoringError(err error) bool {
	return errors.Is(err, model.ErrScoringUnavailable) || errors.Is(err, model.ErrScoringRejected)
}

// evaluateJob scores one pair and inserts the result unless the pair is
// already scored. Nothing is written when scoring fails.
func (o *Orchestrator) evaluateJob(ctx context.Context, applicantID, jobID string) (model.MatchScore, bool, error) {
	res, err := o.scorer.Score(ctx, jobID, applicantID)
	if err != nil {
		if !isScoringError(err) {
			err = fmt.Errorf("%w: %w", model.ErrScoringUnavailable, err)
		}
		return model.MatchScore{}, false, err
	}

	if res.JobID != jobID {
		return model.MatchScore{}, false, fmt.Errorf("engine scored job %q, asked for %q: %w", res.JobID, jobID, model.ErrScoringRejected)
	}
	// Re-checked here for Scorer implementations that skip Normalize.
	score, err := scoring.Normalize(float64(res.Score))
	if err != nil {
		return model.MatchScore{}, false, err
	}

	scored, err := o.store.HasMatchScore(ctx, applicantID, res.JobID)
	if err != nil {
		return model.MatchScore{}, false, fmt.Errorf("check existing score: %w", err)
	}
	if scored {
		return model.MatchScore{}, false, nil
	}

	ms := model.MatchScore{
		ID:          uuid.NewString(),
		ApplicantID: applicantID,
		JobID:       res.JobID,
		Score:       score,
		CreatedAt:   o.now(),
	}
	created, err := o.store.InsertMatchScore(ctx, ms)
	if err != nil {
		return model.MatchScore{}, false, fmt.Errorf("insert match score: %w", err)
	}
	return ms, created, nil
}

// ListScoredJobs returns the applicant's scored jobs, best score first.
func (o *Orchestrator) ListScoredJobs(ctx context.Context, applicantID string) ([]model.ScoredJob, error) {
	jobs, err := o.store.ListScoredJobs(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("listScoredJobs: %w", err)
	}
	return jobs, nil
}
