// Package scheduler wires up the cron job that periodically re-evaluates
// every applicant so new catalog entries get scored without an explicit
// trigger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobmate/match-service/internal/matching"
	"jobmate/match-service/internal/model"
)

// Applicants lists the applicants a sweep visits.
type Applicants interface {
	ListApplicantIDs(ctx context.Context) ([]string, error)
}

// Evaluator runs one evaluation. matching.Orchestrator implements it.
type Evaluator interface {
	EvaluateApplicant(ctx context.Context, applicantID string) (*matching.Result, error)
}

// Scheduler wraps robfig/cron and manages the sweep loop.
type Scheduler struct {
	cron       *cron.Cron
	applicants Applicants
	eval       Evaluator
	logger     *zap.Logger
	spec       string // cron spec, e.g. "@every 15m"

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler that sweeps on spec.
func New(applicants Applicants, eval Evaluator, logger *zap.Logger, spec string) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:       cron.New(),
		applicants: applicants,
		eval:       eval,
		logger:     logger.Named("scheduler"),
		spec:       spec,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("cron started", zap.String("spec", s.spec))
	return nil
}

// Stop gracefully shuts down the scheduler and waits for a running sweep.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron stopped")
}

// Sweep evaluates every applicant once. Ticks that fire while a sweep is
// still running are skipped.
func (s *Scheduler) Sweep(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("sweep still running, tick skipped")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ids, err := s.applicants.ListApplicantIDs(ctx)
	if err != nil {
		s.logger.Error("list applicants failed", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		s.logger.Info("no applicants, nothing to sweep")
		return
	}

	s.logger.Info("sweep started", zap.Int("applicants", len(ids)))
	created := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		res, err := s.eval.EvaluateApplicant(ctx, id)
		if res != nil {
			created += len(res.Created)
		}
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			s.logger.Error("evaluation failed", zap.String("applicant_id", id), zap.Error(err))
		}
	}
	s.logger.Info("sweep complete", zap.Int("created", created))
}
