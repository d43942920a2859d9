package kanban

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobmate/match-service/internal/events"
	"jobmate/match-service/internal/model"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Service creates applications and enforces legal status transitions.
// It has no dependency on a transport; the HTTP and gRPC layers both use it.
type Service struct {
	store  Store
	pub    events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewService returns a configured Service.
func NewService(store Store, pub events.Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		pub:    pub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ─── Business logic ───────────────────────────────────────────────────────────

// CreateApplication records that applicantID applies to jobID on the strength
// of matchScoreID. The new application starts at RECEIVED.
//
// Returns model.ErrInvalidMatchScore when the score is missing or scores a
// different pair, and model.ErrDuplicateApplication on a second application
// for the same pair.
func (s *Service) CreateApplication(ctx context.Context, applicantID, jobID, matchScoreID string) (*Application, error) {
	applicantID = strings.TrimSpace(applicantID)
	jobID = strings.TrimSpace(jobID)
	matchScoreID = strings.TrimSpace(matchScoreID)
	if applicantID == "" || jobID == "" || matchScoreID == "" {
		return nil, &model.ValidationError{Msg: "applicantId, jobId and matchScoreId are required"}
	}

	now := s.now()
	app, err := s.store.CreateApplication(ctx, Application{
		ID:           uuid.NewString(),
		ApplicantID:  applicantID,
		JobID:        jobID,
		MatchScoreID: matchScoreID,
		Status:       StatusReceived,
		History:      []StatusChange{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("createApplication: %w", err)
	}

	s.logger.Info("application created",
		zap.String("application_id", app.ID),
		zap.String("applicant_id", applicantID),
		zap.String("job_id", jobID),
	)
	s.publish(ctx, events.Event{
		Type: events.TypeApplicationCreated,
		Fields: map[string]string{
			"applicationId": app.ID,
			"applicantId":   applicantID,
			"jobId":         jobID,
			"matchScoreId":  matchScoreID,
		},
	})

	return app, nil
}

// AdvanceStatus moves an application to newStatusStr.
// Returns model.ErrNotFound for an unknown application, a ValidationError
// for an unknown status and model.ErrIllegalTransition when the state
// machine rejects the move.
func (s *Service) AdvanceStatus(ctx context.Context, appID, newStatusStr string) (*Application, error) {
	newStatus, err := ParseStatus(newStatusStr)
	if err != nil {
		return nil, &model.ValidationError{Msg: err.Error()}
	}

	current, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("advanceStatus: %w", err)
	}

	if !IsTransitionAllowed(current.Status, newStatus) {
		return nil, fmt.Errorf("transition %s → %s: %w", current.Status, newStatus, model.ErrIllegalTransition)
	}

	change := StatusChange{From: current.Status, To: newStatus, At: s.now()}
	app, err := s.store.UpdateStatus(ctx, appID, current.Status, newStatus, change)
	if err != nil {
		return nil, fmt.Errorf("advanceStatus: %w", err)
	}

	s.logger.Info("application status changed",
		zap.String("application_id", appID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(newStatus)),
	)
	s.publish(ctx, events.Event{
		Type: events.TypeStatusChanged,
		Fields: map[string]string{
			"applicationId": appID,
			"applicantId":   app.ApplicantID,
			"jobId":         app.JobID,
			"from":          string(current.Status),
			"to":            string(newStatus),
		},
	})

	return app, nil
}

// GetApplication returns a single application by ID.
func (s *Service) GetApplication(ctx context.Context, appID string) (*Application, error) {
	app, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("getApplication: %w", err)
	}
	return app, nil
}

// ListApplications returns the applicant's applications, newest first.
// If statusFilter is non-empty, only applications with that status are returned.
func (s *Service) ListApplications(ctx context.Context, applicantID, statusFilter string) ([]ApplicationView, error) {
	var status Status
	if statusFilter != "" {
		st, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, &model.ValidationError{Msg: err.Error()}
		}
		status = st
	}

	apps, err := s.store.ListApplications(ctx, applicantID, status)
	if err != nil {
		return nil, fmt.Errorf("listApplications: %w", err)
	}
	return apps, nil
}

// publish sends e and only logs on failure.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.pub.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event failed", zap.String("type", e.Type), zap.Error(err))
	}
}
