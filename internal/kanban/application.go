package kanban

import (
	"context"
	"time"
)

// Application is an applicant's formal interest in a job, tracked through
// the status graph in transitions.go.
type Application struct {
	ID           string         `json:"id"`
	ApplicantID  string         `json:"applicantId"`
	JobID        string         `json:"jobId"`
	MatchScoreID string         `json:"matchScoreId"`
	Status       Status         `json:"status"`
	History      []StatusChange `json:"history"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// StatusChange is one entry of an application's history log.
type StatusChange struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// ApplicationView is an Application joined with the job and score fields the
// applicant dashboard renders.
type ApplicationView struct {
	Application
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	Score          int    `json:"score"`
}

// Store is the persistence the lifecycle manager needs.
//
// CreateApplication must, in one transaction: verify the match score exists
// for (ApplicantID, JobID) (model.ErrInvalidMatchScore otherwise), reject a
// second application for the pair (model.ErrDuplicateApplication), insert
// the row and increment the job's applications metric.
//
// UpdateStatus must only succeed while the stored status still equals from;
// otherwise it returns model.ErrIllegalTransition.
type Store interface {
	CreateApplication(ctx context.Context, app Application) (*Application, error)
	GetApplication(ctx context.Context, id string) (*Application, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, change StatusChange) (*Application, error)
	ListApplications(ctx context.Context, applicantID string, status Status) ([]ApplicationView, error)
}
