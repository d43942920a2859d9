package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by the orchestrator, the lifecycle manager and the stores.
// Callers match them with errors.Is; every layer wraps with context.
var (
	ErrNotFound             = errors.New("not found")
	ErrScoringUnavailable   = errors.New("scoring engine unavailable")
	ErrScoringRejected      = errors.New("scoring engine rejected the pair")
	ErrInvalidMatchScore    = errors.New("match score does not belong to this applicant and job")
	ErrDuplicateApplication = errors.New("applicant has already applied to this job")
	ErrIllegalTransition    = errors.New("illegal status transition")
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// JobError records why evaluating a single job failed.
type JobError struct {
	JobID string
	Err   error
}

func (e *JobError) Error() string { return fmt.Sprintf("job %s: %v", e.JobID, e.Err) }

func (e *JobError) Unwrap() error { return e.Err }
