package grpcserver

import (
	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/model"
)

// Request and response messages of jobmate.match.v1.MatchService.

type EvaluateApplicantRequest struct {
	ApplicantID string `json:"applicantId"`
}

type EvaluateApplicantResponse struct {
	ApplicantID string             `json:"applicantId"`
	Created     []model.MatchScore `json:"created"`
	Skipped     []string           `json:"skipped"`
	Summary     string             `json:"summary"`
	Warnings    []string           `json:"warnings"`
}

type ListMatchesRequest struct {
	ApplicantID string `json:"applicantId"`
}

type ListMatchesResponse struct {
	Matches []model.ScoredJob `json:"matches"`
}

type ListApplicationsRequest struct {
	ApplicantID string `json:"applicantId"`
	Status      string `json:"status,omitempty"`
}

type ListApplicationsResponse struct {
	Applications []kanban.ApplicationView `json:"applications"`
}

type GetJobRequest struct {
	JobID string `json:"jobId"`
}

type CreateApplicationRequest struct {
	ApplicantID  string `json:"applicantId"`
	JobID        string `json:"jobId"`
	MatchScoreID string `json:"matchScoreId"`
}

type GetApplicationRequest struct {
	ApplicationID string `json:"applicationId"`
}

type AdvanceStatusRequest struct {
	ApplicationID string `json:"applicationId"`
	NewStatus     string `json:"newStatus"`
}
