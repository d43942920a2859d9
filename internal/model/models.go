// Package model defines shared data structures for the match service.
package model

import "time"

// Qualification is a single requirement attached to a job posting.
type Qualification struct {
	ID                  string   `json:"id"`
	Requirement         string   `json:"requirement"`
	PossibleCredentials []string `json:"possibleCredentials"`
	Categories          []string `json:"categories"`
	Priority            bool     `json:"priority"`
}

// Metrics mirrors the job_metrics row owned by a job posting.
// Only Applications is written by this service.
type Metrics struct {
	Views        int `json:"views"`
	Applications int `json:"applications"`
	Saved        int `json:"saved"`
	Qualified    int `json:"qualified"`
}

// Job is a posting with its qualification catalog and metrics.
type Job struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	CompanyName        string          `json:"companyName"`
	CompanyAddress     string          `json:"companyAddress"`
	IndustryTags       []string        `json:"industryTags"`
	PriorityCategories []string        `json:"priorityCategories"`
	Description        string          `json:"description"`
	SalaryRange        string          `json:"salaryRange,omitempty"`
	Contact            string          `json:"contact,omitempty"`
	Qualifications     []Qualification `json:"qualifications"`
	Metrics            Metrics         `json:"metrics"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ApplicantProfile is the flattened view of an applicant the scoring engine
// consumes. It is owned by the profile service and read-only here.
type ApplicantProfile struct {
	ID           string   `json:"id"`
	Education    []string `json:"education"`
	Skills       []string `json:"skills"`
	Experience   []string `json:"experience"`
	Certificates []string `json:"certificates"`
}

// MatchScore is the persisted compatibility of one applicant with one job.
// At most one exists per (ApplicantID, JobID).
type MatchScore struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicantId"`
	JobID       string    `json:"jobId"`
	Score       int       `json:"score"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScoredJob is a MatchScore joined with the job fields shown on the
// applicant dashboard.
type ScoredJob struct {
	MatchScoreID   string    `json:"matchScoreId"`
	JobID          string    `json:"jobId"`
	Score          int       `json:"score"`
	Title          string    `json:"title"`
	CompanyName    string    `json:"companyName"`
	CompanyAddress string    `json:"companyAddress"`
	ScoredAt       time.Time `json:"scoredAt"`
}

// Score bounds accepted from the scoring engine.
const (
	MinScore = 0
	MaxScore = 100
)
