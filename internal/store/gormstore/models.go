package gormstore

import "time"

// Row types mirror the Postgres schema in store/postgres/schema.sql.

type jobRow struct {
	ID                 string   `gorm:"primaryKey"`
	Title              string   `gorm:"not null"`
	CompanyName        string   `gorm:"not null;default:''"`
	CompanyAddress     string   `gorm:"not null;default:''"`
	IndustryTags       []string `gorm:"serializer:json"`
	PriorityCategories []string `gorm:"serializer:json"`
	Description        string   `gorm:"type:text"`
	SalaryRange        string
	Contact            string
	CreatedAt          time.Time `gorm:"index"`
}

func (jobRow) TableName() string { return "jobs" }

type qualificationRow struct {
	ID                  string   `gorm:"primaryKey"`
	JobID               string   `gorm:"not null;index"`
	Position            int      `gorm:"not null"`
	Requirement         string   `gorm:"type:text;not null"`
	PossibleCredentials []string `gorm:"serializer:json"`
	Categories          []string `gorm:"serializer:json"`
	Priority            bool     `gorm:"not null;default:false"`
}

func (qualificationRow) TableName() string { return "qualifications" }

type metricsRow struct {
	JobID        string `gorm:"primaryKey"`
	Views        int    `gorm:"not null;default:0"`
	Applications int    `gorm:"not null;default:0"`
	Saved        int    `gorm:"not null;default:0"`
	Qualified    int    `gorm:"not null;default:0"`
}

func (metricsRow) TableName() string { return "job_metrics" }

type applicantRow struct {
	ID           string   `gorm:"primaryKey"`
	Education    []string `gorm:"serializer:json"`
	Skills       []string `gorm:"serializer:json"`
	Experience   []string `gorm:"serializer:json"`
	Certificates []string `gorm:"serializer:json"`
	CreatedAt    time.Time
}

func (applicantRow) TableName() string { return "applicant_profiles" }

type matchScoreRow struct {
	ID          string    `gorm:"primaryKey"`
	ApplicantID string    `gorm:"not null;uniqueIndex:uq_match_scores_pair"`
	JobID       string    `gorm:"not null;uniqueIndex:uq_match_scores_pair;index"`
	Score       int       `gorm:"not null;check:chk_match_scores_range,score >= 0 AND score <= 100"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (matchScoreRow) TableName() string { return "match_scores" }

type applicationRow struct {
	ID           string    `gorm:"primaryKey"`
	ApplicantID  string    `gorm:"not null;uniqueIndex:uq_applications_pair"`
	JobID        string    `gorm:"not null;uniqueIndex:uq_applications_pair"`
	MatchScoreID string    `gorm:"not null;index"`
	Status       string    `gorm:"not null;index"`
	HistoryLog   string    `gorm:"type:text;not null;default:'[]'"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (applicationRow) TableName() string { return "applications" }

type applicationViewRow struct {
	ID             string
	ApplicantID    string
	JobID          string
	MatchScoreID   string
	Status         string
	HistoryLog     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	JobTitle       string
	CompanyName    string
	CompanyAddress string
	Score          int
}

// allModels is the AutoMigrate set.
var allModels = []any{
	&jobRow{},
	&qualificationRow{},
	&metricsRow{},
	&applicantRow{},
	&matchScoreRow{},
	&applicationRow{},
}
