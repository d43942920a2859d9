// Package kanban defines the hiring-funnel state machine for applications.
//
// Valid status graph:
//
//	RECEIVED ──► UNDER_REVIEW ──► SHORTLISTED ──► INTERVIEW_SCHEDULED ──► OFFER_RECEIVED
//	    │              │               │                  │
//	    └──────────────┴───────────────┴──────────────────┴──► REJECTED | WITHDRAWN
//
// OFFER_RECEIVED, REJECTED and WITHDRAWN are terminal states.
package kanban

import "fmt"

// Status values mirror the application_status column.
type Status string

const (
	StatusReceived           Status = "RECEIVED"
	StatusUnderReview        Status = "UNDER_REVIEW"
	StatusShortlisted        Status = "SHORTLISTED"
	StatusInterviewScheduled Status = "INTERVIEW_SCHEDULED"
	StatusOfferReceived      Status = "OFFER_RECEIVED"
	StatusRejected           Status = "REJECTED"
	StatusWithdrawn          Status = "WITHDRAWN"
)

// AllStatuses lists every status in funnel order.
var AllStatuses = []Status{
	StatusReceived,
	StatusUnderReview,
	StatusShortlisted,
	StatusInterviewScheduled,
	StatusOfferReceived,
	StatusRejected,
	StatusWithdrawn,
}

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusReceived:           {StatusUnderReview, StatusRejected, StatusWithdrawn},
	StatusUnderReview:        {StatusShortlisted, StatusRejected, StatusWithdrawn},
	StatusShortlisted:        {StatusInterviewScheduled, StatusRejected, StatusWithdrawn},
	StatusInterviewScheduled: {StatusOfferReceived, StatusRejected, StatusWithdrawn},
	// OFFER_RECEIVED, REJECTED and WITHDRAWN are terminal
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}
