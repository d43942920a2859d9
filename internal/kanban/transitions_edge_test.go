package kanban_test

// ── Additional edge-case tests ────────────────────────────────────────────
//
// The core state-machine matrix is covered in transitions_test.go.

import (
	"testing"

	"jobmate/match-service/internal/kanban"
)

// ParseStatus must be case-sensitive; lowercase variants must not be valid.
func TestParseStatus_CaseSensitive(t *testing.T) {
	lowercase := []string{"received", "under_review", "shortlisted", "interview_scheduled", "offer_received", "rejected", "withdrawn"}
	for _, s := range lowercase {
		_, err := kanban.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject lowercase value, got nil error", s)
		}
	}
}

// ParseStatus must reject whitespace-padded strings.
func TestParseStatus_WithWhitespace(t *testing.T) {
	padded := []string{" SHORTLISTED", "SHORTLISTED ", " SHORTLISTED "}
	for _, s := range padded {
		_, err := kanban.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject padded value, got nil error", s)
		}
	}
}

// All constants must round-trip through ParseStatus without error.
func TestParseStatus_AllConstantsRoundTrip(t *testing.T) {
	if len(kanban.AllStatuses) != 7 {
		t.Fatalf("len(AllStatuses) = %d, want 7", len(kanban.AllStatuses))
	}
	for _, s := range kanban.AllStatuses {
		got, err := kanban.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

// UNDER_REVIEW → OFFER_RECEIVED skips two stages and must be refused.
func TestIsTransitionAllowed_ReviewStraightToOffer(t *testing.T) {
	if kanban.IsTransitionAllowed(kanban.StatusUnderReview, kanban.StatusOfferReceived) {
		t.Error("IsTransitionAllowed(UNDER_REVIEW → OFFER_RECEIVED) must be false")
	}
}

// Unknown source statuses have no outgoing edges.
func TestIsTransitionAllowed_UnknownSource(t *testing.T) {
	for _, to := range kanban.AllStatuses {
		if kanban.IsTransitionAllowed(kanban.Status("APPLIED"), to) {
			t.Errorf("IsTransitionAllowed(APPLIED → %s) must be false", to)
		}
	}
}

// RECEIVED is the mandatory initial state for any new application.
// Verify it is never reachable from any other state.
func TestIsTransitionAllowed_ReceivedIsNeverReachable(t *testing.T) {
	for _, from := range kanban.AllStatuses {
		if kanban.IsTransitionAllowed(from, kanban.StatusReceived) {
			t.Errorf(
				"IsTransitionAllowed(%s → RECEIVED) must be false: RECEIVED is only an initial state",
				from,
			)
		}
	}
}

// Every non-terminal state must be able to reach OFFER_RECEIVED by
// following forward edges one step at a time.
func TestIsTransitionAllowed_FunnelIsConnected(t *testing.T) {
	funnel := []kanban.Status{
		kanban.StatusReceived,
		kanban.StatusUnderReview,
		kanban.StatusShortlisted,
		kanban.StatusInterviewScheduled,
		kanban.StatusOfferReceived,
	}
	for i := 0; i+1 < len(funnel); i++ {
		if !kanban.IsTransitionAllowed(funnel[i], funnel[i+1]) {
			t.Errorf("funnel broken at %s → %s", funnel[i], funnel[i+1])
		}
	}
}
