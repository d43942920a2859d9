package scoring_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobmate/match-service/internal/model"
	"jobmate/match-service/internal/scoring"
)

func engine(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScore_Success(t *testing.T) {
	var gotJob, gotApplicant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotJob = r.URL.Query().Get("jobId")
		gotApplicant = r.URL.Query().Get("applicantId")
		_, _ = w.Write([]byte(`{"score": 81.6, "id": "J1"}`))
	}))
	defer srv.Close()

	res, err := scoring.NewClient(srv.URL+"/", time.Second).Score(context.Background(), "J1", "A1")
	if err != nil {
		t.Fatalf("Score() unexpected error: %v", err)
	}
	if res.JobID != "J1" || res.Score != 82 {
		t.Errorf("Score() = %+v, want {J1 82}", res)
	}
	if gotJob != "J1" || gotApplicant != "A1" {
		t.Errorf("engine received jobId=%q applicantId=%q", gotJob, gotApplicant)
	}
}

func TestScore_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, `{"error": "boom"}`, model.ErrScoringUnavailable},
		{"bad gateway html", http.StatusBadGateway, `<html>bad gateway</html>`, model.ErrScoringUnavailable},
		{"not json", http.StatusOK, `<html>hello</html>`, model.ErrScoringUnavailable},
		{"unknown pair", http.StatusNotFound, `{"error": "unknown job"}`, model.ErrScoringRejected},
		{"error field on 200", http.StatusOK, `{"error": "no applicant"}`, model.ErrScoringRejected},
		{"missing id", http.StatusOK, `{"score": 50}`, model.ErrScoringRejected},
		{"different id", http.StatusOK, `{"score": 50, "id": "J9"}`, model.ErrScoringRejected},
		{"missing score", http.StatusOK, `{"id": "J1"}`, model.ErrScoringRejected},
		{"null score", http.StatusOK, `{"id": "J1", "score": null}`, model.ErrScoringRejected},
		{"string score", http.StatusOK, `{"id": "J1", "score": "high"}`, model.ErrScoringRejected},
		{"above range", http.StatusOK, `{"id": "J1", "score": 100.5}`, model.ErrScoringRejected},
		{"below range", http.StatusOK, `{"id": "J1", "score": -1}`, model.ErrScoringRejected},
		{"numeric id", http.StatusOK, `{"id": 5, "score": 82}`, model.ErrScoringRejected},
		{"array body", http.StatusOK, `[]`, model.ErrScoringRejected},
		{"string body", http.StatusOK, `"ok"`, model.ErrScoringRejected},
		{"empty body", http.StatusOK, ``, model.ErrScoringUnavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := engine(t, c.status, c.body)
			_, err := scoring.NewClient(srv.URL, time.Second).Score(context.Background(), "J1", "A1")
			if !errors.Is(err, c.want) {
				t.Fatalf("Score() error = %v, want %v", err, c.want)
			}
		})
	}
}

func TestScore_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := scoring.NewClient(srv.URL, 50*time.Millisecond).Score(context.Background(), "J1", "A1")
	if !errors.Is(err, model.ErrScoringUnavailable) {
		t.Fatalf("Score() error = %v, want ErrScoringUnavailable", err)
	}
}

func TestScore_UnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := scoring.NewClient(url, time.Second).Score(context.Background(), "J1", "A1")
	if !errors.Is(err, model.ErrScoringUnavailable) {
		t.Fatalf("Score() error = %v, want ErrScoringUnavailable", err)
	}
}

func TestNormalize(t *testing.T) {
	ok := []struct {
		in   float64
		want int
	}{
		{0, 0}, {100, 100}, {49.5, 50}, {49.4, 49}, {99.6, 100},
	}
	for _, c := range ok {
		got, err := scoring.Normalize(c.in)
		if err != nil || got != c.want {
			t.Errorf("Normalize(%v) = %d, %v; want %d", c.in, got, err, c.want)
		}
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.01, 100.01} {
		if _, err := scoring.Normalize(bad); !errors.Is(err, model.ErrScoringRejected) {
			t.Errorf("Normalize(%v) error = %v, want ErrScoringRejected", bad, err)
		}
	}
}
