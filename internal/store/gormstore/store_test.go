package gormstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/model"
	"jobmate/match-service/internal/store/gormstore"
)

func newStore(t *testing.T) *gormstore.Store {
	t.Helper()
	s, err := gormstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "match.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *gormstore.Store, applicants []string, jobs []string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range applicants {
		if err := s.CreateApplicant(ctx, model.ApplicantProfile{ID: id, Skills: []string{"go"}}); err != nil {
			t.Fatalf("CreateApplicant(%s) error: %v", id, err)
		}
	}
	for i, id := range jobs {
		job := model.Job{
			ID:          id,
			Title:       "Job " + id,
			CompanyName: "Acme",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			Qualifications: []model.Qualification{
				{Requirement: "Go", Categories: []string{"backend"}, Priority: true},
				{Requirement: "SQL"},
			},
		}
		if err := s.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob(%s) error: %v", id, err)
		}
	}
}

func insertScore(t *testing.T, s *gormstore.Store, id, applicantID, jobID string, score int) {
	t.Helper()
	created, err := s.InsertMatchScore(context.Background(), model.MatchScore{
		ID: id, ApplicantID: applicantID, JobID: jobID, Score: score, CreatedAt: base,
	})
	if err != nil || !created {
		t.Fatalf("InsertMatchScore(%s) = %v, %v; want true, nil", id, created, err)
	}
}

func newApp(id, applicantID, jobID, msID string) kanban.Application {
	return kanban.Application{
		ID: id, ApplicantID: applicantID, JobID: jobID, MatchScoreID: msID,
		Status: kanban.StatusReceived, CreatedAt: base, UpdatedAt: base,
	}
}

// ── Catalog ────────────────────────────────────────────────────────────────

func TestGetJob(t *testing.T) {
	s := newStore(t)
	seed(t, s, nil, []string{"J1"})

	job, err := s.GetJob(context.Background(), "J1")
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if job.Title != "Job J1" || len(job.Qualifications) != 2 {
		t.Fatalf("GetJob() = %+v", job)
	}
	if job.Qualifications[0].Requirement != "Go" || !job.Qualifications[0].Priority {
		t.Errorf("qualifications out of order: %+v", job.Qualifications)
	}
	if job.Metrics.Applications != 0 {
		t.Errorf("Metrics.Applications = %d, want 0", job.Metrics.Applications)
	}

	if _, err := s.GetJob(context.Background(), "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetJob(nope) error = %v, want ErrNotFound", err)
	}
}

func TestApplicantExists(t *testing.T) {
	s := newStore(t)
	seed(t, s, []string{"A1"}, nil)

	ok, err := s.ApplicantExists(context.Background(), "A1")
	if err != nil || !ok {
		t.Errorf("ApplicantExists(A1) = %v, %v", ok, err)
	}
	ok, err = s.ApplicantExists(context.Background(), "A2")
	if err != nil || ok {
		t.Errorf("ApplicantExists(A2) = %v, %v", ok, err)
	}
}

// ── Match scores ───────────────────────────────────────────────────────────

func TestListUnscoredJobIDs_CatalogOrderMinusScored(t *testing.T) {
	s := newStore(t)
	seed(t, s, []string{"A1", "A2"}, []string{"J1", "J2", "J3"})
	insertScore(t, s, "ms1", "A1", "J2", 70)

	got, err := s.ListUnscoredJobIDs(context.Background(), "A1")
	if err != nil {
		t.Fatalf("ListUnscoredJobIDs() error: %v", err)
	}
	if len(got) != 2 || got[0] != "J1" || got[1] != "J3" {
		t.Errorf("ListUnscoredJobIDs(A1) = %v, want [J1 J3]", got)
	}

	// Scores of another applicant do not count.
	got, _ = s.ListUnscoredJobIDs(context.Background(), "A2")
	if len(got) != 3 {
		t.Errorf("ListUnscoredJobIDs(A2) = %v, want all three jobs", got)
	}
}

func TestInsertMatchScore_SecondInsertIsNoop(t *testing.T) {
	s := newStore(t)
	seed(t, s, []string{"A1"}, []string{"J1"})
	insertScore(t, s, "ms1", "A1", "J1", 70)

	created, err := s.InsertMatchScore(context.Background(), model.MatchScore{
		ID: "ms2", ApplicantID: "A1", JobID: "J1", Score: 10, CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("InsertMatchScore() error: %v", err)
	}
	if created {
		t.Error("second InsertMatchScore() for the same pair reported created")
	}

	jobs, err := s.ListScoredJobs(context.Background(), "A1")
	if err != nil || len(jobs) != 1 || jobs[0].MatchScoreID != "ms1" || jobs[0].Score != 70 {
		t.Errorf("first score not kept: %+v, %v", jobs, err)
	}
}

func TestInsertMatchScore_Concurrent(t *testing.T) {
	s := newStore(t)
	seed(t, s, []string{"A1"}, []string{"J1"})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.InsertMatchScore(context.Background(), model.MatchScore{
				ID: "ms" + string(rune('a'+i)), ApplicantID: "A1", JobID: "J1", Score: 50, CreatedAt: base,
			})
			if err != nil {
				t.Errorf("InsertMatchScore() error: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("%d concurrent inserts created a row, want exactly 1", created)
	}
}

func TestInsertMatchScore_RangeCheck(t *testing.T) {
	s := newStore(t)
	seed(t, s, []string{"A1"}, []string{"J1"})

	_, err := s.InsertMatchScore(context.Background(), model.MatchScore{
		ID: "ms1", ApplicantID: "A1", JobID: "J1", Score: 101, CreatedAt: base,
	})
	if err == nil {
		t.Error("InsertMatchScore(score=101) expected a check constraint error")
	}
}

func TestListScoredJobs_BestFirst(t *testing.T) {
	s := newStore(t)
	seed(t, s, []string{"A1"}, []string{"J1", "J2"})
	insertScore(t, s, "ms1", "A1", "J1", 40)
	insertScore(t, s, "ms2", "A1", "J2", 90)

	got, err := s.ListScoredJobs(context.Background(), "A1")
	if err != nil {
		t.Fatalf("ListScoredJobs() error: %v", err)
	}
	if len(got) != 2 || got[0].JobID != "J2" || got[0].Score != 90 || got[0].Title != "Job J2" {
		t.Errorf("ListScoredJobs() = %+v", got)
	}
	if got[1].MatchScoreID != "ms1" {
		t.Errorf("got[1].MatchScoreID = %q, want ms1", got[1].MatchScoreID)
	}
}

// ── Applications ───────────────────────────────────────────────────────────

func TestCreateApplication_IncrementsMetrics(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, []string{"A1"}, []string{"J1"})
	insertScore(t, s, "ms1", "A1", "J1", 80)

	app, err := s.CreateApplication(ctx, newApp("app1", "A1", "J1", "ms1"))
	if err != nil {
		t.Fatalf("CreateApplication() error: %v", err)
	}
	if app.Status != kanban.StatusReceived || len(app.History) != 0 {
		t.Errorf("CreateApplication() = %+v", app)
	}

	job, _ := s.GetJob(ctx, "J1")
	if job.Metrics.Applications != 1 {
		t.Errorf("Metrics.Applications = %d, want 1", job.Metrics.Applications)
	}
}

func TestCreateApplication_Duplicate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, []string{"A1"}, []string{"J1"})
	insertScore(t, s, "ms1", "A1", "J1", 80)

	if _, err := s.CreateApplication(ctx, newApp("app1", "A1", "J1", "ms1")); err != nil {
		t.Fatalf("first CreateApplication() error: %v", err)
	}
	_, err := s.CreateApplication(ctx, newApp("app2", "A1", "J1", "ms1"))
	if !errors.Is(err, model.ErrDuplicateApplication) {
		t.Fatalf("second CreateApplication() error = %v, want ErrDuplicateApplication", err)
	}

	job, _ := s.GetJob(ctx, "J1")
	if job.Metrics.Applications != 1 {
		t.Errorf("Metrics.Applications = %d after rejected duplicate, want 1", job.Metrics.Applications)
	}
}

func TestCreateApplication_InvalidMatchScore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, []string{"A1", "A2"}, []string{"J1", "J2"})
	insertScore(t, s, "ms1", "A1", "J1", 80)

	cases := []struct {
		name string
		app  kanban.Application
	}{
		{"missing score", newApp("x1", "A1", "J1", "nope")},
		{"other job", newApp("x2", "A1", "J2", "ms1")},
		{"other applicant", newApp("x3", "A2", "J1", "ms1")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := s.CreateApplication(ctx, c.app)
			if !errors.Is(err, model.ErrInvalidMatchScore) {
				t.Errorf("CreateApplication() error = %v, want ErrInvalidMatchScore", err)
			}
		})
	}

	views, _ := s.ListApplications(ctx, "A1", "")
	if len(views) != 0 {
		t.Errorf("rejected applications were persisted: %+v", views)
	}
}

func TestUpdateStatus_AppendsHistory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, []string{"A1"}, []string{"J1"})
	insertScore(t, s, "ms1", "A1", "J1", 80)
	if _, err := s.CreateApplication(ctx, newApp("app1", "A1", "J1", "ms1")); err != nil {
		t.Fatal(err)
	}

	at := base.Add(time.Hour)
	app, err := s.UpdateStatus(ctx, "app1", kanban.StatusReceived, kanban.StatusUnderReview,
		kanban.StatusChange{From: kanban.StatusReceived, To: kanban.StatusUnderReview, At: at})
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if app.Status != kanban.StatusUnderReview {
		t.Errorf("Status = %s, want UNDER_REVIEW", app.Status)
	}
	if len(app.History) != 1 || app.History[0].To != kanban.StatusUnderReview || !app.History[0].At.Equal(at) {
		t.Errorf("History = %+v", app.History)
	}
}

func TestUpdateStatus_StaleFrom(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, []string{"A1"}, []string{"J1"})
	insertScore(t, s, "ms1", "A1", "J1", 80)
	if _, err := s.CreateApplication(ctx, newApp("app1", "A1", "J1", "ms1")); err != nil {
		t.Fatal(err)
	}

	_, err := s.UpdateStatus(ctx, "app1", kanban.StatusUnderReview, kanban.StatusShortlisted,
		kanban.StatusChange{From: kanban.StatusUnderReview, To: kanban.StatusShortlisted, At: base})
	if !errors.Is(err, model.ErrIllegalTransition) {
		t.Fatalf("UpdateStatus() error = %v, want ErrIllegalTransition", err)
	}

	app, _ := s.GetApplication(ctx, "app1")
	if app.Status != kanban.StatusReceived || len(app.History) != 0 {
		t.Errorf("application changed by a rejected update: %+v", app)
	}

	if _, err := s.UpdateStatus(ctx, "nope", kanban.StatusReceived, kanban.StatusUnderReview, kanban.StatusChange{}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("UpdateStatus(nope) error = %v, want ErrNotFound", err)
	}
}

func TestListApplications_FilterAndJoin(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, []string{"A1"}, []string{"J1", "J2"})
	insertScore(t, s, "ms1", "A1", "J1", 80)
	insertScore(t, s, "ms2", "A1", "J2", 60)

	first := newApp("app1", "A1", "J1", "ms1")
	second := newApp("app2", "A1", "J2", "ms2")
	second.CreatedAt = base.Add(time.Minute)
	for _, a := range []kanban.Application{first, second} {
		if _, err := s.CreateApplication(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.UpdateStatus(ctx, "app1", kanban.StatusReceived, kanban.StatusRejected,
		kanban.StatusChange{From: kanban.StatusReceived, To: kanban.StatusRejected, At: base}); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListApplications(ctx, "A1", "")
	if err != nil {
		t.Fatalf("ListApplications() error: %v", err)
	}
	if len(all) != 2 || all[0].ID != "app2" {
		t.Fatalf("ListApplications() = %+v, want newest first", all)
	}
	if all[0].JobTitle != "Job J2" || all[0].Score != 60 || all[0].CompanyName != "Acme" {
		t.Errorf("joined fields = %+v", all[0])
	}

	rejected, _ := s.ListApplications(ctx, "A1", kanban.StatusRejected)
	if len(rejected) != 1 || rejected[0].ID != "app1" || len(rejected[0].History) != 1 {
		t.Errorf("ListApplications(REJECTED) = %+v", rejected)
	}
}
