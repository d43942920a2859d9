// Package httpapi implements the HTTP handlers for the match service.
//
// Routes:
//
//	GET  /health                               → liveness
//	POST /applicants/:id/evaluate              → score every unscored job
//	GET  /applicants/:id/matches               → scored jobs, best first
//	GET  /applicants/:id/applications?status=  → applicant's applications
//	GET  /jobs/:id                             → job with qualifications and metrics
//	POST /applications                         → apply to a scored job
//	GET  /applications/:id                     → single application
//	POST /applications/:id/move                → advance the application status
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/matching"
	"jobmate/match-service/internal/model"
)

// JobCatalog reads job postings. Both stores implement it.
type JobCatalog interface {
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	orch    *matching.Orchestrator
	apps    *kanban.Service
	jobs    JobCatalog
	logger  *zap.Logger
	version string
}

// NewHandler returns a configured Handler.
func NewHandler(orch *matching.Orchestrator, apps *kanban.Service, jobs JobCatalog, logger *zap.Logger, version string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orch: orch, apps: apps, jobs: jobs, logger: logger, version: version}
}

// Router builds the gin engine. A non-empty allowOrigins enables CORS for
// those origins.
func (h *Handler) Router(allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())

	if len(allowOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = allowOrigins
		cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
		r.Use(cors.New(cfg))
	}

	r.GET("/health", h.health)

	applicants := r.Group("/applicants/:id")
	{
		applicants.POST("/evaluate", h.evaluateApplicant)
		applicants.GET("/matches", h.listMatches)
		applicants.GET("/applications", h.listApplications)
	}

	r.GET("/jobs/:id", h.getJob)

	applications := r.Group("/applications")
	{
		applications.POST("", h.createApplication)
		applications.GET("/:id", h.getApplication)
		applications.POST("/:id/move", h.moveApplication)
	}

	return r
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "match-service",
		"version": h.version,
	})
}

type evaluateResponse struct {
	*matching.Result
	Summary  string   `json:"summary"`
	Warnings []string `json:"warnings"`
}

func (h *Handler) evaluateApplicant(c *gin.Context) {
	res, err := h.orch.EvaluateApplicant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, evaluateResponse{
		Result:   res,
		Summary:  res.Summary(),
		Warnings: res.Warnings(),
	})
}

func (h *Handler) listMatches(c *gin.Context) {
	jobs, err := h.orch.ListScoredJobs(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) listApplications(c *gin.Context) {
	apps, err := h.apps.ListApplications(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) createApplication(c *gin.Context) {
	var body struct {
		ApplicantID  string `json:"applicantId"`
		JobID        string `json:"jobId"`
		MatchScoreID string `json:"matchScoreId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	app, err := h.apps.CreateApplication(c.Request.Context(), body.ApplicantID, body.JobID, body.MatchScoreID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *Handler) getApplication(c *gin.Context) {
	app, err := h.apps.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) moveApplication(c *gin.Context) {
	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.NewStatus == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain newStatus"})
		return
	}

	app, err := h.apps.AdvanceStatus(c.Request.Context(), c.Param("id"), body.NewStatus)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidMatchScore):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrDuplicateApplication), errors.Is(err, model.ErrIllegalTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
