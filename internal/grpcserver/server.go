// Package grpcserver implements the MatchService gRPC server.
//
// It delegates all business logic to matching.Orchestrator and
// kanban.Service and handles only the gRPC transport concerns: error
// mapping and conversion between the domain model and wire messages.
// Messages travel as JSON (see codec.go).
package grpcserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/matching"
	"jobmate/match-service/internal/model"
)

// JobCatalog reads job postings.
type JobCatalog interface {
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
}

// Server implements MatchServiceServer.
type Server struct {
	orch *matching.Orchestrator
	apps *kanban.Service
	jobs JobCatalog
}

// NewServer constructs a gRPC Server backed by the given services.
func NewServer(orch *matching.Orchestrator, apps *kanban.Service, jobs JobCatalog) *Server {
	return &Server{orch: orch, apps: apps, jobs: jobs}
}

// Register attaches s to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// EvaluateApplicant scores the applicant against every unscored job.
func (s *Server) EvaluateApplicant(ctx context.Context, req *EvaluateApplicantRequest) (*EvaluateApplicantResponse, error) {
	res, err := s.orch.EvaluateApplicant(ctx, req.ApplicantID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &EvaluateApplicantResponse{
		ApplicantID: res.ApplicantID,
		Created:     res.Created,
		Skipped:     res.Skipped,
		Summary:     res.Summary(),
		Warnings:    res.Warnings(),
	}, nil
}

// ListMatches returns the applicant's scored jobs, best first.
func (s *Server) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	jobs, err := s.orch.ListScoredJobs(ctx, req.ApplicantID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &ListMatchesResponse{Matches: jobs}, nil
}

// ListApplications returns the applicant's applications, newest first.
func (s *Server) ListApplications(ctx context.Context, req *ListApplicationsRequest) (*ListApplicationsResponse, error) {
	apps, err := s.apps.ListApplications(ctx, req.ApplicantID, req.Status)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &ListApplicationsResponse{Applications: apps}, nil
}

// GetJob returns a job with its qualifications and metrics.
func (s *Server) GetJob(ctx context.Context, req *GetJobRequest) (*model.Job, error) {
	job, err := s.jobs.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return job, nil
}

// CreateApplication applies the applicant to a scored job.
func (s *Server) CreateApplication(ctx context.Context, req *CreateApplicationRequest) (*kanban.Application, error) {
	app, err := s.apps.CreateApplication(ctx, req.ApplicantID, req.JobID, req.MatchScoreID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return app, nil
}

// GetApplication returns a single application.
func (s *Server) GetApplication(ctx context.Context, req *GetApplicationRequest) (*kanban.Application, error) {
	app, err := s.apps.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return app, nil
}

// AdvanceStatus moves an application along the status graph.
func (s *Server) AdvanceStatus(ctx context.Context, req *AdvanceStatusRequest) (*kanban.Application, error) {
	app, err := s.apps.AdvanceStatus(ctx, req.ApplicationID, req.NewStatus)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return app, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Msg)
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrDuplicateApplication):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, model.ErrInvalidMatchScore), errors.Is(err, model.ErrIllegalTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

// LoggingInterceptor logs every unary call at Debug and failures at Warn.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			logger.Warn("grpc call failed", append(fields, zap.String("code", status.Code(err).String()), zap.Error(err))...)
			return resp, err
		}
		logger.Debug("grpc call", fields...)
		return resp, nil
	}
}
