package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/model"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "jobmate.match.v1.MatchService"

// MatchServiceServer is the server API of jobmate.match.v1.MatchService.
type MatchServiceServer interface {
	EvaluateApplicant(context.Context, *EvaluateApplicantRequest) (*EvaluateApplicantResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	ListApplications(context.Context, *ListApplicationsRequest) (*ListApplicationsResponse, error)
	GetJob(context.Context, *GetJobRequest) (*model.Job, error)
	CreateApplication(context.Context, *CreateApplicationRequest) (*kanban.Application, error)
	GetApplication(context.Context, *GetApplicationRequest) (*kanban.Application, error)
	AdvanceStatus(context.Context, *AdvanceStatusRequest) (*kanban.Application, error)
}

// ServiceDesc describes jobmate.match.v1.MatchService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("EvaluateApplicant", MatchServiceServer.EvaluateApplicant),
		unary("ListMatches", MatchServiceServer.ListMatches),
		unary("ListApplications", MatchServiceServer.ListApplications),
		unary("GetJob", MatchServiceServer.GetJob),
		unary("CreateApplication", MatchServiceServer.CreateApplication),
		unary("GetApplication", MatchServiceServer.GetApplication),
		unary("AdvanceStatus", MatchServiceServer.AdvanceStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobmate/match/v1/match.proto",
}

// unary adapts a typed method to grpc's untyped handler signature.
func unary[Req, Resp any](name string, call func(MatchServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchServiceServer), ctx, req.(*Req))
			})
		},
	}
}

// Client calls jobmate.match.v1.MatchService over a JSON-coded connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EvaluateApplicant(ctx context.Context, in *EvaluateApplicantRequest, opts ...grpc.CallOption) (*EvaluateApplicantResponse, error) {
	return invoke[EvaluateApplicantResponse](ctx, c, "EvaluateApplicant", in, opts...)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, "ListMatches", in, opts...)
}

func (c *Client) ListApplications(ctx context.Context, in *ListApplicationsRequest, opts ...grpc.CallOption) (*ListApplicationsResponse, error) {
	return invoke[ListApplicationsResponse](ctx, c, "ListApplications", in, opts...)
}

func (c *Client) GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*model.Job, error) {
	return invoke[model.Job](ctx, c, "GetJob", in, opts...)
}

func (c *Client) CreateApplication(ctx context.Context, in *CreateApplicationRequest, opts ...grpc.CallOption) (*kanban.Application, error) {
	return invoke[kanban.Application](ctx, c, "CreateApplication", in, opts...)
}

func (c *Client) GetApplication(ctx context.Context, in *GetApplicationRequest, opts ...grpc.CallOption) (*kanban.Application, error) {
	return invoke[kanban.Application](ctx, c, "GetApplication", in, opts...)
}

func (c *Client) AdvanceStatus(ctx context.Context, in *AdvanceStatusRequest, opts ...grpc.CallOption) (*kanban.Application, error) {
	return invoke[kanban.Application](ctx, c, "AdvanceStatus", in, opts...)
}
