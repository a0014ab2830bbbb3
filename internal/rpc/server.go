// Package rpc serves the admin dashboard operations over gRPC. Messages are
// encoded by hand with protowire so no generated code is needed.
package rpc

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/middleware"
	"nursehub-api/internal/model"
	"nursehub-api/internal/workflow"
)

const ServiceName = "nursehub.admin.v1.AdminService"

// LoginMethod is the only method reachable without a session.
const LoginMethod = "/" + ServiceName + "/Login"

// Appointments is the workflow surface the admin service drives.
type Appointments interface {
	Transition(ctx context.Context, id string, target model.Status, cancellationReason string) (*model.Appointment, error)
	Get(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, filter *model.Status) ([]model.Appointment, error)
	Remove(ctx context.Context, id string) error
	Stats(ctx context.Context) (model.Stats, error)
}

type adminServer interface {
	login(ctx context.Context, in []byte) ([]byte, error)
	listAppointments(ctx context.Context, in []byte) ([]byte, error)
	getAppointment(ctx context.Context, in []byte) ([]byte, error)
	updateStatus(ctx context.Context, in []byte) ([]byte, error)
	deleteAppointment(ctx context.Context, in []byte) ([]byte, error)
	stats(ctx context.Context, in []byte) ([]byte, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*adminServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", adminServer.login),
		unary("ListAppointments", adminServer.listAppointments),
		unary("GetAppointment", adminServer.getAppointment),
		unary("UpdateStatus", adminServer.updateStatus),
		unary("DeleteAppointment", adminServer.deleteAppointment),
		unary("Stats", adminServer.stats),
	},
	Metadata: "nursehub/admin/v1/admin.proto",
}

func unary(name string, call func(adminServer, context.Context, []byte) ([]byte, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := &rawMsg{}
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				out, err := call(srv.(adminServer), ctx, req.(*rawMsg).data)
				if err != nil {
					return nil, err
				}
				return &rawMsg{data: out}, nil
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, h)
		},
	}
}

type Service struct {
	appts Appointments
	gate  auth.Gate
	log   *zap.Logger
}

func NewService(appts Appointments, gate auth.Gate, log *zap.Logger) *Service {
	return &Service{appts: appts, gate: gate, log: log.Named("rpc")}
}

// NewServer builds a gRPC server carrying the admin service behind the
// session and rate-limit interceptors.
func NewServer(s *Service, limiter *middleware.RateLimiter) *grpc.Server {
	open := map[string]bool{LoginMethod: true}
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rawCodec{}),
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(limiter, open),
			middleware.Auth(s.gate, open),
		),
	)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

func (s *Service) login(ctx context.Context, in []byte) ([]byte, error) {
	f, err := stringFields(in)
	if err != nil {
		return nil, s.status(err)
	}
	if utf8.RuneCountInString(f[1]) < 3 || utf8.RuneCountInString(f[2]) < 6 {
		return nil, status.Error(codes.InvalidArgument, "username and password required")
	}
	sess, err := s.gate.Authenticate(ctx, f[1], f[2])
	if err != nil {
		return nil, s.status(err)
	}
	return encodeLoginReply(loginReply{Token: sess.Token, Username: sess.Admin.Username, ExpiresAt: sess.ExpiresAt}), nil
}

func (s *Service) listAppointments(ctx context.Context, in []byte) ([]byte, error) {
	f, err := stringFields(in)
	if err != nil {
		return nil, s.status(err)
	}
	var filter *model.Status
	if raw := f[1]; raw != "" && !strings.EqualFold(raw, "all") {
		st, ok := model.ParseStatus(raw)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "invalid status")
		}
		filter = &st
	}
	list, err := s.appts.List(ctx, filter)
	if err != nil {
		return nil, s.status(err)
	}
	return encodeList(list), nil
}

func (s *Service) getAppointment(ctx context.Context, in []byte) ([]byte, error) {
	f, err := stringFields(in)
	if err != nil {
		return nil, s.status(err)
	}
	a, err := s.appts.Get(ctx, f[1])
	if err != nil {
		return nil, s.status(err)
	}
	return appendAppointment(nil, 1, a), nil
}

func (s *Service) updateStatus(ctx context.Context, in []byte) ([]byte, error) {
	f, err := stringFields(in)
	if err != nil {
		return nil, s.status(err)
	}
	a, err := s.appts.Transition(ctx, f[1], model.Status(f[2]), f[3])
	if err != nil {
		return nil, s.status(err)
	}
	return appendAppointment(nil, 1, a), nil
}

func (s *Service) deleteAppointment(ctx context.Context, in []byte) ([]byte, error) {
	f, err := stringFields(in)
	if err != nil {
		return nil, s.status(err)
	}
	if err := s.appts.Remove(ctx, f[1]); err != nil {
		return nil, s.status(err)
	}
	return nil, nil
}

func (s *Service) stats(ctx context.Context, _ []byte) ([]byte, error) {
	st, err := s.appts.Stats(ctx)
	if err != nil {
		return nil, s.status(err)
	}
	return encodeStats(st), nil
}

// status maps domain errors onto gRPC codes. Unexpected errors are logged
// and reported generically.
func (s *Service) status(err error) error {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, errMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, workflow.ErrInvalidStatus):
		return status.Error(codes.InvalidArgument, "invalid status")
	case errors.Is(err, workflow.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, workflow.ErrNotFound):
		return status.Error(codes.NotFound, "appointment not found")
	case errors.Is(err, workflow.ErrUnauthorized), errors.Is(err, auth.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	}
	s.log.Error("rpc failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}
