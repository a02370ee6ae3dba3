// Package server assembles the gRPC server: services, interceptors, and the stats handler.
package server

import (
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "auth-ms/internal/health/handler"
	identityhandler "auth-ms/internal/identity/handler"
	"auth-ms/internal/server/interceptors"
	"auth-ms/internal/telemetry"

	_ "auth-ms/internal/server/codec"
)

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// Auth is the credential service. If nil, AuthService RPCs return Unimplemented.
	Auth identityhandler.Credentials
	// HealthPinger is used by the health service for readiness (e.g. *pgxpool.Pool). If nil, Check skips the DB ping.
	HealthPinger healthhandler.Pinger
	// Emitter receives a grpc_request event per RPC. If nil, no request events are emitted.
	Emitter telemetry.EventEmitter
	// RequestTimeout bounds each RPC. Zero disables the server-side timeout.
	RequestTimeout time.Duration
}

// telemetrySkipMethods are not reported as grpc_request events.
var telemetrySkipMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// NewServer returns a gRPC server with interceptors, OTel stats handler, and all services registered.
// opts are appended after the defaults (e.g. credentials in production).
func NewServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.RequestIDUnary(),
			interceptors.TimeoutUnary(deps.RequestTimeout),
			interceptors.TelemetryUnary(deps.Emitter, telemetrySkipMethods),
		),
	}
	s := grpc.NewServer(append(base, opts...)...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - auth.v1.AuthService   → internal/identity/handler
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	identityhandler.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, identityhandler.ServiceName))
}
