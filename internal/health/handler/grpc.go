// Package handler serves grpc.health.v1.Health with readiness tied to the user directory.
package handler

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const pingTimeout = 2 * time.Second

// Pinger is implemented by the database pool (e.g. *pgxpool.Pool) for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements the standard gRPC health service. Check reports NOT_SERVING
// while the pinger fails; Watch and List come from the embedded health.Server.
type Server struct {
	*health.Server
	pinger Pinger
}

// NewServer returns a health server marking the overall service and each name in services as SERVING.
// pinger may be nil; Check then skips the DB ping.
func NewServer(pinger Pinger, services ...string) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, name := range services {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return &Server{Server: hs, pinger: pinger}
}

// Check returns the registered status for the service, or NOT_SERVING when the database does not answer.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.pinger.Ping(pingCtx); err != nil {
			log.Printf("health: database ping failed: %v", err)
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return s.Server.Check(ctx, req)
}
