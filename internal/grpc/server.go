package grpc

import (
	"context"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name reported for the component service in health
// checks. The empty name covers the whole server.
const ServiceName = "webike.components.v1.ComponentService"

const (
	pingTimeout   = 2 * time.Second
	watchInterval = 5 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthAPI struct {
	healthpb.UnimplementedHealthServer
	db  Pinger
	log ports.LoggerPort
}

func Register(
	gRPCServer *grpc.Server,
	db Pinger,
	log ports.LoggerPort,
) {
	healthpb.RegisterHealthServer(gRPCServer, &healthAPI{
		db:  db,
		log: log,
	})
}

// Check reports SERVING while the database answers pings.
func (s *healthAPI) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	return &healthpb.HealthCheckResponse{Status: s.probe(ctx)}, nil
}

// Watch sends the current status, then every change until the client leaves.
func (s *healthAPI) Watch(req *healthpb.HealthCheckRequest, stream grpc.ServerStreamingServer[healthpb.HealthCheckResponse]) error {
	ctx := stream.Context()
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return stream.Send(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVICE_UNKNOWN})
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		if current := s.probe(ctx); current != last {
			if err := stream.Send(&healthpb.HealthCheckResponse{Status: current}); err != nil {
				return err
			}
			last = current
		}

		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case <-ticker.C:
		}
	}
}

func (s *healthAPI) probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.db.Ping(pingCtx); err != nil {
		s.log.WarnGRPC(ctx, "Health check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
