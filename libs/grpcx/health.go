package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/barberbook/barberbook/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer returns a gRPC server with tracing, request id and logging
// interceptors installed.
func NewServer(logger *slog.Logger, extra ...grpc.ServerOption) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLogInterceptor(logger),
		),
	}
	return grpc.NewServer(append(opts, extra...)...)
}

// HealthReporter mirrors the HTTP readiness checks onto the standard
// grpc.health.v1 service for the given service name.
type HealthReporter struct {
	server  *health.Server
	service string
	checks  []runtime.ReadyCheck
	logger  *slog.Logger
}

func RegisterHealth(srv *grpc.Server, service string, logger *slog.Logger, checks ...runtime.ReadyCheck) *HealthReporter {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthReporter{server: hs, service: service, checks: checks, logger: logger}
}

// Refresh runs every check once and publishes the resulting status.
func (h *HealthReporter) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.CheckAll(ctx, h.checks); len(failures) > 0 {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("dependency check failed", "failures", failures)
	}
	h.server.SetServingStatus(h.service, st)
	h.server.SetServingStatus("", st)
	return st
}

// Run refreshes the status every interval until ctx is done, then marks the
// service as shutting down.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Serve listens on addr until ctx is done, then stops gracefully.
func Serve(ctx context.Context, logger *slog.Logger, srv *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	logger.Info("grpc server starting", "addr", addr)
	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	logger.Info("grpc server stopped")
	return nil
}
