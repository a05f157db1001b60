// Package grpcapi serves the standard gRPC health-checking protocol so
// orchestrators can probe the service without an HTTP client.
package grpcapi

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// IngestService is the service name reported alongside the overall ("")
// status.
const IngestService = "campuswatch.Ingest"

// Checker reports whether a dependency is healthy.
type Checker func(ctx context.Context) error

type HealthServer struct {
	grpc     *grpc.Server
	health   *health.Server
	check    Checker
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthServer(check Checker, interval time.Duration, logger *slog.Logger) *HealthServer {
	h := &HealthServer{
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
		check:    check,
		interval: interval,
		logger:   logger,
	}
	healthpb.RegisterHealthServer(h.grpc, h.health)
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Serve blocks serving on lis until Stop.
func (h *HealthServer) Serve(lis net.Listener) error {
	return h.grpc.Serve(lis)
}

// Run refreshes the status immediately and then every interval until ctx
// is done.
func (h *HealthServer) Run(ctx context.Context) {
	h.Refresh(ctx)

	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Refresh(ctx)
		}
	}
}

// Refresh runs the checker once and publishes the result.
func (h *HealthServer) Refresh(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.check(checkCtx); err != nil {
		h.logger.Warn("health check failed", "err", err)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

// Stop marks everything NOT_SERVING and drains in-flight RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(IngestService, status)
}
