// Package grpcserver serves the standard gRPC health service for the
// clearance API. Its status follows the storage dependencies: the service is
// SERVING only while every registered check passes.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
)

const ServiceName = "portflow.clearance.v1.Clearance"

const (
	defaultInterval = 10 * time.Second
	checkTimeout    = 2 * time.Second
)

// Check is a named dependency check, for example a database ping.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	checks   []Check
	interval time.Duration
	logger   *zap.Logger
}

func New(logger *zap.Logger, interval time.Duration, checks ...Check) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}

	s := &Server{
		health:   health.NewServer(),
		checks:   checks,
		interval: interval,
		logger:   logger,
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Run listens on port and serves until ctx is done.
func (s *Server) Run(ctx context.Context, port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}
	s.logger.Info("starting gRPC server", zap.String("port", port))
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("stopping gRPC server")
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("gRPC server failed: %w", err)
	}
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh runs every check and publishes the combined result for both the
// clearance service and the server as a whole.
func (s *Server) refresh(ctx context.Context) {
	serving := healthpb.HealthCheckResponse_SERVING
	for _, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check.Ping(checkCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
			}
			serving = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus(ServiceName, serving)
	s.health.SetServingStatus("", serving)
}

func (s *Server) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	s.logger.Debug("RPC handled",
		zap.String("rpc_method", info.FullMethod),
		zap.String("code", code.String()),
		zap.Duration("duration", time.Since(start)))
	return resp, err
}
