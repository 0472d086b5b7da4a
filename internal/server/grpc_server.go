package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/spark/internal/config"
)

// NewGRPCServer builds a gRPC server with the standard interceptor chain and
// registers all provided services.
//
// Reflection is enabled for service listing only (grpcurl list). The service
// descriptors are hand-written without proto file descriptors, so describe and
// reflective invocation are unavailable.
func NewGRPCServer(cfg *config.Config, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(log),
			LoggingInterceptor(log),
			TimeoutInterceptor(cfg.DB.Timeout),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// listing only, see above
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer serves on GRPC_HOST:GRPC_PORT until ctx is cancelled, then
// stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, log *slog.Logger, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return Serve(ctx, NewGRPCServer(cfg, log, registrars...), lis, log)
}

// Serve runs grpcServer on lis until ctx is done.
func Serve(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("gRPC server listening", "addr", lis.Addr().String())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("stopping gRPC server")
		grpcServer.GracefulStop()
		return <-errCh
	}
}
