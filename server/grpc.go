package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer returns a gRPC server exposing the standard health service.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(gs, s.health)
	return gs
}

// ServeGRPC serves the health service on port until ctx is cancelled.
func (s *Server) ServeGRPC(ctx context.Context, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	gs := s.NewGRPCServer()

	s.opts.Logger.Info("server.grpc.listening", "port", port)

	go func() {
		<-ctx.Done()
		s.opts.Logger.Info("server.grpc.shutdown")
		s.health.Shutdown()
		gs.GracefulStop()
	}()

	return gs.Serve(lis)
}
