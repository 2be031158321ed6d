package server

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/agentrelay/agentrelay/pkg/logger"
)

// GRPCAPIServer hosts the standard grpc_health_v1 health service plus
// reflection, paralleling the teacher's dual HTTP+gRPC bootstrap even
// though this spec has no gRPC business surface of its own.
type GRPCAPIServer struct {
	addr   string
	server *grpc.Server
	health *health.Server
}

// NewGRPCAPIServer registers health and reflection on server and returns a
// handle that listens on addr when Run is called.
func NewGRPCAPIServer(server *grpc.Server, addr string) *GRPCAPIServer {
	h := health.NewServer()
	healthpb.RegisterHealthServer(server, h)
	reflection.Register(server)
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &GRPCAPIServer{addr: addr, server: server, health: h}
}

// Run blocks, serving gRPC on addr until Stop is called.
func (s *GRPCAPIServer) Run() {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		logger.Error("grpc health server listen on %s: %v", s.addr, err)
		return
	}
	logger.Info("grpc health server listening on %s", s.addr)
	if err := s.server.Serve(lis); err != nil {
		logger.Warn("grpc health server stopped: %v", err)
	}
}

// Stop marks the service NOT_SERVING and gracefully stops the server.
func (s *GRPCAPIServer) Stop() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.server.GracefulStop()
}
