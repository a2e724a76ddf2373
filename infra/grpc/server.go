package grpc

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// PublisherService is the health service name reporting the publisher lifecycle.
const PublisherService = "geyser.Publisher"

// Server exposes the standard gRPC health service. The publisher service starts
// NOT_SERVING and is flipped by SetServing as the publisher comes up and tears down.
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func NewServer(port string) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor,
			recoveryInterceptor,
		),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(PublisherService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: lis,
	}, nil
}

func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(PublisherService, status)
	s.health.SetServingStatus("", status)
}

func (s *Server) Start() error {
	zap.L().Info("gRPC health server started successfully",
		zap.String("address", s.listener.Addr().String()))
	return s.server.Serve(s.listener)
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// GracefulStop marks every service NOT_SERVING before draining open calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
