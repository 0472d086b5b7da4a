package chat

import (
	"google.golang.org/grpc"

	"github.com/oggyb/spark/internal/rpc"
)

// Registrar ties the Chat service into the gRPC server
type Registrar struct {
	service *Service
}

// NewRegistrar wraps a service that is shared with the realtime gateway.
func NewRegistrar(service *Service) *Registrar {
	return &Registrar{service: service}
}

// Register attaches the Chat service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	rpc.RegisterChatServer(s, r.service)
}
