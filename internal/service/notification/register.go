package notification

import (
	"google.golang.org/grpc"

	"github.com/oggyb/spark/internal/rpc"
)

// Registrar ties the Notification service into the gRPC server
type Registrar struct {
	service *Service
}

// NewRegistrar wraps an existing service, which is shared with the match dispatcher.
func NewRegistrar(service *Service) *Registrar {
	return &Registrar{service: service}
}

// Register attaches the Notification service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	rpc.RegisterNotificationServer(s, r.service)
}
