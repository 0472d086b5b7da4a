package match

import (
	"google.golang.org/grpc"

	"github.com/oggyb/spark/internal/rpc"
)

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	service *Service
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(service *Service) *Registrar {
	return &Registrar{service: service}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	rpc.RegisterMatchServer(s, r.service)
}
