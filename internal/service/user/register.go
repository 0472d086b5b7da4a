package user

import (
	"google.golang.org/grpc"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/rpc"
)

// Registrar ties the User service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the User service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the User service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	rpc.RegisterUserServer(s, NewUserService(r.appCtx))
}
