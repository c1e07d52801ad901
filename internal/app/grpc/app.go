package grpcapp

import (
	"errors"
	"fmt"
	"net"

	"github.com/sm8ta/webike_component_microservice/internal/core/ports"
	grpcHandler "github.com/sm8ta/webike_component_microservice/internal/grpc"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// App serves the health API next to the HTTP router.
type App struct {
	log        ports.LoggerPort
	gRPCServer *grpc.Server
	port       int
}

func New(log ports.LoggerPort, db grpcHandler.Pinger, port int) *App {
	loggingOpts := []logging.Option{
		logging.WithLogOnEvents(logging.StartCall, logging.FinishCall),
	}

	recoveryOpts := []recovery.Option{
		recovery.WithRecoveryHandler(func(p interface{}) (err error) {
			log.Error("Recovered from panic in gRPC handler", map[string]interface{}{
				"panic": p,
			})
			return status.Errorf(codes.Internal, "internal error")
		}),
	}

	interceptorLog := grpcHandler.InterceptorLogger(log)
	gRPCServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recoveryOpts...),
			logging.UnaryServerInterceptor(interceptorLog, loggingOpts...),
		),
		// Watch is a server stream
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpts...),
			logging.StreamServerInterceptor(interceptorLog, loggingOpts...),
		),
	)

	grpcHandler.Register(gRPCServer, db, log)
	reflection.Register(gRPCServer)

	return &App{
		log:        log,
		gRPCServer: gRPCServer,
		port:       port,
	}
}

// Run listens on the configured port and blocks until Stop.
func (a *App) Run() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("grpcapp.Run: %w", err)
	}
	return a.Serve(listener)
}

func (a *App) Serve(listener net.Listener) error {
	a.log.Info("Starting gRPC server", map[string]interface{}{
		"addr": listener.Addr().String(),
	})

	if err := a.gRPCServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpcapp.Serve: %w", err)
	}
	return nil
}

func (a *App) Stop() {
	a.log.Info("Stopping gRPC server", map[string]interface{}{
		"port": a.port,
	})
	a.gRPCServer.GracefulStop()
}
