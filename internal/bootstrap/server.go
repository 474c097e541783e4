package bootstrap

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/flightshop/config"
	"github.com/cockroachdb/errors"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	ServiceName     = "flightshop"
	shutdownTimeout = 5 * time.Second
	probeInterval   = 15 * time.Second
)

// Check is a dependency probe; any failing check marks the service NOT_SERVING.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	conn       *grpc.ClientConn
	checks     []Check
	log        logrus.FieldLogger
}

// Run serves the API, the gRPC health service and its HTTP gateway until ctx
// is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, api http.Handler, log logrus.FieldLogger, checks ...Check) error {
	s, err := newServers(cfg, api, log, checks)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return errors.Wrapf(err, "listen gRPC %s", cfg.GRPC.Address)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go s.probe(ctx)

	log.WithFields(logrus.Fields{
		"http": cfg.HTTP.Address,
		"grpc": cfg.GRPC.Address,
	}).Info("servers started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown http server")
		}
		return nil
	}
}

func newServers(cfg *config.Config, api http.Handler, log logrus.FieldLogger, checks []Check) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrap(err, "dial health endpoint")
	}
	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           newHandler(cfg.HTTP, api, gateway),
			ReadHeaderTimeout: 10 * time.Second,
		},
		health: healthSrv,
		conn:   conn,
		checks: checks,
		log:    log,
	}, nil
}

func newHandler(cfg config.HTTPConfig, api, gateway http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", gateway)

	if cfg.SwaggerDir != "" {
		mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir(cfg.SwaggerDir))))
		mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/swagger/swagger.json")))
	}

	mux.Handle("/", api)
	return mux
}

func (s *Servers) probe(ctx context.Context) {
	if len(s.checks) == 0 {
		return
	}
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		s.health.SetServingStatus(ServiceName, runChecks(ctx, s.checks, s.log))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runChecks(ctx context.Context, checks []Check, log logrus.FieldLogger) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.Fn(cctx)
		cancel()
		if err != nil {
			log.WithError(err).WithField("check", c.Name).Warn("health check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	return status
}
