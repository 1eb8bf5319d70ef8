package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/kevin07696/settlement-service/internal/adapters/database"
	"github.com/kevin07696/settlement-service/internal/adapters/memory"
	"github.com/kevin07696/settlement-service/internal/adapters/postgres"
	"github.com/kevin07696/settlement-service/internal/adapters/replica"
	"github.com/kevin07696/settlement-service/internal/adapters/secrets"
	"github.com/kevin07696/settlement-service/internal/config"
	domainports "github.com/kevin07696/settlement-service/internal/domain/ports"
	adminHandler "github.com/kevin07696/settlement-service/internal/handlers/admin"
	cronHandler "github.com/kevin07696/settlement-service/internal/handlers/cron"
	gatewayHandler "github.com/kevin07696/settlement-service/internal/handlers/gateway"
	merchantHandler "github.com/kevin07696/settlement-service/internal/handlers/merchant"
	paymentHandler "github.com/kevin07696/settlement-service/internal/handlers/payment"
	reportingHandler "github.com/kevin07696/settlement-service/internal/handlers/reporting"
	"github.com/kevin07696/settlement-service/internal/middleware"
	ledgerService "github.com/kevin07696/settlement-service/internal/services/ledger"
	reportingService "github.com/kevin07696/settlement-service/internal/services/reporting"
	settlementService "github.com/kevin07696/settlement-service/internal/services/settlement"
	"github.com/kevin07696/settlement-service/pkg/logging"
	pkgmiddleware "github.com/kevin07696/settlement-service/pkg/middleware"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/shutdown"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.Logger.Level, cfg.Logger.Development || !cfg.IsProduction())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting settlement service",
		zap.String("environment", cfg.Environment),
		zap.String("store_driver", cfg.Database.Driver),
		zap.String("settlement_timezone", cfg.Settlement.Timezone),
		zap.Int("settlement_delay_days", cfg.Settlement.DelayDays),
	)

	timeouts := resilience.DefaultTimeoutConfig()
	shutdownMgr := shutdown.NewManager(logger, timeouts.Shutdown)
	healthChecker := observability.NewHealthChecker()

	ctx, cancelBackground := context.WithCancel(context.Background())
	shutdownMgr.RegisterNoErr(shutdown.PhaseBackground, "background", cancelBackground)

	creds, err := resolveSecrets(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to resolve secrets", zap.Error(err))
	}

	deps, err := initDependencies(ctx, cfg, shutdownMgr, healthChecker, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	// gRPC carries health and reflection only; the REST surface is served by the gateway mux
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observability.UnaryServerInterceptor(),
			loggingInterceptor(logger),
			recoveryInterceptor(logger),
		),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	gwMux, err := newGatewayMux(cfg, creds, deps, timeouts, logger)
	if err != nil {
		logger.Fatal("Failed to register HTTP routes", zap.Error(err))
	}

	rateLimiter := pkgmiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	inFlight := shutdown.NewInFlightTracker("http", logger)
	securityHeaders := middleware.NewSecurityHeaders(!cfg.IsProduction())

	var handler http.Handler = gwMux
	handler = pkgmiddleware.Deadline(timeouts.HandlerContext, handler, cronHandler.SettleDailyPath)
	handler = observability.HTTPMetrics("gateway", handler)
	handler = rateLimiter.Middleware(handler)
	handler = pkgmiddleware.Recovery(logger, handler)
	handler = inFlight.Middleware(handler)
	handler = pkgmiddleware.Logging(logger, handler)
	handler = securityHeaders.Middleware(handler)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.HTTPPort)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeouts.CronJob + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening",
			zap.String("address", listener.Addr().String()),
		)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	// New requests get 503 while in-flight ones drain, then the listeners close
	shutdownMgr.Register(shutdown.PhaseDrain, "http_inflight", inFlight.Shutdown)
	shutdownMgr.RegisterNoErr(shutdown.PhaseBackground, "rate_limiter", rateLimiter.Shutdown)
	shutdownMgr.RegisterHTTPServer(shutdown.PhaseListeners, "http_server", httpServer)
	shutdownMgr.Register(shutdown.PhaseListeners, "grpc_server", func(ctx context.Context) error {
		healthServer.Shutdown()
		return gracefulStopGRPC(ctx, grpcServer)
	})
	shutdownMgr.Register(shutdown.PhaseListeners, "metrics_server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	shutdownMgr.WaitForShutdown()
}

// serviceSecrets holds the shared secrets guarding the non-public routes
type serviceSecrets struct {
	webhook string
	admin   string
	cron    string
}

// resolveSecrets reads route secrets and, when configured, the database password from
// the configured secret backend
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*serviceSecrets, error) {
	sm, err := secrets.NewSecretManager(ctx, cfg.Secrets.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("secret manager: %w", err)
	}

	out := &serviceSecrets{}
	targets := []struct {
		name string
		dst  *string
	}{
		{cfg.Secrets.WebhookSecretName, &out.webhook},
		{cfg.Secrets.AdminSecretName, &out.admin},
		{cfg.Secrets.CronSecretName, &out.cron},
	}
	for _, t := range targets {
		value, err := secrets.Resolve(ctx, sm, t.name, "")
		if err != nil {
			// A missing route secret disables the route rather than the service
			logger.Warn("Secret unavailable, dependent routes will reject every request",
				zap.String("secret", t.name),
				zap.Error(err),
			)
			continue
		}
		*t.dst = value
	}

	if cfg.Database.Driver == config.StoreDriverPostgres && cfg.Secrets.DBPasswordSecretName != "" {
		password, err := secrets.Resolve(ctx, sm, cfg.Secrets.DBPasswordSecretName, cfg.Database.Password)
		if err != nil {
			return nil, fmt.Errorf("database password: %w", err)
		}
		cfg.Database.Password = password
	}

	logger.Info("Secrets resolved",
		zap.String("backend", cfg.Secrets.Backend.Backend),
		zap.Bool("webhook_secret", out.webhook != ""),
		zap.Bool("admin_secret", out.admin != ""),
		zap.Bool("cron_secret", out.cron != ""),
	)
	return out, nil
}

// Dependencies holds the initialized services
type Dependencies struct {
	ledger     *ledgerService.Service
	settlement *settlementService.Coordinator
	reporting  *reportingService.Service
	loc        *time.Location
}

// initDependencies wires the store, services and their health checks
func initDependencies(
	ctx context.Context,
	cfg *config.Config,
	shutdownMgr *shutdown.Manager,
	healthChecker *observability.HealthChecker,
	logger *zap.Logger,
) (*Dependencies, error) {
	loc, err := cfg.Settlement.Location()
	if err != nil {
		return nil, err
	}

	var (
		store      domainports.Store
		reportSrc  domainports.ReportSource
		sourceName string
	)

	switch cfg.Database.Driver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store - data is lost on restart")
		mem := memory.NewStore()
		store, reportSrc, sourceName = mem, mem.Queries(), "memory"

	default:
		dbCfg := database.DefaultPoolConfig(cfg.Database.ConnectionString())
		dbCfg.MaxConns = cfg.Database.MaxConns
		dbCfg.MinConns = cfg.Database.MinConns

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		primary, err := database.Open(connectCtx, dbCfg, logger)
		cancel()
		if err != nil {
			return nil, err
		}
		shutdownMgr.RegisterNoErr(shutdown.PhaseStores, "database", primary.Close)
		healthChecker.Register("database", primary)
		primary.Monitor(ctx, 30*time.Second)

		pg := postgres.NewStore(primary.Pool(), logger.Named("postgres"),
			postgres.WithReportContext(primary.ReportContext),
		)
		store, reportSrc, sourceName = pg, pg.ReportSource(), "primary"
	}

	if cfg.Replica.Driver != "" {
		src, err := replica.Open(cfg.Replica.Driver, cfg.Replica.DSN)
		if err != nil {
			return nil, err
		}
		shutdownMgr.RegisterCloser(shutdown.PhaseStores, "replica", src)
		healthChecker.Register("replica", src)
		reportSrc, sourceName = src, "replica"

		logger.Info("Reporting reads from replica",
			zap.String("driver", cfg.Replica.Driver),
		)
	}

	zl := logging.NewZapLogger(logger)
	clock := timeutil.SystemClock{}

	ledger := ledgerService.NewService(store, zl.Named("ledger"),
		ledgerService.WithClock(clock),
		ledgerService.WithRetry(resilience.DefaultExponentialBackoff(), cfg.Ledger.MaxRetries),
	)
	coordinator := settlementService.NewCoordinator(store, settlementService.NewCalculator(loc), clock, zl.Named("settlement"))
	reporting := reportingService.NewService(reportSrc, sourceName, zl.Named("reporting"))

	return &Dependencies{
		ledger:     ledger,
		settlement: coordinator,
		reporting:  reporting,
		loc:        loc,
	}, nil
}

// newGatewayMux mounts every HTTP route on a grpc-gateway mux
func newGatewayMux(
	cfg *config.Config,
	creds *serviceSecrets,
	deps *Dependencies,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) (*runtime.ServeMux, error) {
	gwMux := runtime.NewServeMux(
		runtime.WithMarshalerOption(runtime.MIMEWildcard, &runtime.JSONPb{
			MarshalOptions: protojson.MarshalOptions{
				UseProtoNames:   true,
				EmitUnpopulated: true,
			},
			UnmarshalOptions: protojson.UnmarshalOptions{
				DiscardUnknown: true,
			},
		}),
	)

	webhookAuth := middleware.NewSignatureAuth(creds.webhook, logger)
	adminAuth := middleware.NewSharedSecretAuth(adminHandler.SecretHeader, creds.admin, logger)
	cronAuth := middleware.NewSharedSecretAuth(cronHandler.SecretHeader, creds.cron, logger)
	cronBudget := middleware.Chain(cronAuth.Wrap, middleware.WithContext(timeouts.CronContext))

	registrations := []struct {
		name     string
		register func() error
	}{
		{"payments", func() error {
			return paymentHandler.NewHandler(deps.ledger, logger).Register(gwMux)
		}},
		{"gateway_webhook", func() error {
			return gatewayHandler.NewWebhookHandler(deps.ledger, logger).Register(gwMux, webhookAuth.Wrap)
		}},
		{"merchant_settlements", func() error {
			return merchantHandler.NewHandler(deps.settlement, logger).Register(gwMux)
		}},
		{"admin_settlements", func() error {
			return adminHandler.NewSettlementHandler(deps.settlement, logger).Register(gwMux, adminAuth.Wrap)
		}},
		{"cron_settlement", func() error {
			h := cronHandler.NewSettlementHandler(deps.settlement, logger, timeutil.SystemClock{}, deps.loc, cfg.Settlement.DelayDays)
			return h.Register(gwMux, cronBudget)
		}},
		{"stats", func() error {
			return reportingHandler.NewStatsHandler(deps.reporting, logger).Register(gwMux)
		}},
	}
	for _, r := range registrations {
		if err := r.register(); err != nil {
			return nil, fmt.Errorf("register %s routes: %w", r.name, err)
		}
	}

	logger.Info("HTTP routes registered",
		zap.Int("route_groups", len(registrations)),
	)
	return gwMux, nil
}

// gracefulStopGRPC stops the server, forcing it once ctx expires
func gracefulStopGRPC(ctx context.Context, server *grpc.Server) error {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		server.Stop()
		return ctx.Err()
	}
}

// Interceptors

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		if err != nil {
			logger.Error("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			logger.Debug("gRPC request",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
			)
		}

		return resp, err
	}
}

func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				err = fmt.Errorf("internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
