package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/adapter/amqp"
	"github.com/sm8ta/webike_component_microservice/internal/adapter/handler/http"
	"github.com/sm8ta/webike_component_microservice/internal/adapter/influx"
	"github.com/sm8ta/webike_component_microservice/internal/adapter/logger"
	"github.com/sm8ta/webike_component_microservice/internal/adapter/postgres"
	"github.com/sm8ta/webike_component_microservice/internal/adapter/prometheus"
	"github.com/sm8ta/webike_component_microservice/internal/adapter/redis"
	grpcapp "github.com/sm8ta/webike_component_microservice/internal/app/grpc"
	"github.com/sm8ta/webike_component_microservice/internal/config"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"
	"github.com/sm8ta/webike_component_microservice/internal/core/services"
	"github.com/sm8ta/webike_component_microservice/pkg/obs"

	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose"
	redisClient "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	Config         *config.Container
	Logger         ports.LoggerPort
	DB             *sql.DB
	RedisClient    *redisClient.Client
	RedisAdapter   ports.CachePort
	Publisher      ports.EventPublisher
	HTTPRouter     *http.Router
	GRPCServer     *grpcapp.App
	closeOdometer  func()
	shutdownTracer func(context.Context) error
}

// OpenDB connects to Postgres and checks the connection.
func OpenDB(cfg *config.DB) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to database:%w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Failed to ping database:%w", err)
	}
	return db, nil
}

// Migrate applies all pending migrations.
func Migrate(db *sql.DB, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("Failed to run migrations:%w", err)
	}
	return nil
}

// closers releases what New opened, in reverse order, when setup fails.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func New(ctx context.Context, cfg *config.Container) (_ *App, err error) {
	// Set logger
	loggerAdapter := logger.NewLoggerAdapter(cfg.App.Env)
	loggerAdapter.Info("Starting the application", map[string]interface{}{
		"app": cfg.App.Name,
		"env": cfg.App.Env,
	})

	var cleanup closers
	defer func() {
		if err != nil {
			cleanup.run()
		}
	}()

	// Tracing
	shutdownTracer, err := obs.InitTracer(ctx, cfg.App.Name, cfg.App.Version, cfg.App.Env, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	cleanup.add(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracer(stopCtx)
	})

	// Set redis
	redisConn := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cleanup.add(func() { _ = redisConn.Close() })
	if _, err = redisConn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	cacheAdapter := redis.NewRedisAdapter(redisConn)

	// Connect DB
	db, err := OpenDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	cleanup.add(func() { _ = db.Close() })

	// Migrate DB
	if err = Migrate(db, cfg.DB.MigrationsDir); err != nil {
		return nil, err
	}

	// Validate
	validate := validator.New()

	// Observability
	metrics := prometheus.NewPrometheusAdapter()

	// Repositories
	txManager := postgres.NewTxManager(db)
	bikeRepo := postgres.NewBikeRepository(db)
	componentRepo := postgres.NewComponentRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	typeRepo := postgres.NewComponentTypeRepository(db)

	var odometer ports.OdometerReader = postgres.NewOdometerRepository(db)
	closeOdometer := func() {}
	if cfg.Odometer.Backend == "influx" {
		reader := influx.NewOdometerReader(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		odometer, closeOdometer = reader, reader.Close
		cleanup.add(closeOdometer)
	}

	// Lifecycle notifications
	var publisher ports.EventPublisher = amqp.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		p, dialErr := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if dialErr != nil {
			return nil, fmt.Errorf("failed to connect to AMQP: %w", dialErr)
		}
		publisher = p
		cleanup.add(func() { _ = p.Close() })
	}

	// Services
	catalogService := services.NewCatalogService(typeRepo, loggerAdapter, cacheAdapter)
	metricsService := services.NewMetricsService(bikeRepo, componentRepo, eventRepo, odometer, catalogService, loggerAdapter, metrics, cfg.Thresholds())
	componentService := services.NewComponentService(bikeRepo, componentRepo, eventRepo, metricsService, loggerAdapter, validate)
	lifecycleService := services.NewLifecycleService(txManager, bikeRepo, componentRepo, eventRepo, odometer, catalogService, publisher, metrics, loggerAdapter, validate)

	// HTTP Handlers
	tokenService := http.NewJWTTokenService(cfg.Token.Secret, loggerAdapter)
	componentHandler := http.NewComponentHandler(componentService, lifecycleService, metricsService, loggerAdapter, metrics)
	componentTypeHandler := http.NewComponentTypeHandler(catalogService, loggerAdapter, metrics)

	// Init HTTP router
	router, err := http.NewRouter(
		cfg.HTTP,
		cfg.App.Name,
		tokenService,
		bikeRepo,
		componentHandler,
		componentTypeHandler,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	// gRPC health server
	grpcServer := grpcapp.New(loggerAdapter, bikeRepo, cfg.GRPC.PortInt())

	return &App{
		Config:         cfg,
		Logger:         loggerAdapter,
		DB:             db,
		RedisClient:    redisConn,
		RedisAdapter:   cacheAdapter,
		Publisher:      publisher,
		HTTPRouter:     router,
		GRPCServer:     grpcServer,
		closeOdometer:  closeOdometer,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Runs all services until one fails or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		listenAddr := fmt.Sprintf("%s:%s", a.Config.HTTP.URL, a.Config.HTTP.Port)
		a.Logger.Info("Starting HTTP server", map[string]interface{}{
			"addr": listenAddr,
		})
		if err := a.HTTPRouter.Serve(listenAddr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			a.Logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
		return nil
	})

	g.Go(a.GRPCServer.Run)

	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Stop(stopCtx)
	})

	return g.Wait()
}

// Stops all services
func (a *App) Stop(ctx context.Context) error {
	a.Logger.Info("Shutting down gracefully...", nil)

	if err := a.HTTPRouter.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
	}
	a.GRPCServer.Stop()

	if err := a.Publisher.Close(); err != nil {
		a.Logger.Error("Publisher close error", map[string]interface{}{
			"error": err.Error(),
		})
	}
	a.closeOdometer()

	// Close database
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Database close error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Close Redis
	if err := a.RedisClient.Close(); err != nil {
		a.Logger.Error("Redis close error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := a.shutdownTracer(ctx); err != nil {
		a.Logger.Error("Tracer shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	a.Logger.Info("Application stopped successfully", nil)
	return nil
}
