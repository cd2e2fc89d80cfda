package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbook/internal/api"
	"tourbook/internal/auth"
	"tourbook/internal/billing"
	"tourbook/internal/calendar"
	"tourbook/internal/config"
	"tourbook/internal/database"
	"tourbook/internal/domain"
	"tourbook/internal/events"
	"tourbook/internal/jobs"
	"tourbook/internal/logging"
	"tourbook/internal/metrics"
	"tourbook/internal/repository"
	"tourbook/internal/service"
	"tourbook/internal/supabase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	backend, db, checks, err := initBackend(ctx, cfg, redisClient, &logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	memoryRepo := repository.NewMemoryStateRepository(cfg.Calendar.SelectionTTL)
	var stateRepo domain.StateRepository = memoryRepo
	if redisClient != nil {
		stateRepo = repository.NewFailoverStateRepository(
			repository.NewRedisStateRepository(redisClient, cfg.Calendar.SelectionTTL),
			memoryRepo,
			logging.Component(&logger, "state-repository"),
		)
		checks = append(checks, api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return repository.Ping(ctx, redisClient)
		}})
	}

	eventBus := initEventBus(&logger)

	scheduler, err := initJobs(cfg, memoryRepo, db, &logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer (func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	})()

	services := buildServices(cfg, backend, stateRepo, eventBus, &logger)

	var validator auth.TokenValidator
	if cfg.API.Auth.JWTSecret != "" {
		validator = auth.NewJWTValidator(cfg.API.Auth.JWTSecret)
	} else {
		logger.Warn().Msg("api.auth.jwt_secret not set, every request is anonymous")
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, api.NewViewService(services), validator, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, services, validator, &logger, checks...)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initBackend picks Supabase when a URL is configured and the local SQL
// store otherwise. db is nil in Supabase mode.
func initBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (
	domain.Backend, *database.DB, []api.HealthCheck, error) {
	if cfg.Supabase.URL != "" {
		client := supabase.NewClient(cfg.Supabase, logging.Component(logger, "supabase"))
		if redisClient != nil && cfg.Supabase.CacheTTL > 0 {
			client.UseRedisCache(redisClient, cfg.Supabase.CacheTTL)
		}
		logger.Info().Str("url", cfg.Supabase.URL).Msg("using supabase backend")
		return client, nil, []api.HealthCheck{{Name: "supabase", Check: client.Ping}}, nil
	}

	db, err := database.Open(cfg.Database, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return nil, nil, nil, err
	}

	if cfg.Database.FixturesPath != "" {
		fx, err := database.LoadFixtures(cfg.Database.FixturesPath)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		stats, err := db.Seed(ctx, fx)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("seed fixtures: %w", err)
		}
		logger.Info().Interface("rows", stats).Str("path", cfg.Database.FixturesPath).Msg("fixtures loaded")
	}

	logger.Info().Str("driver", db.Driver()).Msg("using local database backend")
	return db, db, []api.HealthCheck{{Name: "database", Check: db.PingContext}}, nil
}

func initEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()
	eventLogger := logging.Component(logger, "events")
	for _, eventType := range events.Types {
		bus.Subscribe(eventType, func(ev *events.Event) error {
			eventLogger.Debug().Str("type", ev.Type).RawJSON("payload", ev.Payload).Msg("event")
			return nil
		})
	}
	return bus
}

func initJobs(cfg *config.Config, memoryRepo *repository.MemoryStateRepository, db *database.DB, logger *zerolog.Logger) (*jobs.Scheduler, error) {
	scheduler := jobs.NewScheduler(logging.Component(logger, "jobs"))

	if err := scheduler.Add("sweep-selections", cfg.Jobs.SweepSchedule, func() {
		if n := memoryRepo.Sweep(); n > 0 {
			logger.Info().Int("removed", n).Msg("swept expired selections")
		}
	}); err != nil {
		return nil, err
	}

	if db != nil && db.Driver() == database.DriverSQLite && cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logging.Component(logger, "backup"))
		if err := scheduler.Add("backup", cfg.Jobs.BackupSchedule, backup.Run); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

func buildServices(cfg *config.Config, backend domain.Backend, stateRepo domain.StateRepository, bus *events.EventBus, logger *zerolog.Logger) api.Services {
	loc := cfg.Calendar.Location()
	images := service.NewImagePolicy(cfg.Images)
	svcLogger := logging.Component(logger, "service")

	var resolver domain.PaymentMethodResolver
	if cfg.Stripe.SecretKey != "" {
		resolver = billing.NewStripeResolver(cfg.Stripe.SecretKey)
	}

	picker := calendar.NewPicker(cfg.Calendar.MaxRangeDays, func() time.Time { return time.Now().In(loc) })

	return api.Services{
		Reservations: service.NewReservationService(backend, images, loc, svcLogger),
		Payments:     service.NewPaymentService(backend, resolver, images, loc, svcLogger),
		Maps:         service.NewMapService(backend, cfg.Map, svcLogger),
		Selection:    service.NewSelectionService(stateRepo, bus, picker, cfg.Calendar, svcLogger),
		Likes:        service.NewLikeService(backend, bus, svcLogger),
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().
		Bool("grpc", grpcServer != nil).
		Int("http_port", cfg.API.HTTP.Port).
		Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
