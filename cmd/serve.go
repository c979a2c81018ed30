package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ifc-service/internal/cache"
	"ifc-service/internal/config"
	"ifc-service/internal/conversion"
	"ifc-service/internal/handlers"
	"ifc-service/internal/logging"
	"ifc-service/internal/metrics"
	"ifc-service/internal/middleware"
	"ifc-service/internal/repository"
	"ifc-service/internal/services"
	"ifc-service/internal/storage"
	"ifc-service/internal/tracing"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the conversion workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.OutOrStderr())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

type repositories struct {
	projects    repository.ProjectRepository
	models      repository.IFCModelRepository
	attachments repository.AttachmentRepository
}

func openRepositories(cfg *config.Config, log zerolog.Logger) (repositories, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory repositories, data is lost on restart")
		return repositories{
			projects:    repository.NewMemoryProjectRepository(),
			models:      repository.NewMemoryIFCModelRepository(),
			attachments: repository.NewMemoryAttachmentRepository(),
		}, nil
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return repositories{}, errors.Wrap(err, "connect database")
	}
	if err := migrateDatabase(db); err != nil {
		return repositories{}, err
	}
	return repositories{
		projects:    repository.NewProjectRepository(db),
		models:      repository.NewIFCModelRepository(db),
		attachments: repository.NewAttachmentRepository(db),
	}, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory object storage, data is lost on restart")
		return storage.NewMemoryStorage(), nil
	}
	return storage.NewMinioClient(ctx, cfg, log)
}

// openCache builds the artifact cache: process memory first, Redis second when configured.
func openCache(ctx context.Context, cfg *config.Config, m *metrics.Lifecycle, log zerolog.Logger) (*cache.Tiered, func(), error) {
	memory := cache.NewMemoryCache(cfg.ArtifactCacheBytes, cfg.ArtifactCacheTTL)
	go memory.Run(ctx, time.Minute)

	layers := []cache.Layer{memory}
	closeFn := func() {}
	if cfg.RedisHost != "" {
		client, err := storage.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		layers = append(layers, cache.NewRedisCache(client, cfg.ArtifactCacheTTL))
		closeFn = func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close redis client")
			}
		}
		log.Info().Str("redis_host", cfg.RedisHost).Msg("redis artifact cache enabled")
	}
	return cache.NewTiered(log, m, layers...), closeFn, nil
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		return errors.Wrap(err, "init tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycleMetrics := metrics.NewLifecycle(reg)
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return errors.Wrap(err, "register http metrics")
	}

	repos, err := openRepositories(cfg, log)
	if err != nil {
		return err
	}
	blobs, err := openStorage(ctx, cfg, log)
	if err != nil {
		return errors.Wrap(err, "init object storage")
	}
	artifacts, closeCache, err := openCache(ctx, cfg, lifecycleMetrics, log)
	if err != nil {
		return err
	}
	defer closeCache()

	attachments := services.NewAttachmentService(repos.attachments, blobs, artifacts, log)
	toolchain := conversion.NewCommandToolchain(cfg.IfcConvertBin, cfg.XKTConvertBin, cfg.XKTMetadataBin, cfg.ConversionTimeout)
	pool := conversion.NewPool(conversion.PoolConfig{
		Workers:   cfg.ConversionWorkers,
		QueueSize: cfg.ConversionQueueSize,
		Timeout:   cfg.ConversionTimeout,
	}, toolchain, attachments, lifecycleMetrics, log)

	projects := services.NewProjectService(repos.projects)
	lifecycle := services.NewIFCModelService(repos.models, attachments, pool, lifecycleMetrics, log)
	pool.Start(context.WithoutCancel(ctx), lifecycle)

	h := &handlers.Handlers{
		Projects: handlers.NewProjectHandler(projects, log),
		Models: handlers.NewIFCModelHandler(projects, lifecycle, attachments,
			services.NewDefaultSetManager(repos.models),
			services.NewProvisioner(repos.models, lifecycleMetrics), log),
		Attachments: handlers.NewAttachmentHandler(attachments, log),
		Cache:       handlers.NewCacheHandler(attachments, log),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
		BodyLimit:             512 << 20,
	})
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	api := app.Group("/api")
	h.Register(api)

	for _, r := range app.GetRoutes(true) {
		log.Debug().Str("method", r.Method).Str("path", r.Path).Msg("route registered")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("server listening")
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		pool.Stop()
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	pool.Stop()
	log.Info().Msg("conversion pool drained")
	return nil
}
