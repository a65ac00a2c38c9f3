package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"vidshare/internal/core/ports"
	"vidshare/internal/core/services"
	httphandlers "vidshare/internal/handlers/http"
	"vidshare/internal/infrastructure/middleware"
	"vidshare/internal/infrastructure/monitoring"
	"vidshare/internal/infrastructure/repositories"
	"vidshare/internal/infrastructure/storage"
	"vidshare/pkg/config"
	"vidshare/pkg/logger"
	"vidshare/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func getConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if driver := c.String("storage"); driver != "" {
		cfg.Storage.Driver = driver
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	if c.Bool("dev") {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapLogger, nil
}

func seedOptions(cfg *config.Config) repositories.SeedOptions {
	return repositories.SeedOptions{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		SampleVideos:  cfg.Seed.SampleVideos,
	}
}

func startServer(c *cli.Context) error {
	startTime := time.Now()

	cfg, err := getConfig(c)
	if err != nil {
		return err
	}

	zapLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	traceCfg := tracing.DefaultConfig()
	traceCfg.Enabled = cfg.Tracing.Enabled
	traceCfg.JaegerURL = cfg.Tracing.JaegerURL
	traceCfg.Environment = cfg.Server.Environment
	traceCfg.SampleRate = cfg.Tracing.SampleRate
	tp, err := tracing.Init(traceCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repoFactory, err := repositories.NewRepositoryFactory(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	defer repoFactory.Close()

	userRepo := repoFactory.UserRepository()
	videoRepo := repoFactory.VideoRepository()

	if cfg.Seed.Enabled {
		if err := seed(ctx, repoFactory, cfg, log); err != nil {
			return err
		}
	}

	// Uploads answer 500 until storage is configured; the rest of the API
	// keeps serving.
	var presigner ports.ObjectPresigner
	s3Presigner, err := storage.NewS3Presigner(ctx, storage.S3Options{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		CDNURL:          cfg.S3.CDNURL,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		log.Warnw("object storage disabled", "error", err)
	} else {
		presigner = s3Presigner
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, userRepo)
	videoService := services.NewVideoService(videoRepo, userRepo, authService)
	uploadService := services.NewUploadService(authService, presigner, cfg.S3.PresignExpiry, log)

	cookie := middleware.NewSessionCookie(
		cfg.Auth.CookieName,
		cfg.Auth.CookieDomain,
		cfg.IsProduction(),
		cfg.Auth.TokenTTL,
		cfg.Auth.JWTSecret,
	)

	health := monitoring.NewHealthChecker()
	health.AddPingerCheck("repository", repoFactory, 2*time.Second)

	var metricsHandler http.Handler
	if cfg.Monitoring.PrometheusEnabled {
		metricsHandler = promhttp.Handler()
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httphandlers.NewRouter(httphandlers.RouterConfig{
		AuthService:    authService,
		VideoService:   videoService,
		UploadService:  uploadService,
		Cookie:         cookie,
		Metrics:        monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer),
		Health:         health,
		Logger:         zapLogger,
		MetricsHandler: metricsHandler,
		StartTime:      startTime,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      httphandlers.WithCORS(router, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting vidshare server",
			"address", cfg.Server.Address,
			"storage", repoFactory.Driver(),
			"uploads_enabled", presigner != nil,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	} else {
		log.Info("server shutdown gracefully")
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}

	log.Info("vidshare server stopped")
	return nil
}

func runSeed(c *cli.Context) error {
	cfg, err := getConfig(c)
	if err != nil {
		return err
	}

	zapLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	repoFactory, err := repositories.NewRepositoryFactory(c.Context, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	defer repoFactory.Close()

	if repoFactory.Driver() == config.DriverMemory {
		log.Warn("seeding the memory driver only lasts until this process exits")
	}

	return seed(c.Context, repoFactory, cfg, log)
}

func seed(ctx context.Context, repoFactory *repositories.RepositoryFactory, cfg *config.Config, log *zap.SugaredLogger) error {
	err := repoFactory.WithSeedLock(ctx, func(ctx context.Context) error {
		return repositories.Seed(ctx, repoFactory.UserRepository(), repoFactory.VideoRepository(),
			services.HashPassword, seedOptions(cfg), log)
	})
	if err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	return nil
}

func hashPassword(c *cli.Context) error {
	digest, err := services.HashPassword(c.String("password"))
	if err != nil {
		return err
	}
	fmt.Println(digest)
	return nil
}
