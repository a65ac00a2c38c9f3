package http

import (
	"context"
	"net/http"
	"time"

	"vidshare/internal/core/ports"
	"vidshare/internal/infrastructure/middleware"
	"vidshare/internal/infrastructure/monitoring"
	"vidshare/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// RouterConfig wires the services behind the HTTP surface.
type RouterConfig struct {
	AuthService   ports.AuthService
	VideoService  ports.VideoService
	UploadService ports.UploadService

	Cookie  *middleware.SessionCookie
	Metrics *monitoring.PrometheusCollector
	Health  *monitoring.HealthChecker
	Logger  *zap.Logger

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	StartTime      time.Time
}

// NewRouter builds the gin engine with middleware and all routes mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger.Sugar()

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.AccessLogMiddleware(logger.NewContextLogger(cfg.Logger)),
		middleware.TracingMiddleware(),
		middleware.MetricsMiddleware(cfg.Metrics),
		middleware.ErrorHandlerMiddleware(log),
	)

	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(
		cfg.AuthService,
		middleware.CookieCredential(cfg.Cookie),
		middleware.BearerCredential(),
	))

	NewAuthHandler(cfg.AuthService, cfg.Cookie, cfg.Metrics, log).SetupRoutes(api)
	NewVideoHandler(cfg.VideoService, cfg.AuthService, cfg.Metrics).SetupRoutes(api)
	NewUploadHandler(cfg.UploadService, cfg.AuthService, cfg.Metrics).SetupRoutes(api)

	startTime := cfg.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    monitoring.StatusHealthy,
			"timestamp": time.Now().UTC(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if cfg.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := cfg.Health.CheckAll(ctx)
		code := http.StatusOK
		if status.Status != monitoring.StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	return router
}

// WithCORS lets the listed browser origins call the API with cookies.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(h)
}
