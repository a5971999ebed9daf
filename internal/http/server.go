// Package http provides the HTTP server, router and cross-cutting middleware of the API.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/credits/internal/metrics"
	outboxHTTP "github.com/allisson/credits/internal/outbox/http"
	verificationHTTP "github.com/allisson/credits/internal/verification/http"
)

// RouterConfig holds the middleware settings applied by SetupRouter.
type RouterConfig struct {
	GinMode                 string
	CORSEnabled             bool
	CORSAllowOrigins        string
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int
	MetricsNamespace        string
}

// Server represents the API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new API server. The router is built later by SetupRouter.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with the middleware chain and every API route.
// metricsProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	cfg RouterConfig,
	verificationHandler *verificationHTTP.VerificationHandler,
	outboxHandler *outboxHTTP.OutboxHandler,
	metricsProvider *metrics.Provider,
) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CorrelationMiddleware())
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	verifications := v1.Group("/verifications")
	{
		verifications.POST("", verificationHandler.CreateHandler)
		verifications.GET("/:id", verificationHandler.GetHandler)
		verifications.POST("/:id/approve", verificationHandler.ApproveHandler)
		verifications.POST("/:id/reject", verificationHandler.RejectHandler)
	}

	v1.GET("/outbox/failed-events", outboxHandler.ListFailedHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports that the process is up.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if s.db == nil {
		dbStatus = "error"
	} else if err := s.db.PingContext(ctx); err != nil {
		s.logger.ErrorContext(ctx, "readiness check failed", slog.Any("error", err))
		dbStatus = "error"
	}

	status, code := "ready", http.StatusOK
	if dbStatus != "ok" {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":     status,
		"components": gin.H{"database": dbStatus},
	})
}
