package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubev2v/threadpool/internal/config"
)

type Server struct {
	srv    *http.Server
	engine *gin.Engine
}

type Option func(*gin.Engine)

// WithMetrics serves h on /metrics, outside the API group.
func WithMetrics(h http.Handler) Option {
	return func(e *gin.Engine) {
		e.GET("/metrics", gin.WrapH(h))
	}
}

// NewServer builds the gin engine. registerHandlerFn receives a group
// prefixed with /api/v1.
func NewServer(cfg *config.Configuration, registerHandlerFn func(router *gin.RouterGroup), opts ...Option) (*Server, error) {
	switch cfg.Server.ServerMode {
	case config.ServerModeProd:
		gin.SetMode(gin.ReleaseMode)
	case config.ServerModeDev:
		gin.SetMode(gin.DebugMode)
	default:
		return nil, fmt.Errorf("unknown server mode %q", cfg.Server.ServerMode)
	}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(zap.L().Named("http"), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L().Named("http"), true),
	)

	for _, opt := range opts {
		opt(engine)
	}

	router := engine.Group("/api/v1")
	registerHandlerFn(router)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server fails or is stopped. It returns nil after Stop.
func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	zap.S().Named("http").Infow("starting server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	zap.S().Named("http").Info("stopping server")
	return s.srv.Shutdown(ctx)
}
