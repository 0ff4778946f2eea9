// Package server provides the HTTP server for the threadpool service.
//
// The server uses the Gin web framework with zap request logging and panic
// recovery.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Logger (ginzap.Ginzap, "http" logger)                  │  │
//	│  │  Recovery (ginzap.RecoveryWithZap)                      │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  /metrics (WithMetrics)       │  Router (/api/v1)             │
//	│  Prometheus exposition        │  Handlers (registered via     │
//	│                               │  callback)                    │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Modes
//
// Development Mode (ServerMode = "dev"):
//   - Gin runs in debug mode
//
// Production Mode (ServerMode = "prod"):
//   - Gin runs in release mode
//
// Unknown routes return a JSON 404 in both modes.
//
// # Server Lifecycle
//
// Creation:
//
//	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
//	    v1.RegisterHandlers(router, handler)
//	}, server.WithMetrics(metrics.Handler(reg)))
//
// The registerHandlerFn callback receives a RouterGroup prefixed with /api/v1.
//
// Starting:
//
//	// Blocks until error or shutdown
//	err := srv.Start(ctx)
//
// Stopping:
//
//	srv.Stop(ctx)
//
// Performs graceful shutdown, waiting for in-flight requests to complete.
package server
