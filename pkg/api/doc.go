// Package api provides the HTTP API layer for the GPU task orchestrator.
//
// This package acts as a thin wrapper around the reusable pkg/server package,
// wiring the orchestrator's collaborator graph (catalog, GPU allocator,
// model cache, session registry, task handler) into concrete HTTP routes.
//
// # Usage
//
//	package main
//
//	import (
//	    "log"
//	    "github.com/gpuorch/gpud/pkg/api"
//	)
//
//	func main() {
//	    if err := api.Serve(); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Architecture
//
// The API layer is responsible for:
//   - Loading configuration from the environment via internal/config
//   - Building the App collaborator graph (internal/catalog, gpuallocator,
//     modelcache, session, taskhandler, containerruntime)
//   - Registering HTTP routes and delegating server lifecycle to pkg/server
//
// The pkg/server package handles:
//   - HTTP server setup and graceful shutdown
//   - Middleware (rate limiting, API key auth, logging, metrics, panic recovery)
//   - Health and readiness endpoints
//   - Prometheus metrics
//
// # Endpoints
//
// Application endpoints (rate limited, API-key protected when INTERNAL_API_KEY is set):
//   - POST /api/tasks/predefined      - Submit a task; response is an SSE stream of Events
//   - GET  /api/sessions              - List active sessions
//   - GET  /api/sessions/{id}         - Fetch one session's state
//   - DELETE /api/sessions/{id}       - Kill a session
//   - POST /api/sessions/{id}/keepalive - Extend a session's idle deadline
//
// System endpoints (no rate limiting):
//   - GET /health  - Health check, extended with gpus/sessions/tasks counts
//   - GET /ready   - Readiness check
//   - GET /metrics - Prometheus metrics
//
// # Configuration
//
// The server is configured via the environment variables internal/config
// parses — GPU fleet, session timeouts, model cache, container runtime
// selection, and inbound auth. See internal/config for the full list.
//
// Version information is set at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/gpuorch/gpud/pkg/api.version=1.0.0'"
package api
