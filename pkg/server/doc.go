// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server provides the HTTP server that hosts the gpud API: the
// application routes are supplied by the caller, and the package adds the
// system endpoints and the shared middleware.
//
// This implementation follows production-grade distributed systems best practices:
//
// # Architecture
//
// The server implements a stateless HTTP API with the following key components:
//
//   - Optional API key check (X-Api-Key header)
//   - Rate limiting using token bucket algorithm (golang.org/x/time/rate)
//   - Request ID tracking for distributed tracing
//   - Panic recovery for resilience
//   - Graceful shutdown handling
//   - Health and readiness probes for Kubernetes
//
// # Usage
//
// Server startup with custom configuration and routes:
//
//	cfg := server.NewConfig()
//	cfg.Port = 9090
//	cfg.RateLimit = 200 // 200 requests/sec
//	cfg.RateLimitBurst = 400
//
//	s := server.New(
//	    server.WithConfig(cfg),
//	    server.WithName("gpud"),
//	    server.WithHandler(map[string]http.HandlerFunc{"/api/tasks": handleTasks}),
//	)
//	if err := s.Run(ctx); err != nil {
//	    panic(err)
//	}
//
// # API Endpoints
//
// Application routes are the handlers passed through WithHandler; each is
// wrapped in the middleware chain. The system endpoints below are not.
//
// GET /health - Health check (for liveness probe)
//
//	Always returns 200 OK with {"status": "healthy", "timestamp": "..."}
//
// GET /ready - Readiness check (for readiness probe)
//
//	Returns 200 OK when ready, 503 when not ready
//
// GET /metrics - Prometheus metrics
//
// # Observability
//
// Request ID Tracking:
//
//	All requests accept an optional X-Request-Id header (UUID format).
//	If not provided, the server generates one automatically.
//	The request ID is returned in the X-Request-Id response header
//	and included in all error responses for tracing.
//
// Rate Limiting:
//
//	Response headers indicate rate limit status:
//	  X-RateLimit-Limit: Total requests allowed per window
//	  X-RateLimit-Remaining: Requests remaining in current window
//	  X-RateLimit-Reset: Unix timestamp when window resets
//
//	When rate limited, returns 429 with Retry-After header.
//
// # Error Handling
//
// All errors return a consistent JSON structure:
//
//	{
//	  "code": "INVALID_REQUEST",
//	  "message": "invalid request body",
//	  "details": {"request": {...}},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2025-12-22T12:00:00Z",
//	  "retryable": false
//	}
//
// Error codes (see HTTPStatusFromCode):
//   - INVALID_REQUEST, INVALID_DIFFICULTY, INVALID_SESSION_STATE (400)
//   - UNAUTHORIZED (401)
//   - NOT_FOUND, UNKNOWN_TASK, MISSING_ACTION, SESSION_NOT_FOUND (404)
//   - METHOD_NOT_ALLOWED (405)
//   - RATE_LIMIT_EXCEEDED (429)
//   - INTERNAL and any unlisted code (500)
//   - FETCH_ERROR, CONTAINER_CREATE_ERROR (502)
//   - SERVICE_UNAVAILABLE, CAPACITY_FULL, QUEUE_FULL, RUNTIME_UNAVAILABLE (503)
//   - TIMEOUT, DEADLINE_EXCEEDED (504)
//
// # Deployment
//
// Kubernetes deployment example:
//
//	apiVersion: apps/v1
//	kind: Deployment
//	metadata:
//	  name: cns-recommendation-api
//	spec:
//	  replicas: 3
//	  selector:
//	    matchLabels:
//	      app: cns-recommendation-api
//	  template:
//	    metadata:
//	      labels:
//	        app: cns-recommendation-api
//	    spec:
//	      containers:
//	      - name: api
//	        image: cns-recommendation-api:latest
//	        ports:
//	        - containerPort: 8080
//	        env:
//	        - name: PORT
//	          value: "8080"
//	        livenessProbe:
//	          httpGet:
//	            path: /health
//	            port: 8080
//	          initialDelaySeconds: 5
//	          periodSeconds: 10
//	        readinessProbe:
//	          httpGet:
//	            path: /ready
//	            port: 8080
//	          initialDelaySeconds: 5
//	          periodSeconds: 5
//	        resources:
//	          requests:
//	            cpu: 100m
//	            memory: 128Mi
//	          limits:
//	            cpu: 1000m
//	            memory: 512Mi
//
// # Performance
//
// The server is designed to handle thousands of requests per second with
// proper horizontal scaling. Rate limiting prevents resource exhaustion.
//
// # References
//
//   - Rate limiting: https://pkg.go.dev/golang.org/x/time/rate
//   - UUID generation: https://pkg.go.dev/github.com/google/uuid
//   - Error groups: https://pkg.go.dev/golang.org/x/sync/errgroup
//   - HTTP best practices: https://datatracker.ietf.org/doc/html/rfc7807
//   - Kubernetes probes: https://kubernetes.io/docs/tasks/configure-pod-container/configure-liveness-readiness-startup-probes/
package server
