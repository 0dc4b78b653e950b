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

package defaults

import "time"

// Collector timeouts for telemetry collection operations.
const (
	// CollectorTimeout is the default timeout for collector operations.
	// Collectors should respect parent context deadlines when shorter.
	CollectorTimeout = 10 * time.Second

	// CollectorK8sTimeout is the timeout for Kubernetes API calls in collectors.
	CollectorK8sTimeout = 30 * time.Second
)

// Task execution timeouts.
const (
	// MinTaskTimeout is the lower bound accepted for a task's timeout_seconds field.
	MinTaskTimeout = 1 * time.Second

	// MaxTaskTimeout is the upper bound accepted for a task's timeout_seconds field.
	MaxTaskTimeout = 30 * time.Minute

	// DefaultTaskTimeout is used when a task definition does not set timeout_seconds.
	DefaultTaskTimeout = 5 * time.Minute

	// TaskHandlerTimeout bounds the handler-side wait for task resolution,
	// independent of the instance's own execution timeout.
	TaskHandlerTimeout = 30 * time.Second
)

// Session timeouts and sizing for long-lived container sessions.
const (
	// DefaultSessionIdleTimeout is the configured session idle timeout when the
	// environment does not set one.
	DefaultSessionIdleTimeout = 10 * time.Minute

	// DefaultSessionMaxLifetime is the configured session max lifetime when the
	// environment does not set one.
	DefaultSessionMaxLifetime = 2 * time.Hour

	// MinSessionTimeout is the lower bound accepted for session idle_timeout_seconds
	// and max_lifetime_seconds.
	MinSessionTimeout = 30 * time.Second

	// MaxSessionMaxLifetime is the upper bound accepted for max_lifetime_seconds.
	MaxSessionMaxLifetime = 24 * time.Hour

	// DefaultSessionQueueDepth bounds the number of tasks a session will buffer
	// ahead of the one currently executing.
	DefaultSessionQueueDepth = 16

	// ReaperInterval is the period between TimeoutReaper sweeps.
	ReaperInterval = 15 * time.Second

	// SessionStartTimeout bounds how long session creation waits for the backing
	// container to report ready before the session is killed.
	SessionStartTimeout = 2 * time.Minute
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sJobCreationTimeout is the timeout for creating K8s Job resources.
	K8sJobCreationTimeout = 30 * time.Second

	// K8sPodReadyTimeout is the timeout for waiting for pods to be ready.
	K8sPodReadyTimeout = 60 * time.Second

	// K8sJobCompletionTimeout is the default timeout for job completion.
	K8sJobCompletionTimeout = 5 * time.Minute

	// K8sCleanupTimeout is the timeout for cleanup operations.
	K8sCleanupTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)

// CLI timeouts for command-line operations.
const (
	// CLIRequestTimeout is the default timeout for gpuctl's outbound requests to gpud.
	CLIRequestTimeout = 30 * time.Second
)
