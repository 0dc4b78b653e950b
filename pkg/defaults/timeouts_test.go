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

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Collector timeouts
		{"CollectorTimeout", CollectorTimeout, 5 * time.Second, 30 * time.Second},
		{"CollectorK8sTimeout", CollectorK8sTimeout, 10 * time.Second, 60 * time.Second},

		// Task timeouts
		{"MinTaskTimeout", MinTaskTimeout, 1 * time.Second, 10 * time.Second},
		{"MaxTaskTimeout", MaxTaskTimeout, 10 * time.Minute, 60 * time.Minute},
		{"DefaultTaskTimeout", DefaultTaskTimeout, 1 * time.Minute, 10 * time.Minute},
		{"TaskHandlerTimeout", TaskHandlerTimeout, 10 * time.Second, 60 * time.Second},

		// Session timeouts
		{"DefaultSessionIdleTimeout", DefaultSessionIdleTimeout, 1 * time.Minute, 30 * time.Minute},
		{"DefaultSessionMaxLifetime", DefaultSessionMaxLifetime, 30 * time.Minute, 6 * time.Hour},
		{"MinSessionTimeout", MinSessionTimeout, 5 * time.Second, 2 * time.Minute},
		{"MaxSessionMaxLifetime", MaxSessionMaxLifetime, 6 * time.Hour, 48 * time.Hour},
		{"ReaperInterval", ReaperInterval, 5 * time.Second, 60 * time.Second},
		{"SessionStartTimeout", SessionStartTimeout, 30 * time.Second, 5 * time.Minute},

		// Server timeouts
		{"ServerReadTimeout", ServerReadTimeout, 5 * time.Second, 30 * time.Second},
		{"ServerWriteTimeout", ServerWriteTimeout, 15 * time.Second, 60 * time.Second},
		{"ServerIdleTimeout", ServerIdleTimeout, 30 * time.Second, 300 * time.Second},
		{"ServerShutdownTimeout", ServerShutdownTimeout, 10 * time.Second, 60 * time.Second},

		// K8s timeouts
		{"K8sJobCreationTimeout", K8sJobCreationTimeout, 10 * time.Second, 60 * time.Second},
		{"K8sPodReadyTimeout", K8sPodReadyTimeout, 30 * time.Second, 120 * time.Second},
		{"K8sJobCompletionTimeout", K8sJobCompletionTimeout, 1 * time.Minute, 10 * time.Minute},
		{"K8sCleanupTimeout", K8sCleanupTimeout, 10 * time.Second, 60 * time.Second},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestTaskTimeoutBounds(t *testing.T) {
	if MinTaskTimeout >= MaxTaskTimeout {
		t.Errorf("MinTaskTimeout (%v) should be less than MaxTaskTimeout (%v)", MinTaskTimeout, MaxTaskTimeout)
	}
	if DefaultTaskTimeout < MinTaskTimeout || DefaultTaskTimeout > MaxTaskTimeout {
		t.Errorf("DefaultTaskTimeout (%v) should fall within [%v, %v]", DefaultTaskTimeout, MinTaskTimeout, MaxTaskTimeout)
	}
}

func TestSessionTimeoutRelationships(t *testing.T) {
	if DefaultSessionIdleTimeout < MinSessionTimeout {
		t.Errorf("DefaultSessionIdleTimeout (%v) should be at least MinSessionTimeout (%v)",
			DefaultSessionIdleTimeout, MinSessionTimeout)
	}
	if DefaultSessionMaxLifetime > MaxSessionMaxLifetime {
		t.Errorf("DefaultSessionMaxLifetime (%v) should not exceed MaxSessionMaxLifetime (%v)",
			DefaultSessionMaxLifetime, MaxSessionMaxLifetime)
	}
	if DefaultSessionIdleTimeout >= DefaultSessionMaxLifetime {
		t.Errorf("DefaultSessionIdleTimeout (%v) should be less than DefaultSessionMaxLifetime (%v)",
			DefaultSessionIdleTimeout, DefaultSessionMaxLifetime)
	}
}

func TestServerTimeoutRelationships(t *testing.T) {
	// Read timeout should be shorter than write timeout
	if ServerReadTimeout > ServerWriteTimeout {
		t.Errorf("ServerReadTimeout (%v) should not exceed ServerWriteTimeout (%v)",
			ServerReadTimeout, ServerWriteTimeout)
	}

	// Idle timeout should be longer than write timeout
	if ServerIdleTimeout < ServerWriteTimeout {
		t.Errorf("ServerIdleTimeout (%v) should be at least ServerWriteTimeout (%v)",
			ServerIdleTimeout, ServerWriteTimeout)
	}
}

func TestHTTPClientTimeoutRelationships(t *testing.T) {
	// Connect timeout should be less than total timeout
	if HTTPConnectTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPConnectTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPConnectTimeout, HTTPClientTimeout)
	}

	// TLS handshake timeout should be less than total timeout
	if HTTPTLSHandshakeTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPTLSHandshakeTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPTLSHandshakeTimeout, HTTPClientTimeout)
	}
}

func TestCollectorTimeoutLessThanK8s(t *testing.T) {
	// Individual collector timeout should be less than K8s collector timeout
	// since K8s operations may involve multiple API calls
	if CollectorTimeout > CollectorK8sTimeout {
		t.Errorf("CollectorTimeout (%v) should not exceed CollectorK8sTimeout (%v)",
			CollectorTimeout, CollectorK8sTimeout)
	}
}
