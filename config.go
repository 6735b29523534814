// Copyright 2026 Blink Labs Software
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

package vestry

import (
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/vestry/engine"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultShutdownTimeout = 30 * time.Second

type Config struct {
	logger                  *slog.Logger
	promRegistry            prometheus.Registerer
	custody                 engine.Custody
	governance              engine.GovernanceChecker
	clock                   engine.Clock
	dataDir                 string
	apiHost                 string
	apiPort                 uint
	tlsCertFilePath         string
	tlsKeyFilePath          string
	keystoreDir             string
	keystoreEncrypted       bool
	snapshotBucket          string
	snapshotCredentialsFile string
	snapshotInterval        time.Duration
	tracing                 bool
	tracingStdout           bool
	shutdownTimeout         time.Duration
}

// ConfigOptionFunc is a type representing functional config options
type ConfigOptionFunc func(*Config)

// NewConfig creates a new config instance with default values and applies any provided options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		apiHost:          "0.0.0.0",
		apiPort:          9090,
		snapshotInterval: 1 * time.Hour,
		shutdownTimeout:  defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a reasonable choice
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithCustody specifies the custody backend used for token transfers. This defaults to an in-memory vault
func WithCustody(custody engine.Custody) ConfigOptionFunc {
	return func(c *Config) {
		c.custody = custody
	}
}

// WithGovernance specifies the governance checker consulted before withdrawals. The default reports no outstanding votes
func WithGovernance(governance engine.GovernanceChecker) ConfigOptionFunc {
	return func(c *Config) {
		c.governance = governance
	}
}

// WithClock specifies the clock used for lockup timestamps and deposit slots. This defaults to the system clock
func WithClock(clock engine.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithApiHost specifies the address to bind the API listener to. This defaults to all addresses
func WithApiHost(host string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiHost = host
	}
}

// WithApiPort specifies the port to use for the API listener. This defaults to port 9090
func WithApiPort(port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.apiPort = port
	}
}

// WithTlsCertFilePath specifies the path to the TLS certificate for the API listener. This defaults to empty
func WithTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithTlsKeyFilePath specifies the path to the TLS key for the API listener. This defaults to empty
func WithTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithKeystoreDir specifies the directory holding authority key files. Empty disables the keystore
func WithKeystoreDir(dir string) ConfigOptionFunc {
	return func(c *Config) {
		c.keystoreDir = dir
	}
}

// WithKeystoreEncrypted specifies whether authority key files are encrypted with SOPS
func WithKeystoreEncrypted(encrypted bool) ConfigOptionFunc {
	return func(c *Config) {
		c.keystoreEncrypted = encrypted
	}
}

// WithSnapshotBucket specifies the GCS bucket for periodic journal snapshots. Empty disables snapshots
func WithSnapshotBucket(bucket string) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshotBucket = bucket
	}
}

// WithSnapshotCredentialsFile specifies the credentials file for snapshot uploads
func WithSnapshotCredentialsFile(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshotCredentialsFile = path
	}
}

// WithSnapshotInterval specifies how often to upload journal snapshots. The default is one hour
func WithSnapshotInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshotInterval = interval
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented at https://opentelemetry.io/docs/languages/sdk-configuration/otlp-exporter/
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
