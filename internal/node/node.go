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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/vestry"
	"github.com/blinklabs-io/vestry/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second // Default timeout
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	opts := []vestry.ConfigOptionFunc{
		vestry.WithLogger(logger),
		vestry.WithDataDir(cfg.DataDir),
		vestry.WithApiHost(cfg.BindAddr),
		vestry.WithApiPort(cfg.ApiPort),
		vestry.WithTlsCertFilePath(cfg.TlsCertFilePath),
		vestry.WithTlsKeyFilePath(cfg.TlsKeyFilePath),
		vestry.WithKeystoreDir(cfg.KeystoreDir),
		vestry.WithKeystoreEncrypted(cfg.KeystoreEncrypted),
		vestry.WithShutdownTimeout(shutdownTimeout),
		vestry.WithTracing(cfg.Tracing),
		vestry.WithTracingStdout(cfg.TracingStdout),
		// Enable metrics with default prometheus registry
		vestry.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	}
	if cfg.SnapshotBucket != "" {
		opts = append(
			opts,
			vestry.WithSnapshotBucket(cfg.SnapshotBucket),
			vestry.WithSnapshotCredentialsFile(cfg.SnapshotCredentialsFile),
		)
		if cfg.SnapshotInterval != "" {
			snapshotInterval, err := time.ParseDuration(cfg.SnapshotInterval)
			if err != nil {
				return fmt.Errorf("invalid snapshot interval: %w", err)
			}
			opts = append(
				opts,
				vestry.WithSnapshotInterval(snapshotInterval),
			)
		}
	}
	v, err := vestry.New(vestry.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		err := v.Run(signalCtx)
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")

		// Shutdown metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}

		// Shutdown node
		if err := v.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		// Shutdown metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("metrics server shutdown error", "error", shutdownErr)
		}
		if stopErr := v.Stop(); stopErr != nil {
			logger.Error("shutdown errors occurred", "error", stopErr)
		}
		if err != nil {
			logger.Error("node error", "error", err)
			return err
		}
		logger.Info("node stopped")
		return nil
	}
}
