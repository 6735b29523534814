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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/vestry/api"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/engine"
	"github.com/blinklabs-io/vestry/event"
	"github.com/blinklabs-io/vestry/keystore"
)

// Node ties together the database, bookkeeping engine, and API listener
type Node struct {
	config        Config
	eventBus      *event.EventBus
	db            *database.Database
	engine        *engine.Engine
	api           *api.Api
	keystore      *keystore.Keystore
	snapshotter   *database.Snapshotter
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	return n, nil
}

func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:      n.config.dataDir,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Tracing:      n.config.tracing,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load keystore
	if n.config.keystoreDir != "" {
		ks, err := keystore.New(keystore.KeystoreConfig{
			Logger:    n.config.logger,
			Dir:       n.config.keystoreDir,
			Encrypted: n.config.keystoreEncrypted,
		})
		if err != nil {
			return fmt.Errorf("failed to load keystore: %w", err)
		}
		n.keystore = ks
	}
	// Initialize engine
	n.engine = engine.New(engine.Config{
		Logger:       n.config.logger,
		EventBus:     n.eventBus,
		PromRegistry: n.config.promRegistry,
		Database:     n.db,
		Custody:      n.config.custody,
		Governance:   n.config.governance,
		Clock:        n.config.clock,
	})
	// Start periodic journal snapshots
	if n.config.snapshotBucket != "" {
		snapshotter, err := database.NewSnapshotter(
			database.WithBucket(n.config.snapshotBucket),
			database.WithCredentialsFile(n.config.snapshotCredentialsFile),
		)
		if err != nil {
			return fmt.Errorf("failed to create snapshotter: %w", err)
		}
		n.snapshotter = snapshotter
		go n.snapshotLoop(ctx)
	}
	// Start API listener
	n.api = api.NewApi(api.ApiConfig{
		Logger:          n.config.logger,
		EventBus:        n.eventBus,
		Engine:          n.engine,
		Host:            n.config.apiHost,
		Port:            n.config.apiPort,
		TlsCertFilePath: n.config.tlsCertFilePath,
		TlsKeyFilePath:  n.config.tlsKeyFilePath,
	})
	errChan := make(chan error, 1)
	go func() {
		if err := n.api.Start(); err != nil {
			select {
			case errChan <- err:
			case <-n.done:
			}
		}
	}()
	// Wait for cancellation or API failure
	select {
	case <-ctx.Done():
		return n.Stop()
	case err := <-errChan:
		stopErr := n.Stop()
		if err != nil {
			return err
		}
		return stopErr
	}
}

func (n *Node) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(n.config.snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case <-ticker.C:
			object, err := n.snapshotter.Snapshot(ctx, n.db)
			if err != nil {
				n.config.logger.Error(
					"failed to snapshot journal",
					"component", "node",
					"error", err,
				)
				continue
			}
			n.config.logger.Info(
				"uploaded journal snapshot",
				"component", "node",
				"object", object,
			)
		}
	}
}

// Stop shuts down the node and releases its resources. It's safe to call
// more than once
func (n *Node) Stop() error {
	var retErr error
	n.shutdownOnce.Do(func() {
		close(n.done)
		ctx, cancel := context.WithTimeout(
			context.Background(),
			n.config.shutdownTimeout,
		)
		defer cancel()
		for _, fn := range n.shutdownFuncs {
			if err := fn(ctx); err != nil && retErr == nil {
				retErr = err
			}
		}
		n.shutdownFuncs = nil
		if n.snapshotter != nil {
			if err := n.snapshotter.Close(); err != nil && retErr == nil {
				retErr = err
			}
		}
		if n.db != nil {
			if err := n.db.Close(); err != nil && retErr == nil {
				retErr = err
			}
		}
	})
	return retErr
}

// Engine returns the underlying bookkeeping engine
func (n *Node) Engine() *engine.Engine {
	return n.engine
}

// Keystore returns the authority keystore, or nil when no keystore
// directory is configured
func (n *Node) Keystore() *keystore.Keystore {
	return n.keystore
}
