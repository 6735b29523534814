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

package engine

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/event"
	"github.com/blinklabs-io/vestry/registry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Clock supplies the external time and sequence counter for operations.
// Both values are captured once at the start of each operation and
// reused throughout, so derived calculations within one transition
// cannot disagree.
type Clock interface {
	// UnixTime returns the current time in seconds
	UnixTime() int64
	// Slot returns the current value of the external sequence counter
	Slot() uint64
}

// SystemClock derives both time and slot from the wall clock
type SystemClock struct{}

func (SystemClock) UnixTime() int64 {
	return time.Now().Unix()
}

func (SystemClock) Slot() uint64 {
	return uint64(time.Now().Unix()) // #nosec G115
}

// Custody is the external asset custody collaborator. The engine calls
// Transfer after staging its bookkeeping mutations and before committing
// them. A transfer error fails the operation and the staged bookkeeping
// is rolled back. The reverse window is not covered: if the database
// commit fails after a successful transfer, custody is left ahead of the
// recorded ledger and no journal entry is written. Implementations that
// cannot tolerate that window must be able to reverse a transfer when
// the operation reports an error, or reconcile vault balances against
// committed ledger state out of band.
type Custody interface {
	Transfer(source, destination, mint registry.Identity, amount uint64) error
}

// GovernanceChecker is the external governance collaborator consulted on
// withdrawal. A voter with outstanding voting tokens recorded by
// governance may not withdraw.
type GovernanceChecker interface {
	VotingTokens(
		realm, mint, voterAuthority registry.Identity,
	) (uint64, error)
}

// allowAllGovernance reports no outstanding voting tokens for anyone
type allowAllGovernance struct{}

func (allowAllGovernance) VotingTokens(
	_, _, _ registry.Identity,
) (uint64, error) {
	return 0, nil
}

type engineMetrics struct {
	opCount  *prometheus.CounterVec
	opErrors *prometheus.CounterVec
}

// Config holds the configuration for the engine
type Config struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Database     *database.Database
	Custody      Custody
	Governance   GovernanceChecker
	Clock        Clock
}

// Engine executes lockup registry state transitions. Operations are
// serialized: each one observes fully-committed prior state and either
// commits fully or not at all.
type Engine struct {
	mutex      sync.Mutex
	logger     *slog.Logger
	eventBus   *event.EventBus
	db         *database.Database
	custody    Custody
	governance GovernanceChecker
	clock      Clock
	metrics    engineMetrics
}

// New creates a new engine
func New(config Config) *Engine {
	e := &Engine{
		eventBus:   config.EventBus,
		db:         config.Database,
		custody:    config.Custody,
		governance: config.Governance,
		clock:      config.Clock,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = config.Logger
	}
	if e.custody == nil {
		e.custody = NewMemoryVault()
	}
	if e.governance == nil {
		e.governance = allowAllGovernance{}
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	e.metrics.opCount = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestry_engine_operations_total",
			Help: "total operations processed by the engine",
		},
		[]string{"op"},
	)
	e.metrics.opErrors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestry_engine_operation_errors_total",
			Help: "total operations rejected by the engine",
		},
		[]string{"op"},
	)
	return e
}

// Database returns the underlying database
func (e *Engine) Database() *database.Database {
	return e.db
}

// finishOp updates per-operation metrics and logs rejections. Journal
// entries and events are handled by each operation
func (e *Engine) finishOp(op string, err error) {
	e.metrics.opCount.WithLabelValues(op).Inc()
	if err != nil {
		e.metrics.opErrors.WithLabelValues(op).Inc()
		e.logger.Debug(
			"operation rejected",
			"component", "engine",
			"op", op,
			"error", err,
		)
	}
}

// publish sends an engine event when an event bus is configured
func (e *Engine) publish(eventType event.EventType, data any) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}
