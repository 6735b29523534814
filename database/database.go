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

package database

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Config holds the configuration for the database
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	DataDir      string
	Tracing      bool
}

// Database combines the metadata store (registrar and voter records) with
// the append-only operation journal
type Database struct {
	logger   *slog.Logger
	metadata *gorm.DB
	journal  *badger.DB
	dataDir  string
}

// New creates a new database. Both stores are kept in memory when no data
// directory is given, which is useful for testing.
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var metadataDb *gorm.DB
	var err error
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	badgerOpts := badger.DefaultOptions("").
		WithLogger(newBadgerLogger(logger))
	if cfg.DataDir == "" {
		// cache=shared allows multiple connections to share the same in-memory database
		metadataDb, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			gormConfig,
		)
		if err != nil {
			return nil, err
		}
		badgerOpts = badgerOpts.WithInMemory(true)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(cfg.DataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(cfg.DataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		metadataDbPath := filepath.Join(cfg.DataDir, "metadata.sqlite")
		// WAL journal mode and a larger cache
		metadataConnOpts := "_pragma=journal_mode(WAL)&_pragma=cache_size(-50000)"
		metadataDb, err = gorm.Open(
			sqlite.Open(
				fmt.Sprintf("file:%s?%s", metadataDbPath, metadataConnOpts),
			),
			gormConfig,
		)
		if err != nil {
			return nil, err
		}
		badgerOpts = badgerOpts.WithDir(
			filepath.Join(cfg.DataDir, "journal"),
		).WithValueDir(
			filepath.Join(cfg.DataDir, "journal"),
		)
	}
	if cfg.Tracing {
		if err := metadataDb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("failed to enable tracing plugin: %w", err)
		}
	}
	journalDb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db := &Database{
		logger:   logger,
		metadata: metadataDb,
		journal:  journalDb,
		dataDir:  cfg.DataDir,
	}
	// Create table schemas
	for _, model := range migrateModels {
		db.logger.Debug(fmt.Sprintf("creating table: %T", model))
		if err := db.metadata.AutoMigrate(model); err != nil {
			_ = journalDb.Close()
			return nil, err
		}
	}
	return db, nil
}

// Transaction starts a new metadata store transaction
func (d *Database) Transaction() *Txn {
	return NewTxn(d)
}

// Metadata returns the underlying metadata store handle
func (d *Database) Metadata() *gorm.DB {
	return d.metadata
}

// Journal returns the underlying journal store handle
func (d *Database) Journal() *badger.DB {
	return d.journal
}

// DataDir returns the database's data directory. It is empty for
// in-memory databases.
func (d *Database) DataDir() string {
	return d.dataDir
}

// Close flushes and closes both stores
func (d *Database) Close() error {
	var err error
	sqlDb, sqlErr := d.metadata.DB()
	if sqlErr == nil {
		err = errors.Join(err, sqlDb.Close())
	}
	err = errors.Join(err, d.journal.Close())
	return err
}

// badgerLogger wraps our logger for use with badger
type badgerLogger struct {
	*slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{Logger: logger}
}

func (b *badgerLogger) Infof(msg string, args ...any) {
	b.Info(fmt.Sprintf(msg, args...))
}

func (b *badgerLogger) Warningf(msg string, args ...any) {
	b.Warn(fmt.Sprintf(msg, args...))
}

func (b *badgerLogger) Debugf(msg string, args ...any) {
	b.Debug(fmt.Sprintf(msg, args...))
}

func (b *badgerLogger) Errorf(msg string, args ...any) {
	b.Error(fmt.Sprintf(msg, args...))
}
