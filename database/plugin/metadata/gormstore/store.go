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

// Package gormstore holds the metadata store queries shared by the
// relational plugins. Each plugin opens its own dialect and hands the
// resulting handle to Store.Init.
package gormstore

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/types"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Store implements the metadata store queries on top of a gorm handle
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// GormConfig returns the gorm settings used by every metadata plugin
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
}

// Init attaches an open database, enables tracing and migrates the schema
func (s *Store) Init(db *gorm.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = plugin.DiscardLogger()
	}
	s.db = db
	s.logger = logger
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	return s.Migrate()
}

// Migrate creates or updates the table schemas
func (s *Store) Migrate() error {
	s.logger.Debug(fmt.Sprintf("creating table: %#v", &CommitTimestamp{}))
	if err := s.db.AutoMigrate(&CommitTimestamp{}); err != nil {
		return err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := s.db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

// DB returns the database handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Logger returns the store logger
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// CloseDB closes the underlying connection pool
func (s *Store) CloseDB() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	err = sqlDB.Close()
	s.db = nil
	return err
}

// Transaction creates a gorm transaction
func (s *Store) Transaction() types.Txn {
	txn, _ := s.BeginTxn()
	return txn
}

// BeginTxn starts a transaction and returns the handle with an error
func (s *Store) BeginTxn() (types.Txn, error) {
	if s.db == nil {
		return newFailedTxn(types.ErrNoStoreAvailable), types.ErrNoStoreAvailable
	}
	db := s.db.Begin()
	if db.Error != nil {
		s.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", db.Error,
		)
		return newFailedTxn(db.Error), db.Error
	}
	return newTxn(db), nil
}

// resolveDB returns the gorm handle to run a query on. A nil txn runs
// outside of any transaction.
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		if s.db == nil {
			return nil, types.ErrNoStoreAvailable
		}
		return s.db, nil
	}
	t, ok := txn.(*Txn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	if t.finished {
		return nil, types.ErrTxnFinished
	}
	if t.db == nil {
		return nil, types.ErrNilTxn
	}
	return t.db, nil
}
