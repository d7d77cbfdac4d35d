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
	"log/slog"

	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/plugin/blob"
	"github.com/blinklabs-io/etched/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register storage plugins
	_ "github.com/blinklabs-io/etched/database/plugin/blob/aws"
	_ "github.com/blinklabs-io/etched/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/etched/database/plugin/blob/gcs"
	_ "github.com/blinklabs-io/etched/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/etched/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/etched/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the settings used to open a Database. An empty DataDir keeps
// the local stores in memory.
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
}

type Database struct {
	config   Config
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	lock     *dirLock
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections and releases the data dir lock
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	if d.lock != nil {
		err = errors.Join(err, d.lock.Release())
		d.lock = nil
	}
	return err
}

func (d *Database) init() error {
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance using the configured storage plugins
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	db := &Database{
		config: *cfg,
		logger: cfg.Logger,
	}
	if db.logger == nil {
		db.logger = plugin.DiscardLogger()
	}
	if db.config.BlobPlugin == "" {
		db.config.BlobPlugin = DefaultBlobPlugin
	}
	if db.config.MetadataPlugin == "" {
		db.config.MetadataPlugin = DefaultMetadataPlugin
	}
	if db.config.DataDir != "" {
		lock, err := acquireDirLock(db.config.DataDir)
		if err != nil {
			return nil, err
		}
		db.lock = lock
	}
	// Point local stores at our data dir. Remote plugins have no such option.
	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		db.config.BlobPlugin,
		"data-dir",
		db.config.DataDir,
	); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := plugin.SetPluginOption(
		plugin.PluginTypeMetadata,
		db.config.MetadataPlugin,
		"data-dir",
		db.config.DataDir,
	); err != nil {
		_ = db.Close()
		return nil, err
	}
	metadataDb, err := metadata.New(
		db.config.MetadataPlugin,
		db.logger,
		db.config.PromRegistry,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	db.metadata = metadataDb
	blobDb, err := blob.New(
		db.config.BlobPlugin,
		db.logger,
		db.config.PromRegistry,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	db.blob = blobDb
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
