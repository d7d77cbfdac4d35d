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

package postgres

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/plugin/metadata/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MetadataStorePostgres stores metadata in Postgres
type MetadataStorePostgres struct {
	gormstore.Store
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	host           string
	user           string
	password       string
	database       string
	sslMode        string
	timeZone       string
	dsn            string // Data source name (postgres connection string)
	port           uint
	maxConnections int
}

// New creates and starts a Postgres metadata store
func New(
	dsn string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStorePostgres, error) {
	d := NewWithOptions(
		WithDSN(dsn),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
	if err := d.Start(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewWithOptions creates a Postgres metadata store without connecting
func NewWithOptions(opts ...PostgresOptionFunc) *MetadataStorePostgres {
	d := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(d)
	}
	// Set defaults after options are applied
	if d.host == "" {
		d.host = "localhost"
	}
	if d.port == 0 {
		d.port = 5432
	}
	if d.user == "" {
		d.user = "postgres"
	}
	if d.database == "" {
		d.database = "postgres"
	}
	if d.sslMode == "" {
		d.sslMode = "disable"
	}
	if d.timeZone == "" {
		d.timeZone = "UTC"
	}
	if d.maxConnections == 0 {
		d.maxConnections = 20
	}
	return d
}

// SetLogger implements plugin.Configurable
func (d *MetadataStorePostgres) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// SetPromRegistry implements plugin.Configurable
func (d *MetadataStorePostgres) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// buildDSN returns the configured DSN, or one assembled from the individual
// connection options
func (d *MetadataStorePostgres) buildDSN() string {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + d.host,
		"user=" + d.user,
		"password=" + d.password,
		"dbname=" + d.database,
		"port=" + strconv.FormatUint(uint64(d.port), 10),
		"sslmode=" + d.sslMode,
	}
	if d.timeZone != "" {
		parts = append(parts, "TimeZone="+d.timeZone)
	}
	return strings.Join(parts, " ")
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	if d.DB() != nil {
		return errors.New("postgres metadata store already started")
	}
	if d.logger == nil {
		d.logger = plugin.DiscardLogger()
	}
	gormConfig := gormstore.GormConfig()
	gormConfig.PrepareStmt = true
	metadataDb, err := gorm.Open(postgres.Open(d.buildDSN()), gormConfig)
	if err != nil {
		return err
	}
	d.logger.Info(
		"connected to postgres metadata store",
		"component", "database",
		"host", d.host,
		"port", d.port,
		"database", d.database,
	)
	// Configure connection pool
	sqlDB, err := metadataDb.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(min(10, d.maxConnections))
	sqlDB.SetMaxOpenConns(d.maxConnections)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if err := d.Init(metadataDb, d.logger); err != nil {
		_ = d.CloseDB()
		return err
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

// Close closes the connection pool
func (d *MetadataStorePostgres) Close() error {
	return d.CloseDB()
}
