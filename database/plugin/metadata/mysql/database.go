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

package mysql

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/plugin/metadata/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mysqlErrUnknownDatabase is the server error for a missing schema
const mysqlErrUnknownDatabase = 1049

// MetadataStoreMysql stores metadata in MySQL
type MetadataStoreMysql struct {
	gormstore.Store
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	host           string
	user           string
	password       string
	database       string
	sslMode        string
	timeZone       string
	dsn            string // Data source name (MySQL connection string)
	port           uint
	maxConnections int
}

// New creates and starts a MySQL metadata store
func New(
	dsn string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStoreMysql, error) {
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

// NewWithOptions creates a MySQL metadata store without connecting
func NewWithOptions(opts ...MysqlOptionFunc) *MetadataStoreMysql {
	d := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(d)
	}
	// Set defaults after options are applied
	if d.host == "" {
		d.host = "localhost"
	}
	if d.port == 0 {
		d.port = 3306
	}
	if d.user == "" {
		d.user = "root"
	}
	if d.database == "" {
		d.database = "etched"
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
func (d *MetadataStoreMysql) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// SetPromRegistry implements plugin.Configurable
func (d *MetadataStoreMysql) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// buildDSN returns the DSN to connect with and the database name it selects
func (d *MetadataStoreMysql) buildDSN() (string, string) {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		if parsedDB, ok := parseMysqlDatabaseFromDSN(dsn); ok {
			return dsn, parsedDB
		}
		return dsn, d.database
	}
	cfg := mysql.NewConfig()
	cfg.User = d.user
	cfg.Passwd = d.password
	cfg.Net = "tcp"
	cfg.Addr = d.host + ":" + strconv.FormatUint(uint64(d.port), 10)
	cfg.DBName = d.database
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true
	cfg.Params = map[string]string{}
	if d.timeZone != "" {
		loc, err := time.LoadLocation(d.timeZone)
		if err != nil {
			loc = time.UTC
		}
		cfg.Loc = loc
	}
	if d.sslMode != "" {
		cfg.Params["tls"] = d.sslMode
	}
	return cfg.FormatDSN(), d.database
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Start() error {
	if d.DB() != nil {
		return errors.New("mysql metadata store already started")
	}
	if d.logger == nil {
		d.logger = plugin.DiscardLogger()
	}
	dsn, dbName := d.buildDSN()
	gormConfig := gormstore.GormConfig()
	gormConfig.PrepareStmt = true
	metadataDb, err := gorm.Open(gormmysql.Open(dsn), gormConfig)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) || mysqlErr.Number != mysqlErrUnknownDatabase {
			return err
		}
		// Create the database on first start and try again
		if createErr := d.ensureDatabaseExists(dsn, dbName); createErr != nil {
			return errors.Join(err, createErr)
		}
		metadataDb, err = gorm.Open(gormmysql.Open(dsn), gormConfig)
		if err != nil {
			return err
		}
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"host", d.host,
		"port", d.port,
		"database", dbName,
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

func (d *MetadataStoreMysql) ensureDatabaseExists(
	dsn string,
	dbName string,
) error {
	if dbName == "" {
		return errors.New("mysql: no database name to create")
	}
	adminDsn, ok := stripDatabaseFromDSN(dsn)
	if !ok {
		return fmt.Errorf("mysql: cannot derive server DSN from %q", dsn)
	}
	adminDb, err := gorm.Open(gormmysql.Open(adminDsn), gormstore.GormConfig())
	if err != nil {
		return err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return err
	}
	defer sqlAdminDb.Close()
	return adminDb.Exec(
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", strings.ReplaceAll(dbName, "`", "")),
	).Error
}

func parseMysqlDatabaseFromDSN(dsn string) (string, bool) {
	base, _, _ := strings.Cut(dsn, "?")
	slash := strings.LastIndex(base, "/")
	if slash < 0 || slash == len(base)-1 {
		return "", false
	}
	return base[slash+1:], true
}

func stripDatabaseFromDSN(dsn string) (string, bool) {
	base, params, hasParams := strings.Cut(dsn, "?")
	slash := strings.LastIndex(base, "/")
	if slash < 0 {
		return "", false
	}
	base = base[:slash+1]
	if !hasParams || params == "" {
		return base, true
	}
	return base + "?" + params, true
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

// Close closes the connection pool
func (d *MetadataStoreMysql) Close() error {
	return d.CloseDB()
}
