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

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/etched/database"
	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/event"
	"github.com/prometheus/client_golang/prometheus"
)

type LedgerStateConfig struct {
	Logger         *slog.Logger
	EventBus       *event.EventBus
	PromRegistry   prometheus.Registerer
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
	// AdminAddress is granted the admin capability when the ledger is first
	// initialized. It is ignored afterward.
	AdminAddress string
	// EventLogEnabled records every notification in the durable log
	EventLogEnabled bool
}

// LedgerState is the certificate ledger. Mutations are serialized and each
// one runs in a single database transaction, so they apply completely or
// not at all.
type LedgerState struct {
	sync.Mutex
	config  LedgerStateConfig
	db      *database.Database
	metrics stateMetrics
	admin   string
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	ls := &LedgerState{
		config: cfg,
	}
	// Init metrics
	ls.metrics.init(ls.config.PromRegistry)
	// Load database
	db, err := database.New(&database.Config{
		Logger:         cfg.Logger,
		PromRegistry:   cfg.PromRegistry,
		DataDir:        cfg.DataDir,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if db == nil {
		return nil, err
	}
	ls.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			_ = db.Close()
			return nil, err
		}
		// The next commit realigns both stores
		ls.config.Logger.Warn(
			"blob and metadata stores were not committed together, the notification log may be missing entries for committed changes",
			"error", err,
			"component", "ledger",
		)
	}
	if err := ls.initAdmin(); err != nil {
		_ = db.Close()
		return nil, err
	}
	activeValidators, err := ls.db.CountValidators(true, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	ls.metrics.validatorsActive.Set(float64(activeValidators))
	return ls, nil
}

// initAdmin loads the admin address, granting the capability to the
// configured address if the ledger has none yet
func (ls *LedgerState) initAdmin() error {
	configured := ls.config.AdminAddress
	if configured != "" {
		var err error
		configured, err = NormalizeAddress(configured)
		if err != nil {
			return fmt.Errorf("admin address: %w", err)
		}
	}
	admin, err := ls.db.GetLedgerAdmin(nil)
	if err == nil {
		ls.admin = admin.Address
		if configured != "" && configured != admin.Address {
			ls.config.Logger.Warn(
				"ignoring configured admin address, ledger admin was granted at initialization",
				"configured", configured,
				"admin", admin.Address,
				"component", "ledger",
			)
		}
		return nil
	}
	if !errors.Is(err, models.ErrLedgerAdminNotFound) {
		return err
	}
	if configured == "" {
		ls.config.Logger.Warn(
			"no admin address configured, validators cannot be managed",
			"component", "ledger",
		)
		return nil
	}
	txn := ls.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		return ls.db.SetLedgerAdmin(
			&models.LedgerAdmin{
				Address:       configured,
				InitializedAt: time.Now().UTC(),
			},
			txn,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize admin: %w", err)
	}
	ls.admin = configured
	ls.config.Logger.Info(
		"granted admin capability",
		"address", configured,
		"component", "ledger",
	)
	return nil
}

// Close releases the database
func (ls *LedgerState) Close() error {
	return ls.db.Close()
}

// Database returns the underlying database
func (ls *LedgerState) Database() *database.Database {
	return ls.db
}

// mutation carries the state of one ledger mutation
type mutation struct {
	txn    *database.Txn
	now    time.Time
	caller string
	events []event.Event
}

func (m *mutation) emit(eventType event.EventType, data any) {
	m.events = append(
		m.events,
		event.Event{
			Type:      eventType,
			Timestamp: m.now,
			Data:      data,
		},
	)
}

// mutate runs fn as a serialized read-check-write transaction. The
// notifications emitted by fn are logged in the same transaction and
// published only once it has committed.
func (ls *LedgerState) mutate(
	op string,
	caller string,
	fn func(*mutation) error,
) error {
	start := time.Now()
	ls.Lock()
	defer ls.Unlock()
	normalizedCaller, err := normalizeCaller(caller)
	if err != nil {
		ls.metrics.observe(op, start, err)
		return err
	}
	m := &mutation{
		now:    start.UTC(),
		caller: normalizedCaller,
	}
	txn := ls.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		m.txn = txn
		if err := fn(m); err != nil {
			return err
		}
		return ls.logEvents(m)
	})
	ls.metrics.observe(op, start, err)
	if err != nil {
		return err
	}
	ls.publishEvents(m.events)
	return nil
}

func (ls *LedgerState) logEvents(m *mutation) error {
	if !ls.config.EventLogEnabled {
		return nil
	}
	for i := range m.events {
		evt := &m.events[i]
		data, err := json.Marshal(evt.Data)
		if err != nil {
			return fmt.Errorf("encode %s notification: %w", evt.Type, err)
		}
		seq, err := ls.db.AppendNotification(
			string(evt.Type),
			evt.Timestamp,
			data,
			m.txn,
		)
		if err != nil {
			return fmt.Errorf("log %s notification: %w", evt.Type, err)
		}
		evt.Sequence = seq
	}
	return nil
}

func (ls *LedgerState) publishEvents(events []event.Event) {
	if ls.config.EventBus == nil {
		return
	}
	for _, evt := range events {
		ls.config.EventBus.PublishAsync(evt.Type, evt)
	}
}
