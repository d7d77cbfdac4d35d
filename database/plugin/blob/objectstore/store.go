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

// Package objectstore implements the blob store transaction model on top of
// remote object storage. Writes are buffered in the transaction and flushed
// on commit, so a rolled back transaction never reaches the bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/blinklabs-io/etched/database/plugin"
	etchedsops "github.com/blinklabs-io/etched/database/sops"
	"github.com/blinklabs-io/etched/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultTimeout = 60 * time.Second

// Backend is the minimal set of object operations a remote bucket provides.
// GetObject must return types.ErrBlobKeyNotFound for missing objects.
type Backend interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, value []byte) error
	DeleteObject(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Store adapts a Backend to the blob store interface
type Store struct {
	backend    Backend
	logger     *slog.Logger
	opsTotal   *prometheus.CounterVec
	bytesTotal *prometheus.CounterVec
	name       string
	timeout    time.Duration
	encrypt    bool
}

// Config holds Store settings
type Config struct {
	Backend Backend
	Logger  *slog.Logger
	// PromRegistry enables operation metrics when set
	PromRegistry prometheus.Registerer
	// Name labels log messages and metrics, e.g. "s3"
	Name    string
	Timeout time.Duration
	// Encrypt wraps every stored value in a SOPS document
	Encrypt bool
}

func NewStore(cfg Config) *Store {
	s := &Store{
		backend: cfg.Backend,
		logger:  cfg.Logger,
		name:    cfg.Name,
		timeout: cfg.Timeout,
		encrypt: cfg.Encrypt,
	}
	if s.logger == nil {
		s.logger = plugin.DiscardLogger()
	}
	if s.timeout == 0 {
		s.timeout = DefaultTimeout
	}
	if cfg.PromRegistry != nil {
		promautoFactory := promauto.With(cfg.PromRegistry)
		s.opsTotal = promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_blob_ops_total",
				Help: "total number of remote blob operations",
				ConstLabels: prometheus.Labels{
					"store": cfg.Name,
				},
			},
			[]string{"op"},
		)
		s.bytesTotal = promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_blob_bytes_total",
				Help: "total bytes read and written by remote blob operations",
				ConstLabels: prometheus.Labels{
					"store": cfg.Name,
				},
			},
			[]string{"op"},
		)
	}
	return s
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Store) observe(op string, size int) {
	if s.opsTotal == nil {
		return
	}
	s.opsTotal.WithLabelValues(op).Inc()
	if size > 0 {
		s.bytesTotal.WithLabelValues(op).Add(float64(size))
	}
}

// NewTransaction returns a transaction that buffers writes until commit
func (s *Store) NewTransaction(readWrite bool) types.Txn {
	return &Txn{
		store:     s,
		readWrite: readWrite,
		pending:   make(map[string][]byte),
		deleted:   make(map[string]struct{}),
	}
}

func (s *Store) validateTxn(txn types.Txn) (*Txn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*Txn)
	if !ok || t.store != s {
		return nil, types.ErrTxnWrongType
	}
	if t.finished {
		return nil, types.ErrTxnFinished
	}
	if s.backend == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	return t, nil
}

// Get returns the value for key as seen by the transaction
func (s *Store) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := s.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	k := string(key)
	if _, ok := t.deleted[k]; ok {
		return nil, types.ErrBlobKeyNotFound
	}
	if val, ok := t.pending[k]; ok {
		return append([]byte(nil), val...), nil
	}
	return s.fetch(k)
}

func (s *Store) fetch(key string) ([]byte, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	data, err := s.backend.GetObject(ctx, key)
	if err != nil {
		if !errors.Is(err, types.ErrBlobKeyNotFound) {
			s.logger.Error(
				fmt.Sprintf("%s get %q failed: %s", s.name, key, err),
				"component", "database",
			)
		}
		return nil, err
	}
	s.observe("get", len(data))
	if !s.encrypt {
		return data, nil
	}
	plaintext, err := etchedsops.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("%s: decrypt %q: %w", s.name, key, err)
	}
	return plaintext, nil
}

// Set buffers a write in the transaction
func (s *Store) Set(txn types.Txn, key, val []byte) error {
	t, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if err := t.assertWritable(); err != nil {
		return err
	}
	k := string(key)
	delete(t.deleted, k)
	t.pending[k] = append([]byte(nil), val...)
	return nil
}

// Delete buffers a delete in the transaction
func (s *Store) Delete(txn types.Txn, key []byte) error {
	t, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if err := t.assertWritable(); err != nil {
		return err
	}
	k := string(key)
	delete(t.pending, k)
	t.deleted[k] = struct{}{}
	return nil
}

// NewIterator lists keys under the prefix, merged with the transaction's
// buffered writes
func (s *Store) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	t, err := s.validateTxn(txn)
	if err != nil {
		return &errorIterator{err: err}
	}
	ctx, cancel := s.opContext()
	defer cancel()
	keys, err := s.backend.ListKeys(ctx, string(opts.Prefix))
	if err != nil {
		s.logger.Error(
			fmt.Sprintf("%s list failed: %s", s.name, err),
			"component", "database",
		)
		return &errorIterator{err: err}
	}
	s.observe("list", 0)
	return newIterator(t, mergeKeys(keys, t, opts.Prefix), opts.Reverse)
}

// GetCommitTimestamp returns the last commit timestamp, or 0 if none was recorded
func (s *Store) GetCommitTimestamp() (int64, error) {
	txn := s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	val, err := s.Get(txn, []byte(types.CommitTimestampBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return new(big.Int).SetBytes(val).Int64(), nil
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return s.Set(
		txn,
		[]byte(types.CommitTimestampBlobKey),
		new(big.Int).SetInt64(timestamp).Bytes(),
	)
}

func (s *Store) flush(t *Txn) error {
	ctx, cancel := s.opContext()
	defer cancel()
	for _, k := range sortedKeys(t.pending) {
		val := t.pending[k]
		if s.encrypt {
			ciphertext, err := etchedsops.Encrypt(val)
			if err != nil {
				return fmt.Errorf("%s: encrypt %q: %w", s.name, k, err)
			}
			val = ciphertext
		}
		if err := s.backend.PutObject(ctx, k, val); err != nil {
			s.logger.Error(
				fmt.Sprintf("%s put %q failed: %s", s.name, k, err),
				"component", "database",
			)
			return err
		}
		s.observe("put", len(val))
	}
	for _, k := range sortedKeys(t.deleted) {
		err := s.backend.DeleteObject(ctx, k)
		if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
			s.logger.Error(
				fmt.Sprintf("%s delete %q failed: %s", s.name, k, err),
				"component", "database",
			)
			return err
		}
		s.observe("delete", 0)
	}
	return nil
}
