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

package objectstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/blinklabs-io/etched/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	objects map[string][]byte
	failPut string
	mu      sync.Mutex
}

func newMemBackend() *memBackend {
	return &memBackend{objects: make(map[string][]byte)}
}

func (m *memBackend) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.objects[key]
	if !ok {
		return nil, types.ErrBlobKeyNotFound
	}
	return append([]byte(nil), val...), nil
}

func (m *memBackend) PutObject(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failPut {
		return errors.New("put failed")
	}
	m.objects[key] = append([]byte(nil), value...)
	return nil
}

func (m *memBackend) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBackend) ListKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ret []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			ret = append(ret, k)
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func TestWritesBufferedUntilCommit(t *testing.T) {
	backend := newMemBackend()
	s := NewStore(Config{Backend: backend, Name: "mem"})

	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("k"), []byte("v")))
	// Visible inside the transaction
	val, err := s.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	// Not yet in the bucket
	assert.Empty(t, backend.objects)
	require.NoError(t, txn.Commit())
	assert.Equal(t, []byte("v"), backend.objects["k"])
}

func TestRollbackNeverReachesBackend(t *testing.T) {
	backend := newMemBackend()
	s := NewStore(Config{Backend: backend})

	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())
	assert.Empty(t, backend.objects)
	assert.ErrorIs(t, s.Set(txn, []byte("k"), []byte("v")), types.ErrTxnFinished)
}

func TestReadOnlyTxn(t *testing.T) {
	s := NewStore(Config{Backend: newMemBackend()})
	txn := s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	assert.ErrorIs(t, s.Set(txn, []byte("k"), []byte("v")), ErrReadOnlyTxn)
	assert.ErrorIs(t, s.Delete(txn, []byte("k")), ErrReadOnlyTxn)
}

func TestDeleteAndIterate(t *testing.T) {
	backend := newMemBackend()
	backend.objects["p1"] = []byte("1")
	backend.objects["p2"] = []byte("2")
	backend.objects["q1"] = []byte("x")
	s := NewStore(Config{Backend: backend})

	txn := s.NewTransaction(true)
	require.NoError(t, s.Delete(txn, []byte("p1")))
	require.NoError(t, s.Set(txn, []byte("p3"), []byte("3")))
	_, err := s.Get(txn, []byte("p1"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	it := s.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("p")})
	var keys, vals []string
	for it.Rewind(); it.ValidForPrefix([]byte("p")); it.Next() {
		keys = append(keys, string(it.Item().Key()))
		v, err := it.Item().ValueCopy(nil)
		require.NoError(t, err)
		vals = append(vals, string(v))
	}
	it.Close()
	assert.Equal(t, []string{"p2", "p3"}, keys)
	assert.Equal(t, []string{"2", "3"}, vals)

	rev := s.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("p"), Reverse: true})
	rev.Rewind()
	require.True(t, rev.Valid())
	assert.Equal(t, []byte("p3"), rev.Item().Key())
	rev.Close()

	require.NoError(t, txn.Commit())
	_, ok := backend.objects["p1"]
	assert.False(t, ok)
	assert.Equal(t, []byte("3"), backend.objects["p3"])
}

func TestSeek(t *testing.T) {
	backend := newMemBackend()
	for _, k := range []string{"a", "c", "e"} {
		backend.objects[k] = []byte(k)
	}
	s := NewStore(Config{Backend: backend})
	txn := s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	it := s.NewIterator(txn, types.BlobIteratorOptions{})
	it.Seek([]byte("b"))
	require.True(t, it.Valid())
	assert.Equal(t, []byte("c"), it.Item().Key())
	it.Seek([]byte("z"))
	assert.False(t, it.Valid())
}

func TestCommitFailure(t *testing.T) {
	backend := newMemBackend()
	backend.failPut = "bad"
	s := NewStore(Config{Backend: backend})
	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("bad"), []byte("v")))
	assert.Error(t, txn.Commit())
}

func TestCommitTimestamp(t *testing.T) {
	s := NewStore(Config{Backend: newMemBackend()})
	ts, err := s.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)

	txn := s.NewTransaction(true)
	require.NoError(t, s.SetCommitTimestamp(12345, txn))
	require.NoError(t, txn.Commit())
	ts, err = s.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), ts)
}

func TestNilBackend(t *testing.T) {
	s := NewStore(Config{})
	txn := s.NewTransaction(false)
	_, err := s.Get(txn, []byte("k"))
	assert.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
	assert.ErrorIs(t, s.NewIterator(txn, types.BlobIteratorOptions{}).Err(), types.ErrBlobStoreUnavailable)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewStore(Config{Backend: newMemBackend(), PromRegistry: reg, Name: "mem"})
	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("k"), []byte("value")))
	require.NoError(t, txn.Commit())
	assert.InDelta(t, 1, testutil.ToFloat64(s.opsTotal.WithLabelValues("put")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(s.bytesTotal.WithLabelValues("put")), 0)
}
