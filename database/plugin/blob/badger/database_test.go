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

package badger

import (
	"testing"

	"github.com/blinklabs-io/etched/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...BlobStoreBadgerOptionFunc) *BlobStoreBadger {
	t.Helper()
	d, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestInMemoryGetSetDelete(t *testing.T) {
	d := newTestStore(t)

	txn := d.NewTransaction(true)
	require.NoError(t, d.Set(txn, []byte("k1"), []byte("v1")))
	require.NoError(t, txn.Commit())

	txn = d.NewTransaction(false)
	val, err := d.Get(txn, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
	_, err = d.Get(txn, []byte("missing"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())

	txn = d.NewTransaction(true)
	require.NoError(t, d.Delete(txn, []byte("k1")))
	require.NoError(t, txn.Commit())

	txn = d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = d.Get(txn, []byte("k1"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	d := newTestStore(t)

	txn := d.NewTransaction(true)
	require.NoError(t, d.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	txn = d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := d.Get(txn, []byte("k"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestFinishedTxnRejected(t *testing.T) {
	d := newTestStore(t)

	txn := d.NewTransaction(true)
	require.NoError(t, txn.Commit())
	assert.ErrorIs(t, d.Set(txn, []byte("k"), []byte("v")), types.ErrTxnFinished)
	assert.ErrorIs(t, d.Set(nil, []byte("k"), []byte("v")), types.ErrNilTxn)
}

func TestIteratorPrefix(t *testing.T) {
	d := newTestStore(t)

	txn := d.NewTransaction(true)
	for _, k := range []string{"a1", "b1", "a2", "a3"} {
		require.NoError(t, d.Set(txn, []byte(k), []byte(k)))
	}
	require.NoError(t, txn.Commit())

	txn = d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	it := d.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("a")})
	defer it.Close()
	var keys []string
	for it.Rewind(); it.ValidForPrefix([]byte("a")); it.Next() {
		keys = append(keys, string(it.Item().Key()))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a1", "a2", "a3"}, keys)
}

func TestIteratorBadTxn(t *testing.T) {
	d := newTestStore(t)
	it := d.NewIterator(nil, types.BlobIteratorOptions{})
	assert.False(t, it.Valid())
	assert.ErrorIs(t, it.Err(), types.ErrNilTxn)
}

func TestCommitTimestamp(t *testing.T) {
	d := newTestStore(t)

	ts, err := d.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	txn := d.NewTransaction(true)
	require.NoError(t, d.SetCommitTimestamp(1760000000123, txn))
	require.NoError(t, txn.Commit())

	ts, err = d.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1760000000123), ts)
}

func TestOnDiskPersists(t *testing.T) {
	dir := t.TempDir()
	d, err := New(WithDataDir(dir), WithGc(false))
	require.NoError(t, err)
	txn := d.NewTransaction(true)
	require.NoError(t, d.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	require.NoError(t, d.Close())

	d, err = New(WithDataDir(dir), WithGc(false))
	require.NoError(t, err)
	defer d.Close() //nolint:errcheck
	txn = d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := d.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	newTestStore(t, WithPromRegistry(reg))
	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["database_blob_badger_lsm_size_bytes"])
	assert.True(t, names["database_blob_badger_vlog_size_bytes"])
}

func TestStartTwice(t *testing.T) {
	d := newTestStore(t)
	assert.Error(t, d.Start())
}
