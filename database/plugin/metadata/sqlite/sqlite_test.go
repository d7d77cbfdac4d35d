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

package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(
		m,
		// sqlite keeps a connection opener goroutine per pool
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a, err := New("", nil, nil)
	require.NoError(t, err)
	defer a.Close() //nolint:errcheck
	b, err := New("", nil, nil)
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck

	require.NoError(t, a.AddValidator(&models.Validator{
		Address:       "0x1111111111111111111111111111111111111111",
		InstitutionId: "INST-001",
		Active:        true,
	}, nil))
	count, err := b.CountValidators(false, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = a.CountValidators(false, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestOnDiskPersists(t *testing.T) {
	dir := t.TempDir()
	d, err := New(dir, nil, nil)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, metadataDbFile))

	txn := d.Transaction()
	require.NoError(t, d.SetCommitTimestamp(42, txn))
	require.NoError(t, txn.Commit())
	require.NoError(t, d.Close())

	d, err = New(dir, nil, nil)
	require.NoError(t, err)
	defer d.Close() //nolint:errcheck
	ts, err := d.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}

func TestStartTwice(t *testing.T) {
	d, err := New("", nil, nil)
	require.NoError(t, err)
	defer d.Close() //nolint:errcheck
	assert.Error(t, d.Start())
}

func TestCloseIdempotent(t *testing.T) {
	d, err := New("", nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestPluginRegistered(t *testing.T) {
	p := plugin.GetPlugin(plugin.PluginTypeMetadata, "sqlite")
	require.NotNil(t, p)
	d, ok := p.(*MetadataStoreSqlite)
	require.True(t, ok)
	assert.Equal(t, ".etched", d.dataDir)
}

func TestOptions(t *testing.T) {
	d := NewWithOptions(WithDataDir("/tmp/test"), WithMaxConnections(4))
	assert.Equal(t, "/tmp/test", d.dataDir)
	assert.Equal(t, 4, d.maxConnections)
}
