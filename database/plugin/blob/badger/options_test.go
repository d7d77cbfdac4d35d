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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWithOptionsDefaults(t *testing.T) {
	d := NewWithOptions()
	assert.True(t, d.gcEnabled)
	assert.Equal(t, DefaultGcInterval, d.gcInterval)
	assert.Equal(t, DefaultBlockCacheSize, d.blockCacheSize)
	assert.Equal(t, DefaultIndexCacheSize, d.indexCacheSize)
	assert.Nil(t, d.db)
}

func TestNewWithOptionsOverrides(t *testing.T) {
	d := NewWithOptions(
		WithDataDir("/tmp/x"),
		WithBlockCacheSize(1),
		WithIndexCacheSize(2),
		WithValueLogFileSize(3),
		WithGc(false),
		WithGcInterval(time.Second),
	)
	assert.Equal(t, "/tmp/x", d.dataDir)
	assert.Equal(t, uint64(1), d.blockCacheSize)
	assert.Equal(t, uint64(2), d.indexCacheSize)
	assert.Equal(t, int64(3), d.valueLogFileSize)
	assert.False(t, d.gcEnabled)
	assert.Equal(t, time.Second, d.gcInterval)
}

func TestNewFromCmdlineOptions(t *testing.T) {
	p := NewFromCmdlineOptions()
	d, ok := p.(*BlobStoreBadger)
	assert.True(t, ok)
	assert.Equal(t, ".etched", d.dataDir)
}
