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

package aws

import (
	"testing"
	"time"

	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataDir(t *testing.T) {
	tests := []struct {
		dataDir string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{dataDir: "s3://certs", bucket: "certs"},
		{dataDir: "s3://certs/ledger", bucket: "certs", prefix: "ledger/"},
		{dataDir: "s3://certs/ledger/", bucket: "certs", prefix: "ledger/"},
		{dataDir: "s3://", wantErr: true},
		{dataDir: "gcs://certs", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.dataDir, func(t *testing.T) {
			bucket, prefix, err := ParseDataDir(tt.dataDir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestOptions(t *testing.T) {
	d := NewWithOptions(
		WithBucket("b"),
		WithPrefix("/p/"),
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:9000"),
		WithTimeout(time.Second),
		WithEncrypt(true),
	)
	assert.Equal(t, "b", d.bucket)
	assert.Equal(t, "p/", d.prefix)
	assert.Equal(t, "p/notification_seq", d.fullKey("notification_seq"))
	assert.Equal(t, "eu-west-1", d.region)
	assert.Equal(t, "http://localhost:9000", d.endpoint)
	assert.Equal(t, time.Second, d.timeout)
	assert.True(t, d.encrypt)
}

func TestStartWithoutBucket(t *testing.T) {
	d := NewWithOptions()
	assert.ErrorContains(t, d.Start(), "bucket not set")
}

func TestSignedURLBeforeStart(t *testing.T) {
	d := NewWithOptions(WithBucket("b"))
	_, err := d.SignedURL([]byte("doc_x"), time.Minute)
	assert.Error(t, err)
}

func TestPluginRegistered(t *testing.T) {
	p := plugin.GetPlugin(plugin.PluginTypeBlob, "s3")
	require.NotNil(t, p)
	_, ok := p.(*BlobStoreS3)
	assert.True(t, ok)
}
