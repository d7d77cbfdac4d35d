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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/blinklabs-io/etched/database/sops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = defaultConfig()
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	timeout, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
	ttl, err := cfg.TokenTtlDuration()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestLoadCompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	path := writeConfigFile(t, `
databasePath: "/var/lib/etched"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
adminAddress: "0xad00000000000000000000000000000000000001"
jwtSecret: "inline-secret"
jwtIssuer: "issuer"
tokenTtl: "1h"
publicBaseUrl: "https://certs.example.org"
maxConnections: 100
shutdownTimeout: "10s"
tracing: true
eventLogEnabled: false
webhooks:
  - url: "https://hooks.example.org/etched"
    secret: "hook-secret"
    events: ["certificate.minted"]
    maxRetries: 5
`)
	expected := &Config{
		DatabasePath:    "/var/lib/etched",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "127.0.0.1",
		ApiPort:         9000,
		MetricsPort:     9001,
		AdminAddress:    "0xad00000000000000000000000000000000000001",
		JwtSecret:       "inline-secret",
		JwtIssuer:       "issuer",
		TokenTtl:        "1h",
		PublicBaseUrl:   "https://certs.example.org",
		MaxConnections:  100,
		ShutdownTimeout: "10s",
		Tracing:         true,
		EventLogEnabled: false,
		Webhooks: []WebhookConfig{
			{
				Url:        "https://hooks.example.org/etched",
				Secret:     "hook-secret",
				Events:     []string{"certificate.minted"},
				MaxRetries: 5,
			},
		},
	}
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, expected, cfg)
}

func TestLoadConfigSectionAndPlugins(t *testing.T) {
	resetGlobalConfig()
	path := writeConfigFile(t, `
config:
  apiPort: 7000
database:
  blob:
    plugin: gcs
  metadata:
    plugin: postgres
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, "gcs", cfg.BlobPlugin)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, ".etched", cfg.DatabasePath)
	assert.Equal(t, uint(12799), cfg.MetricsPort)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, "etched", cfg.JwtIssuer)
	assert.True(t, cfg.EventLogEnabled)
}

func TestLoadConfigSectionKeepsDefaults(t *testing.T) {
	resetGlobalConfig()
	path := writeConfigFile(t, `
config:
  adminAddress: "0xad00000000000000000000000000000000000003"
  eventLogEnabled: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := defaultConfig()
	expected.AdminAddress = "0xad00000000000000000000000000000000000003"
	expected.EventLogEnabled = false
	assert.Equal(t, expected, cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	resetGlobalConfig()
	path := writeConfigFile(t, "apiPort: 9000\n")
	t.Setenv("ETCHED_API_PORT", "9100")
	t.Setenv("ETCHED_ADMIN_ADDRESS", "0xad00000000000000000000000000000000000002")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, "0xad00000000000000000000000000000000000002", cfg.AdminAddress)
}

func TestLoadInvalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{"bad timeout", "shutdownTimeout: soon\n"},
		{"negative ttl", "tokenTtl: -1h\n"},
		{"both secrets", "jwtSecret: a\njwtSecretFile: /tmp/b\n"},
		{"webhook without url", "webhooks:\n  - secret: x\n"},
		{"bad yaml", "apiPort: [\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			resetGlobalConfig()
			_, err := LoadConfig(writeConfigFile(t, testDef.content))
			assert.Error(t, err)
		})
	}
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSecretFile(t *testing.T) {
	dir := t.TempDir()
	plainPath := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plainPath, []byte("file-secret\n"), 0o600))

	cfg := &Config{JwtSecretFile: plainPath}
	secret, err := cfg.LoadJwtSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("file-secret"), secret)

	cfg = &Config{JwtSecret: "inline"}
	secret, err = cfg.LoadJwtSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("inline"), secret)

	webhook := WebhookConfig{SecretFile: filepath.Join(dir, "missing")}
	_, err = webhook.LoadSecret()
	assert.Error(t, err)
}

func TestLoadEncryptedSecretFile(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	t.Setenv(sops.EnvGcpKmsResourceId, "")
	t.Setenv(sops.EnvAwsKmsKeyArns, "")
	t.Setenv(sops.EnvAgeRecipients, identity.Recipient().String())
	t.Setenv("SOPS_AGE_KEY", identity.String())

	ciphertext, err := sops.Encrypt([]byte("hook-secret"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "secret.enc")
	require.NoError(t, os.WriteFile(path, ciphertext, 0o600))

	secret, err := WebhookConfig{SecretFile: path}.LoadSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("hook-secret"), secret)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
