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
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/sops"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "etched.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultTokenTtl        = "24h"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   *yaml.Node                `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// WebhookConfig describes a remote subscriber notified of ledger events
type WebhookConfig struct {
	Url        string   `yaml:"url"`
	Secret     string   `yaml:"secret"`
	SecretFile string   `yaml:"secretFile"`
	Events     []string `yaml:"events"`
	MaxRetries int      `yaml:"maxRetries"`
}

// LoadSecret returns the webhook signing secret
func (w WebhookConfig) LoadSecret() ([]byte, error) {
	return loadSecret(w.Secret, w.SecretFile)
}

type Config struct {
	DatabasePath    string          `yaml:"databasePath"    split_words:"true"`
	BlobPlugin      string          `yaml:"blobPlugin"      split_words:"true"`
	MetadataPlugin  string          `yaml:"metadataPlugin"  split_words:"true"`
	BindAddr        string          `yaml:"bindAddr"        split_words:"true"`
	AdminAddress    string          `yaml:"adminAddress"    split_words:"true"`
	JwtSecret       string          `yaml:"jwtSecret"       split_words:"true"`
	JwtSecretFile   string          `yaml:"jwtSecretFile"   split_words:"true"`
	JwtIssuer       string          `yaml:"jwtIssuer"       split_words:"true"`
	TokenTtl        string          `yaml:"tokenTtl"        split_words:"true"`
	PublicBaseUrl   string          `yaml:"publicBaseUrl"   split_words:"true"`
	ShutdownTimeout string          `yaml:"shutdownTimeout" split_words:"true"`
	TlsCertFilePath string          `yaml:"tlsCertFilePath" envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath  string          `yaml:"tlsKeyFilePath"  envconfig:"TLS_KEY_FILE_PATH"`
	Webhooks        []WebhookConfig `yaml:"webhooks"        ignored:"true"`
	ApiPort         uint            `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint            `yaml:"metricsPort"     split_words:"true"`
	MaxConnections  int             `yaml:"maxConnections"  split_words:"true"`
	Tracing         bool            `yaml:"tracing"`
	TracingStdout   bool            `yaml:"tracingStdout"   split_words:"true"`
	EventLogEnabled bool            `yaml:"eventLogEnabled" split_words:"true"`
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout, DefaultShutdownTimeout)
}

// TokenTtlDuration returns the parsed lifetime of issued bearer tokens
func (c *Config) TokenTtlDuration() (time.Duration, error) {
	return parseDuration("tokenTtl", c.TokenTtl, DefaultTokenTtl)
}

// LoadJwtSecret returns the bearer token signing secret
func (c *Config) LoadJwtSecret() ([]byte, error) {
	return loadSecret(c.JwtSecret, c.JwtSecretFile)
}

func parseDuration(name string, val string, def string) (time.Duration, error) {
	if val == "" {
		val = def
	}
	ret, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, val, err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, val)
	}
	return ret, nil
}

// loadSecret returns an inline secret, or the contents of a secret file.
// SOPS encrypted files are decrypted.
func loadSecret(inline string, file string) ([]byte, error) {
	if inline != "" && file != "" {
		return nil, errors.New("secret and secret file are mutually exclusive")
	}
	if file == "" {
		return []byte(inline), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	if sops.IsEncrypted(data) {
		data, err = sops.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret file %s: %w", file, err)
		}
	}
	return bytes.TrimSpace(data), nil
}

func defaultConfig() *Config {
	return &Config{
		BindAddr:        "0.0.0.0",
		DatabasePath:    ".etched",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		ApiPort:         8080,
		MetricsPort:     12799,
		JwtIssuer:       "etched",
		TokenTtl:        DefaultTokenTtl,
		ShutdownTimeout: DefaultShutdownTimeout,
		EventLogEnabled: true,
	}
}

var globalConfig = defaultConfig()

// pluginSection converts a database plugin section into plugin options,
// extracting the selected plugin name
func pluginSection(section map[string]any, pluginName *string, kind string) map[string]map[string]any {
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			*pluginName = name
			delete(section, "plugin")
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", kind, k, v)
		}
	}
	return ret
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.etched/etched.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".etched", "etched.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/etched/etched.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config != nil {
			// Only keys present in the section replace the defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				blobConfig := pluginSection(tempCfg.Database.Blob, &globalConfig.BlobPlugin, "blob")
				if pluginConfig["blob"] == nil {
					pluginConfig["blob"] = blobConfig
				} else {
					maps.Copy(pluginConfig["blob"], blobConfig)
				}
			}
			if tempCfg.Database.Metadata != nil {
				metadataConfig := pluginSection(tempCfg.Database.Metadata, &globalConfig.MetadataPlugin, "metadata")
				if pluginConfig["metadata"] == nil {
					pluginConfig["metadata"] = metadataConfig
				} else {
					maps.Copy(pluginConfig["metadata"], metadataConfig)
				}
			}
		}
		if len(pluginConfig) > 0 {
			if err := plugin.ProcessConfig(pluginConfig); err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	if err := envconfig.Process("etched", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.TokenTtlDuration(); err != nil {
		return err
	}
	if c.JwtSecret != "" && c.JwtSecretFile != "" {
		return errors.New("jwtSecret and jwtSecretFile are mutually exclusive")
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid maxConnections %d", c.MaxConnections)
	}
	for i, webhook := range c.Webhooks {
		if webhook.Url == "" {
			return fmt.Errorf("webhook %d: url is required", i)
		}
		if webhook.Secret != "" && webhook.SecretFile != "" {
			return fmt.Errorf("webhook %d: secret and secretFile are mutually exclusive", i)
		}
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
