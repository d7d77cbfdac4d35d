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

package plugin_test

import (
	"testing"

	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct {
	started bool
}

func (m *mockPlugin) Start() error {
	m.started = true
	return nil
}

func (m *mockPlugin) Stop() error { return nil }

func TestRegisterAndGetPlugins(t *testing.T) {
	blobName := "blob-test-" + t.Name()
	metaName := "meta-test-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               blobName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               metaName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})

	hasName := func(entries []plugin.PluginEntry, name string) bool {
		for _, e := range entries {
			if e.Name == name {
				return true
			}
		}
		return false
	}
	assert.True(t, hasName(plugin.GetPlugins(plugin.PluginTypeBlob), blobName))
	assert.False(t, hasName(plugin.GetPlugins(plugin.PluginTypeBlob), metaName))
	assert.True(t, hasName(plugin.GetPlugins(plugin.PluginTypeMetadata), metaName))

	p := plugin.GetPlugin(plugin.PluginTypeBlob, blobName)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name()))
}

func TestPluginTypeName(t *testing.T) {
	assert.Equal(t, "blob", plugin.PluginTypeName(plugin.PluginTypeBlob))
	assert.Equal(t, "metadata", plugin.PluginTypeName(plugin.PluginTypeMetadata))
	assert.Equal(t, "unknown", plugin.PluginTypeName(plugin.PluginType(99)))
}

type optionDests struct {
	str  string
	flag bool
	num  int
	unum uint64
}

func registerOptionPlugin(t *testing.T, name string) *optionDests {
	t.Helper()
	d := &optionDests{}
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				Description:  "data dir",
				DefaultValue: ".etched",
				Dest:         &d.str,
			},
			{
				Name:         "verbose",
				Type:         plugin.PluginOptionTypeBool,
				Description:  "verbose",
				DefaultValue: false,
				Dest:         &d.flag,
			},
			{
				Name:         "max-connections",
				Type:         plugin.PluginOptionTypeInt,
				Description:  "max connections",
				DefaultValue: 5,
				Dest:         &d.num,
			},
			{
				Name:         "port",
				Type:         plugin.PluginOptionTypeUint,
				Description:  "port",
				DefaultValue: uint64(5432),
				Dest:         &d.unum,
			},
		},
	})
	return d
}

func TestPopulateCmdlineOptions(t *testing.T) {
	d := registerOptionPlugin(t, "flagtest")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	assert.Equal(t, ".etched", d.str)
	assert.Equal(t, 5, d.num)
	assert.Equal(t, uint64(5432), d.unum)

	require.NoError(t, fs.Parse([]string{
		"--metadata-flagtest-data-dir=/var/lib/etched",
		"--metadata-flagtest-verbose",
		"--metadata-flagtest-max-connections=9",
		"--metadata-flagtest-port=6543",
	}))
	assert.Equal(t, "/var/lib/etched", d.str)
	assert.True(t, d.flag)
	assert.Equal(t, 9, d.num)
	assert.Equal(t, uint64(6543), d.unum)
}

func TestProcessEnvVars(t *testing.T) {
	d := registerOptionPlugin(t, "envtest")
	t.Setenv("ETCHED_METADATA_ENVTEST_DATA_DIR", "/srv/etched")
	t.Setenv("ETCHED_METADATA_ENVTEST_VERBOSE", "true")
	t.Setenv("ETCHED_METADATA_ENVTEST_PORT", "3306")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/srv/etched", d.str)
	assert.True(t, d.flag)
	assert.Equal(t, uint64(3306), d.unum)

	t.Setenv("ETCHED_METADATA_ENVTEST_MAX_CONNECTIONS", "lots")
	assert.Error(t, plugin.ProcessEnvVars())
}

func TestProcessConfig(t *testing.T) {
	d := registerOptionPlugin(t, "cfgtest")
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			"cfgtest": {
				"data-dir":        "/data",
				"max-connections": 12,
				"port":            7000,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/data", d.str)
	assert.Equal(t, 12, d.num)
	assert.Equal(t, uint64(7000), d.unum)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {"cfgtest": {"verbose": "yes"}},
	})
	assert.Error(t, err)
}
