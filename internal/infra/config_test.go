package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const minimalConfig = `
moralis:
  api_key: test-key
token:
  address: "0xToKeN"
  max_supply_tokens: "1000000"
`

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "bsc", cfg.Moralis.Chain)
	assert.Equal(t, 200, cfg.Moralis.MaxPages)
	assert.Equal(t, DefaultDeadAddress, cfg.Token.DeadAddress)
	assert.Equal(t, 18, cfg.Token.DecimalsFallback)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
	assert.Equal(t, 300, cfg.Cache.SeriesTTLSeconds)
	assert.False(t, cfg.Cache.AllowHistoricalFetch)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "1000000", cfg.MaxSupply().String())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BURNWATCH_MORALIS_API_KEY", "env-key")
	t.Setenv("BURNWATCH_DEAD_ADDRESS", "0xEnvDead")
	t.Setenv("BURNWATCH_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("BURNWATCH_ALLOW_HISTORICAL_FETCH", "true")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Moralis.APIKey)
	assert.Equal(t, "0xEnvDead", cfg.Token.DeadAddress)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Cache.AllowHistoricalFetch)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"missing api key", `
token:
  address: "0xToKeN"
  max_supply_tokens: "1000000"
`},
		{"missing token address", `
moralis:
  api_key: k
token:
  max_supply_tokens: "1000000"
`},
		{"non-numeric max supply", `
moralis:
  api_key: k
token:
  address: "0xToKeN"
  max_supply_tokens: "a lot"
`},
		{"zero max supply", `
moralis:
  api_key: k
token:
  address: "0xToKeN"
  max_supply_tokens: "0"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.config))
			assert.Error(t, err)
		})
	}
}
