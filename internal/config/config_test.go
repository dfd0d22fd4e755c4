package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, ":8009", cfg.HTTPAddr)
	require.Equal(t, 5000, cfg.ImportMaxRows)
	require.Equal(t, 12*time.Hour, cfg.TokenTTL)
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("HTTP_ADDR=:9100\nCHAIN_CACHE_TTL=30s\n"), 0o600))
	t.Setenv("IMPORT_MAX_ROWS", "10")
	t.Cleanup(func() {
		_ = os.Unsetenv("HTTP_ADDR")
		_ = os.Unsetenv("CHAIN_CACHE_TTL")
	})

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.HTTPAddr)
	require.Equal(t, 30*time.Second, cfg.ChainCacheTTL)
	require.Equal(t, 10, cfg.ImportMaxRows)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load(filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
}

func TestParseRuleSeeds(t *testing.T) {
	doc := []byte(`
rules:
  - device_type: 交流UPS主机
    lifecycle_years: 10
    description: UPS host
  - device_type: 普通空调
    lifecycle_years: 8
    warning_months: 3
    active: false
`)
	seeds, err := ParseRuleSeeds(doc)
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	require.Nil(t, seeds[0].WarningMonths)
	require.Equal(t, 3, *seeds[1].WarningMonths)
	require.False(t, *seeds[1].Active)

	_, err = ParseRuleSeeds([]byte("rules:\n  - device_type: x\n    lifecycle_years: 0\n"))
	require.Error(t, err)

	none, err := LoadRuleSeeds("")
	require.NoError(t, err)
	require.Nil(t, none)
}
