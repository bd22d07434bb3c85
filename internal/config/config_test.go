package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "FOLIO_PREFIX", "CATALOG_BACKEND", "FOLIO_SOURCE", "PROMETHEUS_ENABLED", "REDIS_DB"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "CF", cfg.FolioPrefix)
	assert.Equal(t, "Cafecito Feliz", cfg.StoreName)
	assert.False(t, cfg.PrometheusEnabled)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_DotEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set, even to "".
	for _, k := range []string{"STORE_NAME", "FOLIO_PREFIX"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_NAME=Corner Shop\nFOLIO_PREFIX=cs\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", cfg.StoreName)
	assert.Equal(t, "CS", cfg.FolioPrefix)
}

func TestValidate(t *testing.T) {
	base := Config{FolioPrefix: "CF", FolioSource: FolioRandom, StoreBackend: BackendMemory, CatalogBackend: BackendStore}
	require.NoError(t, base.Validate())

	bad := base
	bad.FolioPrefix = "TOOLONG"
	assert.Error(t, bad.Validate())

	bad = base
	bad.StoreBackend = BackendPostgres
	assert.ErrorContains(t, bad.Validate(), "DATABASE_URL")

	bad = base
	bad.CatalogBackend = "mongo"
	assert.Error(t, bad.Validate())

	redis := base
	redis.FolioSource = FolioRedis
	assert.True(t, redis.UsesRedis())
}
