package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		erp: {base_url: "http://erp.local", username: "file-user", timeout_seconds: 30},
		history: {driver: "sqlite", uri: ":memory:"},
		http: {port: 9000, allowed_origins: ["http://app.local"], history_limit: 50},
	}`), 0600))
	t.Setenv("ERP_USERNAME", "env-user")
	t.Setenv("DELETE_TOKEN_SECRET", "token")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "env-user", config.ERP.Username)
	require.Equal(t, 30, config.ERP.TimeoutSeconds)
	require.Equal(t, "token", config.Security.DeleteTokenSecret)
	require.Equal(t, 9000, config.HTTP.Port)
	require.Equal(t, []string{"http://app.local"}, config.HTTP.AllowedOrigins)
	require.Equal(t, 50, config.HTTP.HistoryLimit)
	require.Equal(t, "challan_input", config.History.Database)
	require.Equal(t, "@every 5m", config.Security.SweepSpec)
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("ERP_BASE_URL", "http://erp.local")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "http://erp.local", config.ERP.BaseURL)
	require.Equal(t, 90, config.ERP.TimeoutSeconds)
}

func TestLoadConfigRequiresERP(t *testing.T) {
	t.Setenv("ERP_BASE_URL", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorContains(t, err, "erp.base_url")
}
