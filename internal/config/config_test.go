package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "finmgr.toml")
	t.Setenv("FINMGR_CONFIG", path)
	require.NoError(t, os.WriteFile(path, []byte("[ui]\nlanguage = \"de\"\npage_size = 25\n"), 0o600))
	t.Setenv("FINMGR_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "de", cfg.UI.Language)
	require.Equal(t, 25, cfg.UI.PageSize)
	require.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	require.Equal(t, "EUR", cfg.UI.Currency)
	require.Equal(t, filepath.Join(dir, ".local", "share", "finmgr", "finmgr.db"), cfg.Database.Path)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("FINMGR_CONFIG", filepath.Join(dir, "cfg", "config.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	cfg.API.BaseURL = "http://finance.local:8080"
	cfg.UI.Timezone = "Europe/Berlin"
	cfg.UI.Language = "de"
	require.NoError(t, Save(cfg))

	again, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://finance.local:8080", again.API.BaseURL)
	require.Equal(t, "Europe/Berlin", again.UI.Location().String())
	require.Equal(t, "de", again.UI.Language)
}

func TestPasswordFromEnv(t *testing.T) {
	t.Setenv("FINMGR_TEST_PW", "s3cret")
	require.Equal(t, "s3cret", APIConfig{PasswordEnv: "FINMGR_TEST_PW"}.Password())
	require.Empty(t, APIConfig{}.Password())
}
