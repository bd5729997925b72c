package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every PWVAULT_ env var that Load() reads.
var allConfigKeys = []string{
	"PWVAULT_CONFIG",
	"PWVAULT_DB_PATH",
	"PWVAULT_KEY_FILE",
	"PWVAULT_KEY_BACKEND",
	"PWVAULT_PASSWORD_LENGTH",
	"PWVAULT_LISTEN_ADDR",
	"PWVAULT_LOG_LEVEL",
}

// isolateConfigEnv saves and unsets all PWVAULT_ env vars so tests don't
// inherit values from the host environment, and points the user config dir
// at an empty temp dir so a real config.toml is never read.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	dir := DefaultDir()
	assert.Equal(t, filepath.Join(dir, "passwords.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "key.env"), cfg.KeyFile)
	assert.Equal(t, KeyBackendFile, cfg.KeyBackend)
	assert.Equal(t, 12, cfg.PasswordLength)
	assert.Equal(t, "127.0.0.1:8765", cfg.ListenAddr)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_Env(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_DB_PATH", "/tmp/test.db")
	t.Setenv("PWVAULT_KEY_FILE", "/tmp/key.env")
	t.Setenv("PWVAULT_KEY_BACKEND", "KEYRING")
	t.Setenv("PWVAULT_PASSWORD_LENGTH", "24")
	t.Setenv("PWVAULT_LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("PWVAULT_LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "/tmp/key.env", cfg.KeyFile)
	assert.Equal(t, KeyBackendKeyring, cfg.KeyBackend)
	assert.Equal(t, 24, cfg.PasswordLength)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_CONFIG", writeConfig(t, `
db_path = "/data/vault.db"
password_length = 16
log_level = "info"
`))
	t.Setenv("PWVAULT_PASSWORD_LENGTH", "20")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/data/vault.db", cfg.DBPath)
	assert.Equal(t, 20, cfg.PasswordLength, "env overrides file")
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_ExplicitConfigMissing(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownConfigKey(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_CONFIG", writeConfig(t, `db_pth = "/typo.db"`))

	_, err := Load()
	assert.ErrorContains(t, err, "db_pth")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"backend", "PWVAULT_KEY_BACKEND", "vault"},
		{"length not a number", "PWVAULT_PASSWORD_LENGTH", "long"},
		{"length too short", "PWVAULT_PASSWORD_LENGTH", "4"},
		{"log level", "PWVAULT_LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
