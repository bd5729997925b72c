// Package config loads application configuration from an optional TOML file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Key backends understood by KeyBackend.
const (
	KeyBackendFile    = "file"
	KeyBackendKeyring = "keyring"
)

// minPasswordLength mirrors the generator's floor.
const minPasswordLength = 5

// Config holds the application configuration.
type Config struct {
	DBPath         string
	KeyFile        string
	KeyBackend     string
	PasswordLength int
	ListenAddr     string
	LogLevel       slog.Level
}

// fileConfig is the on-disk TOML shape. Zero values mean "not set".
type fileConfig struct {
	DBPath         string `toml:"db_path"`
	KeyFile        string `toml:"key_file"`
	KeyBackend     string `toml:"key_backend"`
	PasswordLength int    `toml:"password_length"`
	ListenAddr     string `toml:"listen_addr"`
	LogLevel       string `toml:"log_level"`
}

// DefaultDir returns the directory holding the vault, key file and config
// file: <user config dir>/pwvault, or the working directory if the user
// config dir cannot be determined.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "pwvault")
}

// Load builds a Config from defaults, then the TOML file, then environment
// variables, each layer overriding the previous one.
//
// The TOML file is PWVAULT_CONFIG if set (it must exist), otherwise
// <DefaultDir>/config.toml if present. Environment variables:
// PWVAULT_DB_PATH, PWVAULT_KEY_FILE, PWVAULT_KEY_BACKEND (file|keyring),
// PWVAULT_PASSWORD_LENGTH, PWVAULT_LISTEN_ADDR (127.0.0.1:8765),
// PWVAULT_LOG_LEVEL (debug|info|warn|error, default warn).
func Load() (*Config, error) {
	dir := DefaultDir()

	var fc fileConfig
	configPath, explicit := os.LookupEnv("PWVAULT_CONFIG")
	if !explicit {
		configPath = filepath.Join(dir, "config.toml")
	}
	if err := decodeFile(configPath, explicit, &fc); err != nil {
		return nil, err
	}

	dbPath := firstNonEmpty(os.Getenv("PWVAULT_DB_PATH"), fc.DBPath, filepath.Join(dir, "passwords.db"))
	keyFile := firstNonEmpty(os.Getenv("PWVAULT_KEY_FILE"), fc.KeyFile, filepath.Join(dir, "key.env"))
	listenAddr := firstNonEmpty(os.Getenv("PWVAULT_LISTEN_ADDR"), fc.ListenAddr, "127.0.0.1:8765")

	keyBackend := strings.ToLower(firstNonEmpty(os.Getenv("PWVAULT_KEY_BACKEND"), fc.KeyBackend, KeyBackendFile))
	if keyBackend != KeyBackendFile && keyBackend != KeyBackendKeyring {
		return nil, fmt.Errorf("PWVAULT_KEY_BACKEND has invalid value %q: want %q or %q", keyBackend, KeyBackendFile, KeyBackendKeyring)
	}

	passwordLength := 12
	if fc.PasswordLength != 0 {
		passwordLength = fc.PasswordLength
	}
	if v, ok := os.LookupEnv("PWVAULT_PASSWORD_LENGTH"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PWVAULT_PASSWORD_LENGTH has invalid integer %q: %w", v, err)
		}
		passwordLength = parsed
	}
	if passwordLength < minPasswordLength {
		return nil, fmt.Errorf("password length %d is below the minimum of %d", passwordLength, minPasswordLength)
	}

	level := slog.LevelWarn
	if v := firstNonEmpty(os.Getenv("PWVAULT_LOG_LEVEL"), fc.LogLevel); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("PWVAULT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		DBPath:         dbPath,
		KeyFile:        keyFile,
		KeyBackend:     keyBackend,
		PasswordLength: passwordLength,
		ListenAddr:     listenAddr,
		LogLevel:       level,
	}, nil
}

// decodeFile reads the TOML config at path. A missing file is only an error
// when the path was given explicitly. Unknown keys are rejected so typos do
// not go unnoticed.
func decodeFile(path string, required bool, fc *fileConfig) error {
	md, err := toml.DecodeFile(path, fc)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
