// Package keyfile implements the KeyStore port on top of a small env-style
// file holding a single `key=<base64>` entry.
package keyfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

// keyName is the entry that holds the base64 master key.
const keyName = "key"

// keyLine matches an existing (possibly blank) key entry.
var keyLine = regexp.MustCompile(`^\s*(export\s+)?key\s*=`)

// Compile-time interface satisfaction check.
var _ driven.KeyStore = (*Store)(nil)

// Store retrieves the master key from a key file, creating the file and a new
// key on first use.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a Store for the key file at path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the key file location.
func (s *Store) Path() string {
	return s.path
}

// Key returns the stored master key. A missing file, an empty file, or a file
// without a key entry gets a freshly generated key written to it; other
// entries in the file are preserved. Repeated calls return the same key.
//
// A key entry that is present but malformed fails with
// cryptobox.ErrInvalidKey and is left untouched, since overwriting it would
// make every stored secret unreadable.
func (s *Store) Key(_ context.Context) ([]byte, error) {
	content, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read key file %s: %w", s.path, err)
	}
	if err == nil {
		s.checkPermissions()
	}

	env, err := godotenv.Unmarshal(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse key file %s: %w", s.path, err)
	}

	if encoded := strings.TrimSpace(env[keyName]); encoded != "" {
		key, err := cryptobox.DecodeKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("key file %s: %w", s.path, err)
		}
		return key, nil
	}

	return s.initialize(string(content))
}

// initialize generates a key and writes it to the file, keeping any unrelated
// lines already present.
func (s *Store) initialize(existing string) ([]byte, error) {
	key, err := cryptobox.GenerateKey()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}

	var b strings.Builder
	for _, line := range strings.Split(existing, "\n") {
		if strings.TrimSpace(line) == "" || keyLine.MatchString(line) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(keyName + "=" + cryptobox.EncodeKey(key) + "\n")

	if err := os.WriteFile(s.path, []byte(b.String()), 0o600); err != nil {
		return nil, fmt.Errorf("write key file %s: %w", s.path, err)
	}

	s.logger.Info("generated new master key", "path", s.path)
	return key, nil
}

// checkPermissions warns when the key file can be read by other users.
func (s *Store) checkPermissions() {
	info, err := os.Stat(s.path)
	if err != nil {
		return
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		s.logger.Warn("key file is accessible by other users",
			"path", s.path,
			"mode", mode.String(),
		)
	}
}
