// Package oskeyring implements the KeyStore port on the operating system's
// credential store (macOS Keychain, Secret Service, KWallet, Windows
// Credential Manager), keeping the master key out of plain files.
package oskeyring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/99designs/keyring"

	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

const (
	// DefaultServiceName is the keyring service the master key is filed under.
	DefaultServiceName = "pwvault"

	itemKey = "master-key"
)

// Compile-time interface satisfaction check.
var _ driven.KeyStore = (*Store)(nil)

// Store keeps the base64 master key in a keyring item, creating it on first use.
type Store struct {
	ring   keyring.Keyring
	logger *slog.Logger
}

// Open connects to the OS keyring under serviceName. The encrypted-file
// backend is excluded because it would prompt for yet another password.
func Open(serviceName string, logger *slog.Logger) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring %q: %w", serviceName, err)
	}
	return New(ring, logger), nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring, logger *slog.Logger) *Store {
	return &Store{ring: ring, logger: logger}
}

// Key returns the master key stored in the keyring, generating and storing a
// new one if the item is missing or empty. A malformed item fails with
// cryptobox.ErrInvalidKey and is not replaced.
func (s *Store) Key(_ context.Context) ([]byte, error) {
	item, err := s.ring.Get(itemKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("read keyring item: %w", err)
	}

	if err == nil {
		if encoded := strings.TrimSpace(string(item.Data)); encoded != "" {
			key, err := cryptobox.DecodeKey(encoded)
			if err != nil {
				return nil, fmt.Errorf("keyring item %q: %w", itemKey, err)
			}
			return key, nil
		}
	}

	key, err := cryptobox.GenerateKey()
	if err != nil {
		return nil, err
	}

	err = s.ring.Set(keyring.Item{
		Key:         itemKey,
		Data:        []byte(cryptobox.EncodeKey(key)),
		Label:       "pwvault master key",
		Description: "AES-256 key encrypting the pwvault password store",
	})
	if err != nil {
		return nil, fmt.Errorf("store keyring item: %w", err)
	}

	s.logger.Info("generated new master key in OS keyring")
	return key, nil
}
