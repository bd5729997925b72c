package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
	"github.com/ericfisherdev/pwvault/internal/passgen"
)

// EntryView is a decrypted entry as shown to the user.
type EntryView struct {
	Name     string
	Username string
	Password string
}

// EntryChanges holds the user-facing fields of an update. Password is
// plaintext and is encrypted before it reaches the store. A nil field keeps
// its stored value.
type EntryChanges struct {
	NewName  *string
	Username *string
	Password *string
}

func (c EntryChanges) isEmpty() bool {
	return c.NewName == nil && c.Username == nil && c.Password == nil
}

// VaultService is the only entry point presentation shells use. It combines
// the entry store, the master key and the password generator; shells never
// touch the store or the cipher directly.
type VaultService struct {
	store          driven.EntryStore
	keys           driven.KeyStore
	generator      *passgen.Generator
	passwordLength int
	logger         *slog.Logger
}

// NewVaultService creates a VaultService. passwordLength is the length of
// generated passwords when the caller does not ask for one.
func NewVaultService(
	store driven.EntryStore,
	keys driven.KeyStore,
	generator *passgen.Generator,
	passwordLength int,
	logger *slog.Logger,
) *VaultService {
	return &VaultService{
		store:          store,
		keys:           keys,
		generator:      generator,
		passwordLength: passwordLength,
		logger:         logger,
	}
}

// AddEntry encrypts password and stores a new entry. An empty password is
// replaced by a generated one.
func (s *VaultService) AddEntry(ctx context.Context, name, username, password string) (model.Entry, error) {
	if name == "" {
		return model.Entry{}, fmt.Errorf("add entry: name: %w", driven.ErrMissingField)
	}

	if password == "" {
		generated, err := s.GeneratePassword(0)
		if err != nil {
			return model.Entry{}, err
		}
		password = generated
	}

	box, err := s.box(ctx)
	if err != nil {
		return model.Entry{}, err
	}

	encrypted, err := box.Encrypt(password)
	if err != nil {
		return model.Entry{}, fmt.Errorf("encrypt entry %q: %w", name, err)
	}

	entry, err := s.store.Add(ctx, name, username, encrypted)
	if err != nil {
		return model.Entry{}, err
	}

	s.logger.Info("entry added", "name", name, "id", entry.ID)
	return entry, nil
}

// ViewEntry returns the named entry with its password decrypted.
func (s *VaultService) ViewEntry(ctx context.Context, name string) (EntryView, error) {
	entry, err := s.store.Get(ctx, name)
	if err != nil {
		return EntryView{}, err
	}

	box, err := s.box(ctx)
	if err != nil {
		return EntryView{}, err
	}

	password, err := box.Decrypt(entry.EncryptedSecret)
	if err != nil {
		return EntryView{}, fmt.Errorf("decrypt entry %q: %w", name, err)
	}

	return EntryView{
		Name:     entry.Name,
		Username: entry.Username,
		Password: password,
	}, nil
}

// ListEntryNames returns all entry names for selection menus.
func (s *VaultService) ListEntryNames(ctx context.Context) ([]string, error) {
	return s.store.ListNames(ctx)
}

// UpdateEntry applies changes to the named entry. An update without any field
// is rejected with driven.ErrNoFieldsProvided before anything else happens.
func (s *VaultService) UpdateEntry(ctx context.Context, name string, changes EntryChanges) error {
	if changes.isEmpty() {
		return fmt.Errorf("update entry %q: %w", name, driven.ErrNoFieldsProvided)
	}

	update := model.EntryUpdate{
		NewName:  changes.NewName,
		Username: changes.Username,
	}

	if changes.Password != nil {
		if *changes.Password == "" {
			return fmt.Errorf("update entry %q: password: %w", name, driven.ErrMissingField)
		}

		box, err := s.box(ctx)
		if err != nil {
			return err
		}
		encrypted, err := box.Encrypt(*changes.Password)
		if err != nil {
			return fmt.Errorf("encrypt entry %q: %w", name, err)
		}
		update.EncryptedSecret = &encrypted
	}

	if err := s.store.Update(ctx, name, update); err != nil {
		return err
	}

	s.logger.Info("entry updated", "name", name)
	return nil
}

// DeleteEntry removes the named entry and reports how many rows went away.
// Deleting an entry that does not exist succeeds with a count of zero.
func (s *VaultService) DeleteEntry(ctx context.Context, name string) (int64, error) {
	n, err := s.store.Delete(ctx, name)
	if err != nil {
		return 0, err
	}

	s.logger.Info("entry deleted", "name", name, "removed", n)
	return n, nil
}

// RotateEntrySecret replaces the entry's password with a newly generated one.
func (s *VaultService) RotateEntrySecret(ctx context.Context, name string) error {
	password, err := s.GeneratePassword(0)
	if err != nil {
		return err
	}

	if err := s.UpdateEntry(ctx, name, EntryChanges{Password: &password}); err != nil {
		return err
	}

	s.logger.Info("entry secret rotated", "name", name)
	return nil
}

// GeneratePassword returns a random password. A length of zero or less uses
// the configured default.
func (s *VaultService) GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = s.passwordLength
	}
	password, err := s.generator.Generate(length)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return password, nil
}

// box resolves the master key for a single operation.
func (s *VaultService) box(ctx context.Context) (*cryptobox.Box, error) {
	key, err := s.keys.Key(ctx)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	return cryptobox.New(key)
}
