package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
	"github.com/ericfisherdev/pwvault/internal/passgen"
)

// --- Mock implementations for VaultService tests ---

// memEntryStore is an in-memory EntryStore following the port contract.
type memEntryStore struct {
	entries []model.Entry
	nextID  int64
	err     error
}

func (m *memEntryStore) find(name string) int {
	for i, e := range m.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func (m *memEntryStore) Add(_ context.Context, name, username, encryptedSecret string) (model.Entry, error) {
	if m.err != nil {
		return model.Entry{}, m.err
	}
	if name == "" || encryptedSecret == "" {
		return model.Entry{}, driven.ErrMissingField
	}
	if m.find(name) >= 0 {
		return model.Entry{}, driven.ErrDuplicateName
	}
	m.nextID++
	e := model.Entry{ID: m.nextID, Name: name, Username: username, EncryptedSecret: encryptedSecret}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memEntryStore) Get(_ context.Context, name string) (model.Entry, error) {
	if m.err != nil {
		return model.Entry{}, m.err
	}
	i := m.find(name)
	if i < 0 {
		return model.Entry{}, fmt.Errorf("get entry %q: %w", name, driven.ErrEntryNotFound)
	}
	return m.entries[i], nil
}

func (m *memEntryStore) ListNames(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	names := []string{}
	for _, e := range m.entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (m *memEntryStore) Update(_ context.Context, name string, update model.EntryUpdate) error {
	if m.err != nil {
		return m.err
	}
	if update.IsEmpty() {
		return driven.ErrNoFieldsProvided
	}
	i := m.find(name)
	if i < 0 {
		return driven.ErrEntryNotFound
	}
	if update.NewName != nil {
		m.entries[i].Name = *update.NewName
	}
	if update.Username != nil {
		m.entries[i].Username = *update.Username
	}
	if update.EncryptedSecret != nil {
		m.entries[i].EncryptedSecret = *update.EncryptedSecret
	}
	return nil
}

func (m *memEntryStore) Delete(_ context.Context, name string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Name == name {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

// --- Helper functions ---

func strPtr(s string) *string {
	return &s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticKeys(key []byte) driven.KeyStore {
	return driven.KeyStoreFunc(func(context.Context) ([]byte, error) { return key, nil })
}

func newTestService(t *testing.T) (*VaultService, *memEntryStore, []byte) {
	t.Helper()
	key, err := cryptobox.GenerateKey()
	require.NoError(t, err)
	store := &memEntryStore{}
	svc := NewVaultService(store, staticKeys(key), passgen.Default(), passgen.DefaultLength, discardLogger())
	return svc, store, key
}

func decrypt(t *testing.T, key []byte, ciphertext string) string {
	t.Helper()
	box, err := cryptobox.New(key)
	require.NoError(t, err)
	plain, err := box.Decrypt(ciphertext)
	require.NoError(t, err)
	return plain
}

// --- Tests ---

func TestVaultService_EndToEnd(t *testing.T) {
	svc, store, key := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, "site", "bob", "p@ss1234")
	require.NoError(t, err)
	assert.NotContains(t, store.entries[0].EncryptedSecret, "p@ss1234")

	view, err := svc.ViewEntry(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, EntryView{Name: "site", Username: "bob", Password: "p@ss1234"}, view)

	before := store.entries[0].EncryptedSecret
	require.NoError(t, svc.RotateEntrySecret(ctx, "site"))
	after := store.entries[0].EncryptedSecret

	assert.NotEqual(t, before, after)
	rotated := decrypt(t, key, after)
	assert.NotEqual(t, "p@ss1234", rotated)
	assert.Len(t, rotated, passgen.DefaultLength)
}

func TestVaultService_AddEntry_GeneratesMissingPassword(t *testing.T) {
	svc, store, key := newTestService(t)

	_, err := svc.AddEntry(context.Background(), "site", "", "")
	require.NoError(t, err)

	plain := decrypt(t, key, store.entries[0].EncryptedSecret)
	assert.Len(t, plain, passgen.DefaultLength)
}

func TestVaultService_AddEntry_MissingNameSkipsKey(t *testing.T) {
	called := false
	keys := driven.KeyStoreFunc(func(context.Context) ([]byte, error) {
		called = true
		return nil, errors.New("should not be called")
	})
	svc := NewVaultService(&memEntryStore{}, keys, passgen.Default(), 12, discardLogger())

	_, err := svc.AddEntry(context.Background(), "", "bob", "pw")
	assert.ErrorIs(t, err, driven.ErrMissingField)
	assert.False(t, called)
}

func TestVaultService_AddEntry_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, "site", "", "one")
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, "site", "", "two")
	assert.ErrorIs(t, err, driven.ErrDuplicateName)
}

func TestVaultService_AddEntry_InvalidKey(t *testing.T) {
	svc := NewVaultService(&memEntryStore{}, staticKeys(make([]byte, 16)), passgen.Default(), 12, discardLogger())

	_, err := svc.AddEntry(context.Background(), "site", "", "pw")
	assert.ErrorIs(t, err, cryptobox.ErrInvalidKey)
}

func TestVaultService_ViewEntry_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ViewEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
}

func TestVaultService_ViewEntry_WrongKey(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddEntry(ctx, "site", "", "p@ss1234")
	require.NoError(t, err)

	otherKey, err := cryptobox.GenerateKey()
	require.NoError(t, err)
	other := NewVaultService(store, staticKeys(otherKey), passgen.Default(), 12, discardLogger())

	// A wrong key is caught by the padding check in all but rare cases; when
	// it slips through, the plaintext still differs.
	view, err := other.ViewEntry(ctx, "site")
	if err != nil {
		assert.ErrorIs(t, err, cryptobox.ErrDecrypt)
	} else {
		assert.NotEqual(t, "p@ss1234", view.Password)
	}
}

func TestVaultService_ViewEntry_CorruptCiphertext(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.entries = append(store.entries, model.Entry{ID: 1, Name: "bad", EncryptedSecret: "%%%"})

	_, err := svc.ViewEntry(context.Background(), "bad")
	assert.ErrorIs(t, err, cryptobox.ErrDecrypt)
}

func TestVaultService_ListEntryNames(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"b", "a", "c"} {
		_, err := svc.AddEntry(ctx, name, "", "pw")
		require.NoError(t, err)
	}

	names, err := svc.ListEntryNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestVaultService_UpdateEntry(t *testing.T) {
	svc, store, key := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddEntry(ctx, "site", "bob", "old")
	require.NoError(t, err)

	err = svc.UpdateEntry(ctx, "site", EntryChanges{
		NewName:  strPtr("site2"),
		Password: strPtr("new"),
	})
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	assert.Equal(t, "site2", store.entries[0].Name)
	assert.Equal(t, "bob", store.entries[0].Username)
	assert.Equal(t, "new", decrypt(t, key, store.entries[0].EncryptedSecret))
}

func TestVaultService_UpdateEntry_NoFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.UpdateEntry(context.Background(), "x", EntryChanges{})
	assert.ErrorIs(t, err, driven.ErrNoFieldsProvided)
}

func TestVaultService_UpdateEntry_EmptyPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.UpdateEntry(context.Background(), "x", EntryChanges{Password: strPtr("")})
	assert.ErrorIs(t, err, driven.ErrMissingField)
}

func TestVaultService_UpdateEntry_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.UpdateEntry(context.Background(), "missing-name", EntryChanges{Username: strPtr("x")})
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
}

func TestVaultService_RotateEntrySecret_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.RotateEntrySecret(context.Background(), "missing")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
}

func TestVaultService_DeleteEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddEntry(ctx, "x", "", "pw")
	require.NoError(t, err)

	n, err := svc.DeleteEntry(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.ViewEntry(ctx, "x")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)

	n, err = svc.DeleteEntry(ctx, "never-existed")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVaultService_StorageErrorPropagates(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.err = &driven.StorageError{Op: "list entry names", Err: errors.New("database is locked")}

	_, err := svc.ListEntryNames(context.Background())
	var storageErr *driven.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestVaultService_KeyStoreError(t *testing.T) {
	keys := driven.KeyStoreFunc(func(context.Context) ([]byte, error) {
		return nil, errors.New("permission denied")
	})
	svc := NewVaultService(&memEntryStore{}, keys, passgen.Default(), 12, discardLogger())

	_, err := svc.AddEntry(context.Background(), "site", "", "pw")
	assert.ErrorContains(t, err, "load master key")
}

func TestVaultService_GeneratePassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	pw, err := svc.GeneratePassword(0)
	require.NoError(t, err)
	assert.Len(t, pw, passgen.DefaultLength)

	pw, err = svc.GeneratePassword(20)
	require.NoError(t, err)
	assert.Len(t, pw, 20)

	pw, err = svc.GeneratePassword(2)
	require.NoError(t, err)
	assert.Len(t, pw, passgen.DefaultMinLength)
}
