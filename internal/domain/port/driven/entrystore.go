package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
)

// Sentinel errors returned by EntryStore implementations.
var (
	// ErrEntryNotFound indicates no entry has the requested name.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrDuplicateName indicates another entry already uses the name.
	ErrDuplicateName = errors.New("entry name already exists")

	// ErrNoFieldsProvided indicates an update that would change nothing.
	ErrNoFieldsProvided = errors.New("no fields provided to update")

	// ErrMissingField indicates a required entry field is empty.
	ErrMissingField = errors.New("required field missing")
)

// StorageError wraps a failure of the underlying store, such as a locked or
// unreadable database file. It may be transient; stores never retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// EntryStore defines the driven port for credential entry persistence.
// Names are unique for entries created through Add; Get and Delete also cope
// with duplicate names left behind by older vaults. Every mutation commits
// atomically.
type EntryStore interface {
	// Add creates an entry. Returns ErrMissingField if name or
	// encryptedSecret is empty and ErrDuplicateName if the name is taken.
	Add(ctx context.Context, name, username, encryptedSecret string) (model.Entry, error)

	// Get returns the entry with the exact name, the oldest one if there are
	// duplicates. Returns ErrEntryNotFound if none exists.
	Get(ctx context.Context, name string) (model.Entry, error)

	// ListNames returns every entry name in insertion order.
	ListNames(ctx context.Context) ([]string, error)

	// Update overwrites the provided fields of the named entry. Returns
	// ErrNoFieldsProvided for an empty update and ErrEntryNotFound if the
	// entry does not exist.
	Update(ctx context.Context, name string, update model.EntryUpdate) error

	// Delete removes every entry with the name and reports how many were
	// removed. Deleting a name that does not exist is not an error.
	Delete(ctx context.Context, name string) (int64, error)
}
