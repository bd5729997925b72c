package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryRepo)(nil)

// EntryRepo is the SQLite implementation of the EntryStore port interface.
// Secrets arrive already encrypted; the repository never sees plaintext.
type EntryRepo struct {
	db *DB
}

// NewEntryRepo creates a new EntryRepo backed by the given DB.
func NewEntryRepo(db *DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// Add inserts a new entry. The existence check and the insert are a single
// statement, so two writers cannot both claim the same name.
func (r *EntryRepo) Add(ctx context.Context, name, username, encryptedSecret string) (model.Entry, error) {
	if name == "" {
		return model.Entry{}, fmt.Errorf("add entry: name: %w", driven.ErrMissingField)
	}
	if encryptedSecret == "" {
		return model.Entry{}, fmt.Errorf("add entry %q: encrypted secret: %w", name, driven.ErrMissingField)
	}

	const query = `INSERT INTO passwords (name, username, encrypted_password) SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM passwords WHERE name = ?)`

	entry := model.Entry{Name: name, Username: username, EncryptedSecret: encryptedSecret}
	err := r.withTx(ctx, "add entry", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, name, nullString(username), encryptedSecret, name)
		if err != nil {
			return &driven.StorageError{Op: fmt.Sprintf("add entry %q", name), Err: err}
		}

		n, err := result.RowsAffected()
		if err != nil {
			return &driven.StorageError{Op: "check rows affected", Err: err}
		}
		if n == 0 {
			return fmt.Errorf("add entry %q: %w", name, driven.ErrDuplicateName)
		}

		entry.ID, err = result.LastInsertId()
		if err != nil {
			return &driven.StorageError{Op: "read inserted id", Err: err}
		}
		return nil
	})
	if err != nil {
		return model.Entry{}, err
	}

	return entry, nil
}

// Get retrieves an entry by exact name. With duplicate names the oldest entry
// wins.
func (r *EntryRepo) Get(ctx context.Context, name string) (model.Entry, error) {
	const query = `SELECT id, name, username, encrypted_password FROM passwords WHERE name = ? ORDER BY id LIMIT 1`

	var entry model.Entry
	var username sql.NullString
	err := r.db.Reader.QueryRowContext(ctx, query, name).Scan(
		&entry.ID, &entry.Name, &username, &entry.EncryptedSecret,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entry{}, fmt.Errorf("get entry %q: %w", name, driven.ErrEntryNotFound)
	}
	if err != nil {
		return model.Entry{}, &driven.StorageError{Op: fmt.Sprintf("get entry %q", name), Err: err}
	}
	entry.Username = username.String

	return entry, nil
}

// ListNames returns all entry names ordered by id, which is insertion order.
func (r *EntryRepo) ListNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM passwords ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, &driven.StorageError{Op: "list entry names", Err: err}
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &driven.StorageError{Op: "scan entry name", Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &driven.StorageError{Op: "iterate entry names", Err: err}
	}

	return names, nil
}

// Count returns the number of stored entries.
func (r *EntryRepo) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM passwords`

	var n int
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, &driven.StorageError{Op: "count entries", Err: err}
	}
	return n, nil
}

// Update overwrites the provided fields of the oldest entry named name. An
// empty Username clears it. Renaming onto another entry's name fails with
// ErrDuplicateName.
func (r *EntryRepo) Update(ctx context.Context, name string, update model.EntryUpdate) error {
	if update.IsEmpty() {
		return fmt.Errorf("update entry %q: %w", name, driven.ErrNoFieldsProvided)
	}
	if update.NewName != nil && *update.NewName == "" {
		return fmt.Errorf("update entry %q: name: %w", name, driven.ErrMissingField)
	}
	if update.EncryptedSecret != nil && *update.EncryptedSecret == "" {
		return fmt.Errorf("update entry %q: encrypted secret: %w", name, driven.ErrMissingField)
	}

	return r.withTx(ctx, "update entry", func(tx *sql.Tx) error {
		const selectQuery = `SELECT id FROM passwords WHERE name = ? ORDER BY id LIMIT 1`

		var id int64
		err := tx.QueryRowContext(ctx, selectQuery, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update entry %q: %w", name, driven.ErrEntryNotFound)
		}
		if err != nil {
			return &driven.StorageError{Op: fmt.Sprintf("find entry %q", name), Err: err}
		}

		var sets []string
		var args []any

		if update.NewName != nil {
			if *update.NewName != name {
				taken, err := nameExists(ctx, tx, *update.NewName)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("rename entry %q to %q: %w", name, *update.NewName, driven.ErrDuplicateName)
				}
			}
			sets = append(sets, "name = ?")
			args = append(args, *update.NewName)
		}
		if update.Username != nil {
			sets = append(sets, "username = ?")
			args = append(args, nullString(*update.Username))
		}
		if update.EncryptedSecret != nil {
			sets = append(sets, "encrypted_password = ?")
			args = append(args, *update.EncryptedSecret)
		}

		query := "UPDATE passwords SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		args = append(args, id)

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &driven.StorageError{Op: fmt.Sprintf("update entry %q", name), Err: err}
		}
		return nil
	})
}

// Delete removes every entry named name, which also cleans up duplicates left
// by older vaults. Deleting a missing name is a no-op.
func (r *EntryRepo) Delete(ctx context.Context, name string) (int64, error) {
	const query = `DELETE FROM passwords WHERE name = ?`

	var deleted int64
	err := r.withTx(ctx, "delete entry", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, name)
		if err != nil {
			return &driven.StorageError{Op: fmt.Sprintf("delete entry %q", name), Err: err}
		}

		deleted, err = result.RowsAffected()
		if err != nil {
			return &driven.StorageError{Op: "check rows affected", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// withTx runs fn in a writer transaction and commits it. Errors returned by fn
// are passed through unchanged; begin and commit failures become
// StorageErrors.
func (r *EntryRepo) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return &driven.StorageError{Op: op + ": begin transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &driven.StorageError{Op: op + ": commit", Err: err}
	}
	return nil
}

func nameExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	const query = `SELECT COUNT(*) FROM passwords WHERE name = ?`

	var n int
	if err := tx.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, &driven.StorageError{Op: fmt.Sprintf("check name %q", name), Err: err}
	}
	return n > 0, nil
}

// nullString maps an empty username to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
