package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending schema migrations embedded in the binary.
// It is safe to call on every open. A vault whose passwords table predates the
// migration history is adopted: its legacy description column is renamed to
// name first, then the migrations run over the existing table.
func RunMigrations(db *sql.DB) error {
	if err := renameLegacyNameColumn(db); err != nil {
		return err
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// renameLegacyNameColumn renames passwords.description to passwords.name on
// vaults created before the column was called name. It does nothing on new
// or already migrated databases.
func renameLegacyNameColumn(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info('passwords')`)
	if err != nil {
		return fmt.Errorf("inspect passwords table: %w", err)
	}
	defer rows.Close()

	columns := map[string]bool{}
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return fmt.Errorf("scan passwords column: %w", err)
		}
		columns[column] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect passwords table: %w", err)
	}
	rows.Close()

	if !columns["description"] || columns["name"] {
		return nil
	}

	if _, err := db.Exec(`ALTER TABLE passwords RENAME COLUMN description TO name`); err != nil {
		return fmt.Errorf("rename passwords.description to name: %w", err)
	}
	return nil
}
