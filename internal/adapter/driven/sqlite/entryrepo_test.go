package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

func strPtr(s string) *string {
	return &s
}

func TestEntryRepo_AddAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	added, err := repo.Add(ctx, "github", "octocat", "c2VjcmV0")
	require.NoError(t, err)
	assert.NotZero(t, added.ID)

	got, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, "github", got.Name)
	assert.Equal(t, "octocat", got.Username)
	assert.Equal(t, "c2VjcmV0", got.EncryptedSecret)
}

func TestEntryRepo_Add_WithoutUsernameStoresNull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "wifi", "", "c2VjcmV0")
	require.NoError(t, err)

	var isNull bool
	err = db.Reader.QueryRowContext(ctx, `SELECT username IS NULL FROM passwords WHERE name = ?`, "wifi").Scan(&isNull)
	require.NoError(t, err)
	assert.True(t, isNull)

	got, err := repo.Get(ctx, "wifi")
	require.NoError(t, err)
	assert.Equal(t, "", got.Username)
}

func TestEntryRepo_Add_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "github", "octocat", "first")
	require.NoError(t, err)

	_, err = repo.Add(ctx, "github", "someone-else", "second")
	assert.ErrorIs(t, err, driven.ErrDuplicateName)

	got, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "first", got.EncryptedSecret, "failed add must not change the stored entry")
}

func TestEntryRepo_Add_MissingFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "", "user", "secret")
	assert.ErrorIs(t, err, driven.ErrMissingField)

	_, err = repo.Add(ctx, "name", "user", "")
	assert.ErrorIs(t, err, driven.ErrMissingField)

	names, err := repo.ListNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEntryRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
}

func TestEntryRepo_Get_ExactMatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "GitHub", "", "secret")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "github")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
	_, err = repo.Get(ctx, "GitHub ")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
}

func TestEntryRepo_Get_DuplicateReturnsOldest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)

	insertRaw(t, db, "legacy", "first-user", "first")
	insertRaw(t, db, "legacy", "second-user", "second")

	got, err := repo.Get(context.Background(), "legacy")
	require.NoError(t, err)
	assert.Equal(t, "first", got.EncryptedSecret)
}

func TestEntryRepo_ListNames_InsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mu"} {
		_, err := repo.Add(ctx, name, "", "secret")
		require.NoError(t, err)
	}

	names, err := repo.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mu"}, names)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEntryRepo_ListNames_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)

	names, err := repo.ListNames(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestEntryRepo_Update_PartialFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "github", "octocat", "old-secret")
	require.NoError(t, err)

	err = repo.Update(ctx, "github", model.EntryUpdate{EncryptedSecret: strPtr("new-secret")})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "new-secret", got.EncryptedSecret)
	assert.Equal(t, "octocat", got.Username, "absent fields keep their values")
}

func TestEntryRepo_Update_AllFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	added, err := repo.Add(ctx, "github", "octocat", "old-secret")
	require.NoError(t, err)

	err = repo.Update(ctx, "github", model.EntryUpdate{
		NewName:         strPtr("gitlab"),
		Username:        strPtr("tanuki"),
		EncryptedSecret: strPtr("new-secret"),
	})
	require.NoError(t, err)

	_, err = repo.Get(ctx, "github")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)

	got, err := repo.Get(ctx, "gitlab")
	require.NoError(t, err)
	assert.Equal(t, added.ID, got.ID, "id is immutable")
	assert.Equal(t, "tanuki", got.Username)
	assert.Equal(t, "new-secret", got.EncryptedSecret)
}

func TestEntryRepo_Update_ClearUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "github", "octocat", "secret")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "github", model.EntryUpdate{Username: strPtr("")}))

	got, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "", got.Username)
}

func TestEntryRepo_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)

	err := repo.Update(context.Background(), "missing-name", model.EntryUpdate{Username: strPtr("x")})
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)
}

func TestEntryRepo_Update_NoFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "x", "", "secret")
	require.NoError(t, err)

	err = repo.Update(ctx, "x", model.EntryUpdate{})
	assert.ErrorIs(t, err, driven.ErrNoFieldsProvided)
}

func TestEntryRepo_Update_EmptyRequiredFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "x", "", "secret")
	require.NoError(t, err)

	err = repo.Update(ctx, "x", model.EntryUpdate{NewName: strPtr("")})
	assert.ErrorIs(t, err, driven.ErrMissingField)

	err = repo.Update(ctx, "x", model.EntryUpdate{EncryptedSecret: strPtr("")})
	assert.ErrorIs(t, err, driven.ErrMissingField)
}

func TestEntryRepo_Update_RenameOntoExistingName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "a", "", "secret-a")
	require.NoError(t, err)
	_, err = repo.Add(ctx, "b", "", "secret-b")
	require.NoError(t, err)

	err = repo.Update(ctx, "a", model.EntryUpdate{NewName: strPtr("b"), EncryptedSecret: strPtr("changed")})
	assert.ErrorIs(t, err, driven.ErrDuplicateName)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "secret-a", got.EncryptedSecret, "rejected update must leave no partial write")
}

func TestEntryRepo_Update_RenameToSameName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "a", "", "secret")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "a", model.EntryUpdate{NewName: strPtr("a")}))
}

func TestEntryRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "x", "", "secret")
	require.NoError(t, err)

	n, err := repo.Delete(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, "x")
	assert.ErrorIs(t, err, driven.ErrEntryNotFound)

	// The name can be reused after deletion.
	_, err = repo.Add(ctx, "x", "", "again")
	require.NoError(t, err)
}

func TestEntryRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)

	n, err := repo.Delete(context.Background(), "never-existed")
	assert.NoError(t, err, "deleting a nonexistent entry should not error")
	assert.Zero(t, n)
}

func TestEntryRepo_DeleteRemovesDuplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepo(db)
	ctx := context.Background()

	insertRaw(t, db, "legacy", "", "first")
	insertRaw(t, db, "legacy", "", "second")
	insertRaw(t, db, "other", "", "third")

	n, err := repo.Delete(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	names, err := repo.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, names)
}

func TestEntryRepo_FileBackedPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "vault.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db.Writer))

	_, err = NewEntryRepo(db).Add(ctx, "site", "bob", "c2VjcmV0")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, RunMigrations(reopened.Writer), "migrations must be idempotent")

	got, err := NewEntryRepo(reopened).Get(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, path, reopened.Path())
}
