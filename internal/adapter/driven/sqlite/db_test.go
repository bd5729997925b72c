package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_PathWithURIMetacharacters(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "we?ird#dir 100%")
	path := filepath.Join(dir, "vault.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db.Writer))
	_, err = NewEntryRepo(db).Add(ctx, "site", "", "c2VjcmV0")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	info, err := os.Stat(path)
	require.NoError(t, err, "database must be created at the literal path")
	assert.Positive(t, info.Size())

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no stray file named after a truncated path")
}

func TestEscapeDSNPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/vault.db", "/tmp/vault.db"},
		{"/tmp/a?b.db", "/tmp/a%3Fb.db"},
		{"/tmp/a#b.db", "/tmp/a%23b.db"},
		{"/tmp/100%.db", "/tmp/100%25.db"},
		{"relative/vault.db", "relative/vault.db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeDSNPath(tt.in))
		})
	}
}
