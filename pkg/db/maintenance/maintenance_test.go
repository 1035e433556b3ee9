package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeonflight/pkg/db"
	"pigeonflight/pkg/store"
)

func setup(t *testing.T) (*store.SQLiteStore, *db.DB) {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "maint_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return store.NewSQLiteStore(d), d
}

func TestRun_EvictsPreviousGeneration(t *testing.T) {
	s, d := setup(t)
	ctx := context.Background()

	// First start records the generation without deleting anything
	require.NoError(t, s.SetCache(ctx, "pigeon-cache-v1:/index.html", []byte("v1")))
	Run(ctx, s, d, "pigeon-cache-v1", 0)
	name, ok := s.GetState(ctx, cacheNameStateKey)
	require.True(t, ok)
	assert.Equal(t, "pigeon-cache-v1", name)
	has, err := s.HasCache(ctx, "pigeon-cache-v1:/index.html")
	require.NoError(t, err)
	assert.True(t, has)

	// Bumping the name drops the old entries
	require.NoError(t, s.SetCache(ctx, "pigeon-cache-v2:/index.html", []byte("v2")))
	Run(ctx, s, d, "pigeon-cache-v2", 0)

	has, err = s.HasCache(ctx, "pigeon-cache-v1:/index.html")
	require.NoError(t, err)
	assert.False(t, has)
	has, err = s.HasCache(ctx, "pigeon-cache-v2:/index.html")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRun_PrunesOldEntries(t *testing.T) {
	s, d := setup(t)
	ctx := context.Background()

	old := time.Now().Add(-40 * 24 * time.Hour).UTC().Format(db.TimestampLayout)
	_, err := d.Exec("INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)", "pigeon-cache-v1:/old.js", []byte("x"), old)
	require.NoError(t, err)
	require.NoError(t, s.SetCache(ctx, "pigeon-cache-v1:/new.js", []byte("y")))

	Run(ctx, s, d, "pigeon-cache-v1", 0)

	keys, err := s.ListCacheKeys(ctx, "pigeon-cache-v1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"pigeon-cache-v1:/new.js"}, keys)
}
