package namestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache", "names.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := openTestStore(t)

	name, ok, err := s.GetName(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestStore_PutAndGet(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutName(ctx, 44000001, "Total Access"))
	require.NoError(t, s.PutName(ctx, 44000001, "TotalEnergies Access"))
	require.NoError(t, s.PutName(ctx, 1000002, "Intermarché"))

	name, ok, err := s.GetName(ctx, 44000001)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "TotalEnergies Access", name, "upsert keeps the latest name")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.PutName(context.Background(), 7, "Esso Express"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	name, ok, err := reopened.GetName(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Esso Express", name)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
