package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"whisperkey/internal/domain"
)

func openTestStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndRecent(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 20)

	entries := []domain.HistoryEntry{
		{Text: "first", Language: "en", Duration: 1.5},
		{Text: "второй", Language: "ru", Duration: 2.25},
		{Text: "third", Language: "en", Duration: 0.8},
	}
	for _, e := range entries {
		require.NoError(t, store.Add(e))
	}

	got, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	require.Equal(t, "third", got[0].Text)
	require.Equal(t, "first", got[2].Text)
	require.Equal(t, "второй", got[1].Text)
	require.Equal(t, "ru", got[1].Language)
	require.NotZero(t, got[0].ID)
	require.False(t, got[0].CreatedAt.IsZero())
}

func TestAddTrimsToMaxSize(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 3)

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Add(domain.HistoryEntry{Text: fmt.Sprintf("entry %d", i)}))
	}

	got, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "entry 5", got[0].Text)
	require.Equal(t, "entry 3", got[2].Text)
}

func TestClear(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 20)

	require.NoError(t, store.Add(domain.HistoryEntry{Text: "gone soon", CreatedAt: time.Now()}))
	require.NoError(t, store.Clear())

	got, err := store.Recent(10)
	require.NoError(t, err)
	require.Empty(t, got)
}
