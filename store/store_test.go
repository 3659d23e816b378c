package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	for _, backend := range []string{BackendLevelDB, BackendPebble} {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), backend)
			s, err := Open(backend, path)
			require.NoError(t, err)

			_, found, err := s.Lookup([]byte("a"))
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, s.Insert([]byte("a"), []byte("1")))
			require.NoError(t, s.Insert([]byte("b"), []byte("2")))
			require.NoError(t, s.Insert([]byte("a"), []byte("3")))
			value, found, err := s.Lookup([]byte("a"))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []byte("3"), value)

			require.NoError(t, s.Delete([]byte("b")))
			require.NoError(t, s.Delete([]byte("missing")))
			_, found, err = s.Lookup([]byte("b"))
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, s.Sync())
			require.NoError(t, s.Close())

			require.ErrorIs(t, s.Insert([]byte("c"), nil), ErrClosed)
			_, _, err = s.Lookup([]byte("a"))
			require.ErrorIs(t, err, ErrClosed)
			require.ErrorIs(t, s.Close(), ErrClosed)

			// the data survives reopening
			s, err = Open(backend, path)
			require.NoError(t, err)
			defer s.Close()
			value, found, err = s.Lookup([]byte("a"))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []byte("3"), value)
		})
	}
}

func TestStoreUnknownBackend(t *testing.T) {
	_, err := Open("bolt", t.TempDir())
	require.ErrorIs(t, err, ErrUnknownBackend)
}
