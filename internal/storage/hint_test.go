package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHint_WriteRead(t *testing.T) {
	t.Run("round trip in key order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), hintFileName)
		header := hintHeader{StoreID: uuid.New(), Segment: 1, Covered: 300}
		entries := []hintEntry{
			{Key: KeyFromUint64(3), Segment: 1, Pos: 112},
			{Key: KeyFromUint64(1), Segment: 0, Pos: 0},
			{Key: KeyFromUint64(2), Segment: 0, Pos: 56},
		}

		require.NoError(t, writeHint(path, header, entries))
		require.NoFileExists(t, path+".tmp")

		gotHeader, got, torn, err := readHint(path)
		require.NoError(t, err)
		require.False(t, torn)
		require.Equal(t, header, gotHeader)
		require.Len(t, got, 3)
		for i, e := range got {
			require.Equal(t, KeyFromUint64(uint64(i+1)), e.Key)
		}
	})

	t.Run("torn tail keeps whole entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), hintFileName)
		header := hintHeader{StoreID: uuid.New()}
		entries := []hintEntry{{Key: KeyFromUint64(1)}, {Key: KeyFromUint64(2)}}
		require.NoError(t, writeHint(path, header, entries))

		require.NoError(t, os.Truncate(path, int64(hintHeaderWidth+hintEntryWidth+10)))

		_, got, torn, err := readHint(path)
		require.NoError(t, err)
		require.True(t, torn)
		require.Len(t, got, 1)
		require.Equal(t, KeyFromUint64(1), got[0].Key)
	})

	t.Run("invalid files", func(t *testing.T) {
		testCases := []struct {
			name string
			data []byte
		}{
			{"empty", nil},
			{"short header", []byte(hintMagic)},
			{"bad magic", make([]byte, hintHeaderWidth+hintEntryWidth)},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), hintFileName)
				require.NoError(t, os.WriteFile(path, tc.data, 0o644))

				_, _, _, err := readHint(path)
				require.ErrorIs(t, err, errHintInvalid)
			})
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, _, err := readHint(filepath.Join(t.TempDir(), hintFileName))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
