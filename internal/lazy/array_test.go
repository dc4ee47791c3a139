package lazy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvaleed/slotvec/internal/storage"
)

type intArray = Array[Packed[int], *Packed[int], Cap8]

func TestArray_Footprint(t *testing.T) {
	require.Equal(t, uint64(8), ArrayFootprint[Packed[int], *Packed[int], Cap8]())
	require.Equal(t, uint64(8), FootprintOf[intArray]())
	require.Equal(t, uint64(4*8), ArrayFootprint[intArray, *intArray, Cap4]())
	require.Equal(t, uint32(256), CapOf[Cap256]())
}

func TestArray_Bounds(t *testing.T) {
	var a intArray

	require.ErrorIs(t, a.Put(8, Pack(1)), ErrIndexOutOfRange)
	_, err := a.Get(8)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = a.GetMut(100)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = a.Take(8)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestArray_Unbound(t *testing.T) {
	var a intArray

	_, err := a.Get(0)
	require.ErrorIs(t, err, ErrEntryNotFound)

	v, err := a.GetMut(1)
	require.NoError(t, err)
	require.Equal(t, Packed[int]{}, *v)
	v.Value = 7

	got, err := a.Get(1)
	require.NoError(t, err)
	require.Equal(t, 7, got.Value)
	require.Equal(t, 1, a.Dirty())
}

func TestArray_PushPull(t *testing.T) {
	t.Run("push writes only dirty slots", func(t *testing.T) {
		s := storage.NewMeteredStore(storage.NewMemStore())

		var a intArray
		require.NoError(t, a.Put(0, Pack(10)))
		require.NoError(t, a.Put(3, Pack(13)))

		c := storage.NewCursor(s, storage.KeyFromUint64(100))
		require.NoError(t, a.PushForward(c))
		require.Equal(t, storage.KeyFromUint64(108), c.Key())
		require.Equal(t, uint64(2), s.Writes())
		require.Zero(t, s.Reads())
	})

	t.Run("pull reads nothing until access", func(t *testing.T) {
		mem := storage.NewMemStore()
		s := storage.NewMeteredStore(mem)

		var a intArray
		for i := range uint32(8) {
			require.NoError(t, a.Put(i, Pack(int(i)*10)))
		}
		require.NoError(t, a.PushForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
		s.Reset()

		var b intArray
		c := storage.NewCursor(s, storage.KeyFromUint64(0))
		require.NoError(t, b.PullForward(c))
		require.Equal(t, storage.KeyFromUint64(8), c.Key())
		require.Zero(t, s.Reads())

		v, err := b.Get(5)
		require.NoError(t, err)
		require.Equal(t, 50, v.Value)
		require.Equal(t, uint64(1), s.Reads())

		_, err = b.Get(5)
		require.NoError(t, err)
		require.Equal(t, uint64(1), s.Reads())

		require.NoError(t, b.PushForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
		require.Zero(t, s.Writes())
		require.Zero(t, b.Dirty())
	})

	t.Run("get mut and take", func(t *testing.T) {
		mem := storage.NewMemStore()
		s := storage.NewMeteredStore(mem)

		var a intArray
		require.NoError(t, a.Put(0, Pack(1)))
		require.NoError(t, a.Put(1, Pack(2)))
		require.NoError(t, a.PushForward(storage.NewCursor(s, storage.KeyFromUint64(0))))

		var b intArray
		require.NoError(t, b.PullForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
		v, err := b.GetMut(0)
		require.NoError(t, err)
		v.Value = 100

		taken, err := b.Take(1)
		require.NoError(t, err)
		require.Equal(t, 2, taken.Value)
		_, err = b.Get(1)
		require.ErrorIs(t, err, ErrEntryNotFound)
		require.Equal(t, 2, b.Dirty())

		s.Reset()
		require.NoError(t, b.PushForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
		require.Equal(t, uint64(1), s.Writes())
		require.Equal(t, uint64(1), s.Clears())
		require.Equal(t, 1, mem.Len())

		var c intArray
		require.NoError(t, c.PullForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
		got, err := c.Get(0)
		require.NoError(t, err)
		require.Equal(t, 100, got.Value)
	})

	t.Run("never stored element saturates on get mut", func(t *testing.T) {
		s := storage.NewMemStore()
		var a intArray
		require.NoError(t, a.PullForward(storage.NewCursor(s, storage.KeyFromUint64(0))))

		_, err := a.Get(2)
		require.ErrorIs(t, err, ErrEntryNotFound)

		v, err := a.GetMut(2)
		require.NoError(t, err)
		require.Equal(t, 0, v.Value)
	})

	t.Run("saturate drops the binding", func(t *testing.T) {
		s := storage.NewMemStore()
		var a intArray
		require.NoError(t, a.Put(0, Pack(1)))
		require.NoError(t, a.PushForward(storage.NewCursor(s, storage.KeyFromUint64(0))))

		require.NoError(t, a.PullForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
		a.Saturate()
		_, err := a.Get(0)
		require.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestArray_Nested(t *testing.T) {
	type inner = Array[Packed[int], *Packed[int], Cap2]
	type outer = Array[inner, *inner, Cap4]

	s := storage.NewMemStore()

	var o outer
	row, err := o.GetMut(3)
	require.NoError(t, err)
	require.NoError(t, row.Put(1, Pack(31)))
	require.NoError(t, o.PushForward(storage.NewCursor(s, storage.KeyFromUint64(0))))

	// Row 3, column 1 of 2-wide rows.
	value, ok, err := s.Get(storage.KeyFromUint64(7))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, value)
	require.Equal(t, 1, s.Len())

	var back outer
	require.NoError(t, back.PullForward(storage.NewCursor(s, storage.KeyFromUint64(0))))
	r, err := back.Get(3)
	require.NoError(t, err)
	cell, err := r.Get(1)
	require.NoError(t, err)
	require.Equal(t, 31, cell.Value)
}
