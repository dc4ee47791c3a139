package collections

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvaleed/slotvec/internal/lazy"
	"github.com/mvaleed/slotvec/internal/storage"
)

func TestEqual(t *testing.T) {
	testCases := []struct {
		name string
		a, b []int
		want bool
	}{
		{"both empty", nil, nil, true},
		{"same", []int{1, 2, 3}, []int{1, 2, 3}, true},
		{"different element", []int{1, 2, 3}, []int{1, 5, 3}, false},
		{"prefix", []int{1, 2}, []int{1, 2, 3}, false},
		{"longer", []int{1, 2, 3, 4}, []int{1, 2, 3}, false},
		{"same elements other order", []int{3, 2, 1}, []int{1, 2, 3}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(tc.a...)))
			require.NoError(t, err)
			b, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(tc.b...)))
			require.NoError(t, err)

			eq, err := Equal[lazy.Packed[int]](a, b)
			require.NoError(t, err)
			require.Equal(t, tc.want, eq)

			eq, err = Equal[lazy.Packed[int]](b, a)
			require.NoError(t, err)
			require.Equal(t, tc.want, eq)
		})
	}
}

func TestEqual_AcrossKinds(t *testing.T) {
	small := newSmallInts(t, 1, 2, 3)
	dynamic, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(1, 2, 3)))
	require.NoError(t, err)

	eq, err := Equal[lazy.Packed[int]](small, dynamic)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestEqual_LengthMismatchReadsNothing(t *testing.T) {
	s := storage.NewMeteredStore(storage.NewMemStore())

	short, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(1)))
	require.NoError(t, err)
	pushVec(t, s, storage.KeyFromUint64(0), short)
	long, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(1, 2)))
	require.NoError(t, err)
	pushVec(t, s, storage.KeyFromUint64(10), long)

	a := pullVec(t, s, storage.KeyFromUint64(0))
	b := pullVec(t, s, storage.KeyFromUint64(10))
	s.Reset()

	eq, err := Equal[lazy.Packed[int]](a, b)
	require.NoError(t, err)
	require.False(t, eq)
	require.Zero(t, s.Reads())
}

func TestEqualFunc(t *testing.T) {
	a, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(1, 2, 3)))
	require.NoError(t, err)
	b, err := VecFromSeq[lazy.Packed[int], *lazy.Packed[int]](slices.Values(packed(-1, 2, -3)))
	require.NoError(t, err)

	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}
	eq, err := EqualFunc(a, b, func(x, y *lazy.Packed[int]) bool { return abs(x.Value) == abs(y.Value) })
	require.NoError(t, err)
	require.True(t, eq)
}
