package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey_Add(t *testing.T) {
	t.Run("low limb", func(t *testing.T) {
		require.Equal(t, KeyFromUint64(10), KeyFromUint64(3).Add(7))
		require.Equal(t, KeyFromUint64(3), KeyFromUint64(3).Add(0))
	})

	t.Run("carry into next limb", func(t *testing.T) {
		k := KeyFromUint64(^uint64(0)).Add(1)

		var want Key
		want[KeyWidth-9] = 1
		require.Equal(t, want, k)
	})

	t.Run("carry across several limbs", func(t *testing.T) {
		var k Key
		for i := 8; i < KeyWidth; i++ {
			k[i] = 0xff
		}

		var want Key
		want[7] = 1
		require.Equal(t, want, k.Add(1))
	})

	t.Run("wraps at 2^256", func(t *testing.T) {
		var k Key
		for i := range k {
			k[i] = 0xff
		}
		require.Equal(t, KeyFromUint64(1), k.Add(2))
	})
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey(KeyFromUint64(1))
	b := DeriveKey(KeyFromUint64(2))

	require.Equal(t, a, DeriveKey(KeyFromUint64(1)))
	require.NotEqual(t, a, b)
	require.NotEqual(t, KeyFromUint64(1), a)
}

func TestKey_String(t *testing.T) {
	require.Equal(t,
		"00000000000000000000000000000000000000000000000000000000000000ff",
		KeyFromUint64(255).String(),
	)
}
