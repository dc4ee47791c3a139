// Package storage is the key-addressed slot store the lazy collections live in.
package storage

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

const KeyWidth = 32

// Key addresses a single slot. It is treated as a 256 bit big-endian integer
// so that a structure occupying F slots can be laid out at key .. key+F-1.
type Key [KeyWidth]byte

// KeyFromUint64 returns the key whose low 64 bits are n.
func KeyFromUint64(n uint64) Key {
	var k Key
	binary.BigEndian.PutUint64(k[KeyWidth-8:], n)
	return k
}

// Add returns k + n, wrapping at 2^256.
func (k Key) Add(n uint64) Key {
	out := k
	carry := n
	for i := KeyWidth - 8; i >= 0 && carry != 0; i -= 8 {
		limb := binary.BigEndian.Uint64(out[i : i+8])
		sum := limb + carry
		binary.BigEndian.PutUint64(out[i:i+8], sum)
		if sum < limb {
			carry = 1
		} else {
			carry = 0
		}
	}
	return out
}

// DeriveKey hashes k into an unrelated region of the key space. Unbounded
// element regions start at a derived key so they never overlap the fields laid
// out next to their handle.
func DeriveKey(k Key) Key {
	return Key(sha256.Sum256(k[:]))
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}
