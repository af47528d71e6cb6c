package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, for log lines and report headers
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// HashParts hashes an ordered list of strings. Parts are length-prefixed so
// ("ab","c") and ("a","bc") never collide.
func HashParts(parts ...string) Hash {
	hasher := sha256.New()
	var prefix [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := 0; i < 8; i++ {
			prefix[i] = byte(n >> (8 * i))
		}
		hasher.Write(prefix[:])
		hasher.Write([]byte(p))
	}
	return Hash(hex.EncodeToString(hasher.Sum(nil)))
}
