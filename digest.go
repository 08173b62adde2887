// digest.go -- the single cryptographic hash primitive used everywhere in
// a skipledger: SHA-256, fixed. Changing it is a wire-breaking change.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package skipledger

import (
	"crypto/sha256"
	"hash"
)

// HashSize is the fixed width of every hash in a skipledger: a SHA-256
// digest. No other width is ever produced by this package.
const HashSize = sha256.Size

// Hash is an opaque 32-byte cryptographic digest.
type Hash [HashSize]byte

// sentinel is the all-zero hash representing the abstract row 0.
var sentinel Hash

// Sentinel returns the 32 zero-byte hash that stands in for row 0.
func Sentinel() Hash {
	return sentinel
}

// IsSentinel reports whether h is the all-zero sentinel hash.
func (h Hash) IsSentinel() bool {
	return h == sentinel
}

// Bytes returns h as a freshly allocated byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// HashFromBytes copies exactly HashSize bytes of b into a Hash. It panics
// if len(b) != HashSize; callers at a decode boundary must check length
// first and return Malformed instead of calling this on untrusted input.
func HashFromBytes(b []byte) Hash {
	var h Hash
	if len(b) != HashSize {
		panic("skipledger: bad hash length")
	}
	copy(h[:], b)
	return h
}

// Digest is a reusable SHA-256 scratch state. A zero-value Digest is
// ready to use. Digest is not safe for concurrent use; callers that need
// concurrent hashing should use one Digest per goroutine (it is cheap to
// construct).
type Digest struct {
	h   hash.Hash
	out [HashSize]byte
}

// Hash resets the scratch state and consumes parts in order, returning
// H(parts[0] || parts[1] || ... ).
func (d *Digest) Hash(parts ...[]byte) Hash {
	if d.h == nil {
		d.h = sha256.New()
	} else {
		d.h.Reset()
	}
	for _, p := range parts {
		d.h.Write(p)
	}
	var out Hash
	copy(out[:], d.h.Sum(d.out[:0]))
	return out
}

// Sentinel returns the all-zero hash. It is a method on Digest purely so
// callers holding a Digest don't need a separate import path for it.
func (d *Digest) Sentinel() Hash {
	return sentinel
}
