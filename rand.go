// rand.go -- utilities that generate random values, used to mint fresh
// salter seeds.
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package skipledger

import (
	"crypto/rand"
	"io"
)

func randbytes(n int) []byte {
	b := make([]byte, n)

	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		panic("skipledger: can't read crypto/rand")
	}
	return b
}

// NewRandomSeed returns a fresh 32-byte seed suitable for NewSalter,
// drawn from crypto/rand.
func NewRandomSeed() []byte {
	return randbytes(HashSize)
}
