// digest_test.go -- test suite for Digest and Hash.

package skipledger

import (
	"crypto/sha256"
	"testing"
)

func TestDigestMatchesStdlib(t *testing.T) {
	assert := newAsserter(t)

	var d Digest
	a := []byte("hello")
	b := []byte("world")

	got := d.Hash(a, b)
	want := sha256.Sum256(append(append([]byte(nil), a...), b...))
	assert(got == Hash(want), "digest mismatch: got %x, want %x", got, want)
}

func TestDigestReusable(t *testing.T) {
	assert := newAsserter(t)

	var d Digest
	first := d.Hash([]byte("one"))
	second := d.Hash([]byte("two"))
	third := d.Hash([]byte("one"))

	assert(first != second, "different inputs produced the same hash")
	assert(first == third, "reused Digest produced different hashes for the same input")
}

func TestSentinel(t *testing.T) {
	assert := newAsserter(t)

	assert(Sentinel().IsSentinel(), "Sentinel() is not IsSentinel()")
	h := mkHash(0x01)
	assert(!h.IsSentinel(), "non-zero hash reported as sentinel")
}

func TestHashFromBytesPanicsOnBadLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("HashFromBytes did not panic on short input")
		}
	}()
	HashFromBytes([]byte{1, 2, 3})
}
