// bytes.go -- byte-slice <-> typed-slice reinterpretation helpers, used
// by PathPack's parallel hash blocks. Adapted from the teacher's
// reflect.SliceHeader trick (mmap.go), modernized to unsafe.Slice so a
// byte buffer can be viewed as a []Hash without copying.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package skipledger

import "unsafe"

// hashesToBytes views a []Hash as its underlying []byte without copying.
// The returned slice aliases h; callers must not retain it past h's
// lifetime if h is stack-allocated (it never is in this package).
func hashesToBytes(h []Hash) []byte {
	if len(h) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&h[0])), len(h)*HashSize)
}

// bytesToHashes views a []byte of length a multiple of HashSize as a
// []Hash without copying. It panics if len(b) is not a multiple of
// HashSize; callers at a decode boundary must check this first and
// return Malformed instead.
func bytesToHashes(b []byte) []Hash {
	if len(b) == 0 {
		return nil
	}
	if len(b)%HashSize != 0 {
		panic("skipledger: hash block not a multiple of HashSize")
	}
	return unsafe.Slice((*Hash)(unsafe.Pointer(&b[0])), len(b)/HashSize)
}

// cloneHashes returns an independent copy of h, safe to retain beyond
// the lifetime of any byte buffer h may alias.
func cloneHashes(h []Hash) []Hash {
	out := make([]Hash, len(h))
	copy(out, h)
	return out
}
