// pathpack_test.go -- test suite for PathPack: full/condensed
// round-trips over a moderately large ledger (S4/S5).

package skipledger

import (
	"encoding/binary"
	"testing"
)

func buildLedger(t *testing.T, n int) (*SkipLedger, []Hash) {
	t.Helper()
	l := openEmptyLedger()
	var d Digest
	inputs := make([]Hash, n)
	for i := 0; i < n; i++ {
		inputs[i] = d.Hash([]byte{byte(i), byte(i >> 8), byte(i >> 16)})
	}
	if _, err := l.Append(inputs); err != nil {
		t.Fatalf("append: %s", err)
	}
	return l, inputs
}

func TestPathPackFullRoundTrip(t *testing.T) {
	assert := newAsserter(t)

	l, _ := buildLedger(t, 1027)
	targets := []uint64{1, 500, 1027}

	want, err := l.GetPath(targets)
	assert(err == nil, "getpath: %s", err)

	pack := ForPath(want)
	assert(pack.Type == FullPack, "forPath produced type %v, want FullPack", pack.Type)

	b, err := pack.MarshalBinary()
	assert(err == nil, "marshal: %s", err)

	decoded, err := UnmarshalPathPack(b)
	assert(err == nil, "unmarshal: %s", err)

	got, err := decoded.Path()
	assert(err == nil, "path: %s", err)
	assert(len(got.Rows) == len(want.Rows), "row count mismatch: got %d, want %d", len(got.Rows), len(want.Rows))

	var d Digest
	for i := range want.Rows {
		assert(got.Rows[i].RowNo == want.Rows[i].RowNo, "row %d: rowno mismatch", i)
		assert(got.Rows[i].RowHash(&d) == want.Rows[i].RowHash(&d), "row %d: hash mismatch after round trip", i)
	}

	root, err := l.RowHash(1027)
	assert(err == nil, "rowhash: %s", err)
	assert(got.Rows[len(got.Rows)-1].RowHash(&d) == root, "final row hash does not match ledger.RowHash(1027)")
}

func TestPathPackCondensedRoundTrip(t *testing.T) {
	assert := newAsserter(t)

	l, _ := buildLedger(t, 1027)
	targets := []uint64{1, 500, 1027}

	path, err := l.GetPath(targets)
	assert(err == nil, "getpath: %s", err)

	full := ForPath(path)
	fullBytes, err := full.MarshalBinary()
	assert(err == nil, "marshal full: %s", err)

	condensed, err := full.Condense()
	assert(err == nil, "condense: %s", err)
	assert(condensed.Type == CondensedPack, "condense produced type %v", condensed.Type)

	condensedBytes, err := condensed.MarshalBinary()
	assert(err == nil, "marshal condensed: %s", err)

	nosLen := binary.BigEndian.Uint64(condensedBytes[:8])
	typeOff := 8 + nosLen + 8
	assert(condensedBytes[typeOff] == byte(CondensedPack), "hash block does not begin with 0x01 at the type byte")
	assert(len(condensedBytes) < len(fullBytes), "condensed pack (%d bytes) not smaller than full (%d bytes)", len(condensedBytes), len(fullBytes))

	decoded, err := UnmarshalPathPack(condensedBytes)
	assert(err == nil, "unmarshal: %s", err)

	got, err := decoded.Path()
	assert(err == nil, "path: %s", err)

	var d Digest
	for _, rowNo := range targets {
		want, err := l.RowHash(rowNo)
		assert(err == nil, "rowhash(%d): %s", rowNo, err)
		var found bool
		for _, r := range got.Rows {
			if r.RowNo == rowNo {
				found = true
				assert(r.RowHash(&d) == want, "row %d: condensed hash mismatch", rowNo)
			}
		}
		assert(found, "row %d missing from condensed path", rowNo)
	}
}

func TestPathPackMalformedHashBlock(t *testing.T) {
	assert := newAsserter(t)

	l, _ := buildLedger(t, 16)
	path, err := l.GetPath([]uint64{16})
	assert(err == nil, "getpath: %s", err)

	pack := ForPath(path)
	b, err := pack.MarshalBinary()
	assert(err == nil, "marshal: %s", err)

	_, err = UnmarshalPathPack(b[:len(b)-1])
	assert(err != nil, "truncated pack decoded without error")
}
