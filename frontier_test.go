// frontier_test.go -- test suite for HashFrontier: its level count and
// its row-hash agreement with SkipLedger's own rule (§4.5.1).

package skipledger

import "testing"

func TestFrontierFirstMatchesRow1Rule(t *testing.T) {
	assert := newAsserter(t)

	ih := mkHash(0x01)
	fr := First(ih)
	assert(fr.RowNumber() == 1, "First() positioned at row %d, want 1", fr.RowNumber())

	var d Digest
	want := d.Hash(ih[:], sentinel[:])
	assert(fr.Row() == want, "frontier row 1 hash mismatch")
}

func TestFrontierLevelCountCoversSkipCountAtPowersOfTwo(t *testing.T) {
	assert := newAsserter(t)
	for _, n := range []uint64{1, 2, 4, 8, 16, 1024} {
		lc := levelCount(n)
		sc := skipCount(n)
		assert(lc >= sc, "levelCount(%d)=%d < skipCount(%d)=%d", n, lc, n, sc)
	}
}

func TestFrontierNextTracksLedgerRowHash(t *testing.T) {
	assert := newAsserter(t)

	l := openEmptyLedger()
	var inputs []Hash
	for i := byte(1); i <= 16; i++ {
		inputs = append(inputs, mkHash(i))
	}

	fr := First(inputs[0])
	for _, ih := range inputs[1:] {
		fr = fr.Next(ih)
	}
	_, err := l.Append(inputs)
	assert(err == nil, "append: %s", err)

	want, err := l.RowHash(16)
	assert(err == nil, "rowhash: %s", err)
	assert(fr.Row() == want, "frontier-advanced row 16 hash disagrees with ledger's own rule")
}

func TestFrontierLevelRowOutOfRange(t *testing.T) {
	assert := newAsserter(t)
	fr := First(mkHash(1))
	_, _, err := fr.LevelRow(5)
	assert(err != nil, "LevelRow accepted an out-of-range level")
}
