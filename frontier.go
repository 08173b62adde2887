// frontier.go -- HashFrontier: the minimum state required to extend a
// ledger by one row and verify the extension, without rereading any
// prior row (§4.5.1).

package skipledger

import "math/bits"

// levelCount returns the number of "peaks" a frontier at row n must
// track to support appending any future row: bits.Len64(n). This is
// >= skipCount(n); the extra levels are carried silently until a
// future append whose skip count reaches them consumes them (§4.5.1's
// skipCount(n) + (levelCount(n) - skipCount(n)) row-hash count).
func levelCount(n uint64) int {
	if n == 0 {
		return 0
	}
	return bits.Len64(n)
}

type levelEntry struct {
	row  uint64
	hash Hash
}

// HashFrontier is an immutable value: the per-level (row number, row
// hash) pairs needed to extend a ledger by one row (§4.5.1). Frontiers
// advanced from the same starting row and input-hash sequence are
// bit-identical.
type HashFrontier struct {
	n      uint64
	levels []levelEntry // length levelCount(n); levels[0].row == n always
}

// firstFrontier builds the unique frontier after row 1 from its input
// hash; row 1's only reference is the sentinel (row 0).
func firstFrontier(inputHash Hash, d *Digest) *HashFrontier {
	rh := d.Hash(inputHash[:], sentinel[:])
	return &HashFrontier{
		n:      1,
		levels: []levelEntry{{row: 1, hash: rh}},
	}
}

// First builds Frontier@1 from its input hash (§4.5.1).
func First(inputHash Hash) *HashFrontier {
	var d Digest
	return firstFrontier(inputHash, &d)
}

// Next advances the frontier from n to n+1, consuming one input hash,
// and returns the new frontier. The receiver is left unmodified.
func (fr *HashFrontier) Next(inputHash Hash) *HashFrontier {
	var d Digest
	return fr.next(inputHash, &d)
}

// next advances the frontier from n to n+1, consuming one input hash.
func (fr *HashFrontier) next(inputHash Hash, d *Digest) *HashFrontier {
	newN := fr.n + 1
	sc := skipCount(newN)
	lc := levelCount(newN)

	parts := make([][]byte, 0, 1+sc)
	ih := inputHash
	parts = append(parts, ih[:])
	for i := 0; i < sc; i++ {
		ref := newN - (uint64(1) << uint(i))
		if ref == 0 {
			parts = append(parts, sentinel[:])
			continue
		}
		h := fr.levels[i].hash
		parts = append(parts, h[:])
	}
	newRowHash := d.Hash(parts...)

	newLevels := make([]levelEntry, lc)
	for l := 0; l < lc; l++ {
		if l < sc {
			newLevels[l] = levelEntry{row: newN, hash: newRowHash}
		} else {
			newLevels[l] = fr.levels[l]
		}
	}
	return &HashFrontier{n: newN, levels: newLevels}
}

// rowNumber returns the row this frontier is positioned at.
func (fr *HashFrontier) rowNumber() uint64 { return fr.n }

// row returns rowHash(n): frontier.row(0) always equals row n itself.
func (fr *HashFrontier) row() Hash {
	return fr.levels[0].hash
}

// levelRow returns the (row number, hash) tracked at level l, for
// 0 <= l < levelCount(n).
func (fr *HashFrontier) levelRow(l int) (uint64, Hash, error) {
	if l < 0 || l >= len(fr.levels) {
		return 0, Hash{}, newErr(KindOutOfRange, "frontier level %d out of range [0, %d)", l, len(fr.levels))
	}
	e := fr.levels[l]
	return e.row, e.hash, nil
}

// RowNumber is the exported accessor for fr.n, used by callers that
// reconstruct a frontier from a ledger and want to confirm its position.
func (fr *HashFrontier) RowNumber() uint64 { return fr.rowNumber() }

// Row is the exported accessor for the current row's hash.
func (fr *HashFrontier) Row() Hash { return fr.row() }

// LevelRow is the exported accessor for levelRow.
func (fr *HashFrontier) LevelRow(l int) (uint64, Hash, error) { return fr.levelRow(l) }
