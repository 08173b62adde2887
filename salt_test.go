// salt_test.go -- test suite for TableSalt and EpochedSalter (§4.2, S6).

package skipledger

import (
	"crypto/sha256"
	"testing"
)

func TestSalterRowAndCellSalt(t *testing.T) {
	assert := newAsserter(t)

	seed := sha256.Sum256([]byte("seed"))
	s, err := NewSalter(seed[:])
	assert(err == nil, "newsalter: %s", err)

	rs, err := s.RowSalt(11)
	assert(err == nil, "rowsalt: %s", err)

	cs0, err := s.CellSaltFromRowSalt(rs, 0)
	assert(err == nil, "cellsalt 0: %s", err)
	cs1, err := s.CellSaltFromRowSalt(rs, 1)
	assert(err == nil, "cellsalt 1: %s", err)
	assert(cs0 != cs1, "different cell indices produced the same salt")

	direct0, err := s.CellSalt(11, 0)
	assert(err == nil, "cellsalt: %s", err)
	assert(direct0 == cs0, "CellSalt(row,cell) disagrees with CellSaltFromRowSalt(RowSalt(row),cell)")
}

func TestNullSalterIsNoOp(t *testing.T) {
	assert := newAsserter(t)

	s := NullSalter()
	assert(s.Unsalted(), "NullSalter() not reported as Unsalted")

	rs, err := s.RowSalt(11)
	assert(err == nil, "rowsalt: %s", err)
	assert(rs == (Hash{}), "null salter's row salt is not the zero hash")
}

func TestSourceRowSaltAllVsNoSalt(t *testing.T) {
	assert := newAsserter(t)

	seed := sha256.Sum256([]byte("seed"))
	salter, err := NewSalter(seed[:])
	assert(err == nil, "newsalter: %s", err)

	c1, err := NewStringCell("hello")
	assert(err == nil, "cell: %s", err)
	c2, err := NewStringCell("row")
	assert(err == nil, "cell: %s", err)

	salted, err := NewSourceRow(11, SaltAllScheme(), []Cell{c1, c2})
	assert(err == nil, "sourcerow: %s", err)
	unsalted, err := NewSourceRow(11, NoSaltScheme(), []Cell{c1, c2})
	assert(err == nil, "sourcerow: %s", err)

	hSalted, err := salted.InputHash(salter)
	assert(err == nil, "inputhash: %s", err)
	hUnsalted, err := unsalted.InputHash(NullSalter())
	assert(err == nil, "inputhash: %s", err)

	assert(hSalted != hUnsalted, "SALT_ALL and NO_SALT produced the same input hash")
}

func TestSalterReproducible(t *testing.T) {
	assert := newAsserter(t)

	seed := sha256.Sum256([]byte("seed"))
	s, err := NewSalter(append([]byte(nil), seed[:]...))
	assert(err == nil, "newsalter: %s", err)

	a, err := s.CellSalt(11, 0)
	assert(err == nil, "cellsalt: %s", err)
	b, err := s.CellSalt(11, 0)
	assert(err == nil, "cellsalt: %s", err)
	assert(a == b, "salter is not reproducible across repeated calls")
}

func TestSalterCloseZeroesSeedAndRejectsFurtherUse(t *testing.T) {
	assert := newAsserter(t)

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	s, err := NewSalter(seed)
	assert(err == nil, "newsalter: %s", err)

	s.Close()
	s.Close() // idempotent

	_, err = s.RowSalt(1)
	assert(err != nil, "RowSalt succeeded on a closed salter")

	allZero := true
	for _, b := range seed {
		if b != 0 {
			allZero = false
		}
	}
	assert(allZero, "Close did not zero the underlying seed")
}

func TestEpochedSalterSelectsActiveEpoch(t *testing.T) {
	assert := newAsserter(t)

	e, err := NewEpochedSalter(map[uint64][]byte{
		1:   []byte("epoch-one-seed-bytes-32----xxxx"),
		100: []byte("epoch-two-seed-bytes-32----yyyy"),
	})
	assert(err == nil, "newepochedsalter: %s", err)

	before, err := e.RowSalt(99)
	assert(err == nil, "rowsalt: %s", err)
	after, err := e.RowSalt(100)
	assert(err == nil, "rowsalt: %s", err)
	assert(before != after, "epoch boundary did not change the derived row salt")
}

func TestEpochedSalterRejectsNonUnitFirstEpoch(t *testing.T) {
	assert := newAsserter(t)
	_, err := NewEpochedSalter(map[uint64][]byte{2: []byte("epoch-seed-bytes-32--------xxxx")})
	assert(err != nil, "accepted an epoch set whose first epoch doesn't start at row 1")
}
