// salt.go -- TableSalt: secret-seeded derivation of per-row and
// per-cell salts, with a zeroizing close lifecycle, and EpochedSalter,
// which composes several TableSalts keyed by the row where each one's
// reign begins.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package skipledger

import (
	"encoding/binary"
	"sort"
	"sync"
)

// Salter derives deterministic per-(row,cell) salts from one secret
// seed. Reads are safe for concurrent use; Close is exclusive and
// idempotent-safe (a second Close is a no-op, not an error).
type Salter struct {
	mu     sync.RWMutex
	seed   []byte
	closed bool
}

// NewSalter wraps seed (retained, not copied) as the secret for row and
// cell salt derivation. seed must be non-empty; callers that want an
// unsalted ledger should use NullSalter instead of a zero-length seed.
func NewSalter(seed []byte) (*Salter, error) {
	if len(seed) == 0 {
		return nil, newErr(KindBadType, "salter seed must be non-empty")
	}
	s := &Salter{seed: seed}
	return s, nil
}

// NullSalter returns a Salter whose RowSalt/CellSalt both return the
// all-zero Hash -- the degenerate case for an unsalted ledger (§4.2).
func NullSalter() *Salter {
	return &Salter{seed: nil}
}

func be8(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func complement8(v uint64) []byte {
	return be8(^v)
}

// RowSalt returns H( row || seed || ~row ), the row-only salt that lets
// a redacted row still be verified without its cell index.
func (s *Salter) RowSalt(row uint64) (Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Hash{}, newErr(KindClosed, "salter is closed")
	}
	if s.seed == nil {
		return Hash{}, nil
	}

	var d Digest
	rb := be8(row)
	return d.Hash(rb, s.seed, complement8(row)), nil
}

// CellSaltFromRowSalt returns H( cell || rowSalt || ~cell ) given a
// row's salt (from RowSalt) and a 0-based cell index.
func (s *Salter) CellSaltFromRowSalt(rowSalt Hash, cell uint64) (Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Hash{}, newErr(KindClosed, "salter is closed")
	}
	if s.seed == nil {
		return Hash{}, nil
	}

	var d Digest
	cb := be8(cell)
	return d.Hash(cb, rowSalt[:], complement8(cell)), nil
}

// CellSalt is the composed convenience required by the RowCellSalter
// interface: CellSaltFromRowSalt(RowSalt(row), cell).
func (s *Salter) CellSalt(row, cell uint64) (Hash, error) {
	rs, err := s.RowSalt(row)
	if err != nil {
		return Hash{}, err
	}
	return s.CellSaltFromRowSalt(rs, cell)
}

// Unsalted reports whether this Salter is the degenerate null salter.
func (s *Salter) Unsalted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed == nil
}

// Close zeroes the seed in place. Subsequent calls to RowSalt/CellSalt
// fail with KindClosed. Close is idempotent.
func (s *Salter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for i := range s.seed {
		s.seed[i] = 0
	}
	s.closed = true
}

// EpochedSalter composes an ordered set of Salters, each active over a
// contiguous run of rows starting at its startRow. The first epoch must
// begin at row 1.
type EpochedSalter struct {
	mu     sync.RWMutex
	starts []uint64
	salts  []*Salter
}

// NewEpochedSalter builds an EpochedSalter from the given (startRow,
// seed) pairs. The first epoch's startRow must be 1, entries must be
// strictly ascending by startRow, and every seed must share byte length
// with the first (mixed salter widths would make verification ambiguous
// about which epoch produced a given salt).
func NewEpochedSalter(epochs map[uint64][]byte) (*EpochedSalter, error) {
	if len(epochs) == 0 {
		return nil, newErr(KindBadType, "epoched salter needs at least one epoch")
	}

	starts := make([]uint64, 0, len(epochs))
	for r := range epochs {
		starts = append(starts, r)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	if starts[0] != 1 {
		return nil, newErr(KindBadType, "first salt epoch must start at row 1, got %d", starts[0])
	}

	width := len(epochs[starts[0]])
	salts := make([]*Salter, len(starts))
	for i, r := range starts {
		seed := epochs[r]
		if len(seed) != width {
			return nil, newErr(KindBadType, "salt epoch at row %d has seed width %d, want %d", r, len(seed), width)
		}
		s, err := NewSalter(seed)
		if err != nil {
			return nil, err
		}
		salts[i] = s
	}

	return &EpochedSalter{starts: starts, salts: salts}, nil
}

// active returns the Salter whose startRow is the greatest <= row.
func (e *EpochedSalter) active(row uint64) *Salter {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := sort.Search(len(e.starts), func(i int) bool { return e.starts[i] > row })
	return e.salts[i-1]
}

// RowSalt delegates to the epoch active at row.
func (e *EpochedSalter) RowSalt(row uint64) (Hash, error) {
	return e.active(row).RowSalt(row)
}

// CellSalt delegates to the epoch active at row.
func (e *EpochedSalter) CellSalt(row, cell uint64) (Hash, error) {
	return e.active(row).CellSalt(row, cell)
}

// Close closes every child epoch.
func (e *EpochedSalter) Close() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.salts {
		s.Close()
	}
}
