// sourcerow.go -- SourceRow: a typed, ordered list of Cells plus a salt
// scheme, reduced to the single input hash that gets appended to a
// SkipLedger (§4.3).

package skipledger

// SaltSchemeKind tags which flavor of salting applies to a SourceRow.
type SaltSchemeKind byte

const (
	// NoSalt: no cell is salted.
	NoSalt SaltSchemeKind = iota
	// SaltAll: every cell is salted (except HASH cells, always unsalted).
	SaltAll
	// SaltOnly: only the indices in the scheme's set are salted.
	SaltOnly
	// SaltExcept: every cell except the indices in the scheme's set is salted.
	SaltExcept
)

// SaltScheme says which 0-based cell indices in a row get salted.
type SaltScheme struct {
	Kind    SaltSchemeKind
	Indices map[int]bool // meaningful for SaltOnly / SaltExcept
}

// NoSaltScheme returns the scheme that salts nothing.
func NoSaltScheme() SaltScheme { return SaltScheme{Kind: NoSalt} }

// SaltAllScheme returns the scheme that salts every non-HASH cell.
func SaltAllScheme() SaltScheme { return SaltScheme{Kind: SaltAll} }

// SaltOnlyScheme salts only the given 0-based indices.
func SaltOnlyScheme(idx ...int) SaltScheme {
	m := make(map[int]bool, len(idx))
	for _, i := range idx {
		m[i] = true
	}
	return SaltScheme{Kind: SaltOnly, Indices: m}
}

// SaltExceptScheme salts every index except the given 0-based indices.
func SaltExceptScheme(idx ...int) SaltScheme {
	m := make(map[int]bool, len(idx))
	for _, i := range idx {
		m[i] = true
	}
	return SaltScheme{Kind: SaltExcept, Indices: m}
}

// isSalted reports whether cell index i is salted under this scheme,
// for a cell whose type is typ. HASH cells are always unsalted (§3),
// regardless of the scheme.
func (s SaltScheme) isSalted(i int, typ CellType) bool {
	if typ == CellHash {
		return false
	}
	switch s.Kind {
	case NoSalt:
		return false
	case SaltAll:
		return true
	case SaltOnly:
		return s.Indices[i]
	case SaltExcept:
		return !s.Indices[i]
	default:
		return false
	}
}

// RowCellSalter is the capability SourceRow needs from a salter: derive
// the salt for a given (row, cell) coordinate. Both *Salter and
// *EpochedSalter satisfy it.
type RowCellSalter interface {
	CellSalt(row, cell uint64) (Hash, error)
}

// SourceRow is the triple (n, saltScheme, cells) from §3/§4.3: a typed
// source-ledger row reduced to its input hash.
type SourceRow struct {
	Row    uint64
	Scheme SaltScheme
	Cells  []Cell
}

// NewSourceRow validates cells against scheme (rejecting DOUBLE cells
// that the scheme would salt -- see DESIGN.md for why) and returns a
// SourceRow ready for InputHash.
func NewSourceRow(row uint64, scheme SaltScheme, cells []Cell) (*SourceRow, error) {
	if row == 0 {
		return nil, newErr(KindBadType, "row number must be >= 1")
	}
	for i, c := range cells {
		if c.Type == CellDouble && scheme.isSalted(i, c.Type) {
			return nil, newErr(KindBadType, "cell %d: DOUBLE cells cannot be salted", i)
		}
	}
	return &SourceRow{Row: row, Scheme: scheme, Cells: cells}, nil
}

// cellHash returns the effective hash of cell i: salted or unsalted per
// the row's scheme, using salter to derive the per-cell salt on demand.
func (r *SourceRow) cellHash(d *Digest, salter RowCellSalter, i int) (Hash, error) {
	c := r.Cells[i]
	if !r.Scheme.isSalted(i, c.Type) {
		return c.unsaltedHash(d), nil
	}
	salt, err := salter.CellSalt(r.Row, uint64(i))
	if err != nil {
		return Hash{}, err
	}
	return c.saltedHash(d, salt), nil
}

// InputHash computes the row's input hash (§4.3): the single cell's
// hash if there is exactly one cell, otherwise the hash of the
// concatenation of every cell's hash in index order.
func (r *SourceRow) InputHash(salter RowCellSalter) (Hash, error) {
	var d Digest

	if len(r.Cells) == 0 {
		return Hash{}, newErr(KindBadType, "source row has no cells")
	}
	if len(r.Cells) == 1 {
		return r.cellHash(&d, salter, 0)
	}

	buf := make([]byte, 0, len(r.Cells)*HashSize)
	for i := range r.Cells {
		h, err := r.cellHash(&d, salter, i)
		if err != nil {
			return Hash{}, err
		}
		buf = append(buf, h[:]...)
	}
	return d.Hash(buf), nil
}

// Equal reports whether two SourceRows were built from the same cells
// and scheme -- not whether their derived input hashes match under some
// salter (two rows with different schemes, e.g. SALT_ALL vs NO_SALT,
// are never Equal even if coincidentally same-valued).
func (r *SourceRow) Equal(o *SourceRow) bool {
	if r.Row != o.Row || r.Scheme.Kind != o.Scheme.Kind || len(r.Cells) != len(o.Cells) {
		return false
	}
	if len(r.Scheme.Indices) != len(o.Scheme.Indices) {
		return false
	}
	for i, v := range r.Scheme.Indices {
		if o.Scheme.Indices[i] != v {
			return false
		}
	}
	for i := range r.Cells {
		a, b := r.Cells[i], o.Cells[i]
		if a.Type != b.Type || string(a.encode()) != string(b.encode()) {
			return false
		}
	}
	return true
}
