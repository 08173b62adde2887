// storage.go -- the two thin shapes a SkipLedger calls into (§6.1).
// Concrete implementations (file-backed, in-memory, SQL, ...) are
// external collaborators; see the store subpackage for a reference
// file-backed implementation grounded on the teacher's dbreader/
// dbwriter pair.

package skipledger

// RowWidth is the fixed width in bytes of one row wire record: a
// 32-byte input hash followed by a 32-byte row hash.
const RowWidth = 2 * HashSize

// SkipTable is the indexed, fixed-width row storage a SkipLedger
// persists to. The 0-based row index in the table corresponds to the
// 1-based ledger row number (index i <-> row i+1).
type SkipTable interface {
	// Size returns the current number of stored rows.
	Size() (uint64, error)

	// AddRows appends len(b)/RowWidth rows starting at the given
	// 0-based index (which must equal the current size) and returns
	// the new size. len(b) must be a multiple of RowWidth.
	AddRows(b []byte, atIndex uint64) (uint64, error)

	// ReadRow returns the RowWidth-byte record at 0-based index.
	ReadRow(index uint64) ([]byte, error)

	// TrimSize truncates the table to newSize rows.
	TrimSize(newSize uint64) error

	// Close releases any resources held by the table.
	Close() error
}

// WitnessRepo maps row numbers to an opaque crumtrail blob, preserving
// insertion order.
type WitnessRepo interface {
	// IDs returns the ascending row numbers that have a witness.
	IDs() ([]uint64, error)

	// PutTrail records trail for rowNo. rowNo must be greater than the
	// last recorded row number.
	PutTrail(trail []byte, rowNo uint64) error

	// Trail returns the witness at the given 0-based index into IDs().
	Trail(index uint64) ([]byte, error)

	// TrimSize truncates the repo to its first n entries.
	TrimSize(n uint64) error

	// TrimByRowNumber truncates the repo to entries with row number <= n.
	TrimByRowNumber(n uint64) error
}
