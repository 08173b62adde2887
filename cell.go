// cell.go -- typed cell values for a SourceRow: a small, fixed tagged
// variant (NULL/BYTES/HASH/STRING/LONG/DOUBLE/DATE) per §9's guidance
// to collapse deep value hierarchies into one variant with a match over
// the tag, rather than one Go type per Java-style subclass.

package skipledger

import (
	"encoding/binary"
	"math"
	"time"
)

// CellType tags the kind of value held by a Cell.
type CellType byte

const (
	CellNull CellType = iota
	CellBytes
	CellHash
	CellString
	CellLong
	CellDouble
	CellDate
)

// MaxCellBytes is the largest number of bytes a BYTES or STRING cell may
// hold (§3).
const MaxCellBytes = 65535

// Cell is one typed value in a SourceRow. The zero Cell is CellNull.
type Cell struct {
	Type CellType
	raw  []byte // typed encoding, per encode() below; HASH is the 32 raw bytes
}

// NewNullCell returns the single-byte NULL cell.
func NewNullCell() Cell { return Cell{Type: CellNull} }

// NewBytesCell builds a BYTES cell, promoting to HASH if b is exactly
// 32 bytes long (§3: "32-byte BYTES values are canonically promoted to
// HASH on decode").
func NewBytesCell(b []byte) (Cell, error) {
	if len(b) == HashSize {
		return NewHashCell(HashFromBytes(b)), nil
	}
	if len(b) > MaxCellBytes {
		return Cell{}, newErr(KindOversize, "bytes cell: %d > %d", len(b), MaxCellBytes)
	}
	return Cell{Type: CellBytes, raw: append([]byte(nil), b...)}, nil
}

// NewHashCell wraps a 32-byte hash as an always-unsalted HASH cell.
func NewHashCell(h Hash) Cell {
	return Cell{Type: CellHash, raw: h.Bytes()}
}

// NewStringCell builds a STRING cell from UTF-8 text.
func NewStringCell(s string) (Cell, error) {
	if len(s) > MaxCellBytes {
		return Cell{}, newErr(KindOversize, "string cell: %d > %d", len(s), MaxCellBytes)
	}
	return Cell{Type: CellString, raw: []byte(s)}, nil
}

// NewLongCell builds a LONG cell covering any integral primitive.
func NewLongCell(v int64) Cell {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return Cell{Type: CellLong, raw: b[:]}
}

// NewDoubleCell builds a DOUBLE cell from its bit-exact IEEE-754
// representation. Per §9, float identity across platforms is only safe
// via this bit-exact encoding -- there is no "approximately equal".
func NewDoubleCell(v float64) Cell {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return Cell{Type: CellDouble, raw: b[:]}
}

// NewDateCell builds a DATE cell from a UTC instant, truncated to
// millisecond resolution (§3: "8 bytes, UTC millis").
func NewDateCell(t time.Time) Cell {
	ms := t.UnixMilli()
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(ms))
	return Cell{Type: CellDate, raw: b[:]}
}

// encode returns the typed wire encoding of the cell's value, per §4.3:
//   NULL:   single 0x00 byte
//   LONG/DATE: 8-byte big-endian
//   DOUBLE: 8-byte IEEE-754 big-endian
//   STRING: 4-byte length prefix + UTF-8 bytes
//   BYTES:  2-byte length prefix + bytes
//   HASH:   the 32 raw bytes
func (c Cell) encode() []byte {
	switch c.Type {
	case CellNull:
		return []byte{0x00}
	case CellLong, CellDouble, CellDate:
		return c.raw
	case CellHash:
		return c.raw
	case CellString:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(len(c.raw)))
		out := make([]byte, 0, 4+len(c.raw))
		out = append(out, b[:]...)
		out = append(out, c.raw...)
		return out
	case CellBytes:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(len(c.raw)))
		out := make([]byte, 0, 2+len(c.raw))
		out = append(out, b[:]...)
		out = append(out, c.raw...)
		return out
	default:
		panic("skipledger: unreachable cell type")
	}
}

// unsaltedHash returns H(typed-encoding(value)) -- the hash this cell
// contributes when no salt scheme salts it.
func (c Cell) unsaltedHash(d *Digest) Hash {
	return d.Hash(c.encode())
}

// saltedHash returns H( cellSalt || H(typed-encoding(value)) ).
func (c Cell) saltedHash(d *Digest, cellSalt Hash) Hash {
	uh := c.unsaltedHash(d)
	return d.Hash(cellSalt[:], uh[:])
}
