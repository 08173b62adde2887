// notarized.go -- NotarizedRow (a row hash bound to an external
// timechain via an opaque crumtrail) and Morsel/Bundle, the portable
// containers that carry source rows, path packs, and witness records
// across parties (§6.2).

package skipledger

import (
	"encoding/binary"
	"sort"
	"strings"
)

// CrumSize is the fixed width of one crum record: an opaque witness
// leaf the core never interprets beyond its length. A production
// deployment's crumtrail client defines the actual encoding (typically
// a hash, a timechain block reference, and a timestamp); the core only
// needs to move the bytes around intact.
const CrumSize = 48

// NotarizedRow binds a row number to one or more crum records (§6.2).
// cc == 1 is the historical single-crum encoding; cc >= 2 is a
// Merkle-style cargo proof whose leaves are the crum records. Both
// forms are accepted on read for backward compatibility (§9 open
// question); the core never normalizes one into the other.
type NotarizedRow struct {
	RowNo uint64
	Crums [][]byte // each exactly CrumSize bytes
}

// NewNotarizedRow validates rowNo and crum widths and returns a
// NotarizedRow ready for MarshalBinary.
func NewNotarizedRow(rowNo uint64, crums [][]byte) (*NotarizedRow, error) {
	if rowNo < 1 {
		return nil, newErr(KindOutOfRange, "notarized row: row number must be >= 1")
	}
	if len(crums) == 0 {
		return nil, newErr(KindMalformed, "notarized row: needs at least one crum")
	}
	for i, c := range crums {
		if len(c) != CrumSize {
			return nil, newErr(KindMalformed, "notarized row: crum %d is %d bytes, want %d", i, len(c), CrumSize)
		}
	}
	return &NotarizedRow{RowNo: rowNo, Crums: crums}, nil
}

// MarshalBinary encodes the row per §6.2: 8-byte row number, 4-byte crum
// count, then the concatenated crum records.
func (n *NotarizedRow) MarshalBinary() ([]byte, error) {
	out := make([]byte, 12+len(n.Crums)*CrumSize)
	binary.BigEndian.PutUint64(out[:8], n.RowNo)
	binary.BigEndian.PutUint32(out[8:12], uint32(len(n.Crums)))
	for i, c := range n.Crums {
		copy(out[12+i*CrumSize:12+(i+1)*CrumSize], c)
	}
	return out, nil
}

// UnmarshalNotarizedRow decodes a NotarizedRow previously produced by
// MarshalBinary, accepting both the single-crum and cargo-proof forms.
func UnmarshalNotarizedRow(b []byte) (*NotarizedRow, error) {
	if len(b) < 12 {
		return nil, newErr(KindMalformed, "notarized row: truncated header")
	}
	rowNo := binary.BigEndian.Uint64(b[:8])
	cc := binary.BigEndian.Uint32(b[8:12])
	if rowNo < 1 {
		return nil, newErr(KindOutOfRange, "notarized row: row number must be >= 1")
	}
	if cc == 0 {
		return nil, newErr(KindMalformed, "notarized row: crum count is zero")
	}
	want := 12 + int(cc)*CrumSize
	if len(b) != want {
		return nil, newErr(KindMalformed, "notarized row: expected %d bytes, got %d", want, len(b))
	}
	crums := make([][]byte, cc)
	for i := range crums {
		c := make([]byte, CrumSize)
		copy(c, b[12+i*CrumSize:12+(i+1)*CrumSize])
		crums[i] = c
	}
	return &NotarizedRow{RowNo: rowNo, Crums: crums}, nil
}

// IsCargoProof reports whether this row carries a multi-leaf Merkle-style
// cargo proof rather than a single crum record.
func (n *NotarizedRow) IsCargoProof() bool { return len(n.Crums) >= 2 }

// crumsPrefix is the reserved section-name prefix for NotarizedRow
// sections inside a Morsel (§6.2): "only /crums/... is system-reserved".
const crumsPrefix = "/crums/"

// Morsel is a portable collection of named byte sections (§6.2):
// source rows, path packs, witness records. Section names are unique;
// the reserved /crums/ prefix is populated only via PutCrums, never via
// Put, so caller-supplied sections can never collide with it.
type Morsel struct {
	sections map[string][]byte
}

// NewMorsel returns an empty Morsel.
func NewMorsel() *Morsel {
	return &Morsel{sections: make(map[string][]byte)}
}

// Put adds a caller-named section. name must not begin with the
// reserved /crums/ prefix.
func (m *Morsel) Put(name string, data []byte) error {
	if strings.HasPrefix(name, crumsPrefix) {
		return newErr(KindBadType, "morsel: section name %q uses the reserved /crums/ prefix", name)
	}
	if _, exists := m.sections[name]; exists {
		return newErr(KindMalformed, "morsel: section %q already present", name)
	}
	m.sections[name] = data
	return nil
}

// PutCrums records nr under its reserved section name. Unlike Put, this
// is the only path that may write under /crums/.
func (m *Morsel) PutCrums(nr *NotarizedRow) error {
	b, err := nr.MarshalBinary()
	if err != nil {
		return err
	}
	name := crumsSectionName(nr.RowNo)
	m.sections[name] = b
	return nil
}

func crumsSectionName(rowNo uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], rowNo)
	return crumsPrefix + string(buf[:])
}

// Section returns the named section and whether it was present.
func (m *Morsel) Section(name string) ([]byte, bool) {
	b, ok := m.sections[name]
	return b, ok
}

// Crums returns the NotarizedRow recorded for rowNo, if any.
func (m *Morsel) Crums(rowNo uint64) (*NotarizedRow, bool, error) {
	b, ok := m.sections[crumsSectionName(rowNo)]
	if !ok {
		return nil, false, nil
	}
	nr, err := UnmarshalNotarizedRow(b)
	if err != nil {
		return nil, false, err
	}
	return nr, true, nil
}

// Names returns every section name in lexicographic order (§6.2).
func (m *Morsel) Names() []string {
	out := make([]string, 0, len(m.sections))
	for k := range m.sections {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalBinary encodes the morsel as a 4-byte section count followed
// by, for each section in lexicographic order: a 2-byte name length, the
// name, an 8-byte data length, and the data.
func (m *Morsel) MarshalBinary() ([]byte, error) {
	names := m.Names()
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(names)))
	for _, name := range names {
		data := m.sections[name]
		if len(name) > 0xffff {
			return nil, newErr(KindOversize, "morsel: section name %q too long", name)
		}
		hdr := make([]byte, 2+len(name)+8)
		binary.BigEndian.PutUint16(hdr[:2], uint16(len(name)))
		copy(hdr[2:2+len(name)], name)
		binary.BigEndian.PutUint64(hdr[2+len(name):], uint64(len(data)))
		out = append(out, hdr...)
		out = append(out, data...)
	}
	return out, nil
}

// UnmarshalMorsel decodes a Morsel previously produced by MarshalBinary.
func UnmarshalMorsel(b []byte) (*Morsel, error) {
	if len(b) < 4 {
		return nil, newErr(KindMalformed, "morsel: truncated header")
	}
	count := binary.BigEndian.Uint32(b[:4])
	b = b[4:]

	m := NewMorsel()
	prev := ""
	for i := uint32(0); i < count; i++ {
		if len(b) < 2 {
			return nil, newErr(KindMalformed, "morsel: truncated section %d name length", i)
		}
		nameLen := int(binary.BigEndian.Uint16(b[:2]))
		b = b[2:]
		if len(b) < nameLen+8 {
			return nil, newErr(KindMalformed, "morsel: truncated section %d", i)
		}
		name := string(b[:nameLen])
		b = b[nameLen:]
		dataLen := binary.BigEndian.Uint64(b[:8])
		b = b[8:]
		if uint64(len(b)) < dataLen {
			return nil, newErr(KindMalformed, "morsel: truncated section %d data", i)
		}
		data := make([]byte, dataLen)
		copy(data, b[:dataLen])
		b = b[dataLen:]

		if name <= prev && i > 0 {
			return nil, newErr(KindMalformed, "morsel: sections not in lexicographic order at %q", name)
		}
		prev = name
		m.sections[name] = data
	}
	if len(b) != 0 {
		return nil, newErr(KindMalformed, "morsel: %d trailing bytes", len(b))
	}
	return m, nil
}

// Bundle is a named collection of Morsels: the unit exchanged between
// parties when more than one logical group of sections (e.g. one per
// source table, or one per counterparty) needs to travel together.
// Bundle names, like Morsel section names, are ordered lexicographically
// on the wire.
type Bundle struct {
	morsels map[string]*Morsel
}

// NewBundle returns an empty Bundle.
func NewBundle() *Bundle {
	return &Bundle{morsels: make(map[string]*Morsel)}
}

// Put adds a named Morsel to the bundle.
func (bd *Bundle) Put(name string, m *Morsel) error {
	if _, exists := bd.morsels[name]; exists {
		return newErr(KindMalformed, "bundle: morsel %q already present", name)
	}
	bd.morsels[name] = m
	return nil
}

// Morsel returns the named Morsel and whether it was present.
func (bd *Bundle) Morsel(name string) (*Morsel, bool) {
	m, ok := bd.morsels[name]
	return m, ok
}

// Names returns every morsel name in lexicographic order.
func (bd *Bundle) Names() []string {
	out := make([]string, 0, len(bd.morsels))
	for k := range bd.morsels {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalBinary encodes the bundle as a 4-byte morsel count followed by,
// for each morsel in lexicographic order: a 2-byte name length, the
// name, an 8-byte body length, and the morsel's own MarshalBinary output.
func (bd *Bundle) MarshalBinary() ([]byte, error) {
	names := bd.Names()
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(names)))
	for _, name := range names {
		body, err := bd.morsels[name].MarshalBinary()
		if err != nil {
			return nil, err
		}
		if len(name) > 0xffff {
			return nil, newErr(KindOversize, "bundle: morsel name %q too long", name)
		}
		hdr := make([]byte, 2+len(name)+8)
		binary.BigEndian.PutUint16(hdr[:2], uint16(len(name)))
		copy(hdr[2:2+len(name)], name)
		binary.BigEndian.PutUint64(hdr[2+len(name):], uint64(len(body)))
		out = append(out, hdr...)
		out = append(out, body...)
	}
	return out, nil
}

// UnmarshalBundle decodes a Bundle previously produced by MarshalBinary.
func UnmarshalBundle(b []byte) (*Bundle, error) {
	if len(b) < 4 {
		return nil, newErr(KindMalformed, "bundle: truncated header")
	}
	count := binary.BigEndian.Uint32(b[:4])
	b = b[4:]

	bd := NewBundle()
	prev := ""
	for i := uint32(0); i < count; i++ {
		if len(b) < 2 {
			return nil, newErr(KindMalformed, "bundle: truncated morsel %d name length", i)
		}
		nameLen := int(binary.BigEndian.Uint16(b[:2]))
		b = b[2:]
		if len(b) < nameLen+8 {
			return nil, newErr(KindMalformed, "bundle: truncated morsel %d", i)
		}
		name := string(b[:nameLen])
		b = b[nameLen:]
		bodyLen := binary.BigEndian.Uint64(b[:8])
		b = b[8:]
		if uint64(len(b)) < bodyLen {
			return nil, newErr(KindMalformed, "bundle: truncated morsel %d body", i)
		}
		body := b[:bodyLen]
		b = b[bodyLen:]

		if name <= prev && i > 0 {
			return nil, newErr(KindMalformed, "bundle: morsels not in lexicographic order at %q", name)
		}
		prev = name
		m, err := UnmarshalMorsel(body)
		if err != nil {
			return nil, err
		}
		bd.morsels[name] = m
	}
	if len(b) != 0 {
		return nil, newErr(KindMalformed, "bundle: %d trailing bytes", len(b))
	}
	return bd, nil
}
