// notarized_test.go -- test suite for NotarizedRow, Morsel, and Bundle
// (§6.2).

package skipledger

import "testing"

func mkCrum(b byte) []byte {
	c := make([]byte, CrumSize)
	for i := range c {
		c[i] = b
	}
	return c
}

func TestNotarizedRowSingleCrumRoundTrip(t *testing.T) {
	assert := newAsserter(t)

	nr, err := NewNotarizedRow(11, [][]byte{mkCrum(0xaa)})
	assert(err == nil, "newnotarizedrow: %s", err)
	assert(!nr.IsCargoProof(), "single-crum row reported as cargo proof")

	b, err := nr.MarshalBinary()
	assert(err == nil, "marshal: %s", err)

	got, err := UnmarshalNotarizedRow(b)
	assert(err == nil, "unmarshal: %s", err)
	assert(got.RowNo == 11, "rowno mismatch: %d", got.RowNo)
	assert(len(got.Crums) == 1, "crum count mismatch: %d", len(got.Crums))
}

func TestNotarizedRowCargoProofRoundTrip(t *testing.T) {
	assert := newAsserter(t)

	nr, err := NewNotarizedRow(11, [][]byte{mkCrum(1), mkCrum(2), mkCrum(3)})
	assert(err == nil, "newnotarizedrow: %s", err)
	assert(nr.IsCargoProof(), "3-crum row not reported as cargo proof")

	b, err := nr.MarshalBinary()
	assert(err == nil, "marshal: %s", err)
	got, err := UnmarshalNotarizedRow(b)
	assert(err == nil, "unmarshal: %s", err)
	assert(len(got.Crums) == 3, "crum count mismatch: %d", len(got.Crums))
	for i := range got.Crums {
		assert(string(got.Crums[i]) == string(nr.Crums[i]), "crum %d mismatch after round trip", i)
	}
}

func TestNotarizedRowRejectsWrongCrumWidth(t *testing.T) {
	assert := newAsserter(t)
	_, err := NewNotarizedRow(1, [][]byte{make([]byte, CrumSize-1)})
	assert(err != nil, "accepted a crum of the wrong width")
}

func TestMorselRejectsReservedPrefix(t *testing.T) {
	assert := newAsserter(t)
	m := NewMorsel()
	err := m.Put("/crums/whatever", []byte("x"))
	assert(err != nil, "Put accepted a caller section under the reserved /crums/ prefix")
}

func TestMorselPutCrumsAndRetrieve(t *testing.T) {
	assert := newAsserter(t)

	m := NewMorsel()
	nr, err := NewNotarizedRow(5, [][]byte{mkCrum(7)})
	assert(err == nil, "newnotarizedrow: %s", err)
	assert(m.PutCrums(nr) == nil, "putcrums failed")

	got, ok, err := m.Crums(5)
	assert(err == nil, "crums: %s", err)
	assert(ok, "crums(5) not found after PutCrums")
	assert(got.RowNo == 5, "rowno mismatch")

	_, ok, err = m.Crums(6)
	assert(err == nil, "crums: %s", err)
	assert(!ok, "crums(6) unexpectedly found")
}

func TestMorselRoundTripAndOrdering(t *testing.T) {
	assert := newAsserter(t)

	m := NewMorsel()
	assert(m.Put("zzz", []byte("last")) == nil, "put zzz")
	assert(m.Put("aaa", []byte("first")) == nil, "put aaa")

	b, err := m.MarshalBinary()
	assert(err == nil, "marshal: %s", err)

	got, err := UnmarshalMorsel(b)
	assert(err == nil, "unmarshal: %s", err)

	names := got.Names()
	assert(len(names) == 2 && names[0] == "aaa" && names[1] == "zzz", "names not in lexicographic order: %v", names)

	data, ok := got.Section("aaa")
	assert(ok && string(data) == "first", "section aaa did not round trip")
}

func TestBundleRoundTripAndOrdering(t *testing.T) {
	assert := newAsserter(t)

	m1 := NewMorsel()
	assert(m1.Put("x", []byte("one")) == nil, "put")
	m2 := NewMorsel()
	assert(m2.Put("y", []byte("two")) == nil, "put")

	bd := NewBundle()
	assert(bd.Put("second", m2) == nil, "bundle put")
	assert(bd.Put("first", m1) == nil, "bundle put")

	b, err := bd.MarshalBinary()
	assert(err == nil, "marshal: %s", err)

	got, err := UnmarshalBundle(b)
	assert(err == nil, "unmarshal: %s", err)

	names := got.Names()
	assert(len(names) == 2 && names[0] == "first" && names[1] == "second", "bundle names not ordered: %v", names)

	gm, ok := got.Morsel("first")
	assert(ok, "morsel 'first' missing after round trip")
	data, ok := gm.Section("x")
	assert(ok && string(data) == "one", "nested morsel section did not round trip")
}
