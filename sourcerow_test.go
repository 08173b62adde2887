// sourcerow_test.go -- test suite for SourceRow: input-hash composition
// rules and the DOUBLE-under-salting rejection (§9 Open Question).

package skipledger

import "testing"

func TestSourceRowSingleCellShortcut(t *testing.T) {
	assert := newAsserter(t)

	c, err := NewStringCell("only-cell")
	assert(err == nil, "cell: %s", err)
	row, err := NewSourceRow(1, NoSaltScheme(), []Cell{c})
	assert(err == nil, "sourcerow: %s", err)

	var d Digest
	want := c.unsaltedHash(&d)
	got, err := row.InputHash(NullSalter())
	assert(err == nil, "inputhash: %s", err)
	assert(got == want, "single-cell row did not shortcut to the cell's own hash")
}

func TestSourceRowMultiCellConcatenation(t *testing.T) {
	assert := newAsserter(t)

	c1, err := NewStringCell("a")
	assert(err == nil, "cell: %s", err)
	c2, err := NewStringCell("b")
	assert(err == nil, "cell: %s", err)
	row, err := NewSourceRow(1, NoSaltScheme(), []Cell{c1, c2})
	assert(err == nil, "sourcerow: %s", err)

	var d Digest
	h1 := c1.unsaltedHash(&d)
	h2 := c2.unsaltedHash(&d)
	want := d.Hash(h1[:], h2[:])

	got, err := row.InputHash(NullSalter())
	assert(err == nil, "inputhash: %s", err)
	assert(got == want, "multi-cell row hash does not match H(cellHash...)")
}

func TestSourceRowRejectsZeroRowNumber(t *testing.T) {
	assert := newAsserter(t)
	c, _ := NewStringCell("x")
	_, err := NewSourceRow(0, NoSaltScheme(), []Cell{c})
	assert(err != nil, "accepted row number 0")
}

func TestSourceRowRejectsSaltedDoubleCell(t *testing.T) {
	assert := newAsserter(t)
	c := NewDoubleCell(3.14)
	_, err := NewSourceRow(1, SaltAllScheme(), []Cell{c})
	assert(err != nil, "accepted a DOUBLE cell under a salting scheme that would salt it")

	_, err = NewSourceRow(1, NoSaltScheme(), []Cell{c})
	assert(err == nil, "rejected a DOUBLE cell under NO_SALT, where it is never salted")
}

func TestSourceRowSaltOnlyAndSaltExcept(t *testing.T) {
	assert := newAsserter(t)

	c1, _ := NewStringCell("a")
	c2, _ := NewStringCell("b")
	only := SaltOnlyScheme(0)
	except := SaltExceptScheme(0)

	assert(only.isSalted(0, CellString) && !only.isSalted(1, CellString), "SaltOnlyScheme(0) salted the wrong indices")
	assert(!except.isSalted(0, CellString) && except.isSalted(1, CellString), "SaltExceptScheme(0) salted the wrong indices")
	_ = c1
	_ = c2
}

func TestSourceRowEqualIgnoresSaltedValue(t *testing.T) {
	assert := newAsserter(t)

	c, _ := NewStringCell("x")
	a, err := NewSourceRow(1, NoSaltScheme(), []Cell{c})
	assert(err == nil, "sourcerow: %s", err)
	b, err := NewSourceRow(1, NoSaltScheme(), []Cell{c})
	assert(err == nil, "sourcerow: %s", err)
	assert(a.Equal(b), "structurally identical rows reported unequal")

	d, err := NewSourceRow(1, SaltAllScheme(), []Cell{c})
	assert(err == nil, "sourcerow: %s", err)
	assert(!a.Equal(d), "rows with different salt schemes reported equal")
}
