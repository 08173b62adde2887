// memtable_test.go -- test suite for MemTable.

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemTableAddAndRead(t *testing.T) {
	m := NewMemTable()

	row := make([]byte, rowWidth)
	row[0] = 0xab
	n, err := m.AddRows(row, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	got, err := m.ReadRow(0)
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func TestMemTableRejectsOutOfOrderAppend(t *testing.T) {
	m := NewMemTable()
	row := make([]byte, rowWidth)
	_, err := m.AddRows(row, 1)
	assert.Error(t, err)
}

func TestMemTableRejectsMisalignedPayload(t *testing.T) {
	m := NewMemTable()
	_, err := m.AddRows(make([]byte, rowWidth-1), 0)
	assert.Error(t, err)
}

func TestMemTableTrim(t *testing.T) {
	m := NewMemTable()
	buf := make([]byte, rowWidth*3)
	_, err := m.AddRows(buf, 0)
	require.NoError(t, err)

	require.NoError(t, m.TrimSize(1))
	sz, err := m.Size()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sz)

	_, err = m.ReadRow(1)
	assert.Error(t, err)
}

func TestMemTableReadRowOutOfRange(t *testing.T) {
	m := NewMemTable()
	_, err := m.ReadRow(0)
	assert.Error(t, err)
}
