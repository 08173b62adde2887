// memtable.go -- in-memory skipledger.SkipTable, for tests and
// short-lived ledgers that never need to survive a process restart.

package store

import (
	"fmt"
	"sync"
)

// MemTable is an in-memory, fixed-width row store.
type MemTable struct {
	mu   sync.Mutex
	rows [][]byte
}

// NewMemTable returns an empty MemTable.
func NewMemTable() *MemTable {
	return &MemTable{}
}

func (m *MemTable) Size() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.rows)), nil
}

func (m *MemTable) AddRows(b []byte, atIndex uint64) (uint64, error) {
	if len(b)%rowWidth != 0 {
		return 0, fmt.Errorf("memtable: %d bytes is not a multiple of %d", len(b), rowWidth)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if atIndex != uint64(len(m.rows)) {
		return 0, fmt.Errorf("memtable: addRows at %d, expected %d", atIndex, len(m.rows))
	}
	for i := 0; i*rowWidth < len(b); i++ {
		row := make([]byte, rowWidth)
		copy(row, b[i*rowWidth:(i+1)*rowWidth])
		m.rows = append(m.rows, row)
	}
	return uint64(len(m.rows)), nil
}

func (m *MemTable) ReadRow(index uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= uint64(len(m.rows)) {
		return nil, fmt.Errorf("memtable: index %d out of range [0, %d)", index, len(m.rows))
	}
	out := make([]byte, rowWidth)
	copy(out, m.rows[index])
	return out, nil
}

func (m *MemTable) TrimSize(newSize uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if newSize > uint64(len(m.rows)) {
		return fmt.Errorf("memtable: trim size %d exceeds size %d", newSize, len(m.rows))
	}
	m.rows = m.rows[:newSize]
	return nil
}

func (m *MemTable) Close() error { return nil }
