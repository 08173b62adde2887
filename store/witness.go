// witness.go -- WitnessRepo implementations: an ordered row-number to
// opaque crumtrail mapping (§6.1). MemWitnessRepo backs tests and
// short-lived use; FileWitnessRepo is a sequential append log read back
// into an in-memory offset index at open, the same two-pass shape the
// teacher uses to validate a constant database before trusting random
// access into it.

package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// MemWitnessRepo is an in-memory WitnessRepo.
type MemWitnessRepo struct {
	mu     sync.Mutex
	rowNos []uint64
	trails [][]byte
}

// NewMemWitnessRepo returns an empty MemWitnessRepo.
func NewMemWitnessRepo() *MemWitnessRepo {
	return &MemWitnessRepo{}
}

func (r *MemWitnessRepo) IDs() ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.rowNos))
	copy(out, r.rowNos)
	return out, nil
}

func (r *MemWitnessRepo) PutTrail(trail []byte, rowNo uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rowNos) > 0 && rowNo <= r.rowNos[len(r.rowNos)-1] {
		return fmt.Errorf("memwitness: row %d is not after last %d", rowNo, r.rowNos[len(r.rowNos)-1])
	}
	r.rowNos = append(r.rowNos, rowNo)
	cp := make([]byte, len(trail))
	copy(cp, trail)
	r.trails = append(r.trails, cp)
	return nil
}

func (r *MemWitnessRepo) Trail(index uint64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= uint64(len(r.trails)) {
		return nil, fmt.Errorf("memwitness: index %d out of range [0, %d)", index, len(r.trails))
	}
	out := make([]byte, len(r.trails[index]))
	copy(out, r.trails[index])
	return out, nil
}

func (r *MemWitnessRepo) TrimSize(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > uint64(len(r.rowNos)) {
		return fmt.Errorf("memwitness: trim size %d exceeds size %d", n, len(r.rowNos))
	}
	r.rowNos = r.rowNos[:n]
	r.trails = r.trails[:n]
	return nil
}

func (r *MemWitnessRepo) TrimByRowNumber(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := 0
	for i < len(r.rowNos) && r.rowNos[i] <= n {
		i++
	}
	r.rowNos = r.rowNos[:i]
	r.trails = r.trails[:i]
	return nil
}

// witnessEntry indexes one record of a FileWitnessRepo: its byte offset
// and length within the log, keyed by position.
type witnessEntry struct {
	rowNo uint64
	off   int64
	size  int64
}

// FileWitnessRepo is a file-backed WitnessRepo: a sequential append log
// of (rowNo, length, trail) records. The full index (rowNo -> offset) is
// rebuilt by a single scan at open time and held in memory; trail bytes
// themselves are read back from disk on demand.
type FileWitnessRepo struct {
	mu      sync.Mutex
	fd      *os.File
	entries []witnessEntry
	tail    int64 // current file size, next record's offset
}

// OpenFileWitnessRepo opens (or creates) a FileWitnessRepo at path,
// replaying its append log to rebuild the in-memory index.
func OpenFileWitnessRepo(path string) (*FileWitnessRepo, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	r := &FileWitnessRepo{fd: fd}
	if err := r.replay(); err != nil {
		fd.Close()
		return nil, err
	}
	return r, nil
}

func (r *FileWitnessRepo) replay() error {
	var off int64
	for {
		var hdr [12]byte
		n, err := r.fd.ReadAt(hdr[:], off)
		if err == io.EOF && n == 0 {
			break
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("filewitness: replay: %w", err)
		}
		if n < 12 {
			return fmt.Errorf("filewitness: truncated record header at offset %d", off)
		}
		rowNo := binary.BigEndian.Uint64(hdr[:8])
		size := binary.BigEndian.Uint32(hdr[8:12])
		r.entries = append(r.entries, witnessEntry{rowNo: rowNo, off: off + 12, size: int64(size)})
		off += 12 + int64(size)
	}
	r.tail = off
	return nil
}

func (r *FileWitnessRepo) IDs() ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.rowNo
	}
	return out, nil
}

func (r *FileWitnessRepo) PutTrail(trail []byte, rowNo uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) > 0 && rowNo <= r.entries[len(r.entries)-1].rowNo {
		return fmt.Errorf("filewitness: row %d is not after last %d", rowNo, r.entries[len(r.entries)-1].rowNo)
	}
	if len(trail) > 0xffffffff {
		return fmt.Errorf("filewitness: trail too large: %d bytes", len(trail))
	}

	var hdr [12]byte
	binary.BigEndian.PutUint64(hdr[:8], rowNo)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(trail)))
	buf := append(hdr[:], trail...)

	if _, err := r.fd.WriteAt(buf, r.tail); err != nil {
		return fmt.Errorf("filewitness: write: %w", err)
	}
	r.entries = append(r.entries, witnessEntry{rowNo: rowNo, off: r.tail + 12, size: int64(len(trail))})
	r.tail += int64(len(buf))
	return nil
}

func (r *FileWitnessRepo) Trail(index uint64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= uint64(len(r.entries)) {
		return nil, fmt.Errorf("filewitness: index %d out of range [0, %d)", index, len(r.entries))
	}
	e := r.entries[index]
	out := make([]byte, e.size)
	if _, err := io.ReadFull(io.NewSectionReader(r.fd, e.off, e.size), out); err != nil {
		return nil, fmt.Errorf("filewitness: read trail %d: %w", index, err)
	}
	return out, nil
}

// TrimSize truncates the repo to its first n entries: the index is cut
// and the log file is truncated after the last kept record, so a reopen
// does not replay the dropped records.
func (r *FileWitnessRepo) TrimSize(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > uint64(len(r.entries)) {
		return fmt.Errorf("filewitness: trim size %d exceeds size %d", n, len(r.entries))
	}
	var tail int64
	if n > 0 {
		tail = r.entries[n-1].off + r.entries[n-1].size
	}
	if err := r.fd.Truncate(tail); err != nil {
		return fmt.Errorf("filewitness: truncate: %w", err)
	}
	r.entries = r.entries[:n]
	r.tail = tail
	return nil
}

// TrimByRowNumber truncates the repo to entries with row number <= n,
// cutting both the index and the log file.
func (r *FileWitnessRepo) TrimByRowNumber(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := 0
	for i < len(r.entries) && r.entries[i].rowNo <= n {
		i++
	}
	var tail int64
	if i > 0 {
		tail = r.entries[i-1].off + r.entries[i-1].size
	}
	if err := r.fd.Truncate(tail); err != nil {
		return fmt.Errorf("filewitness: truncate: %w", err)
	}
	r.entries = r.entries[:i]
	r.tail = tail
	return nil
}

// Close releases the file descriptor.
func (r *FileWitnessRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fd.Close()
}
