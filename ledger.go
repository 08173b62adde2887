// ledger.go -- SkipLedger: the row-hash rule, skip-pointer algebra,
// append/trim, random-access row retrieval, and path construction
// (§4.4). This is the largest and most load-bearing component of the
// core.

package skipledger

import (
	"context"
	"encoding/binary"
	"math/bits"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// skipCount returns 1 + v2(n), the number of skip references row n
// carries (§3). n must be >= 1.
func skipCount(n uint64) int {
	return 1 + bits.TrailingZeros64(n)
}

// skipRefRows returns the row numbers n references, in level order
// (level 0 first): n-1, n-2, n-4, ..., n-2^(skipCount(n)-1). A returned
// value of 0 denotes the abstract row 0 (sentinel hash).
func skipRefRows(n uint64) []uint64 {
	sc := skipCount(n)
	refs := make([]uint64, sc)
	for i := 0; i < sc; i++ {
		refs[i] = n - (uint64(1) << uint(i))
	}
	return refs
}

// highestPow2LE returns the largest power of two <= x, or 0 if x == 0.
func highestPow2LE(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	return uint64(1) << uint(bits.Len64(x)-1)
}

// maxDivisorPow2 returns the largest power of two dividing p, i.e.
// 2^v2(p). Row 0 divides every power of two (it is the abstract root),
// so callers special-case p == 0 themselves.
func maxDivisorPow2(p uint64) uint64 {
	return uint64(1) << uint(bits.TrailingZeros64(p))
}

// stitchStep returns the largest valid forward step from current
// position p toward target (p < target): the largest power of two that
// both divides p (unbounded if p == 0, the abstract root) and does not
// overshoot target.
func stitchStep(p, target uint64) uint64 {
	room := highestPow2LE(target - p)
	if p == 0 {
		return room
	}
	if md := maxDivisorPow2(p); md < room {
		return md
	}
	return room
}

// stitchPair returns the shortest ascending skip path from a to b
// (a <= b), inclusive of b but excluding a itself when a == 0 (the
// abstract root is never a stored row).
func stitchPair(a, b uint64) []uint64 {
	if a == b {
		if a == 0 {
			return nil
		}
		return []uint64{a}
	}
	out := make([]uint64, 0, 8)
	if a > 0 {
		out = append(out, a)
	}
	p := a
	for p < b {
		p += stitchStep(p, b)
		out = append(out, p)
	}
	return out
}

// Stitch returns the ascending, duplicate-free union of the shortest
// skip paths between consecutive elements of targets (and from the
// abstract root to the first target), per §3's stitch property.
// targets must be strictly ascending and >= 1.
func Stitch(targets []uint64) ([]uint64, error) {
	if err := checkAscending(targets); err != nil {
		return nil, err
	}

	out := make([]uint64, 0, len(targets)*2)
	prev := uint64(0)
	for _, t := range targets {
		seg := stitchPair(prev, t)
		for _, r := range seg {
			if len(out) == 0 || out[len(out)-1] != r {
				out = append(out, r)
			}
		}
		prev = t
	}
	return out, nil
}

// Coverage returns the sorted, unique set of row numbers whose row
// hashes are required to recompute rowHash(n) for every n in targets:
// targets themselves, plus every row each target directly references
// (excluding the abstract row 0). Per §3, this is a one-level closure,
// not the transitive ancestry a full Stitch would carry.
func Coverage(targets []uint64) ([]uint64, error) {
	if err := checkAscending(targets); err != nil {
		return nil, err
	}

	set := make(map[uint64]bool, len(targets)*2)
	for _, n := range targets {
		set[n] = true
		for _, ref := range skipRefRows(n) {
			if ref != 0 {
				set[ref] = true
			}
		}
	}
	out := make([]uint64, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func checkAscending(rows []uint64) error {
	prev := uint64(0)
	for i, r := range rows {
		if r < 1 {
			return newErr(KindOutOfRange, "row number must be >= 1, got %d", r)
		}
		if i > 0 && r <= prev {
			return newErr(KindMalformed, "row numbers must be strictly ascending (%d <= %d)", r, prev)
		}
		prev = r
	}
	return nil
}

// Row is the materialized view of one ledger row: its input hash, and
// its level pointers already resolved to the referenced row's hash
// (level i refers to row RowNo - 2^i; the abstract row 0 resolves to
// the sentinel hash).
type Row struct {
	RowNo     uint64
	InputHash Hash
	Levels    []Hash

	// precomputed, when set, is this row's row hash carried directly
	// rather than derivable from Levels -- used when a condensed
	// PathPack prunes a row's levels behind a funnel (pathpack.go).
	precomputed *Hash
}

// SkipCount reports how many skip references this row carries.
func (r Row) SkipCount() int { return len(r.Levels) }

// RowHash recomputes this row's hash per the row-hash rule (§3), or
// returns the carried hash directly if this Row came from a condensed
// PathPack funnel.
func (r Row) RowHash(d *Digest) Hash {
	if r.precomputed != nil {
		return *r.precomputed
	}
	parts := make([][]byte, 0, 1+len(r.Levels))
	ih := r.InputHash
	parts = append(parts, ih[:])
	for _, lv := range r.Levels {
		h := lv
		parts = append(parts, h[:])
	}
	return d.Hash(parts...)
}

// Path is the materialized row list produced by SkipLedger.GetPath: the
// Rows whose row numbers are the stitch of the caller's targets.
type Path struct {
	Rows []Row
}

// RowNos returns the row numbers carried by this path, in order.
func (p Path) RowNos() []uint64 {
	out := make([]uint64, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.RowNo
	}
	return out
}

// SkipLedger persists the hash-only view of an append-only ledger and
// enforces the row-hash rule. It owns its SkipTable exclusively; the
// table is an external collaborator (§6.1), not part of the core's
// algorithm.
type SkipLedger struct {
	mu     sync.RWMutex
	tbl    SkipTable
	size   uint64
	fr     *HashFrontier
	closed bool
}

// Open wraps an existing (possibly empty) SkipTable as a SkipLedger,
// rebuilding its in-memory HashFrontier by reading back however many
// trailing rows are needed (§4.5.1: "reconstructable from a populated
// SkipLedger at any row").
func Open(tbl SkipTable) (*SkipLedger, error) {
	sz, err := tbl.Size()
	if err != nil {
		return nil, wrapErr(KindStorageIO, err, "size")
	}
	l := &SkipLedger{tbl: tbl, size: sz}
	if sz > 0 {
		fr, err := l.rebuildFrontier(sz)
		if err != nil {
			return nil, err
		}
		l.fr = fr
	}
	return l, nil
}

// rebuildFrontier reconstructs the frontier at row n from stored row
// hashes. It must populate levelCount(n) levels, not just skipCount(n):
// the extra "peak" levels beyond n's own skip count aren't needed for
// row n's hash, but a future Next() whose skip count reaches them will
// index into them (see frontier.go's levelCount doc).
func (l *SkipLedger) rebuildFrontier(n uint64) (*HashFrontier, error) {
	lc := levelCount(n)
	levels := make([]levelEntry, lc)
	for i := 0; i < lc; i++ {
		// level i tracks the largest row <= n divisible by 2^i; it is >= 1
		// since n's top bit survives for i < bits.Len64(n)
		ref := n &^ ((uint64(1) << uint(i)) - 1)
		h := sentinel
		if ref != 0 {
			rh, err := l.readRowHashLocked(ref)
			if err != nil {
				return nil, err
			}
			h = rh
		}
		levels[i] = levelEntry{row: ref, hash: h}
	}
	return &HashFrontier{n: n, levels: levels}, nil
}

// Size returns the current number of rows.
func (l *SkipLedger) Size() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

func (l *SkipLedger) checkOpenLocked() error {
	if l.closed {
		return newErr(KindClosed, "ledger is closed")
	}
	return nil
}

// RowHash returns rowHash(n): the sentinel for n == 0, or the stored
// hash for 1 <= n <= size.
func (l *SkipLedger) RowHash(n uint64) (Hash, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.checkOpenLocked(); err != nil {
		return Hash{}, err
	}
	return l.readRowHashLocked(n)
}

func (l *SkipLedger) readRowHashLocked(n uint64) (Hash, error) {
	if n == 0 {
		return sentinel, nil
	}
	if n < 1 || n > l.size {
		return Hash{}, newErr(KindOutOfRange, "row %d out of range [1, %d]", n, l.size)
	}
	rec, err := l.tbl.ReadRow(n - 1)
	if err != nil {
		return Hash{}, wrapErr(KindStorageIO, err, "read row %d", n)
	}
	if len(rec) != RowWidth {
		return Hash{}, newErr(KindMalformed, "row %d: short record (%d bytes)", n, len(rec))
	}
	return HashFromBytes(rec[HashSize:]), nil
}

// InputHash returns the input hash of row n, 1 <= n <= size.
func (l *SkipLedger) InputHash(n uint64) (Hash, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.checkOpenLocked(); err != nil {
		return Hash{}, err
	}
	if n < 1 || n > l.size {
		return Hash{}, newErr(KindOutOfRange, "row %d out of range [1, %d]", n, l.size)
	}
	rec, err := l.tbl.ReadRow(n - 1)
	if err != nil {
		return Hash{}, wrapErr(KindStorageIO, err, "read row %d", n)
	}
	return HashFromBytes(rec[:HashSize]), nil
}

// GetRow returns row n's input hash and resolved level pointers.
func (l *SkipLedger) GetRow(n uint64) (Row, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.checkOpenLocked(); err != nil {
		return Row{}, err
	}
	return l.getRowLocked(n)
}

func (l *SkipLedger) getRowLocked(n uint64) (Row, error) {
	if n < 1 || n > l.size {
		return Row{}, newErr(KindOutOfRange, "row %d out of range [1, %d]", n, l.size)
	}
	rec, err := l.tbl.ReadRow(n - 1)
	if err != nil {
		return Row{}, wrapErr(KindStorageIO, err, "read row %d", n)
	}
	ih := HashFromBytes(rec[:HashSize])

	refs := skipRefRows(n)
	levels := make([]Hash, len(refs))
	for i, ref := range refs {
		h, err := l.readRowHashLocked(ref)
		if err != nil {
			return Row{}, err
		}
		levels[i] = h
	}
	return Row{RowNo: n, InputHash: ih, Levels: levels}, nil
}

// getPathFanoutThreshold is the stitched-row count at or above which GetPath
// fans its row reads out across goroutines instead of reading them one
// at a time. Below it the fan-out's goroutine and errgroup overhead
// costs more than the sequential reads it would save.
const getPathFanoutThreshold = 32

// GetPath returns the Path over the stitch of the (ascending) targets.
// For a large stitched set, the per-row ancestor-hash reads (each
// independent: SkipTable implementations must tolerate concurrent
// ReadRow calls) are fanned out with an errgroup so a slow backend
// doesn't serialize the whole path (§5).
func (l *SkipLedger) GetPath(targets []uint64) (Path, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.checkOpenLocked(); err != nil {
		return Path{}, err
	}

	stitched, err := Stitch(targets)
	if err != nil {
		return Path{}, err
	}
	for _, r := range stitched {
		if r > l.size {
			return Path{}, newErr(KindOutOfRange, "stitched row %d not contained (size %d)", r, l.size)
		}
	}

	rows := make([]Row, len(stitched))
	if len(stitched) < getPathFanoutThreshold {
		for i, r := range stitched {
			row, err := l.getRowLocked(r)
			if err != nil {
				return Path{}, err
			}
			rows[i] = row
		}
		return Path{Rows: rows}, nil
	}

	g, _ := errgroup.WithContext(context.Background())
	for i, r := range stitched {
		i, r := i, r
		g.Go(func() error {
			row, err := l.getRowLocked(r)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Path{}, err
	}
	return Path{Rows: rows}, nil
}

// StatePath returns the stitch of {1, size}: the minimal proof that the
// ledger's current state is consistent from its first row.
func (l *SkipLedger) StatePath() (Path, error) {
	l.mu.RLock()
	sz := l.size
	l.mu.RUnlock()
	if sz == 0 {
		return Path{}, newErr(KindOutOfRange, "empty ledger has no state path")
	}
	return l.GetPath([]uint64{1, sz})
}

// SkipPath returns the stitch of {lo, hi}.
func (l *SkipLedger) SkipPath(lo, hi uint64) (Path, error) {
	if lo == hi {
		return l.GetPath([]uint64{lo})
	}
	return l.GetPath([]uint64{lo, hi})
}

// Append adds a block of input hashes as new rows and returns the new
// size. The whole block is atomic: either every row becomes visible or
// none does. A concurrent Append/Trim/Close in flight fails fast with
// KindConcurrent rather than blocking.
func (l *SkipLedger) Append(inputHashes []Hash) (uint64, error) {
	if len(inputHashes) == 0 {
		return l.Size(), nil
	}
	if !l.mu.TryLock() {
		return 0, newErr(KindConcurrent, "append: another mutator is active")
	}
	defer l.mu.Unlock()

	if err := l.checkOpenLocked(); err != nil {
		return 0, err
	}

	var d Digest
	fr := l.fr
	n := l.size
	buf := make([]byte, 0, len(inputHashes)*RowWidth)

	for _, ih := range inputHashes {
		var rh Hash
		if fr == nil {
			fr = firstFrontier(ih, &d)
		} else {
			fr = fr.next(ih, &d)
		}
		n++
		rh = fr.row()

		var rec [RowWidth]byte
		copy(rec[:HashSize], ih[:])
		copy(rec[HashSize:], rh[:])
		buf = append(buf, rec[:]...)
	}

	newSize, err := l.tbl.AddRows(buf, l.size)
	if err != nil {
		return 0, wrapErr(KindStorageIO, err, "append %d rows", len(inputHashes))
	}
	if newSize != n {
		return 0, newErr(KindStorageIO, "append: table reports size %d, expected %d", newSize, n)
	}

	l.size = n
	l.fr = fr
	return l.size, nil
}

// Trim truncates the ledger to newSize <= size. It is idempotent on the
// stored prefix: trimming twice to the same size is the same as once,
// and appending the original suffix afterward reproduces identical
// hashes (§8 property 6).
func (l *SkipLedger) Trim(newSize uint64) error {
	if !l.mu.TryLock() {
		return newErr(KindConcurrent, "trim: another mutator is active")
	}
	defer l.mu.Unlock()

	if err := l.checkOpenLocked(); err != nil {
		return err
	}
	if newSize > l.size {
		return newErr(KindOutOfRange, "trim size %d exceeds ledger size %d", newSize, l.size)
	}
	if newSize == l.size {
		return nil
	}
	if err := l.tbl.TrimSize(newSize); err != nil {
		return wrapErr(KindStorageIO, err, "trim to %d", newSize)
	}

	l.size = newSize
	if newSize == 0 {
		l.fr = nil
		return nil
	}
	fr, err := l.rebuildFrontier(newSize)
	if err != nil {
		return err
	}
	l.fr = fr
	return nil
}

// Close releases the underlying table. Close is a mutator: it is
// mutually exclusive with Append/Trim.
func (l *SkipLedger) Close() error {
	if !l.mu.TryLock() {
		return newErr(KindConcurrent, "close: another mutator is active")
	}
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.tbl.Close(); err != nil {
		return wrapErr(KindStorageIO, err, "close")
	}
	return nil
}

// encodeRowNos big-endian-encodes an ascending row-number list, count
// prefixed, per §6.2's preStitchRowNos wire format.
func encodeRowNos(rows []uint64) []byte {
	out := make([]byte, 8+8*len(rows))
	binary.BigEndian.PutUint64(out[:8], uint64(len(rows)))
	for i, r := range rows {
		binary.BigEndian.PutUint64(out[8+8*i:8+8*i+8], r)
	}
	return out
}

func decodeRowNos(b []byte) ([]uint64, error) {
	if len(b) < 8 {
		return nil, newErr(KindMalformed, "row-number list: short header")
	}
	n := binary.BigEndian.Uint64(b[:8])
	want := 8 + 8*n
	if uint64(len(b)) != want {
		return nil, newErr(KindMalformed, "row-number list: expected %d bytes, got %d", want, len(b))
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint64(b[8+8*i : 16+8*i])
	}
	return out, nil
}
