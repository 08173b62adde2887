// pathpack.go -- PathPack: the minimum serialized data that re-derives
// rowHash for a chosen set of target rows, either in full (every
// stitched row's input hash and referenced row hashes) or condensed
// (ancestor hashes not in the stitched set are aggregated into a
// per-row "funnel"), per §4.5.2.

package skipledger

import "encoding/binary"

// PackType discriminates full from condensed PathPacks. It is also the
// first byte of the serialized hash block (§4.5.1 header byte).
type PackType byte

const (
	FullPack      PackType = 0x00
	CondensedPack PackType = 0x01
)

// PathPack is a compact, self-describing container for the rows needed
// to authenticate preStitchRowNos (§4.5.2). Inputs/Funnels/Refs are
// parallel hash blocks whose per-row consumption order is a pure
// function of the stitched row list, so no extra layout metadata needs
// to travel on the wire.
type PathPack struct {
	PreStitchRowNos []uint64
	Type            PackType
	Inputs          []Hash
	Funnels         []Hash
	Refs            []Hash
}

// classifyLevels classifies, for row r's skip references, which are internal to
// rows (already in R and thus reconstructable from R itself), which are
// the sentinel (row 0), and which are external (must travel in the
// pack). This classification is a pure function of R -- both the
// builder and the verifier compute it identically, so no side-channel
// metadata is required to know how many refs/funnels entries a row
// consumes.
func classifyLevels(r uint64, inR map[uint64]bool) (extPositions []int, levels []uint64) {
	levels = skipRefRows(r)
	for i, ref := range levels {
		if ref != 0 && !inR[ref] {
			extPositions = append(extPositions, i)
		}
	}
	return extPositions, levels
}

func rowSet(rows []uint64) map[uint64]bool {
	m := make(map[uint64]bool, len(rows))
	for _, r := range rows {
		m[r] = true
	}
	return m
}

// ForPath builds a FULL PathPack from an already-materialized ledger
// Path: every level reference not internal to the path's own rows (and
// not the sentinel) is carried individually in Refs, in row-then-level
// order, using the hash the ledger already resolved for us in
// Row.Levels -- no extra ledger queries needed.
func ForPath(path Path) *PathPack {
	rows := path.RowNos()
	inR := rowSet(rows)

	p := &PathPack{
		PreStitchRowNos: rows,
		Type:            FullPack,
		Inputs:          make([]Hash, len(path.Rows)),
	}
	for i, row := range path.Rows {
		p.Inputs[i] = row.InputHash
		ext, _ := classifyLevels(row.RowNo, inR)
		for _, li := range ext {
			p.Refs = append(p.Refs, row.Levels[li])
		}
	}
	return p
}

// reconstruct replays the pack's classification against R, returning
// the fully-resolved Row list for every row in R (Levels populated
// where known, or a precomputed hash carried through for condensed
// funnel rows).
func (p *PathPack) reconstruct() ([]Row, error) {
	rows, err := Stitch(p.PreStitchRowNos)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(p.Inputs) {
		return nil, wrapErr(KindMalformed, nil, "pathpack: stitched %d rows, have %d inputs", len(rows), len(p.Inputs))
	}
	inR := rowSet(rows)

	var d Digest
	rowHashes := make(map[uint64]Hash, len(rows))
	out := make([]Row, len(rows))
	refsIdx, funnelsIdx := 0, 0

	for i, r := range rows {
		ext, levels := classifyLevels(r, inR)
		full := make([]Hash, len(levels))
		for li, ref := range levels {
			switch {
			case ref == 0:
				full[li] = sentinel
			case inR[ref]:
				h, ok := rowHashes[ref]
				if !ok {
					return nil, wrapErr(KindMalformed, nil, "pathpack: row %d needed before row %d was derived", ref, r)
				}
				full[li] = h
			}
		}

		switch {
		case len(ext) == 0:
			// nothing external to fill in

		case p.Type == FullPack:
			for _, li := range ext {
				if refsIdx >= len(p.Refs) {
					return nil, wrapErr(KindMalformed, nil, "pathpack: refs block exhausted at row %d", r)
				}
				full[li] = p.Refs[refsIdx]
				refsIdx++
			}

		case len(ext) == 1:
			if refsIdx >= len(p.Refs) {
				return nil, wrapErr(KindMalformed, nil, "pathpack: refs block exhausted at row %d", r)
			}
			full[ext[0]] = p.Refs[refsIdx]
			refsIdx++

		default: // condensed, >=2 external levels: carried funnel replaces this row's hash entirely
			if funnelsIdx >= len(p.Funnels) {
				return nil, wrapErr(KindMalformed, nil, "pathpack: funnels block exhausted at row %d", r)
			}
			rh := p.Funnels[funnelsIdx]
			funnelsIdx++
			rowHashes[r] = rh
			out[i] = Row{RowNo: r, InputHash: p.Inputs[i], precomputed: &rh}
			continue
		}

		row := Row{RowNo: r, InputHash: p.Inputs[i], Levels: full}
		rowHashes[r] = row.RowHash(&d)
		out[i] = row
	}

	if refsIdx != len(p.Refs) {
		return nil, wrapErr(KindMalformed, nil, "pathpack: %d unused refs entries", len(p.Refs)-refsIdx)
	}
	if funnelsIdx != len(p.Funnels) {
		return nil, wrapErr(KindMalformed, nil, "pathpack: %d unused funnels entries", len(p.Funnels)-funnelsIdx)
	}
	return out, nil
}

// Path reconstructs the Path this pack describes. Row hashes of every
// target in PreStitchRowNos are exact: full packs recompute them
// bottom-up from inputs, condensed packs do the same except where a
// row's pruned levels are replaced by a carried funnel (itself that
// row's true hash, computed once by the builder and trusted from then
// on, the same way a full pack trusts its individually-carried refs).
func (p *PathPack) Path() (Path, error) {
	rows, err := p.reconstruct()
	if err != nil {
		return Path{}, err
	}
	return Path{Rows: rows}, nil
}

// Verify reconstructs the pack and reports whether it decodes to a
// structurally consistent path (no KindMalformed). It does not by
// itself check the result against any externally-known root hash --
// callers that have one (e.g. ledger.RowHash(target)) should compare it
// against Path().Rows[last].RowHash(d) themselves.
func (p *PathPack) Verify() bool {
	_, err := p.reconstruct()
	return err == nil
}

// Condense derives a CONDENSED pack from a full pack: rows with at most
// one external level keep it as a plain ref (the "essential refs" the
// spec calls out); rows needing two or more are collapsed to a single
// funnel carrying that row's own true hash, computed once here via
// bottom-up reconstruction of the full pack.
func (p *PathPack) Condense() (*PathPack, error) {
	if p.Type != FullPack {
		return nil, wrapErr(KindMalformed, nil, "condense: pack is not a full pack")
	}

	rows, err := Stitch(p.PreStitchRowNos)
	if err != nil {
		return nil, err
	}
	inR := rowSet(rows)

	rowHashes, err := p.rowHashesByRecompute(rows, inR)
	if err != nil {
		return nil, err
	}

	out := &PathPack{
		PreStitchRowNos: append([]uint64(nil), p.PreStitchRowNos...),
		Type:            CondensedPack,
		Inputs:          cloneHashes(p.Inputs),
	}

	refsIdx := 0
	for _, r := range rows {
		ext, _ := classifyLevels(r, inR)
		switch len(ext) {
		case 0:
			// nothing consumed
		case 1:
			out.Refs = append(out.Refs, p.Refs[refsIdx])
			refsIdx++
		default:
			out.Funnels = append(out.Funnels, rowHashes[r])
			refsIdx += len(ext)
		}
	}
	return out, nil
}

// rowHashesByRecompute is Condense's helper: it walks the full pack's
// own Refs exactly as reconstruct() would, but always in "full" mode
// (every external level consumed individually), returning every row's
// derived hash so Condense can use it as a funnel value.
func (p *PathPack) rowHashesByRecompute(rows []uint64, inR map[uint64]bool) (map[uint64]Hash, error) {
	var d Digest
	rowHashes := make(map[uint64]Hash, len(rows))
	refsIdx := 0

	for i, r := range rows {
		ext, levels := classifyLevels(r, inR)
		full := make([]Hash, len(levels))
		for li, ref := range levels {
			switch {
			case ref == 0:
				full[li] = sentinel
			case inR[ref]:
				full[li] = rowHashes[ref]
			}
		}
		for _, li := range ext {
			if refsIdx >= len(p.Refs) {
				return nil, wrapErr(KindMalformed, nil, "pathpack: refs block exhausted at row %d", r)
			}
			full[li] = p.Refs[refsIdx]
			refsIdx++
		}
		row := Row{RowNo: r, InputHash: p.Inputs[i], Levels: full}
		rowHashes[r] = row.RowHash(&d)
	}
	return rowHashes, nil
}

// MarshalBinary encodes the pack per §6.2: an 8-byte length, then the
// ascending row-number list (count-prefixed, big-endian); then an 8-byte
// body length and the body: the 1-byte type tag and the concatenated
// inputs/funnels/refs hash blocks.
func (p *PathPack) MarshalBinary() ([]byte, error) {
	nos := encodeRowNos(p.PreStitchRowNos)

	body := make([]byte, 0, 1+len(p.Inputs)*HashSize+len(p.Funnels)*HashSize+len(p.Refs)*HashSize)
	body = append(body, byte(p.Type))
	body = append(body, hashesToBytes(p.Inputs)...)
	body = append(body, hashesToBytes(p.Funnels)...)
	body = append(body, hashesToBytes(p.Refs)...)

	out := make([]byte, 0, 8+len(nos)+8+len(body))
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(nos)))
	out = append(out, lenBuf[:]...)
	out = append(out, nos...)
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(body)))
	out = append(out, lenBuf[:]...)
	out = append(out, body...)
	return out, nil
}

// UnmarshalPathPack decodes a PathPack previously produced by
// MarshalBinary. The three hash blocks are sized from the stitch of the
// decoded row-number list, the same deterministic rule the builder
// used, so the wire format carries no separate section-length fields.
func UnmarshalPathPack(b []byte) (*PathPack, error) {
	if len(b) < 8 {
		return nil, newErr(KindMalformed, "pathpack: truncated")
	}
	nosLen := binary.BigEndian.Uint64(b[:8])
	b = b[8:]
	if uint64(len(b)) < nosLen {
		return nil, newErr(KindMalformed, "pathpack: truncated row-number block")
	}
	nos, err := decodeRowNos(b[:nosLen])
	if err != nil {
		return nil, err
	}
	b = b[nosLen:]

	if len(b) < 8 {
		return nil, newErr(KindMalformed, "pathpack: truncated body length")
	}
	bodyLen := binary.BigEndian.Uint64(b[:8])
	b = b[8:]
	if uint64(len(b)) != bodyLen {
		return nil, newErr(KindMalformed, "pathpack: body length mismatch: header says %d, have %d", bodyLen, len(b))
	}
	if len(b) < 1 {
		return nil, newErr(KindMalformed, "pathpack: missing type byte")
	}

	typ := PackType(b[0])
	if typ != FullPack && typ != CondensedPack {
		return nil, newErr(KindMalformed, "pathpack: unknown type byte %#x", b[0])
	}
	hashBlock := b[1:]
	if len(hashBlock)%HashSize != 0 {
		return nil, newErr(KindMalformed, "pathpack: hash block not a multiple of %d bytes", HashSize)
	}

	rows, err := Stitch(nos)
	if err != nil {
		return nil, err
	}
	inR := rowSet(rows)

	nInputs := len(rows)
	nRefs, nFunnels := 0, 0
	for _, r := range rows {
		ext, _ := classifyLevels(r, inR)
		switch {
		case typ == FullPack:
			nRefs += len(ext)
		case len(ext) == 1:
			nRefs++
		case len(ext) >= 2:
			nFunnels++
		}
	}

	want := (nInputs + nFunnels + nRefs) * HashSize
	if len(hashBlock) != want {
		return nil, newErr(KindMalformed, "pathpack: hash block is %d bytes, expected %d", len(hashBlock), want)
	}

	all := bytesToHashes(hashBlock)
	p := &PathPack{
		PreStitchRowNos: nos,
		Type:            typ,
		Inputs:          cloneHashes(all[:nInputs]),
		Funnels:         cloneHashes(all[nInputs : nInputs+nFunnels]),
		Refs:            cloneHashes(all[nInputs+nFunnels:]),
	}
	return p, nil
}
