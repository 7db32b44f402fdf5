// Package alnio adapts BAM-backed alignment data to the narrow Read shapes
// vargen (C7) and caller (C10) consume, keeping the biogo/hts dependency
// confined to this one package per spec.md §6 "Alignment provider".
// Grounded on encoding/bamprovider/provider.go's Provider/Iterator
// interfaces (samples/possible-regions/fetch-reads surface) and
// encoding/bam/record.go's sam.Record handling idiom, scaled down from
// bamprovider's shard/PAM-or-BAM generality to a single-BAM-file reader
// since this port targets BAM input only (spec.md Non-goals exclude PAM).
package alnio

import (
	"io"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/caller"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/vargen"
	"github.com/grailbio/varcall/varcallerrors"
)

// rgTag is the two-letter BAM tag identifying a read's read group, per
// encoding/bam/unmarshal.go's tag parsing and markduplicates/helpers.go's
// getReadGroup.
var rgTag = sam.NewTag("RG")

// Reader opens a single BAM file and exposes its alignments through the
// narrow surface the rest of this module needs, mirroring
// bamprovider.Provider's GetHeader/NewIterator split but scoped to one file
// already fully buffered in memory (no index-based shard seeking), since
// the pipeline driver (C13) partitions work by reference contig rather than
// by byte offset.
type Reader struct {
	header    *sam.Header
	records   []*sam.Record
	sampleIDs map[string]string // read group ID -> sample name
}

// Open reads every record out of r (a BAM stream) and returns a Reader over
// them. Grounded on encoding/bamprovider.BAMProvider's bam.NewReader usage;
// this port reads the whole file up front rather than offering
// position-indexed seeking, since spec.md's concurrency model (§5) hands
// each worker a disjoint contig/region rather than a byte-range shard.
func Open(r io.Reader) (*Reader, error) {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return nil, varcallerrors.Wrap(varcallerrors.InputError, err, "alnio: open BAM")
	}
	defer br.Close()

	header := br.Header()
	sampleIDs := map[string]string{}
	for _, rg := range header.RGs() {
		sampleIDs[rg.Name()] = rg.Get(sam.Tag{'S', 'M'})
	}

	var records []*sam.Record
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, varcallerrors.Wrap(varcallerrors.InputError, err, "alnio: read BAM record")
		}
		records = append(records, rec)
	}
	return &Reader{header: header, records: records, sampleIDs: sampleIDs}, nil
}

// Samples returns the distinct sample names declared across the BAM's read
// groups, per bamprovider's header-derived sample enumeration.
func (rd *Reader) Samples() []string {
	seen := map[string]bool{}
	var out []string
	for _, sm := range rd.sampleIDs {
		if sm == "" || seen[sm] {
			continue
		}
		seen[sm] = true
		out = append(out, sm)
	}
	return out
}

// PossibleRegions returns one Region spanning the full length of each
// reference contig named in the BAM header, the unit the pipeline driver
// (C13) partitions into per-worker scan regions.
func (rd *Reader) PossibleRegions() []genome.Region {
	regions := make([]genome.Region, 0, len(rd.header.Refs()))
	for _, ref := range rd.header.Refs() {
		regions = append(regions, genome.NewRegion(ref.Name(), 0, genome.PosType(ref.Len())))
	}
	return regions
}

// sampleOf resolves a record's sample name via its RG aux tag, falling back
// to the empty string if the record carries no RG tag or the read group is
// absent from the header (malformed but non-fatal per Section 7's DataError
// classification).
func (rd *Reader) sampleOf(rec *sam.Record) string {
	aux := rec.AuxFields.Get(rgTag)
	if aux == nil {
		return ""
	}
	return rd.sampleIDs[aux.Value().(string)]
}

// recordOverlaps reports whether rec's aligned span intersects region.
func recordOverlaps(rec *sam.Record, region genome.Region) bool {
	if rec.Ref == nil || rec.Ref.Name() != region.Contig {
		return false
	}
	start := genome.PosType(rec.Pos)
	end := start + genome.PosType(rec.Len())
	return start < region.End && end > region.Begin
}

// cigarOpType maps a biogo/hts CigarOpType to vargen's single-letter
// CigarOpType, rather than relying on sam.CigarOpType's String() format.
func cigarOpType(t sam.CigarOpType) vargen.CigarOpType {
	switch t {
	case sam.CigarMatch:
		return vargen.CigarMatch
	case sam.CigarInsertion:
		return vargen.CigarInsertion
	case sam.CigarDeletion:
		return vargen.CigarDeletion
	case sam.CigarSkipped:
		return vargen.CigarSkip
	case sam.CigarSoftClipped:
		return vargen.CigarSoftClip
	case sam.CigarHardClipped:
		return vargen.CigarHardClip
	case sam.CigarPadded:
		return vargen.CigarPad
	case sam.CigarEqual:
		return vargen.CigarEqual
	case sam.CigarMismatch:
		return vargen.CigarDiff
	default:
		return vargen.CigarOpType(0)
	}
}

// toVargenRead translates a sam.Record into vargen's narrow Read shape,
// decoupling vargen's CIGAR-walk scanner from biogo/hts entirely.
func toVargenRead(rec *sam.Record, sampleID string) vargen.Read {
	cigar := make([]vargen.CigarOp, len(rec.Cigar))
	for i, op := range rec.Cigar {
		cigar[i] = vargen.CigarOp{Type: cigarOpType(op.Type()), Length: op.Len()}
	}
	return vargen.Read{
		Contig:         rec.Ref.Name(),
		Position:       genome.PosType(rec.Pos),
		Cigar:          cigar,
		Sequence:       rec.Seq.Expand(),
		Qualities:      append([]byte(nil), rec.Qual...),
		MappingQuality: rec.MapQ,
		SampleID:       sampleID,
		ReadID:         rec.Name,
		Reverse:        rec.Flags&sam.Reverse != 0,
	}
}

// FetchReads returns every alignment overlapping region as vargen.Reads,
// grouped by none (the caller buckets by SampleID), per
// bamprovider.Provider.NewIterator's "records whose start position is
// within the shard" contract (here: any overlap with region, since this
// port has no padding/shard concept to approximate).
func (rd *Reader) FetchReads(region genome.Region) []vargen.Read {
	var out []vargen.Read
	for _, rec := range rd.records {
		if !recordOverlaps(rec, region) {
			continue
		}
		out = append(out, toVargenRead(rec, rd.sampleOf(rec)))
	}
	return out
}

// FetchReadsBySample partitions FetchReads' output by sample, the shape
// caller.Evaluator-based callers (Individual/Population/Trio/TumorNormal)
// consume directly.
func (rd *Reader) FetchReadsBySample(region genome.Region) map[string][]caller.Read {
	out := map[string][]caller.Read{}
	for _, r := range rd.FetchReads(region) {
		out[r.SampleID] = append(out[r.SampleID], caller.Read{ID: r.ReadID, Sequence: r.Sequence, Qualities: r.Qualities})
	}
	return out
}

// CountReads returns the number of alignments overlapping region, without
// materialising the translated Read slice, for the pipeline driver's
// coverage-based work estimation.
func (rd *Reader) CountReads(region genome.Region) int {
	n := 0
	for _, rec := range rd.records {
		if recordOverlaps(rec, region) {
			n++
		}
	}
	return n
}

// FindCoveredSubregion narrows region to the span actually covered by at
// least one alignment start position, letting the pipeline driver skip
// phasing/calling work over stretches of region with zero coverage. The
// second return value is false if no read starts within region.
func (rd *Reader) FindCoveredSubregion(region genome.Region) (genome.Region, bool) {
	var minPos, maxEnd genome.PosType
	found := false
	for _, rec := range rd.records {
		if rec.Ref == nil || rec.Ref.Name() != region.Contig {
			continue
		}
		pos := genome.PosType(rec.Pos)
		if pos < region.Begin || pos >= region.End {
			continue
		}
		end := pos + genome.PosType(rec.Len())
		if !found || pos < minPos {
			minPos = pos
		}
		if !found || end > maxEnd {
			maxEnd = end
		}
		found = true
	}
	if !found {
		return genome.Region{}, false
	}
	return genome.NewRegion(region.Contig, minPos, maxEnd), true
}
