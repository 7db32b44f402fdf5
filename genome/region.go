// Package genome provides genomic-coordinate arithmetic: contig/region
// overlap, containment, adjacency, and ordering over a zero-based, half-open
// integer coordinate line.
package genome

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PosType is the type used to represent a single coordinate on a contig.
// int64 is used rather than int32 since the caller may need to address
// concatenated-contig coordinates during phasing across very large windows.
type PosType = int64

// Region is a zero-based, half-open interval [Begin, End) on Contig.
//
// Invariant: Begin <= End. A region with Begin == End is empty and
// represents an insertion point rather than a spanning interval.
type Region struct {
	Contig string
	Begin  PosType
	End    PosType
}

// NewRegion constructs a Region, panicking if Begin > End: every caller in
// this repository constructs regions from already-validated coordinates, so
// this is a programming-error check, not an input-validation one.
func NewRegion(contig string, begin, end PosType) Region {
	if begin > end {
		panic(fmt.Sprintf("genome: invalid region %s:%d-%d (begin > end)", contig, begin, end))
	}
	return Region{Contig: contig, Begin: begin, End: end}
}

// SinglePos returns the one-base region [pos, pos+1) on contig.
func SinglePos(contig string, pos PosType) Region {
	return Region{Contig: contig, Begin: pos, End: pos + 1}
}

// InsertionPoint returns the empty region [pos, pos) on contig, as used by
// insertion alleles.
func InsertionPoint(contig string, pos PosType) Region {
	return Region{Contig: contig, Begin: pos, End: pos}
}

// Size returns End - Begin.
func (r Region) Size() PosType { return r.End - r.Begin }

// IsEmpty reports whether the region spans zero bases.
func (r Region) IsEmpty() bool { return r.Begin == r.End }

// Overlaps reports whether r and o share a contig and their intervals
// intersect. Two empty regions at the same point are considered to overlap
// only if they are the same point; an empty region overlaps a non-empty one
// iff it falls strictly inside it.
func (r Region) Overlaps(o Region) bool {
	if r.Contig != o.Contig {
		return false
	}
	if r.IsEmpty() && o.IsEmpty() {
		return r.Begin == o.Begin
	}
	return r.Begin < o.End && o.Begin < r.End
}

// Contains reports whether o lies entirely within r (same contig, and o's
// interval is a subset of r's, inclusive of shared endpoints).
func (r Region) Contains(o Region) bool {
	return r.Contig == o.Contig && r.Begin <= o.Begin && o.End <= r.End
}

// ContainsPos reports whether pos falls within r.
func (r Region) ContainsPos(contig string, pos PosType) bool {
	return r.Contig == contig && r.Begin <= pos && pos < r.End
}

// Adjacent reports whether r and o abut without overlapping, i.e. one ends
// exactly where the other begins.
func (r Region) Adjacent(o Region) bool {
	if r.Contig != o.Contig {
		return false
	}
	return r.End == o.Begin || o.End == r.Begin
}

// Before reports whether r lies entirely before o on the same contig.
func (r Region) Before(o Region) bool {
	return r.Contig == o.Contig && r.End <= o.Begin
}

// After reports whether r lies entirely after o on the same contig.
func (r Region) After(o Region) bool {
	return r.Contig == o.Contig && r.Begin >= o.End
}

// Merge returns the smallest region spanning both r and o. Panics if the
// contigs differ.
func (r Region) Merge(o Region) Region {
	if r.Contig != o.Contig {
		panic("genome: cannot merge regions on different contigs")
	}
	begin := r.Begin
	if o.Begin < begin {
		begin = o.Begin
	}
	end := r.End
	if o.End > end {
		end = o.End
	}
	return Region{Contig: r.Contig, Begin: begin, End: end}
}

// Expand returns r padded by n bases on each side (n may be negative to
// shrink, clamped so Begin never exceeds End).
func (r Region) Expand(n PosType) Region {
	begin := r.Begin - n
	end := r.End + n
	if begin > end {
		begin = (r.Begin + r.End) / 2
		end = begin
	}
	if begin < 0 {
		begin = 0
	}
	return Region{Contig: r.Contig, Begin: begin, End: end}
}

// Less orders regions lexicographically by contig, then Begin, then End,
// matching spec ordering.
func (r Region) Less(o Region) bool {
	if r.Contig != o.Contig {
		return r.Contig < o.Contig
	}
	if r.Begin != o.Begin {
		return r.Begin < o.Begin
	}
	return r.End < o.End
}

// Equal reports structural equality.
func (r Region) Equal(o Region) bool {
	return r.Contig == o.Contig && r.Begin == o.Begin && r.End == o.End
}

func (r Region) String() string {
	if r.IsEmpty() {
		return fmt.Sprintf("%s:%d", r.Contig, r.Begin)
	}
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Begin, r.End)
}

// SortRegions sorts regions in place by Less.
func SortRegions(regions []Region) {
	sortRegions(regions)
}

// WholeContig is the End value ParseRegion returns for a bare "<contig>"
// string, signaling the caller must resolve it against the contig's actual
// length (ParseRegion has no reference to consult).
const WholeContig PosType = -1

// ParseRegion parses a region string in one of the forms
//   <contig>:<1-based first pos>-<1-based last pos>
//   <contig>:<1-based pos>
//   <contig>
// into a 0-based, half-open Region, per cmd/bio-pileup's -region flag and
// interval.ParseRegionString's grammar. A bare contig returns End ==
// WholeContig rather than guessing a length; ResolveRegion fills it in
// against a known contig length.
func ParseRegion(s string) (Region, error) {
	if s == "" {
		return Region{}, errors.New("genome: empty region string")
	}
	colon := strings.IndexByte(s, ':')
	if colon == -1 {
		return Region{Contig: s, Begin: 0, End: WholeContig}, nil
	}
	if colon == 0 {
		return Region{}, errors.Errorf("genome: region %q has an empty contig", s)
	}
	contig := s[:colon]
	rangeStr := s[colon+1:]
	dash := strings.IndexByte(rangeStr, '-')
	if dash == -1 {
		pos, err := strconv.ParseInt(rangeStr, 10, 64)
		if err != nil || pos <= 0 {
			return Region{}, errors.Errorf("genome: invalid position %q in region %q", rangeStr, s)
		}
		return Region{Contig: contig, Begin: pos - 1, End: pos}, nil
	}
	start, err := strconv.ParseInt(rangeStr[:dash], 10, 64)
	if err != nil || start <= 0 {
		return Region{}, errors.Errorf("genome: invalid start position in region %q", s)
	}
	end, err := strconv.ParseInt(rangeStr[dash+1:], 10, 64)
	if err != nil || end < start {
		return Region{}, errors.Errorf("genome: invalid end position in region %q", s)
	}
	return Region{Contig: contig, Begin: start - 1, End: end}, nil
}

// ResolveRegion replaces r's End with contigLen if r was parsed from a bare
// "<contig>" string (End == WholeContig); otherwise r is returned as-is.
func ResolveRegion(r Region, contigLen PosType) Region {
	if r.End == WholeContig {
		r.End = contigLen
	}
	return r
}
