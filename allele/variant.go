package allele

import (
	"bytes"
	"sort"

	"github.com/grailbio/varcall/genome"
)

// Variant is a reference/alternate allele pair sharing the same region.
// Invariant: the two sequences differ (spec.md §3).
type Variant struct {
	Ref Allele
	Alt Allele
}

// NewVariant constructs a Variant over one shared region. It panics if ref
// and alt have the same sequence, a programming-error invariant: every
// caller builds Variant from an already-validated (region, ref, alt) triple.
func NewVariant(region genome.Region, ref, alt []byte) Variant {
	v := Variant{Ref: New(region, ref), Alt: New(region, alt)}
	if bytes.Equal(v.Ref.Sequence, v.Alt.Sequence) {
		panic("allele: variant ref and alt sequences must differ")
	}
	return v
}

// Region returns the shared region of the ref/alt pair.
func (v Variant) Region() genome.Region { return v.Ref.Region }

// IsSNV, IsMNV, IsInsertion, IsDeletion classify the variant by its alt
// allele's shape relative to the reference region, per spec.md §3.
func (v Variant) IsSNV() bool       { return v.Alt.IsSNV() && v.Ref.Region.Size() == 1 }
func (v Variant) IsMNV() bool       { return v.Alt.IsMNV() && int64(len(v.Alt.Sequence)) == v.Ref.Region.Size() }
func (v Variant) IsInsertion() bool { return v.Ref.Region.IsEmpty() && len(v.Alt.Sequence) > 0 }
func (v Variant) IsDeletion() bool  { return !v.Ref.Region.IsEmpty() && len(v.Alt.Sequence) == 0 }

// Equal reports whether v and o propose the same region and alternate
// sequence (ref is implied by region and is not compared independently,
// matching the match predicate in spec.md §4.1, which treats two candidates
// as "equal" by region+alt).
func (v Variant) Equal(o Variant) bool {
	return v.Region().Equal(o.Region()) && bytes.Equal(v.Alt.Sequence, o.Alt.Sequence)
}

// Less orders variants by region, then by alt sequence, giving a total
// order suitable for sorting and deduplicating candidate lists (spec.md
// §4.1 "Output ordering").
func (v Variant) Less(o Variant) bool {
	if !v.Region().Equal(o.Region()) {
		return v.Region().Less(o.Region())
	}
	return bytes.Compare(v.Alt.Sequence, o.Alt.Sequence) < 0
}

// SortVariants sorts variants in place by region then alt sequence.
func SortVariants(variants []Variant) {
	sort.Slice(variants, func(i, j int) bool { return variants[i].Less(variants[j]) })
}

// DedupVariants removes adjacent duplicate (by Equal) variants from an
// already-sorted slice, returning the deduplicated prefix.
func DedupVariants(sorted []Variant) []Variant {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if !out[len(out)-1].Equal(v) {
			out = append(out, v)
		}
	}
	return out
}

// FindVariant returns the index of the first variant in sorted matching
// target by (region, alt), or -1 if none matches.
//
// FindVariant assumes sorted is ordered and unique by (region, alt); per
// SPEC_FULL.md / DESIGN.md's Open Question decision, behavior on duplicate
// entries is first-match-wins: the smallest matching index is returned.
func FindVariant(sorted []Variant, target Variant) int {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid].Less(target) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(sorted) && sorted[lo].Equal(target) {
		return lo
	}
	return -1
}
