// Package haplotype materialises concrete base sequences from a reference
// region plus an ordered set of non-overlapping alternate alleles, and
// provides a de-duplicating arena of such haplotypes addressed by
// integer handle (spec.md §9 "Reference-counted haplotypes").
package haplotype

import (
	"bytes"
	"sort"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genome"
	"github.com/pkg/errors"
)

// ReferenceFetcher returns the reference bases over a region. It is the
// narrow interface this package consumes from the (out-of-core)
// reference-FASTA provider, per spec.md §1/§6.
type ReferenceFetcher func(genome.Region) ([]byte, error)

// Haplotype is a reference region plus an ordered set of non-overlapping
// alternate alleles whose regions are contained in it. It is a value object:
// two Haplotypes with the same region and the same materialised sequence
// are equal regardless of which alleles produced that sequence.
type Haplotype struct {
	Region  genome.Region
	Alleles []allele.Allele // sorted by region, non-overlapping, contained in Region
	seq     []byte          // materialised lazily via Materialize
}

// New builds a Haplotype over region from alts, which must be pairwise
// non-overlapping and each contained in region; alts are sorted by region
// before storage. New does not materialise the sequence eagerly; call
// Materialize (directly, or implicitly via Sequence) to do so.
func New(region genome.Region, alts []allele.Allele) (Haplotype, error) {
	sorted := append([]allele.Allele(nil), alts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Region.Less(sorted[j].Region) })
	for i, a := range sorted {
		if !region.Contains(a.Region) {
			return Haplotype{}, errors.Errorf("haplotype: allele region %v not contained in haplotype region %v", a.Region, region)
		}
		if i > 0 && sorted[i-1].Region.Overlaps(a.Region) && !sorted[i-1].Region.IsEmpty() && !a.Region.IsEmpty() {
			return Haplotype{}, errors.Errorf("haplotype: overlapping alleles at %v and %v", sorted[i-1].Region, a.Region)
		}
	}
	return Haplotype{Region: region, Alleles: sorted}, nil
}

// Materialize computes (and caches) the concrete base sequence: the
// concatenation of reference bases between alleles, interleaved with the
// allele sequences in region order (spec.md §8 invariant).
func (h *Haplotype) Materialize(fetch ReferenceFetcher) ([]byte, error) {
	if h.seq != nil {
		return h.seq, nil
	}
	var buf bytes.Buffer
	cursor := h.Region.Begin
	for _, a := range h.Alleles {
		if a.Region.Begin > cursor {
			ref, err := fetch(genome.NewRegion(h.Region.Contig, cursor, a.Region.Begin))
			if err != nil {
				return nil, err
			}
			buf.Write(ref)
		}
		buf.Write(a.Sequence)
		cursor = a.Region.End
	}
	if cursor < h.Region.End {
		ref, err := fetch(genome.NewRegion(h.Region.Contig, cursor, h.Region.End))
		if err != nil {
			return nil, err
		}
		buf.Write(ref)
	}
	h.seq = buf.Bytes()
	return h.seq, nil
}

// Sequence returns the previously-materialised sequence, or nil if
// Materialize has not yet been called.
func (h *Haplotype) Sequence() []byte { return h.seq }

// Contains reports whether a equals one of h's explicit alleles (h.Alleles).
// A reference allele over a span h fills in from the reference is not
// reported as contained.
func (h *Haplotype) Contains(a allele.Allele) bool {
	for _, have := range h.Alleles {
		if have.Equal(a) {
			return true
		}
	}
	return false
}

// Len returns the length of the materialised sequence. Panics if
// Materialize has not been called.
func (h *Haplotype) Len() int {
	if h.seq == nil {
		panic("haplotype: Len called before Materialize")
	}
	return len(h.seq)
}

// Equal reports whether h and o have the same region and the same
// materialised sequence. Both must already be materialised.
func (h *Haplotype) Equal(o *Haplotype) bool {
	return h.Region.Equal(o.Region) && bytes.Equal(h.seq, o.seq)
}
