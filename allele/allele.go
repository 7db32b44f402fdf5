// Package allele implements reference-relative sequence edits over a genomic
// region (Allele) and reference/alternate pairs at a region (Variant).
package allele

import (
	"bytes"

	"github.com/grailbio/varcall/genome"
)

// Allele is a sequence proposed at a reference region. Sequence holds zero
// or more bases from {A,C,G,T,N}.
type Allele struct {
	Region   genome.Region
	Sequence []byte
}

// New constructs an Allele, copying sequence so the caller's buffer can be
// reused (mirrors the defensive copy the teacher's CIGAR-walk code makes
// when slicing read buffers).
func New(region genome.Region, sequence []byte) Allele {
	cp := make([]byte, len(sequence))
	copy(cp, sequence)
	return Allele{Region: region, Sequence: cp}
}

// IsInsertion reports whether the allele's region is empty (an insertion
// point) and it carries bases.
func (a Allele) IsInsertion() bool {
	return a.Region.IsEmpty() && len(a.Sequence) > 0
}

// IsDeletion reports whether the allele carries no sequence over a
// non-empty region.
func (a Allele) IsDeletion() bool {
	return !a.Region.IsEmpty() && len(a.Sequence) == 0
}

// IsSNV reports whether the allele is a single-base substitution: region
// length 1 and sequence length 1.
func (a Allele) IsSNV() bool {
	return a.Region.Size() == 1 && len(a.Sequence) == 1
}

// IsMNV reports whether the allele is a multi-base substitution of equal
// length > 1.
func (a Allele) IsMNV() bool {
	return a.Region.Size() > 1 && int64(len(a.Sequence)) == a.Region.Size()
}

// IsReference reports whether a's sequence equals the reference sequence
// over a's region. An empty allele over an empty region is trivially a
// reference allele.
func (a Allele) IsReference(fetch func(genome.Region) ([]byte, error)) (bool, error) {
	if a.Region.IsEmpty() && len(a.Sequence) == 0 {
		return true, nil
	}
	if int64(len(a.Sequence)) != a.Region.Size() {
		return false, nil
	}
	ref, err := fetch(a.Region)
	if err != nil {
		return false, err
	}
	return bytes.Equal(a.Sequence, ref), nil
}

// Equal reports structural equality: same region, same sequence.
func (a Allele) Equal(o Allele) bool {
	return a.Region.Equal(o.Region) && bytes.Equal(a.Sequence, o.Sequence)
}

// MakeReferenceAllele builds the Allele whose sequence is the reference
// sequence over region, per original_source/src/allele.cpp's
// make_reference_allele.
func MakeReferenceAllele(region genome.Region, fetch func(genome.Region) ([]byte, error)) (Allele, error) {
	seq, err := fetch(region)
	if err != nil {
		return Allele{}, err
	}
	return New(region, seq), nil
}

// MakePositionalReferenceAlleles decomposes region into single-base
// sub-regions and returns one reference Allele per base, per
// make_positional_reference_alleles in the original source.
func MakePositionalReferenceAlleles(region genome.Region, fetch func(genome.Region) ([]byte, error)) ([]Allele, error) {
	seq, err := fetch(region)
	if err != nil {
		return nil, err
	}
	n := int(region.Size())
	result := make([]Allele, 0, n)
	for i := 0; i < n; i++ {
		pos := region.Begin + genome.PosType(i)
		result = append(result, New(genome.SinglePos(region.Contig, pos), seq[i:i+1]))
	}
	return result, nil
}
