// Package vargen scans aligned reads for candidate variants by walking each
// read's CIGAR against the reference, the way
// original_source/src/core/tools/vargen/cigar_scanner.cpp's CigarScanner
// does (C7, spec.md §4.1). It accumulates per-candidate support counts,
// strand-bias evidence, and a misalignment score, then applies inclusion
// predicates before handing the surviving Variants to the phaser (C12).
package vargen

import "github.com/grailbio/varcall/genome"

// CigarOpType is one of the nine standard SAM CIGAR operations.
type CigarOpType byte

const (
	CigarMatch     CigarOpType = 'M'
	CigarInsertion CigarOpType = 'I'
	CigarDeletion  CigarOpType = 'D'
	CigarSkip      CigarOpType = 'N'
	CigarSoftClip  CigarOpType = 'S'
	CigarHardClip  CigarOpType = 'H'
	CigarPad       CigarOpType = 'P'
	CigarEqual     CigarOpType = '='
	CigarDiff      CigarOpType = 'X'
)

// ConsumesReference reports whether op advances the reference coordinate.
func (t CigarOpType) ConsumesReference() bool {
	switch t {
	case CigarMatch, CigarDeletion, CigarSkip, CigarEqual, CigarDiff:
		return true
	}
	return false
}

// ConsumesQuery reports whether op advances the read-sequence coordinate.
func (t CigarOpType) ConsumesQuery() bool {
	switch t {
	case CigarMatch, CigarInsertion, CigarSoftClip, CigarEqual, CigarDiff:
		return true
	}
	return false
}

// CigarOp is a single (operation, length) pair from an alignment record.
type CigarOp struct {
	Type   CigarOpType
	Length int
}

// Read is the narrow view of an aligned sequencing read vargen consumes.
// alnio's BAM-backed provider (C-external) is responsible for translating
// sam.Record into this shape, keeping the biogo/hts dependency out of this
// package entirely.
type Read struct {
	Contig         string
	Position       genome.PosType // 0-based, leftmost aligned reference base
	Cigar          []CigarOp
	Sequence       []byte // read bases, original (not reverse-complemented) orientation matching Cigar/Position
	Qualities      []byte // phred-scaled base qualities, same length and orientation as Sequence
	MappingQuality byte   // phred-scaled MAPQ
	SampleID       string
	ReadID         string
	Reverse        bool // true if this read aligned to the reverse strand
}

// End returns the position one past the read's last aligned reference base.
func (r Read) End() genome.PosType {
	end := r.Position
	for _, op := range r.Cigar {
		if op.Type.ConsumesReference() {
			end += genome.PosType(op.Length)
		}
	}
	return end
}
