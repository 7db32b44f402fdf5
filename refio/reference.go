// Package refio adapts a FASTA-backed reference sequence source to the
// narrow ReferenceFetcher function types vargen, haplotype, and prior
// consume, per spec.md §6 "Reference provider". Grounded on
// encoding/fasta's Fasta interface and its Get(seqName, start, end)
// contract.
package refio

import (
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/varcallerrors"
	"github.com/pkg/errors"
)

// Source is the narrow view of an indexed FASTA file this package consumes
// (satisfied directly by fasta.Fasta; re-declared here so refio does not
// need to import the encoding/fasta package's full surface).
type Source interface {
	Get(seqName string, start, end uint64) (string, error)
	Len(seqName string) (uint64, error)
}

// Reference wraps a Source, clamping out-of-bounds requests to the contig's
// actual length rather than erroring, since a haplotype or candidate-scan
// window that runs off the end of a contig is a normal edge case (spec.md
// §4.1's insertion/deletion scanning near contig boundaries), not malformed
// input.
type Reference struct {
	Source Source
}

// New returns a Reference wrapping src.
func New(src Source) *Reference {
	return &Reference{Source: src}
}

// Fetch returns the reference bases over r, clamped to the contig's length.
func (ref *Reference) Fetch(r genome.Region) ([]byte, error) {
	contigLen, err := ref.Source.Len(r.Contig)
	if err != nil {
		return nil, varcallerrors.Wrap(varcallerrors.InputError, err, "refio: unknown contig "+r.Contig)
	}
	end := r.End
	if uint64(end) > contigLen {
		end = genome.PosType(contigLen)
	}
	begin := r.Begin
	if begin > end {
		begin = end
	}
	s, err := ref.Source.Get(r.Contig, uint64(begin), uint64(end))
	if err != nil {
		return nil, errors.Wrapf(err, "refio: fetch %v", r)
	}
	return []byte(s), nil
}

// Fetcher adapts Fetch to haplotype.ReferenceFetcher.
func (ref *Reference) Fetcher() haplotype.ReferenceFetcher {
	return ref.Fetch
}

// ContigLength returns the length of contig, for callers that need to clamp
// a scan region themselves before constructing one.
func (ref *Reference) ContigLength(contig string) (genome.PosType, error) {
	n, err := ref.Source.Len(contig)
	if err != nil {
		return 0, varcallerrors.Wrap(varcallerrors.InputError, err, "refio: unknown contig "+contig)
	}
	return genome.PosType(n), nil
}
