package vargen

import (
	"testing"

	"github.com/grailbio/varcall/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refFetcher(seq []byte, contigStart genome.PosType) ReferenceFetcher {
	return func(r genome.Region) ([]byte, error) {
		return seq[r.Begin-contigStart : r.End-contigStart], nil
	}
}

func makeRead(contig string, pos genome.PosType, seq string, cigar []CigarOp, reverse bool, sampleID string) Read {
	qual := make([]byte, len(seq))
	for i := range qual {
		qual[i] = 35
	}
	return Read{
		Contig:         contig,
		Position:       pos,
		Cigar:          cigar,
		Sequence:       []byte(seq),
		Qualities:      qual,
		MappingQuality: 60,
		SampleID:       sampleID,
		ReadID:         "r",
		Reverse:        reverse,
	}
}

func TestScannerDetectsSNV(t *testing.T) {
	ref := []byte("ACGTACGTAC")
	fetch := refFetcher(ref, 0)
	s := NewScanner(fetch, DefaultOptions())

	// Mismatch at position 2 (0-based): ref 'G' -> read 'T'.
	read := makeRead("chr1", 0, "ACTTACGTAC", []CigarOp{{CigarMatch, 10}}, false, "s1")
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddRead(read))
	}
	revRead := makeRead("chr1", 0, "ACTTACGTAC", []CigarOp{{CigarMatch, 10}}, true, "s1")
	require.NoError(t, s.AddRead(revRead))

	cands := s.Candidates(Germline)
	require.Len(t, cands, 1)
	assert.Equal(t, "T", string(cands[0].Variant.Alt.Sequence))
	assert.Equal(t, 4, cands[0].SupportingReads())
}

func TestScannerDetectsInsertion(t *testing.T) {
	ref := []byte("ACGTACGTAC")
	fetch := refFetcher(ref, 0)
	s := NewScanner(fetch, DefaultOptions())

	read := makeRead("chr1", 0, "ACGTTTACGTAC", []CigarOp{
		{CigarMatch, 4}, {CigarInsertion, 2}, {CigarMatch, 6},
	}, false, "s1")
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddRead(read))
	}

	cands := s.Candidates(Germline)
	require.Len(t, cands, 1)
	assert.True(t, cands[0].Variant.IsInsertion())
	assert.Equal(t, "TT", string(cands[0].Variant.Alt.Sequence))
}

func TestScannerDetectsDeletion(t *testing.T) {
	ref := []byte("ACGTACGTAC")
	fetch := refFetcher(ref, 0)
	s := NewScanner(fetch, DefaultOptions())

	read := makeRead("chr1", 0, "ACGTGTAC", []CigarOp{
		{CigarMatch, 4}, {CigarDeletion, 2}, {CigarMatch, 4},
	}, false, "s1")
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddRead(read))
	}

	cands := s.Candidates(Germline)
	require.Len(t, cands, 1)
	assert.True(t, cands[0].Variant.IsDeletion())
}

func TestScannerDropsLowSupportCandidate(t *testing.T) {
	ref := []byte("ACGTACGTAC")
	fetch := refFetcher(ref, 0)
	s := NewScanner(fetch, DefaultOptions())

	// Single read, moderate (not high) base quality: at depth<4 the tiered
	// germline predicate would still accept support==1 if the observed
	// base-quality sum reached 30, so keep it below that to exercise the
	// "drop" path.
	read := makeRead("chr1", 0, "ACTTACGTAC", []CigarOp{{CigarMatch, 10}}, false, "s1")
	read.Qualities[2] = 25
	require.NoError(t, s.AddRead(read)) // single read, sum(BQ)=25<30: below every germline tier

	cands := s.Candidates(Germline)
	assert.Empty(t, cands)
}

func TestStrandBiasPValueSymmetric(t *testing.T) {
	assert.InDelta(t, 1.0, strandBiasPValue(5, 5), 0.2)
	assert.Less(t, strandBiasPValue(20, 0), 0.05)
}

func TestLnProbCorrectlyAlignedMonotonic(t *testing.T) {
	// Higher observed penalty makes correct alignment less likely (more
	// negative log-probability); holding mu and the mapped-term fixed.
	high := lnProbCorrectlyAligned(1, 5, 0)
	low := lnProbCorrectlyAligned(20, 5, 0)
	assert.Less(t, low, high)
}
