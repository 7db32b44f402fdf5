package alnio

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, name string, ref *sam.Reference, pos int, cigar []sam.CigarOp, seq, qual string, flags sam.Flags, sampleTag string) *sam.Record {
	t.Helper()
	r := &sam.Record{
		Name:  name,
		Ref:   ref,
		Pos:   pos,
		Flags: flags,
		Cigar: cigar,
		Seq:   sam.NewSeq([]byte(seq)),
		Qual:  []byte(qual),
	}
	if sampleTag != "" {
		aux, err := sam.NewAux(rgTag, sampleTag)
		require.NoError(t, err)
		r.AuxFields = append(r.AuxFields, aux)
	}
	return r
}

func TestFetchReadsFiltersByOverlap(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)

	inRange := newTestRecord(t, "read1", chr1, 100, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)}, "ACGTACGTAC", "IIIIIIIIII", sam.Paired, "RG1")
	outOfRange := newTestRecord(t, "read2", chr1, 500, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)}, "ACGTACGTAC", "IIIIIIIIII", sam.Paired, "RG1")

	rd := &Reader{records: []*sam.Record{inRange, outOfRange}, sampleIDs: map[string]string{"RG1": "sampleA"}}

	reads := rd.FetchReads(genome.NewRegion("chr1", 90, 120))
	require.Len(t, reads, 1)
	assert.Equal(t, "read1", reads[0].ReadID)
	assert.Equal(t, "sampleA", reads[0].SampleID)
	assert.Equal(t, genome.PosType(100), reads[0].Position)
	assert.Len(t, reads[0].Cigar, 1)
	assert.Equal(t, byte('M'), byte(reads[0].Cigar[0].Type))
}

func TestFetchReadsBySamplePartitions(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)

	a := newTestRecord(t, "a1", chr1, 10, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 5)}, "ACGTA", "IIIII", sam.Paired, "RG1")
	b := newTestRecord(t, "b1", chr1, 10, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 5)}, "ACGTA", "IIIII", sam.Paired, "RG2")

	rd := &Reader{records: []*sam.Record{a, b}, sampleIDs: map[string]string{"RG1": "sampleA", "RG2": "sampleB"}}
	bySample := rd.FetchReadsBySample(genome.NewRegion("chr1", 0, 100))
	require.Contains(t, bySample, "sampleA")
	require.Contains(t, bySample, "sampleB")
	assert.Len(t, bySample["sampleA"], 1)
	assert.Len(t, bySample["sampleB"], 1)
}

func TestCountReads(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	r1 := newTestRecord(t, "r1", chr1, 10, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 5)}, "ACGTA", "IIIII", sam.Paired, "")
	r2 := newTestRecord(t, "r2", chr1, 200, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 5)}, "ACGTA", "IIIII", sam.Paired, "")

	rd := &Reader{records: []*sam.Record{r1, r2}, sampleIDs: map[string]string{}}
	assert.Equal(t, 1, rd.CountReads(genome.NewRegion("chr1", 0, 100)))
	assert.Equal(t, 2, rd.CountReads(genome.NewRegion("chr1", 0, 1000)))
}

func TestFindCoveredSubregion(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	r1 := newTestRecord(t, "r1", chr1, 50, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)}, "ACGTACGTAC", "IIIIIIIIII", sam.Paired, "")
	r2 := newTestRecord(t, "r2", chr1, 80, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)}, "ACGTACGTAC", "IIIIIIIIII", sam.Paired, "")

	rd := &Reader{records: []*sam.Record{r1, r2}, sampleIDs: map[string]string{}}
	covered, ok := rd.FindCoveredSubregion(genome.NewRegion("chr1", 0, 1000))
	require.True(t, ok)
	assert.Equal(t, genome.NewRegion("chr1", 50, 90), covered)

	_, ok = rd.FindCoveredSubregion(genome.NewRegion("chr1", 500, 600))
	assert.False(t, ok)
}

func TestPossibleRegionsAndSamples(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 2000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	require.NoError(t, err)

	rd := &Reader{header: header, sampleIDs: map[string]string{"RG1": "sampleA", "RG2": "sampleA"}}
	regions := rd.PossibleRegions()
	require.Len(t, regions, 2)
	assert.Equal(t, "chr1", regions[0].Contig)
	assert.Equal(t, genome.PosType(1000), regions[0].End)

	samples := rd.Samples()
	assert.Equal(t, []string{"sampleA"}, samples)
}
