package phaser

import (
	"testing"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/haplotype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetcher(seq []byte) haplotype.ReferenceFetcher {
	return func(r genome.Region) ([]byte, error) { return seq[r.Begin:r.End], nil }
}

func TestGeneratorProposesReferenceAndAltHaplotypes(t *testing.T) {
	ref := []byte("ACGTACGTACGT")
	fetch := testFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 12)

	v := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("T"))
	gen := NewGenerator(region, []allele.Variant{v}, arena, fetch, DefaultOptions())

	var all []haplotype.Handle
	for !gen.Done() {
		handles, err := gen.Progress()
		require.NoError(t, err)
		all = append(all, handles...)
	}
	require.Len(t, all, 2) // reference-only and the single-alt combination

	seqs := map[string]bool{}
	for _, h := range all {
		seqs[string(arena.Get(h).Sequence())] = true
	}
	assert.True(t, seqs[string(ref)])
	assert.True(t, seqs["ACGTTCGTACGT"])
}

func TestGeneratorSkipsOverlappingCombinations(t *testing.T) {
	ref := []byte("ACGTACGTACGT")
	fetch := testFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 12)

	// Two distinct SNVs at the same position: mutually exclusive.
	v1 := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("T"))
	v2 := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("C"))
	gen := NewGenerator(region, []allele.Variant{v1, v2}, arena, fetch, DefaultOptions())

	var all []haplotype.Handle
	for !gen.Done() {
		handles, err := gen.Progress()
		require.NoError(t, err)
		all = append(all, handles...)
	}
	// reference, +v1, +v2 -- never both, since they overlap.
	require.Len(t, all, 3)
}

func TestKeepHaplotypesCarriesAllelesAndPhaseSetForward(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGTACGT")
	fetch := testFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 20)

	v1 := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("T"))
	v2 := allele.NewVariant(genome.SinglePos("chr1", 16), []byte("A"), []byte("G"))
	opts := DefaultOptions()
	opts.WindowSize = 5 // force v1 and v2 into separate windows
	gen := NewGenerator(region, []allele.Variant{v1, v2}, arena, fetch, opts)

	handles1, err := gen.Progress()
	require.NoError(t, err)
	require.Len(t, handles1, 2) // reference and +v1

	var altHandle haplotype.Handle
	for _, h := range handles1 {
		if len(arena.Get(h).Alleles) == 1 {
			altHandle = h
		}
	}
	require.NotZero(t, len(arena.Get(altHandle).Alleles))

	gen.KeepHaplotypes([]haplotype.Handle{altHandle})
	firstPhaseSet := gen.CurrentPhaseSet()
	assert.NotZero(t, firstPhaseSet)

	handles2, err := gen.Progress()
	require.NoError(t, err)
	require.NotEmpty(t, handles2)
	assert.Equal(t, firstPhaseSet, gen.CurrentPhaseSet())

	// Every haplotype proposed in the second window still carries v1's
	// allele forward, since it was retained.
	for _, h := range handles2 {
		assert.True(t, arena.Get(h).Contains(v1.Alt))
	}
}

func TestKeepHaplotypesEmptyBreaksPhaseContinuity(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGTACGT")
	fetch := testFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 20)

	v1 := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("T"))
	v2 := allele.NewVariant(genome.SinglePos("chr1", 16), []byte("A"), []byte("G"))
	opts := DefaultOptions()
	opts.WindowSize = 5
	gen := NewGenerator(region, []allele.Variant{v1, v2}, arena, fetch, opts)

	_, err := gen.Progress()
	require.NoError(t, err)
	gen.KeepHaplotypes(nil) // reference genotype won at this window
	assert.Zero(t, gen.CurrentPhaseSet())

	_, err = gen.Progress()
	require.NoError(t, err)
	assert.NotZero(t, gen.CurrentPhaseSet())
}

func TestForceForwardAdvancesCursor(t *testing.T) {
	ref := []byte("ACGTACGTACGT")
	fetch := testFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 12)
	v := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("T"))
	gen := NewGenerator(region, []allele.Variant{v}, arena, fetch, DefaultOptions())

	assert.False(t, gen.Done())
	gen.ForceForward()
	assert.True(t, gen.Done())
	assert.Equal(t, 1, gen.ForcedForwardCount())
}
