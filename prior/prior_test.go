package prior

import (
	"testing"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refFetcher(seq []byte) haplotype.ReferenceFetcher {
	return func(r genome.Region) ([]byte, error) {
		return seq[r.Begin:r.End], nil
	}
}

func mustIntern(t *testing.T, arena *haplotype.Arena, h haplotype.Haplotype, fetch haplotype.ReferenceFetcher) haplotype.Handle {
	t.Helper()
	handle, err := arena.Intern(h, fetch)
	require.NoError(t, err)
	return handle
}

func TestUniformPrior(t *testing.T) {
	u := Uniform{NumHaplotypes: 4, Ploidy: 2}
	g1 := genotype.New(0, 1)
	g2 := genotype.New(2, 3)
	assert.Equal(t, u.LogProbability(g1), u.LogProbability(g2))
}

func TestCoalescentPriorFavoursHomozygousReference(t *testing.T) {
	ref := []byte("ACGTACGT")
	fetch := refFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 8)

	refHap, err := haplotype.New(region, nil)
	require.NoError(t, err)
	refHandle := mustIntern(t, arena, refHap, fetch)

	snvAllele := allele.New(genome.SinglePos("chr1", 2), []byte("T"))
	altHap, err := haplotype.New(region, []allele.Allele{snvAllele})
	require.NoError(t, err)
	altHandle := mustIntern(t, arena, altHap, fetch)

	model := NewCoalescent(arena, DefaultCoalescentParameters())
	homRef := genotype.New(refHandle, refHandle)
	het := genotype.New(refHandle, altHandle)

	assert.Greater(t, model.LogProbability(homRef), model.LogProbability(het))
}

func TestDeNovoIdentityIsZero(t *testing.T) {
	ref := []byte("ACGTACGT")
	fetch := refFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 8)
	h, err := haplotype.New(region, nil)
	require.NoError(t, err)
	handle := mustIntern(t, arena, h, fetch)

	model := NewDeNovo(arena, DefaultDeNovoParameters())
	assert.Equal(t, 0.0, model.LogProbability(handle, handle))
}

func TestDeNovoPenalisesMutation(t *testing.T) {
	ref := []byte("ACGTACGT")
	fetch := refFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 8)

	parentHap, err := haplotype.New(region, nil)
	require.NoError(t, err)
	parent := mustIntern(t, arena, parentHap, fetch)

	childAllele := allele.New(genome.SinglePos("chr1", 4), []byte("T"))
	childHap, err := haplotype.New(region, []allele.Allele{childAllele})
	require.NoError(t, err)
	child := mustIntern(t, arena, childHap, fetch)

	model := NewDeNovo(arena, DefaultDeNovoParameters())
	assert.Less(t, model.LogProbability(parent, child), 0.0)
}
