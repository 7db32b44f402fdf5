package callextract

import (
	"math"
	"strconv"
	"testing"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/caller"
	"github.com/grailbio/varcall/errormodel"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/prior"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refFetcher(seq []byte) haplotype.ReferenceFetcher {
	return func(r genome.Region) ([]byte, error) { return seq[r.Begin:r.End], nil }
}

func makeRead(id string, seq []byte) caller.Read {
	qual := make([]byte, len(seq))
	for i := range qual {
		qual[i] = 35
	}
	return caller.Read{ID: id, Sequence: seq, Qualities: qual}
}

func setupTrio(t *testing.T) (*caller.Latents, *haplotype.Arena, allele.Allele) {
	t.Helper()
	ref := []byte("ACGTACGTACGT")
	fetch := refFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 12)

	refHap, err := haplotype.New(region, nil)
	require.NoError(t, err)
	refHandle, err := arena.Intern(refHap, fetch)
	require.NoError(t, err)

	altAllele := allele.NewVariant(genome.SinglePos("chr1", 4), []byte("A"), []byte("T")).Alt
	altHap, err := haplotype.New(region, []allele.Allele{altAllele})
	require.NoError(t, err)
	altHandle, err := arena.Intern(altHap, fetch)
	require.NoError(t, err)

	refSeq := arena.Get(refHandle).Sequence()
	altSeq := arena.Get(altHandle).Sequence()

	motherEval := caller.NewEvaluator(arena, errormodel.NovaSeq{})
	fatherEval := caller.NewEvaluator(arena, errormodel.NovaSeq{})
	childEval := caller.NewEvaluator(arena, errormodel.NovaSeq{})

	var motherReads, fatherReads, childReads []caller.Read
	for i := 0; i < 6; i++ {
		motherReads = append(motherReads, makeRead("m"+strconv.Itoa(i), altSeq))
		fatherReads = append(fatherReads, makeRead("f"+strconv.Itoa(i), refSeq))
		if i%2 == 0 {
			childReads = append(childReads, makeRead("c"+strconv.Itoa(i), refSeq))
		} else {
			childReads = append(childReads, makeRead("c"+strconv.Itoa(i), altSeq))
		}
	}

	priorModel := prior.Uniform{NumHaplotypes: 2, Ploidy: 2}
	deNovo := prior.NewDeNovo(arena, prior.DefaultDeNovoParameters())
	trioCaller, err := caller.NewTrioCaller(caller.TrioOptions{
		Ploidy: 2, Prior: priorModel, DeNovo: deNovo,
		MotherEval: motherEval, FatherEval: fatherEval, ChildEval: childEval,
	})
	require.NoError(t, err)

	latents, err := trioCaller.Infer([]haplotype.Handle{refHandle, altHandle}, motherReads, fatherReads, childReads)
	require.NoError(t, err)
	return latents, arena, altAllele
}

func TestCallTrioSelectsHeterozygousChild(t *testing.T) {
	latents, _, _ := setupTrio(t)
	call := CallTrio(latents)
	assert.False(t, call.Child.IsHomozygous())
	assert.GreaterOrEqual(t, call.ChildQuality, 0.0)
}

func TestAllelePosteriorUncachedAndCached(t *testing.T) {
	latents, arena, altAllele := setupTrio(t)
	haplotypes := []haplotype.Handle{0, 1}

	uncachedOpts := Options{AllelePosteriorCacheThreshold: 1 << 20}
	cachedOpts := Options{AllelePosteriorCacheThreshold: 0}

	pUncached := AllelePosterior(arena, haplotypes, latents.Genotypes, latents.ChildMarginal, altAllele, uncachedOpts)
	pCached := AllelePosterior(arena, haplotypes, latents.Genotypes, latents.ChildMarginal, altAllele, cachedOpts)
	assert.InDelta(t, pUncached, pCached, 1e-9)
}

func TestDeNovoPosteriorIsFiniteAndSmall(t *testing.T) {
	latents, arena, altAllele := setupTrio(t)
	// Both mother and a fraction of child reads carry altAllele, so the
	// child's alt copy is explained by inheritance, not de novo: de-novo
	// posterior mass should be small relative to the total.
	p := DeNovoPosterior(arena, latents, altAllele)
	assert.LessOrEqual(t, p, 0.0)
	assert.False(t, math.IsInf(p, 0) || math.IsNaN(p))
	assert.Less(t, p, math.Log(0.01))
}

func TestPruneUngenotypedAlleles(t *testing.T) {
	_, arena, altAllele := setupTrio(t)
	region := genome.SinglePos("chr1", 4)
	v := allele.NewVariant(region, []byte("A"), []byte("T"))
	other := allele.NewVariant(genome.SinglePos("chr1", 8), []byte("C"), []byte("G"))

	called := genotype.New(1, 1) // handle 1 == alt haplotype, contains altAllele
	kept := PruneUngenotypedAlleles(arena, []allele.Variant{v, other}, called)
	require.Len(t, kept, 1)
	assert.Equal(t, string(altAllele.Sequence), string(kept[0].Alt.Sequence))
}
