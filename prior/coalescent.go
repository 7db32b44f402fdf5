package prior

import (
	"math"
	"strconv"
	"sync"

	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
)

// CoalescentParameters holds the two heterozygosity rates spec.md §4.5
// names: snp_heterozygosity (default 1e-3) and indel_heterozygosity
// (default 1e-4).
type CoalescentParameters struct {
	SNPHeterozygosity   float64
	IndelHeterozygosity float64
}

// DefaultCoalescentParameters returns the spec's documented defaults.
func DefaultCoalescentParameters() CoalescentParameters {
	return CoalescentParameters{SNPHeterozygosity: 1e-3, IndelHeterozygosity: 1e-4}
}

// Coalescent is the population prior combining a coalescent tree prior over
// haplotype frequencies (an Ewens-sampling-formula zygosity term) with a
// per-haplotype mutation-distance-from-reference term weighted by
// SNPHeterozygosity/IndelHeterozygosity, per spec.md §4.5. Results are
// cached by the genotype's sorted haplotype-handle tuple, since the same
// tuple recurs across many joint-genotype evaluations within one window
// (spec.md §9 "Reference-wrapper maps").
type Coalescent struct {
	Arena  *haplotype.Arena
	Params CoalescentParameters

	mu    sync.Mutex
	cache map[string]float64
}

// NewCoalescent returns a Coalescent prior over arena's haplotypes.
func NewCoalescent(arena *haplotype.Arena, params CoalescentParameters) *Coalescent {
	return &Coalescent{Arena: arena, Params: params, cache: make(map[string]float64)}
}

func genotypeKey(g genotype.Genotype) string {
	b := make([]byte, 0, len(g.Haplotypes)*6)
	for i, h := range g.Haplotypes {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(h), 10)
	}
	return string(b)
}

// mutationCounts classifies h's accepted alleles into SNV-equivalent and
// indel-equivalent mutation counts relative to the reference: an MNV of
// length n contributes n to the SNV count (treated as n independent
// substitutions, the standard infinite-alleles approximation), an insertion
// or deletion contributes 1 to the indel count regardless of length (a
// single mutation event under the coalescent model, consistent with how
// indel_heterozygosity is defined as a per-event, not per-base, rate).
func mutationCounts(h *haplotype.Haplotype) (numSNV, numIndel int) {
	for _, a := range h.Alleles {
		switch {
		case a.Region.Size() == 1 && len(a.Sequence) == 1:
			numSNV++
		case a.Region.IsEmpty() && len(a.Sequence) > 0:
			numIndel++
		case !a.Region.IsEmpty() && len(a.Sequence) == 0:
			numIndel++
		case int64(len(a.Sequence)) == a.Region.Size() && len(a.Sequence) > 1:
			numSNV += len(a.Sequence)
		default:
			numIndel++
		}
	}
	return numSNV, numIndel
}

// logHaplotypePrior returns the log-probability of haplotype h arising from
// the reference under the coalescent mutation-distance model: each SNV
// event independently contributes log(θ_snp/(1+θ_snp)), each indel event
// log(θ_indel/(1+θ_indel)) (a geometric-tail approximation to the
// coalescent's expected branch-length mutation count, monotonic in the
// heterozygosity parameters as spec.md requires).
func (c *Coalescent) logHaplotypePrior(h *haplotype.Haplotype) float64 {
	numSNV, numIndel := mutationCounts(h)
	lp := 0.0
	if numSNV > 0 {
		lp += float64(numSNV) * math.Log(c.Params.SNPHeterozygosity/(1+c.Params.SNPHeterozygosity))
	}
	if numIndel > 0 {
		lp += float64(numIndel) * math.Log(c.Params.IndelHeterozygosity/(1+c.Params.IndelHeterozygosity))
	}
	return lp
}

// logEwensZygosity returns the log of the Ewens-sampling-formula zygosity
// term for a genotype of ploidy n with k distinct haplotypes of
// multiplicities n_1..n_k, under effective mutation parameter theta:
// n! * theta^k / (theta(theta+1)...(theta+n-1) * prod(n_i)).
func logEwensZygosity(ploidy int, multiplicities []int, theta float64) float64 {
	lp := lgammaFactorial(ploidy)
	k := len(multiplicities)
	lp += float64(k) * math.Log(theta)
	for i := 0; i < ploidy; i++ {
		lp -= math.Log(theta + float64(i))
	}
	for _, m := range multiplicities {
		lp -= math.Log(float64(m))
	}
	return lp
}

func lgammaFactorial(n int) float64 {
	v, _ := math.Lgamma(float64(n + 1))
	return v
}

// LogProbability implements Model.
func (c *Coalescent) LogProbability(g genotype.Genotype) float64 {
	key := genotypeKey(g)
	c.mu.Lock()
	if v, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	theta := c.Params.SNPHeterozygosity + c.Params.IndelHeterozygosity
	var multiplicities []int
	for i := 0; i < len(g.Haplotypes); {
		j := i + 1
		for j < len(g.Haplotypes) && g.Haplotypes[j] == g.Haplotypes[i] {
			j++
		}
		multiplicities = append(multiplicities, j-i)
		i = j
	}
	lp := logEwensZygosity(g.Ploidy(), multiplicities, theta)
	for _, h := range g.CopyUnique() {
		lp += c.logHaplotypePrior(c.Arena.Get(h))
	}

	c.mu.Lock()
	c.cache[key] = lp
	c.mu.Unlock()
	return lp
}
