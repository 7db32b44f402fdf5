package caller

import (
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/prior"
	"gonum.org/v1/gonum/floats"
)

// IndividualLatents is the single-sample analogue of Latents: a posterior
// over one sample's genotypes with no pedigree linkage.
type IndividualLatents struct {
	Genotypes []genotype.Genotype
	LogZ      float64
	Marginal  []float64 // log posterior per genotype index
}

// IndividualCaller runs inference for a single, unrelated sample, per
// spec.md §9's "Individual" caller variant.
type IndividualCaller struct {
	Prior prior.Model
	Eval  *Evaluator
}

// Infer computes the posterior over every genotype of the given ploidy
// drawn from haplotypes, scored against reads.
func (c *IndividualCaller) Infer(haplotypes []haplotype.Handle, ploidy int, reads []Read) *IndividualLatents {
	genotypes := genotype.GenerateAll(haplotypes, ploidy)
	ll := c.Eval.GenotypeLogLikelihoods(reads, genotypes)
	logp := make([]float64, len(genotypes))
	for i, g := range genotypes {
		logp[i] = c.Prior.LogProbability(g) + ll[i]
	}
	logZ := floats.LogSumExp(logp)
	marginal := make([]float64, len(genotypes))
	for i, v := range logp {
		marginal[i] = v - logZ
	}
	return &IndividualLatents{Genotypes: genotypes, LogZ: logZ, Marginal: marginal}
}

// MAP returns the index of the highest-posterior genotype.
func (l *IndividualLatents) MAP() int {
	best := 0
	for i, v := range l.Marginal {
		if v > l.Marginal[best] {
			best = i
		}
	}
	return best
}
