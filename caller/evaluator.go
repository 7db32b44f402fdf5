// Package caller implements the polymorphic joint-genotype-inference
// callers of spec.md §9 ("Polymorphic callers"): Individual, Population,
// Trio, and TumorNormal all share one read-likelihood Evaluator and differ
// only in how they combine per-sample genotype likelihoods with a prior
// (C10). Grounded on
// original_source/src/core/callers/trio_caller.cpp, whose Latents
// construction, marginalisation, and infer_latents/call_variants flow this
// package's Trio caller follows most closely; Individual/Population/
// TumorNormal are simplifications of the same machinery.
package caller

import (
	"math"

	"github.com/grailbio/varcall/errormodel"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/likelihoodcache"
	"github.com/grailbio/varcall/pairhmm"
	"gonum.org/v1/gonum/floats"
)

// Read is the minimal per-read evidence a caller needs: a stable ID (for
// cache keying) plus the bases/qualities pairhmm scores against a
// haplotype's materialised sequence. alnio's BAM-backed read provider
// trims/orients full alignment records down to this shape.
type Read struct {
	ID        string
	Sequence  []byte
	Qualities []byte
}

// Evaluator scores reads against haplotypes via pairhmm, memoising results
// in a per-worker likelihoodcache.Cache (C6).
type Evaluator struct {
	Arena *haplotype.Arena
	Cache *likelihoodcache.Cache
	Model errormodel.Model
}

// NewEvaluator returns an Evaluator with a fresh cache.
func NewEvaluator(arena *haplotype.Arena, model errormodel.Model) *Evaluator {
	return &Evaluator{Arena: arena, Cache: likelihoodcache.New(), Model: model}
}

// ReadLogLikelihood returns log P(r | h), memoised by (r.ID, h).
func (e *Evaluator) ReadLogLikelihood(r Read, h haplotype.Handle) float64 {
	return e.Cache.GetOrCompute(r.ID, h, func() float64 {
		hap := e.Arena.Get(h)
		return pairhmm.LogLikelihood(r.Sequence, r.Qualities, hap.Sequence(), pairhmm.Options{Model: e.Model})
	})
}

// GenotypeLogLikelihood returns the log-likelihood of a genotype g given
// reads, marginalising each read uniformly over g's Ploidy haplotype copies
// (the read is equally likely to have originated from any one copy), per
// spec.md §4.4.
func (e *Evaluator) GenotypeLogLikelihood(reads []Read, g genotype.Genotype) float64 {
	ploidy := g.Ploidy()
	if ploidy == 0 {
		return math.Inf(-1)
	}
	logPloidy := math.Log(float64(ploidy))
	total := 0.0
	perCopy := make([]float64, ploidy)
	for _, r := range reads {
		for i, h := range g.Haplotypes {
			perCopy[i] = e.ReadLogLikelihood(r, h)
		}
		total += floats.LogSumExp(perCopy) - logPloidy
	}
	return total
}

// GenotypeLogLikelihoods evaluates every genotype in genotypes against
// reads, returning one log-likelihood per genotype in the same order.
func (e *Evaluator) GenotypeLogLikelihoods(reads []Read, genotypes []genotype.Genotype) []float64 {
	out := make([]float64, len(genotypes))
	for i, g := range genotypes {
		out[i] = e.GenotypeLogLikelihood(reads, g)
	}
	return out
}
