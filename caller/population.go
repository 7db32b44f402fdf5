package caller

import (
	"math"

	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/prior"
)

// PopulationLatents holds each sample's individual posterior plus a
// population-level haplotype-frequency summary, per spec.md §9's
// "Population" caller variant: samples are unrelated (no pedigree, unlike
// Trio) but share one prior fit to the whole cohort's haplotype set.
type PopulationLatents struct {
	BySample           map[string]*IndividualLatents
	HaplotypeFrequency map[haplotype.Handle]float64 // mean posterior copy-count fraction across samples
}

// PopulationCaller runs inference for a cohort of unrelated samples
// scored under one shared prior.Model, per spec.md §9.
type PopulationCaller struct {
	Prior  prior.Model
	Ploidy int
	Evals  map[string]*Evaluator // per-sample evaluator (distinct read sets, shared arena)
}

// Infer computes each sample's individual posterior and the cohort-level
// haplotype frequency estimate.
func (c *PopulationCaller) Infer(haplotypes []haplotype.Handle, reads map[string][]Read) *PopulationLatents {
	bySample := make(map[string]*IndividualLatents, len(reads))
	freqSum := make(map[haplotype.Handle]float64, len(haplotypes))

	for sampleID, sampleReads := range reads {
		eval := c.Evals[sampleID]
		individual := &IndividualCaller{Prior: c.Prior, Eval: eval}
		latents := individual.Infer(haplotypes, c.Ploidy, sampleReads)
		bySample[sampleID] = latents
		for gi, g := range latents.Genotypes {
			post := expClamped(latents.Marginal[gi])
			for _, h := range g.Haplotypes {
				freqSum[h] += post / float64(c.Ploidy)
			}
		}
	}

	freq := make(map[haplotype.Handle]float64, len(freqSum))
	n := float64(len(reads))
	if n == 0 {
		n = 1
	}
	for h, sum := range freqSum {
		freq[h] = sum / n
	}
	return &PopulationLatents{BySample: bySample, HaplotypeFrequency: freq}
}

func expClamped(logp float64) float64 {
	if logp > 0 {
		logp = 0
	}
	return math.Exp(logp)
}
