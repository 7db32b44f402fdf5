// Package prior implements the population/coalescent genotype prior models
// and the de-novo mutation model of spec.md §4.5 (C9). Grounded on
// original_source/src/core/models/genotype/single_cell_prior_model.hpp's
// parameter shape and on trio_caller.cpp's use of
// UniformPopulationPriorModel / CoalescentPopulationPriorModel, with caching
// keyed by haplotype-arena-index tuple per spec.md §9 "Reference-wrapper
// maps".
package prior

import (
	"math"

	"github.com/grailbio/varcall/genotype"
)

// Model computes the log-prior-probability of a genotype over a fixed
// haplotype set. Two concrete instruments (Uniform, Coalescent) implement
// it, per spec.md §4.5.
type Model interface {
	LogProbability(g genotype.Genotype) float64
}

// Uniform is the constant population prior: every genotype of a given
// ploidy over a fixed haplotype count is equally likely.
type Uniform struct {
	// NumHaplotypes is the size of the haplotype set genotypes are drawn
	// from, needed to normalise the constant.
	NumHaplotypes int
	Ploidy        int
}

// LogProbability returns -log(NumGenotypes(NumHaplotypes, Ploidy)), the same
// value for every genotype.
func (u Uniform) LogProbability(_ genotype.Genotype) float64 {
	n := genotype.NumGenotypes(u.NumHaplotypes, u.Ploidy)
	if n <= 0 {
		return math.Inf(-1)
	}
	return -math.Log(float64(n))
}
