// Package callextract turns a caller's joint posterior (C10) into concrete
// per-site calls: allele and de-novo posterior probabilities, MAP genotype
// selection with a Mendelian-consistency preference, per-site genotype
// confidence (Phred-scaled), and pruning of candidate alleles no surviving
// genotype actually explains (C11). Grounded on
// original_source/src/core/callers/trio_caller.cpp's call_variants flow
// (compute_candidate_posteriors, remove_ungenotyped_allele, call_genotypes).
package callextract

import (
	"math"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/caller"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"gonum.org/v1/gonum/floats"
)

// Options configures the allele-posterior computation's cached/uncached
// dual path.
type Options struct {
	// AllelePosteriorCacheThreshold is the genotype-count above which
	// AllelePosterior precomputes a per-haplotype containment table instead
	// of re-scanning each genotype's haplotype copies' allele lists
	// directly, per trio_caller.cpp's dual-path optimisation (DESIGN.md
	// Open Question decision: default 500, configurable).
	AllelePosteriorCacheThreshold int
}

// DefaultOptions returns the default cache threshold (500).
func DefaultOptions() Options {
	return Options{AllelePosteriorCacheThreshold: 500}
}

// MaxGenotypeQuality caps the Phred-scaled genotype quality reported when
// the non-selected posterior mass underflows to exactly zero.
const MaxGenotypeQuality = 99.0

// AllelePosterior returns log P(a is present in the sample) marginalised
// over genotypes weighted by logPosteriors (one entry per genotypes[i],
// assumed to already sum to 1 in probability space, i.e. a normalised
// marginal). Above opts.AllelePosteriorCacheThreshold genotypes, a
// per-haplotype containment table is built once instead of re-testing
// every genotype's full allele list.
func AllelePosterior(arena *haplotype.Arena, haplotypes []haplotype.Handle, genotypes []genotype.Genotype, logPosteriors []float64, a allele.Allele, opts Options) float64 {
	var contains map[haplotype.Handle]bool
	if len(genotypes) > opts.AllelePosteriorCacheThreshold {
		contains = make(map[haplotype.Handle]bool, len(haplotypes))
		for _, h := range haplotypes {
			contains[h] = arena.Get(h).Contains(a)
		}
	}
	terms := make([]float64, 0, len(genotypes))
	for gi, g := range genotypes {
		var present bool
		if contains != nil {
			for _, h := range g.CopyUnique() {
				if contains[h] {
					present = true
					break
				}
			}
		} else {
			present = genotype.Contains(arena, g, a)
		}
		if present {
			terms = append(terms, logPosteriors[gi])
		}
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}

// DeNovoPosterior returns log P(a arose de novo in the child) under trio
// Latents l: the joint posterior mass over (mother, father, child) cells
// where the child's genotype carries a but neither parent's does, per
// trio_caller.cpp's compute_denovo_posterior.
func DeNovoPosterior(arena *haplotype.Arena, l *caller.Latents, a allele.Allele) float64 {
	terms := make([]float64, 0, len(l.Joint))
	for _, j := range l.Joint {
		if !genotype.Contains(arena, l.Genotypes[j.Child], a) {
			continue
		}
		if genotype.Contains(arena, l.Genotypes[j.Mother], a) || genotype.Contains(arena, l.Genotypes[j.Father], a) {
			continue
		}
		terms = append(terms, j.LogJoint-l.LogZ)
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}

// TrioAllelePosterior returns log P(a is present in the mother, father, or
// child) under trio Latents l: the joint posterior mass over every cell
// where any of the three pedigree roles' genotype contains a, per
// trio_caller.cpp's compute_posterior (its AllelePosteriorMap sums exactly
// the joint cells where mother, father, or child's genotype contains the
// allele).
func TrioAllelePosterior(arena *haplotype.Arena, l *caller.Latents, a allele.Allele) float64 {
	terms := make([]float64, 0, len(l.Joint))
	for _, j := range l.Joint {
		if genotype.Contains(arena, l.Genotypes[j.Mother], a) ||
			genotype.Contains(arena, l.Genotypes[j.Father], a) ||
			genotype.Contains(arena, l.Genotypes[j.Child], a) {
			terms = append(terms, j.LogJoint-l.LogZ)
		}
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}

// PopulationAllelePosterior returns the highest per-sample AllelePosterior
// across l.BySample: emitting a called allele at a cohort site should not
// require every unrelated sample to individually clear the threshold, only
// that at least one does.
func PopulationAllelePosterior(arena *haplotype.Arena, haplotypes []haplotype.Handle, l *caller.PopulationLatents, a allele.Allele, opts Options) float64 {
	best := math.Inf(-1)
	for _, sample := range l.BySample {
		if p := AllelePosterior(arena, haplotypes, sample.Genotypes, sample.Marginal, a, opts); p > best {
			best = p
		}
	}
	return best
}

// TumorNormalAllelePosterior returns log P(a is present in the normal or
// tumor genotype) under paired Latents l, the two-role analogue of
// TrioAllelePosterior's per-cell OR containment (Mother stands in for
// normal, Child for tumor, per TumorNormalLatents' field reuse).
func TumorNormalAllelePosterior(arena *haplotype.Arena, l *caller.TumorNormalLatents, a allele.Allele) float64 {
	terms := make([]float64, 0, len(l.Joint))
	for _, j := range l.Joint {
		if genotype.Contains(arena, l.Genotypes[j.Mother], a) || genotype.Contains(arena, l.Genotypes[j.Child], a) {
			terms = append(terms, j.LogJoint-l.LogZ)
		}
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}

// SomaticPosterior returns log P(a arose somatically in the tumor) under
// paired Latents l: the joint mass where the tumor genotype carries a but
// the paired normal genotype does not, the tumor/normal analogue of
// DeNovoPosterior with the normal sample standing in for both parents.
func SomaticPosterior(arena *haplotype.Arena, l *caller.TumorNormalLatents, a allele.Allele) float64 {
	terms := make([]float64, 0, len(l.Joint))
	for _, j := range l.Joint {
		if !genotype.Contains(arena, l.Genotypes[j.Child], a) {
			continue
		}
		if genotype.Contains(arena, l.Genotypes[j.Mother], a) {
			continue
		}
		terms = append(terms, j.LogJoint-l.LogZ)
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}

// LogProbToPhred converts a natural-log probability into a Phred-scaled
// score (-10*log10(p)), the same convention genotypeQuality uses for
// genotype confidence. pipeline applies it to log(1-P) of an
// allele/de-novo/somatic posterior P before comparing against the config's
// Phred-scaled min_*_posterior thresholds.
func LogProbToPhred(logP float64) float64 {
	if logP >= 0 {
		return 0
	}
	if math.IsInf(logP, -1) {
		return math.Inf(1)
	}
	return -10 * logP / math.Ln10
}

// TrioCall is the final per-site trio genotype call, with Phred-scaled
// confidence per sample.
type TrioCall struct {
	Mother, Father, Child genotype.Genotype
	MotherQuality         float64
	FatherQuality         float64
	ChildQuality          float64
}

// CallTrio selects the Mendelian-consistency-preferred MAP genotype triple
// from l (caller.Latents.MAPIndices) and attaches each sample's genotype
// quality, per trio_caller.cpp's call_trio.
func CallTrio(l *caller.Latents) TrioCall {
	best := l.MAPIndices()
	return TrioCall{
		Mother:        l.Genotypes[best.Mother],
		Father:        l.Genotypes[best.Father],
		Child:         l.Genotypes[best.Child],
		MotherQuality: genotypeQuality(l.MotherMarginal, best.Mother),
		FatherQuality: genotypeQuality(l.FatherMarginal, best.Father),
		ChildQuality:  genotypeQuality(l.ChildMarginal, best.Child),
	}
}

// genotypeQuality Phred-scales the posterior probability mass NOT assigned
// to the selected genotype: since marginal sums to 1 in probability space,
// that mass is the log-sum-exp of every other entry.
func genotypeQuality(marginal []float64, selected int) float64 {
	others := make([]float64, 0, len(marginal)-1)
	for i, v := range marginal {
		if i != selected {
			others = append(others, v)
		}
	}
	if len(others) == 0 {
		return MaxGenotypeQuality
	}
	logOther := floats.LogSumExp(others)
	if math.IsInf(logOther, -1) {
		return MaxGenotypeQuality
	}
	gq := -10 * logOther / math.Ln10
	if gq > MaxGenotypeQuality {
		gq = MaxGenotypeQuality
	}
	return gq
}

// PruneUngenotypedAlleles drops any variant from variants whose Alt allele
// is not present in at least one of the given called genotypes, per
// trio_caller.cpp's remove_ungenotyped_allele: a candidate allele that
// every sample's MAP genotype rejected should not appear in the output.
func PruneUngenotypedAlleles(arena *haplotype.Arena, variants []allele.Variant, genotypes ...genotype.Genotype) []allele.Variant {
	kept := make([]allele.Variant, 0, len(variants))
	for _, v := range variants {
		supported := false
		for _, g := range genotypes {
			if genotype.Contains(arena, g, v.Alt) {
				supported = true
				break
			}
		}
		if supported {
			kept = append(kept, v)
		}
	}
	return kept
}
