package caller

import (
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/prior"
	"gonum.org/v1/gonum/floats"
)

// TumorNormalOptions configures a TumorNormalCaller.
type TumorNormalOptions struct {
	Ploidy      int
	GermlinePrior prior.Model
	// Somatic scores how likely a tumor haplotype is to have arisen from a
	// normal haplotype via acquired mutation; reusing the DeNovo model's
	// edit-distance penalty the way trio_caller.cpp reuses its mutation
	// model across the germline/de-novo and tumor/somatic axes.
	Somatic    *prior.DeNovo
	NormalEval *Evaluator
	TumorEval  *Evaluator
}

// TumorNormalLatents holds the paired posterior: a joint grid over
// (normal genotype, tumor genotype), per spec.md §9's "TumorNormal" variant.
type TumorNormalLatents struct {
	Genotypes []genotype.Genotype
	Joint     []JointEntry // Mother reused for Normal, Father unused (0), Child reused for Tumor
	LogZ      float64
	NormalMarginal []float64
	TumorMarginal  []float64
}

// TumorNormalCaller runs inference for a matched tumor/normal pair: the
// normal sample is scored under a germline prior, and the tumor sample's
// genotype is scored as a (possibly mutated) transmission from the normal
// genotype, mirroring the trio model's parent->child transmission with a
// single parent.
type TumorNormalCaller struct {
	Opts TumorNormalOptions
}

// Infer computes the joint normal/tumor posterior over haplotypes.
func (c *TumorNormalCaller) Infer(haplotypes []haplotype.Handle, normalReads, tumorReads []Read) *TumorNormalLatents {
	genotypes := genotype.GenerateAll(haplotypes, c.Opts.Ploidy)
	normalLL := c.Opts.NormalEval.GenotypeLogLikelihoods(normalReads, genotypes)
	tumorLL := c.Opts.TumorEval.GenotypeLogLikelihoods(tumorReads, genotypes)

	n := len(genotypes)
	joint := make([]JointEntry, 0, n*n)
	for ni := 0; ni < n; ni++ {
		normalPrior := c.Opts.GermlinePrior.LogProbability(genotypes[ni])
		for ti := 0; ti < n; ti++ {
			trans := c.somaticTransitionLogProbability(genotypes[ni], genotypes[ti])
			lp := normalPrior + trans + normalLL[ni] + tumorLL[ti]
			joint = append(joint, JointEntry{Mother: ni, Child: ti, LogJoint: lp})
		}
	}

	all := make([]float64, len(joint))
	for i, j := range joint {
		all[i] = j.LogJoint
	}
	logZ := floats.LogSumExp(all)

	normalMarg := marginalize(joint, logZ, n, func(j JointEntry) int { return j.Mother })
	tumorMarg := marginalize(joint, logZ, n, func(j JointEntry) int { return j.Child })

	return &TumorNormalLatents{
		Genotypes:      genotypes,
		Joint:          joint,
		LogZ:           logZ,
		NormalMarginal: normalMarg,
		TumorMarginal:  tumorMarg,
	}
}

// somaticTransitionLogProbability scores how plausible tumor's genotype is
// given normal's, summing the DeNovo per-haplotype-copy penalty over the
// best pairing of tumor copies to normal copies (ties each tumor copy to
// its nearest normal copy by edit distance, rather than the trio model's
// uniform-choice-of-parental-copy, since a tumor clone is a direct
// descendant of one specific normal haplotype, not a random meiotic draw).
func (c *TumorNormalCaller) somaticTransitionLogProbability(normal, tumor genotype.Genotype) float64 {
	total := 0.0
	for _, th := range tumor.Haplotypes {
		best := negInf
		for _, nh := range normal.Haplotypes {
			if lp := c.Opts.Somatic.LogProbability(nh, th); lp > best {
				best = lp
			}
		}
		total += best
	}
	return total
}
