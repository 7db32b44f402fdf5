package caller

import (
	"math"
	"sort"

	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/prior"
	"github.com/grailbio/varcall/varcallerrors"
	"gonum.org/v1/gonum/floats"
)

// TrioOptions configures a TrioCaller.
type TrioOptions struct {
	Ploidy     int // must be 2; other ploidies fail fast (see DESIGN.md Open Question decisions)
	Prior      prior.Model
	DeNovo     *prior.DeNovo
	MotherEval *Evaluator
	FatherEval *Evaluator
	ChildEval  *Evaluator
}

// JointEntry is one cell of the (maternal, paternal, child) genotype cube:
// the unnormalised log joint probability of that combination, per
// trio_caller.cpp's Latents::JointProbability table.
type JointEntry struct {
	Mother, Father, Child int // indices into Latents.Genotypes
	LogJoint              float64
}

// Latents is the full joint posterior over a trio's genotypes, plus the
// per-sample and per-haplotype marginals derived from it, mirroring
// trio_caller.cpp's Latents struct.
type Latents struct {
	Genotypes []genotype.Genotype

	Joint   []JointEntry
	LogZ    float64 // log normalising constant over the whole joint cube
	DummyLogZ float64 // log evidence of the independent/null model

	MotherMarginal []float64 // log posterior per genotype index
	FatherMarginal []float64
	ChildMarginal  []float64

	// ModelLogPosterior is log P(trio model | data) under an equal-weight
	// two-way softmax against the dummy no-linkage model (DummyLogZ). The
	// dummy model keeps the trio's ploidy and scores each sample
	// independently over the same genotype likelihoods, with a uniform prior
	// over the haplotype set enlarged by one phantom haplotype; it is not
	// re-run at a higher ploidy, and neither evidence carries an extra prior
	// weight.
	ModelLogPosterior float64
}

// TrioCaller runs mother/father/child joint inference.
type TrioCaller struct {
	Opts TrioOptions
}

// NewTrioCaller validates opts and returns a TrioCaller. Only ploidy 2 is
// currently supported: mixed or higher ploidy trios require a combinatorial
// transmission model this port does not implement, so construction fails
// fast rather than silently producing an approximate answer (DESIGN.md
// Open Question decision: dual-ploidy trio fail-fast).
func NewTrioCaller(opts TrioOptions) (*TrioCaller, error) {
	if opts.Ploidy != 2 {
		return nil, varcallerrors.New(varcallerrors.ConfigError,
			"caller: trio inference requires ploidy 2, got %d", opts.Ploidy)
	}
	return &TrioCaller{Opts: opts}, nil
}

// Infer runs joint trio inference over haplotypes given each sample's reads.
func (c *TrioCaller) Infer(haplotypes []haplotype.Handle, motherReads, fatherReads, childReads []Read) (*Latents, error) {
	genotypes := genotype.GenerateAll(haplotypes, c.Opts.Ploidy)
	if len(genotypes) == 0 {
		return nil, varcallerrors.New(varcallerrors.DataError, "caller: no genotypes enumerable over %d haplotypes", len(haplotypes))
	}

	motherLL := c.Opts.MotherEval.GenotypeLogLikelihoods(motherReads, genotypes)
	fatherLL := c.Opts.FatherEval.GenotypeLogLikelihoods(fatherReads, genotypes)
	childLL := c.Opts.ChildEval.GenotypeLogLikelihoods(childReads, genotypes)

	motherPrior := make([]float64, len(genotypes))
	fatherPrior := make([]float64, len(genotypes))
	for i, g := range genotypes {
		motherPrior[i] = c.Opts.Prior.LogProbability(g)
		fatherPrior[i] = c.Opts.Prior.LogProbability(g)
	}

	n := len(genotypes)
	joint := make([]JointEntry, 0, n*n*n)
	for mi := 0; mi < n; mi++ {
		for pi := 0; pi < n; pi++ {
			for ci := 0; ci < n; ci++ {
				trans := c.transmissionLogProbability(genotypes[mi], genotypes[pi], genotypes[ci])
				lp := motherPrior[mi] + fatherPrior[pi] + trans + motherLL[mi] + fatherLL[pi] + childLL[ci]
				joint = append(joint, JointEntry{Mother: mi, Father: pi, Child: ci, LogJoint: lp})
			}
		}
	}

	all := make([]float64, len(joint))
	for i, j := range joint {
		all[i] = j.LogJoint
	}
	logZ := floats.LogSumExp(all)

	motherMarg := marginalize(joint, logZ, n, func(j JointEntry) int { return j.Mother })
	fatherMarg := marginalize(joint, logZ, n, func(j JointEntry) int { return j.Father })
	childMarg := marginalize(joint, logZ, n, func(j JointEntry) int { return j.Child })

	dummyLogZ := c.dummyModelLogEvidence(genotypes, motherLL, fatherLL, childLL)
	modelPosterior := logZ - floats.LogSumExp([]float64{logZ, dummyLogZ})

	return &Latents{
		Genotypes:         genotypes,
		Joint:             joint,
		LogZ:              logZ,
		DummyLogZ:         dummyLogZ,
		MotherMarginal:    motherMarg,
		FatherMarginal:    fatherMarg,
		ChildMarginal:     childMarg,
		ModelLogPosterior: modelPosterior,
	}, nil
}

func marginalize(joint []JointEntry, logZ float64, n int, key func(JointEntry) int) []float64 {
	buckets := make([][]float64, n)
	for _, j := range joint {
		k := key(j)
		buckets[k] = append(buckets[k], j.LogJoint)
	}
	out := make([]float64, n)
	for i, b := range buckets {
		if len(b) == 0 {
			out[i] = negInf
			continue
		}
		out[i] = floats.LogSumExp(b) - logZ
	}
	return out
}

var negInf = math.Inf(-1)

// transmissionLogProbability returns log P(child genotype | mother, father)
// for diploid trios: the child's two haplotype copies are each drawn from
// one parent, one of that parent's two copies chosen uniformly, with the
// DeNovo model scoring any copy that does not exactly match a parental
// haplotype, per trio_caller.cpp's germline transmission model.
func (c *TrioCaller) transmissionLogProbability(mother, father, child genotype.Genotype) float64 {
	m := mother.Haplotypes
	f := father.Haplotypes
	ch := child.Haplotypes
	if len(m) != 2 || len(f) != 2 || len(ch) != 2 {
		return negInf
	}
	// Two ways to assign which child copy is maternal- vs paternal-derived;
	// a homozygous child has only one distinct assignment.
	orders := [][2]int{{0, 1}, {1, 0}}
	if ch[0] == ch[1] {
		orders = orders[:1]
	}
	terms := make([]float64, 0, 8)
	for _, order := range orders {
		maternalChild := ch[order[0]]
		paternalChild := ch[order[1]]
		for _, mh := range m {
			for _, fh := range f {
				lp := c.Opts.DeNovo.LogProbability(mh, maternalChild) +
					c.Opts.DeNovo.LogProbability(fh, paternalChild) -
					logFour
				terms = append(terms, lp)
			}
		}
	}
	return floats.LogSumExp(terms)
}

var logFour = math.Log(4)

// dummyModelLogEvidence computes the log evidence of an "independent
// samples, no pedigree linkage" null model over a haplotype set enlarged by
// one phantom haplotype, per trio_caller.cpp's calculate_model_posterior.
// The enlarged uniform prior down-weights the null model exactly enough
// that a real trio with uninformative reads doesn't spuriously beat it.
func (c *TrioCaller) dummyModelLogEvidence(genotypes []genotype.Genotype, motherLL, fatherLL, childLL []float64) float64 {
	numHaplotypes := 0
	for _, g := range genotypes {
		for _, h := range g.Haplotypes {
			if int(h)+1 > numHaplotypes {
				numHaplotypes = int(h) + 1
			}
		}
	}
	dummyPrior := prior.Uniform{NumHaplotypes: numHaplotypes + 1, Ploidy: c.Opts.Ploidy}
	logPrior := dummyPrior.LogProbability(genotype.Genotype{})

	motherZ := sampleLogEvidence(motherLL, logPrior)
	fatherZ := sampleLogEvidence(fatherLL, logPrior)
	childZ := sampleLogEvidence(childLL, logPrior)
	return motherZ + fatherZ + childZ
}

func sampleLogEvidence(ll []float64, logPrior float64) float64 {
	terms := make([]float64, len(ll))
	for i, l := range ll {
		terms[i] = l + logPrior
	}
	return floats.LogSumExp(terms)
}

// MAPIndices selects the joint cell with the highest posterior among
// Mendelian-consistent combinations, falling back to the unconstrained
// global MAP if none is Mendelian-consistent (the full genotype cube always
// holds consistent cells, so Infer's Latents never reach the fallback), per
// trio_caller.cpp's call_trio MAP-with-fallback selection.
func (l *Latents) MAPIndices() JointEntry {
	sorted := append([]JointEntry(nil), l.Joint...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LogJoint > sorted[j].LogJoint })
	for _, e := range sorted {
		if isMendelianConsistent(l.Genotypes[e.Mother], l.Genotypes[e.Father], l.Genotypes[e.Child]) {
			return e
		}
	}
	return sorted[0]
}

// isMendelianConsistent reports whether every haplotype copy in child is
// present in mother's or father's haplotype set (a necessary, not
// sufficient, condition for a non-de-novo transmission, matching the
// coarse consistency check trio_caller.cpp applies before accepting a MAP
// call outright).
func isMendelianConsistent(mother, father, child genotype.Genotype) bool {
	present := make(map[haplotype.Handle]bool, len(mother.Haplotypes)+len(father.Haplotypes))
	for _, h := range mother.Haplotypes {
		present[h] = true
	}
	for _, h := range father.Haplotypes {
		present[h] = true
	}
	for _, h := range child.Haplotypes {
		if !present[h] {
			return false
		}
	}
	return true
}
