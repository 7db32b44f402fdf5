// Package pipeline wires the per-region stages (C7 vargen -> C12 phaser ->
// C5/C6 pairhmm/likelihoodcache -> C10 caller -> C11 callextract) into a
// worker-pool driver that partitions a reference's contigs across
// goroutines and emits VCF records per region (C13, spec.md §5
// "Concurrency model"). Grounded on pileup/snp/pileup.go's
// traverse.Each(parallelism, func(jobIdx int) error {...}) job-partitioning
// idiom, where each job owns a private slice of work and a private result
// slot (here, a row range of regions and a same-indexed results bucket) so
// no locking is needed across jobs.
package pipeline

import (
	goerrors "errors"
	"math"

	"github.com/google/uuid"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/caller"
	"github.com/grailbio/varcall/callextract"
	"github.com/grailbio/varcall/errormodel"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/phaser"
	"github.com/grailbio/varcall/prior"
	"github.com/grailbio/varcall/refio"
	"github.com/grailbio/varcall/vargen"
	"github.com/grailbio/varcall/varcallerrors"
	"github.com/grailbio/varcall/vcfsink"
	"gonum.org/v1/gonum/floats"
)

// AlignmentSource is the narrow view of an alnio.Reader the Driver
// consumes, re-declared here (rather than importing alnio's concrete type)
// so the pipeline can be driven in tests with a fake source, per
// encoding/bamprovider.Provider's own interface-over-concrete-reader
// convention.
type AlignmentSource interface {
	FetchReads(region genome.Region) []vargen.Read
	FetchReadsBySample(region genome.Region) map[string][]caller.Read
}

// Sample is one BAM-backed alignment source feeding the pipeline. For Trio
// runs, Samples must be ordered [mother, father, child]; for TumorNormal,
// [normal, tumor]; Individual/Population runs accept any order.
type Sample struct {
	ID         string
	Alignments AlignmentSource
}

// Options configures one Driver run, gathering the per-stage configuration
// the pipeline wires together.
type Options struct {
	Parallelism int
	Ploidy      int
	Mode        vargen.Mode
	Kind        caller.Kind

	VargenOptions vargen.Options
	PhaserOptions phaser.Options

	ErrorModel errormodel.Model

	// Prior is used directly when it does not depend on a specific
	// haplotype.Arena (e.g. prior.Uniform). Set PriorFactory instead when
	// the model needs the region's own arena (e.g. prior.Coalescent, whose
	// cache and Arena.Get calls are only valid against the arena it was
	// built from); PriorFactory takes precedence when both are set.
	Prior        prior.Model
	PriorFactory func(arena *haplotype.Arena) prior.Model

	// DeNovo is required for Trio/TumorNormal. Like Prior/PriorFactory
	// above, DeNovo is arena-bound at construction (its cache and
	// Arena.Get calls are keyed by that arena's handles), so set
	// DeNovoFactory instead of DeNovo when the Driver will process more
	// than one region (each RunRegion call builds its own fresh arena).
	DeNovo        *prior.DeNovo
	DeNovoFactory func(arena *haplotype.Arena) *prior.DeNovo

	// MinVariantPosterior, MinDeNovoPosterior, and MinSomaticPosterior are
	// Phred-scaled emission thresholds gating which pruned candidates
	// callWindow actually writes out, and as which vcfsink.RecordKind, per
	// spec.md §6's min_variant_posterior/min_denovo_posterior/
	// min_somatic_posterior config entries.
	MinVariantPosterior float64
	MinDeNovoPosterior  float64
	MinSomaticPosterior float64

	// MinPhaseScore is the Phred-scaled confidence (the window's selected
	// haplotypes' minimum sample genotype quality) below which a window's
	// calls are reported without a PS value, per spec.md §6's
	// min_phase_score.
	MinPhaseScore float64
}

// posteriorLookup answers, for one window's caller output, the posterior
// probabilities callWindow gates emission on: Allele is log P(a is present
// in some called sample/pedigree role), DeNovo is log P(a arose de novo in
// a trio child, or somatically in a tumor), returning math.Inf(-1) for
// caller Kinds with no such concept (Individual, Population).
type posteriorLookup struct {
	Allele func(a allele.Allele) float64
	DeNovo func(a allele.Allele) float64
}

// priorModel returns the prior to use for one RunRegion call's arena, per
// Options.Prior/PriorFactory above.
func (d *Driver) priorModel(arena *haplotype.Arena) prior.Model {
	if d.Opts.PriorFactory != nil {
		return d.Opts.PriorFactory(arena)
	}
	return d.Opts.Prior
}

// deNovoModel returns the de-novo model to use for one RunRegion call's
// arena, per Options.DeNovo/DeNovoFactory above.
func (d *Driver) deNovoModel(arena *haplotype.Arena) *prior.DeNovo {
	if d.Opts.DeNovoFactory != nil {
		return d.Opts.DeNovoFactory(arena)
	}
	return d.Opts.DeNovo
}

// Driver runs the full candidate-generation-through-call-extraction
// pipeline over a set of regions, one worker-pool job per region
// partition.
type Driver struct {
	Opts      Options
	Reference *refio.Reference
	Samples   []Sample

	// RunID tags every log line this Driver emits, so concurrent runs
	// sharing one process's log stream (e.g. in a test harness driving
	// several Drivers at once) stay distinguishable, per cmd/bio-pileup's
	// run-scoped logging convention of stamping a request/run identifier
	// rather than relying on goroutine-local context.
	RunID string
}

// NewDriver returns a Driver, stamping a fresh RunID.
func NewDriver(opts Options, reference *refio.Reference, samples []Sample) *Driver {
	return &Driver{Opts: opts, Reference: reference, Samples: samples, RunID: uuid.New().String()}
}

// RegionResult is one region's surviving, pruned calls, ready for a
// vcfsink.Writer. Arena is the region's own haplotype arena, required
// alongside Records since every Genotype in Records carries Handles scoped
// to it (vcfsink.Writer.WriteRecord takes the arena as a separate
// argument to resolve them).
type RegionResult struct {
	Region  genome.Region
	Arena   *haplotype.Arena
	Records []vcfsink.Record
}

// Run partitions regions across Opts.Parallelism workers and returns every
// region's results. A region whose processing fails with a non-fatal
// varcallerrors.Kind (anything but ConfigError/InputError, per Section 7's
// taxonomy) is logged and skipped rather than aborting the whole run; a
// fatal error aborts the run and is returned to the caller.
func (d *Driver) Run(regions []genome.Region) ([]RegionResult, error) {
	if len(regions) == 0 {
		return nil, nil
	}
	parallelism := d.Opts.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	if parallelism > len(regions) {
		parallelism = len(regions)
	}

	resultBuckets := make([][]RegionResult, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(regions)) / parallelism
		endIdx := ((jobIdx + 1) * len(regions)) / parallelism
		var bucket []RegionResult
		for _, region := range regions[startIdx:endIdx] {
			records, arena, err := d.runRegion(region)
			if err != nil {
				if isFatal(err) {
					return err
				}
				log.Printf("pipeline[%s]: skipping region %s: %v", d.RunID, region.String(), err)
				continue
			}
			if len(records) > 0 {
				bucket = append(bucket, RegionResult{Region: region, Arena: arena, Records: records})
			}
		}
		resultBuckets[jobIdx] = bucket
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []RegionResult
	for _, bucket := range resultBuckets {
		out = append(out, bucket...)
	}
	return out, nil
}

// isFatal reports whether err (returned from RunRegion) should abort the
// whole Driver.Run rather than just skip the offending region, per
// varcallerrors.Kind.Fatal. An error that isn't one of this module's typed
// errors is treated as fatal, since an unrecognized failure mode has no
// established isolation boundary.
func isFatal(err error) bool {
	var e *varcallerrors.Error
	if goerrors.As(err, &e) {
		return e.Kind.Fatal()
	}
	return true
}

// RunRegion runs the full per-region pipeline and returns one
// vcfsink.Record per surviving variant across every window in region. See
// runRegion for the arena-returning variant Run itself uses.
func (d *Driver) RunRegion(region genome.Region) ([]vcfsink.Record, error) {
	records, _, err := d.runRegion(region)
	return records, err
}

// runRegion runs the full per-region pipeline: candidate scanning (C7),
// then, per phaser window, haplotype proposal (C12), joint genotype
// inference (C10), and call extraction (C11). It also returns the arena
// backing every returned record's Genotype handles, since that arena does
// not outlive the call otherwise (a fresh one is built per region, per the
// package doc's worker-pool note) and vcfsink.Writer.WriteRecord needs it
// to resolve GT fields.
func (d *Driver) runRegion(region genome.Region) ([]vcfsink.Record, *haplotype.Arena, error) {
	fetch := d.Reference.Fetcher()
	scanner := vargen.NewScanner(vargen.ReferenceFetcher(fetch), d.Opts.VargenOptions)

	readsBySample := make(map[string][]caller.Read, len(d.Samples))
	for _, s := range d.Samples {
		for _, r := range s.Alignments.FetchReads(region) {
			if err := scanner.AddRead(r); err != nil {
				return nil, nil, varcallerrors.Wrap(varcallerrors.DataError, err, "pipeline: scan read").WithRegion(region.String())
			}
		}
		for sampleID, reads := range s.Alignments.FetchReadsBySample(region) {
			readsBySample[sampleID] = append(readsBySample[sampleID], reads...)
		}
	}

	candidates := scanner.Candidates(d.Opts.Mode)
	if len(candidates) == 0 {
		return nil, nil, nil
	}
	variants := make([]allele.Variant, len(candidates))
	candidateByVariant := make(map[string]vargen.Candidate, len(candidates))
	for i, c := range candidates {
		variants[i] = c.Variant
		candidateByVariant[candidateKey(c.Variant)] = c
	}

	arena := haplotype.NewArena()
	evals := make(map[string]*caller.Evaluator, len(d.Samples))
	for _, s := range d.Samples {
		evals[s.ID] = caller.NewEvaluator(arena, d.Opts.ErrorModel)
	}

	gen := phaser.NewGenerator(region, variants, arena, fetch, d.Opts.PhaserOptions)
	var records []vcfsink.Record
	for !gen.Done() {
		windowVariants := variantsInWindow(variants, gen.NextActiveRegion())
		handles, err := gen.Progress()
		if err != nil {
			if varcallerrors.Is(err, varcallerrors.OverflowError) {
				log.Printf("pipeline[%s]: holdout overflow in %s, forcing the window forward", d.RunID, gen.NextActiveRegion().String())
				gen.ForceForward()
				continue
			}
			return nil, nil, err
		}
		if len(handles) == 0 || len(windowVariants) == 0 {
			continue
		}
		windowRecords, used, err := d.callWindow(arena, handles, windowVariants, readsBySample, evals, candidateByVariant, gen.CurrentPhaseSet())
		if err != nil {
			return nil, nil, err
		}
		gen.KeepHaplotypes(used)
		records = append(records, windowRecords...)
		for _, e := range evals {
			e.Cache.Reset()
		}
	}
	return records, arena, nil
}

// candidateKey matches the shape of vargen's own (unexported) variantKey,
// so a Candidate's originating C7 evidence (Depth, MappingQualities) can be
// looked up again from its resulting allele.Variant once it reaches
// callWindow.
func candidateKey(v allele.Variant) string {
	return v.Region().String() + "|" + string(v.Alt.Sequence)
}

// variantsInWindow returns the subset of variants whose region falls within
// w, the set of candidates phaser.Generator.Progress will propose
// haplotypes over in the matching Progress call.
func variantsInWindow(variants []allele.Variant, w genome.Region) []allele.Variant {
	var out []allele.Variant
	for _, v := range variants {
		if w.Overlaps(v.Region()) {
			out = append(out, v)
		}
	}
	return out
}

// callWindow runs joint genotype inference over one phaser window's
// haplotypes and emits one vcfsink.Record per surviving variant in that
// window, reusing the single per-sample (or per-trio/per-pair) MAP
// genotype across every variant the window contains: real haplotype-based
// calling selects one haplotype pair per sample per window and reports
// every site within it from that same selection, rather than re-deriving a
// genotype per site.
func (d *Driver) callWindow(arena *haplotype.Arena, handles []haplotype.Handle, variants []allele.Variant, readsBySample map[string][]caller.Read, evals map[string]*caller.Evaluator, candidateByVariant map[string]vargen.Candidate, phaseSet int) ([]vcfsink.Record, []haplotype.Handle, error) {
	calls, genotypes, posteriors, err := d.infer(arena, handles, readsBySample, evals, d.priorModel(arena), d.deNovoModel(arena))
	if err != nil {
		return nil, nil, err
	}

	pruned := callextract.PruneUngenotypedAlleles(arena, variants, genotypes...)
	if len(pruned) == 0 {
		return nil, nil, nil
	}

	minQuality := math.Inf(1)
	for _, s := range d.Samples {
		if c, ok := calls[s.ID]; ok && c.Quality < minQuality {
			minQuality = c.Quality
		}
	}
	recordPhaseSet := 0
	if minQuality >= d.Opts.MinPhaseScore {
		recordPhaseSet = phaseSet
	}

	// Emission thresholds are Phred scores of the error probability 1-P.
	errorPhred := func(logP float64) float64 {
		if logP >= 0 {
			return math.Inf(1)
		}
		return callextract.LogProbToPhred(math.Log1p(-math.Exp(logP)))
	}
	records := make([]vcfsink.Record, 0, len(pruned))
	for _, v := range pruned {
		allelePhred := errorPhred(posteriors.Allele(v.Alt))
		denovoPhred := errorPhred(posteriors.DeNovo(v.Alt))

		var kind vcfsink.RecordKind
		switch {
		case d.Opts.Kind == caller.Trio && denovoPhred >= d.Opts.MinDeNovoPosterior:
			kind = vcfsink.DeNovo
		case d.Opts.Kind == caller.TumorNormal && denovoPhred >= d.Opts.MinSomaticPosterior:
			kind = vcfsink.Somatic
		case allelePhred >= d.Opts.MinVariantPosterior:
			kind = vcfsink.Germline
		default:
			continue // below every emission threshold
		}

		rec := vcfsink.Record{Variant: v, Filter: "PASS", Kind: kind, PhaseSet: recordPhaseSet}
		if cand, ok := candidateByVariant[candidateKey(v)]; ok {
			rec.Depth = cand.Depth
			rec.MeanMappingQuality = meanMappingQuality(cand.MappingQualities)
		}
		for _, s := range d.Samples {
			rec.Samples = append(rec.Samples, calls[s.ID])
		}
		records = append(records, rec)
	}

	return records, usedHaplotypes(genotypes), nil
}

// meanMappingQuality averages a candidate's supporting-read MAPQ list,
// written as the VCF MQ FORMAT field.
func meanMappingQuality(quals []byte) float64 {
	if len(quals) == 0 {
		return 0
	}
	var sum int
	for _, q := range quals {
		sum += int(q)
	}
	return float64(sum) / float64(len(quals))
}

// usedHaplotypes flattens and dedups the haplotype handles genotypes
// actually reference, for Generator.KeepHaplotypes to carry forward.
func usedHaplotypes(genotypes []genotype.Genotype) []haplotype.Handle {
	seen := make(map[haplotype.Handle]bool)
	var out []haplotype.Handle
	for _, g := range genotypes {
		for _, h := range g.Haplotypes {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}

// infer dispatches to the caller Kind this Driver was configured with,
// returning each sample's SampleCall (by sample ID, for vcfsink.Record
// assembly), the flat list of called genotypes (for
// PruneUngenotypedAlleles, which only needs to know which alleles any
// sample's MAP genotype actually carries), and a posteriorLookup callWindow
// gates emission on.
func (d *Driver) infer(arena *haplotype.Arena, haplotypes []haplotype.Handle, readsBySample map[string][]caller.Read, evals map[string]*caller.Evaluator, priorModel prior.Model, deNovo *prior.DeNovo) (map[string]vcfsink.SampleCall, []genotype.Genotype, posteriorLookup, error) {
	switch d.Opts.Kind {
	case caller.Individual:
		return d.inferIndividual(arena, haplotypes, readsBySample, evals, priorModel)
	case caller.Population:
		return d.inferPopulation(arena, haplotypes, readsBySample, evals, priorModel)
	case caller.Trio:
		return d.inferTrio(arena, haplotypes, readsBySample, evals, priorModel, deNovo)
	case caller.TumorNormal:
		return d.inferTumorNormal(arena, haplotypes, readsBySample, evals, priorModel, deNovo)
	default:
		return nil, nil, posteriorLookup{}, varcallerrors.New(varcallerrors.ConfigError, "pipeline: unknown caller kind %v", d.Opts.Kind)
	}
}

// noDeNovo is the posteriorLookup.DeNovo used by caller Kinds with no
// de-novo/somatic concept (Individual, Population): always below threshold.
func noDeNovo(allele.Allele) float64 { return math.Inf(-1) }

func (d *Driver) inferIndividual(arena *haplotype.Arena, haplotypes []haplotype.Handle, readsBySample map[string][]caller.Read, evals map[string]*caller.Evaluator, priorModel prior.Model) (map[string]vcfsink.SampleCall, []genotype.Genotype, posteriorLookup, error) {
	calls := make(map[string]vcfsink.SampleCall, len(d.Samples))
	var genotypes []genotype.Genotype
	var latentsBySample []*caller.IndividualLatents
	for _, s := range d.Samples {
		c := &caller.IndividualCaller{Prior: priorModel, Eval: evals[s.ID]}
		latents := c.Infer(haplotypes, d.Opts.Ploidy, readsBySample[s.ID])
		best := latents.MAP()
		g := latents.Genotypes[best]
		calls[s.ID] = vcfsink.SampleCall{Genotype: g, Quality: genotypeQuality(latents.Marginal, best)}
		genotypes = append(genotypes, g)
		latentsBySample = append(latentsBySample, latents)
	}
	extractOpts := callextract.DefaultOptions()
	lookup := posteriorLookup{
		Allele: func(a allele.Allele) float64 {
			best := math.Inf(-1)
			for _, latents := range latentsBySample {
				if p := callextract.AllelePosterior(arena, haplotypes, latents.Genotypes, latents.Marginal, a, extractOpts); p > best {
					best = p
				}
			}
			return best
		},
		DeNovo: noDeNovo,
	}
	return calls, genotypes, lookup, nil
}

func (d *Driver) inferPopulation(arena *haplotype.Arena, haplotypes []haplotype.Handle, readsBySample map[string][]caller.Read, evals map[string]*caller.Evaluator, priorModel prior.Model) (map[string]vcfsink.SampleCall, []genotype.Genotype, posteriorLookup, error) {
	c := &caller.PopulationCaller{Prior: priorModel, Ploidy: d.Opts.Ploidy, Evals: evals}
	latents := c.Infer(haplotypes, readsBySample)
	calls := make(map[string]vcfsink.SampleCall, len(d.Samples))
	var genotypes []genotype.Genotype
	for _, s := range d.Samples {
		sampleLatents := latents.BySample[s.ID]
		if sampleLatents == nil {
			continue
		}
		best := sampleLatents.MAP()
		g := sampleLatents.Genotypes[best]
		calls[s.ID] = vcfsink.SampleCall{Genotype: g, Quality: genotypeQuality(sampleLatents.Marginal, best)}
		genotypes = append(genotypes, g)
	}
	extractOpts := callextract.DefaultOptions()
	lookup := posteriorLookup{
		Allele: func(a allele.Allele) float64 {
			return callextract.PopulationAllelePosterior(arena, haplotypes, latents, a, extractOpts)
		},
		DeNovo: noDeNovo,
	}
	return calls, genotypes, lookup, nil
}

func (d *Driver) inferTrio(arena *haplotype.Arena, haplotypes []haplotype.Handle, readsBySample map[string][]caller.Read, evals map[string]*caller.Evaluator, priorModel prior.Model, deNovo *prior.DeNovo) (map[string]vcfsink.SampleCall, []genotype.Genotype, posteriorLookup, error) {
	if len(d.Samples) != 3 {
		return nil, nil, posteriorLookup{}, varcallerrors.New(varcallerrors.ConfigError, "pipeline: trio calling requires exactly 3 samples (mother, father, child), got %d", len(d.Samples))
	}
	mother, father, child := d.Samples[0], d.Samples[1], d.Samples[2]
	trioCaller, err := caller.NewTrioCaller(caller.TrioOptions{
		Ploidy:     d.Opts.Ploidy,
		Prior:      priorModel,
		DeNovo:     deNovo,
		MotherEval: evals[mother.ID],
		FatherEval: evals[father.ID],
		ChildEval:  evals[child.ID],
	})
	if err != nil {
		return nil, nil, posteriorLookup{}, err
	}
	latents, err := trioCaller.Infer(haplotypes, readsBySample[mother.ID], readsBySample[father.ID], readsBySample[child.ID])
	if err != nil {
		return nil, nil, posteriorLookup{}, err
	}
	call := callextract.CallTrio(latents)
	calls := map[string]vcfsink.SampleCall{
		mother.ID: {Genotype: call.Mother, Quality: call.MotherQuality},
		father.ID: {Genotype: call.Father, Quality: call.FatherQuality},
		child.ID:  {Genotype: call.Child, Quality: call.ChildQuality},
	}
	lookup := posteriorLookup{
		Allele: func(a allele.Allele) float64 { return callextract.TrioAllelePosterior(arena, latents, a) },
		DeNovo: func(a allele.Allele) float64 { return callextract.DeNovoPosterior(arena, latents, a) },
	}
	return calls, []genotype.Genotype{call.Mother, call.Father, call.Child}, lookup, nil
}

func (d *Driver) inferTumorNormal(arena *haplotype.Arena, haplotypes []haplotype.Handle, readsBySample map[string][]caller.Read, evals map[string]*caller.Evaluator, priorModel prior.Model, deNovo *prior.DeNovo) (map[string]vcfsink.SampleCall, []genotype.Genotype, posteriorLookup, error) {
	if len(d.Samples) != 2 {
		return nil, nil, posteriorLookup{}, varcallerrors.New(varcallerrors.ConfigError, "pipeline: tumor/normal calling requires exactly 2 samples (normal, tumor), got %d", len(d.Samples))
	}
	normal, tumor := d.Samples[0], d.Samples[1]
	c := &caller.TumorNormalCaller{Opts: caller.TumorNormalOptions{
		Ploidy:        d.Opts.Ploidy,
		GermlinePrior: priorModel,
		Somatic:       deNovo,
		NormalEval:    evals[normal.ID],
		TumorEval:     evals[tumor.ID],
	}}
	latents := c.Infer(haplotypes, readsBySample[normal.ID], readsBySample[tumor.ID])

	normalBest := argmax(latents.NormalMarginal)
	tumorBest := argmax(latents.TumorMarginal)
	normalGenotype := latents.Genotypes[normalBest]
	tumorGenotype := latents.Genotypes[tumorBest]

	calls := map[string]vcfsink.SampleCall{
		normal.ID: {Genotype: normalGenotype, Quality: genotypeQuality(latents.NormalMarginal, normalBest)},
		tumor.ID:  {Genotype: tumorGenotype, Quality: genotypeQuality(latents.TumorMarginal, tumorBest)},
	}
	lookup := posteriorLookup{
		Allele: func(a allele.Allele) float64 { return callextract.TumorNormalAllelePosterior(arena, latents, a) },
		DeNovo: func(a allele.Allele) float64 { return callextract.SomaticPosterior(arena, latents, a) },
	}
	return calls, []genotype.Genotype{normalGenotype, tumorGenotype}, lookup, nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// genotypeQuality Phred-scales the posterior mass not assigned to the
// selected genotype index, matching callextract's own (unexported)
// genotypeQuality so Individual/Population/TumorNormal calls are reported
// on the same QUAL scale as Trio's callextract.CallTrio output.
func genotypeQuality(marginal []float64, selected int) float64 {
	others := make([]float64, 0, len(marginal)-1)
	for i, v := range marginal {
		if i != selected {
			others = append(others, v)
		}
	}
	if len(others) == 0 {
		return callextract.MaxGenotypeQuality
	}
	logOther := floats.LogSumExp(others)
	if math.IsInf(logOther, -1) {
		return callextract.MaxGenotypeQuality
	}
	gq := -10 * logOther / math.Ln10
	if gq > callextract.MaxGenotypeQuality {
		gq = callextract.MaxGenotypeQuality
	}
	return gq
}
