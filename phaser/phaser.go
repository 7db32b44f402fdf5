// Package phaser incrementally builds candidate Haplotypes over a scan
// region from a sorted list of candidate Variants (C7's output), advancing
// a sliding active window and holding out low-priority candidates when the
// combinatorial haplotype count would exceed a budget (C12, spec.md §4.2,
// §9 "Haplotype generation/windowing"). Grounded on
// original_source/src/haplotype_generator.hpp's HaplotypeGenerator: its
// tree_/walker_/alleles_ triple (a trie of included alleles, a cursor over
// the active region, and the raw candidate list) map onto Generator's
// per-window power set of active candidates, its cursor plus holdout
// bitset, and its variants slice respectively.
package phaser

import (
	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/varcallerrors"
	"github.com/willf/bitset"
)

// LaggingPolicy names how eagerly the window advances past candidates
// that have not yet accumulated enough supporting reads to resolve,
// per haplotype_generator.hpp's lagging_policy. Generator stores
// Options.Lagging but does not read it: under every policy the window
// starts at the next unconsumed candidate and spans WindowSize, and no
// earlier variant is kept in it.
type LaggingPolicy int

const (
	// NoLagging advances the window strictly by WindowSize regardless of
	// unresolved candidates.
	NoLagging LaggingPolicy = iota
	// ConservativeLagging names holding the window open one extra step
	// past the last unresolved candidate; Generator advances the window
	// as under NoLagging.
	ConservativeLagging
	// AggressiveLagging names extending the window as far as needed to
	// resolve every pending candidate; Generator advances the window as
	// under NoLagging.
	AggressiveLagging
)

// Options configures a Generator.
type Options struct {
	// MaxHaplotypes bounds how many distinct haplotype proposals one
	// window may produce before low-priority candidates are held out.
	MaxHaplotypes int
	// MaxHoldoutDepth bounds how many consecutive holdout rounds one
	// window may take before Progress reports an OverflowError.
	MaxHoldoutDepth int
	Lagging         LaggingPolicy
	WindowSize      genome.PosType
}

// DefaultOptions mirrors the teacher-scale constants used elsewhere in this
// module (a few hundred haplotypes, single-digit holdout retries).
func DefaultOptions() Options {
	return Options{MaxHaplotypes: 128, MaxHoldoutDepth: 3, Lagging: ConservativeLagging, WindowSize: 300}
}

// Generator walks a sorted candidate-variant list window by window,
// proposing every combination of non-overlapping alleles within the active
// window as a candidate Haplotype.
type Generator struct {
	opts     Options
	region   genome.Region
	variants []allele.Variant
	arena    *haplotype.Arena
	fetch    haplotype.ReferenceFetcher

	cursor        int
	holdout       *bitset.BitSet
	holdoutRounds int
	forcedForward int

	// retained holds the alt alleles carried by the haplotypes the caller
	// last reported via KeepHaplotypes: a backbone folded into every
	// proposal of the next window so its haplotypes extend, rather than
	// restart, the ones the caller already committed to, per spec.md §4.8
	// "retained haplotypes from previous window (for phase continuity)".
	retained []allele.Allele
	// phaseSet is the phase-set id assigned to the run of windows currently
	// chained by retained; 0 means no phase set is open. nextPhaseSet is
	// the id the next fresh phase set will take.
	phaseSet     int
	nextPhaseSet int
}

// NewGenerator returns a Generator over region, consuming variants (sorted
// and deduplicated by the caller, e.g. via allele.SortVariants/
// DedupVariants on vargen's Candidates output).
func NewGenerator(region genome.Region, variants []allele.Variant, arena *haplotype.Arena, fetch haplotype.ReferenceFetcher, opts Options) *Generator {
	sorted := append([]allele.Variant(nil), variants...)
	allele.SortVariants(sorted)
	return &Generator{
		opts:         opts,
		region:       region,
		variants:     sorted,
		arena:        arena,
		fetch:        fetch,
		holdout:      bitset.New(uint(len(sorted))),
		nextPhaseSet: 1,
	}
}

// Done reports whether every candidate has been consumed, per
// HaplotypeGenerator::done.
func (g *Generator) Done() bool {
	return g.cursor >= len(g.variants)
}

// NextActiveRegion returns the region the next call to Progress will
// propose haplotypes over, per tell_next_active_region.
func (g *Generator) NextActiveRegion() genome.Region {
	if g.Done() {
		return genome.NewRegion(g.region.Contig, g.region.End, g.region.End)
	}
	start := g.variants[g.cursor].Region().Begin
	end := g.windowEnd(start)
	return genome.NewRegion(g.region.Contig, start, end)
}

func (g *Generator) windowEnd(start genome.PosType) genome.PosType {
	end := start + g.opts.WindowSize
	if end > g.region.End {
		end = g.region.End
	}
	return end
}

func (g *Generator) activeIndices(end genome.PosType) []int {
	var idx []int
	for i := g.cursor; i < len(g.variants) && g.variants[i].Region().Begin < end; i++ {
		if g.holdout.Test(uint(i)) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// Progress proposes every non-overlapping combination of alt alleles in the
// current active window (including the empty, all-reference combination),
// interns each as a Haplotype in the Generator's Arena, and advances the
// cursor past the window. If the candidate count would produce more than
// Options.MaxHaplotypes combinations, the lowest-priority (rightmost)
// active candidate is moved to the holdout set and the window is retried;
// after MaxHoldoutDepth such rounds, Progress returns an OverflowError
// rather than silently truncating the haplotype set, per
// HaplotypeGenerator::progress/keep_haplotypes' overflow handling.
func (g *Generator) Progress() ([]haplotype.Handle, error) {
	if g.Done() {
		return nil, nil
	}
	g.holdoutRounds = 0
	region := g.NextActiveRegion()
	active := g.activeIndices(region.End)
	if len(active) == 0 {
		g.cursor++
		return nil, nil
	}

	proposals := powerSet(g.variants, active, g.opts.MaxHaplotypes)
	for proposals == nil && len(active) > 0 {
		dropped := active[len(active)-1]
		g.holdout.Set(uint(dropped))
		g.holdoutRounds++
		if g.holdoutRounds > g.opts.MaxHoldoutDepth {
			return nil, varcallerrors.New(varcallerrors.OverflowError,
				"phaser: exceeded max holdout depth (%d) in region %v", g.opts.MaxHoldoutDepth, region).WithRegion(region.String())
		}
		active = active[:len(active)-1]
		proposals = powerSet(g.variants, active, g.opts.MaxHaplotypes)
	}

	for g.cursor < len(g.variants) && g.variants[g.cursor].Region().Begin < region.End {
		g.cursor++
	}

	// A window with any active candidate either continues the phase set
	// left open by a still-populated retained backbone, or opens a fresh
	// one if the previous window's KeepHaplotypes call broke continuity
	// (or this is the first window with candidates at all).
	if g.phaseSet == 0 {
		g.phaseSet = g.nextPhaseSet
		g.nextPhaseSet++
	}

	haplotypeRegion := region
	for _, a := range g.retained {
		haplotypeRegion = haplotypeRegion.Merge(a.Region)
	}

	handles := make([]haplotype.Handle, 0, len(proposals))
	for _, alts := range proposals {
		h, err := haplotype.New(haplotypeRegion, mergeRetained(g.retained, alts))
		if err != nil {
			return nil, err
		}
		handle, err := g.arena.Intern(h, g.fetch)
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

// KeepHaplotypes records the alt alleles carried by the haplotypes the
// caller actually used (the ones its winning genotype called), resolving
// each handle back through the Arena. The union becomes the backbone the
// next Progress call folds into every proposal it builds, so a haplotype
// spanning this window and the next one is recognisably "the same"
// haplotype rather than two independently phased pieces, per
// haplotype_generator.hpp's HaplotypeGenerator::keep_haplotypes (handed the
// surviving Haplotype objects directly, carrying their alleles forward into
// its tree_). Passing no handles, or handles whose haplotypes carry no
// alt alleles, breaks continuity: the phase set closes, and the next window
// with a non-reference haplotype opens a new one.
func (g *Generator) KeepHaplotypes(handles []haplotype.Handle) {
	seen := make(map[string]bool)
	var retained []allele.Allele
	for _, h := range handles {
		hap := g.arena.Get(h)
		if hap == nil {
			continue
		}
		for _, a := range hap.Alleles {
			key := a.Region.String() + "|" + string(a.Sequence)
			if seen[key] {
				continue
			}
			seen[key] = true
			retained = append(retained, a)
		}
	}
	g.retained = retained
	if len(retained) == 0 {
		g.phaseSet = 0
	}
}

// CurrentPhaseSet returns the phase-set id the most recent Progress window
// belongs to, or 0 if no phase set is currently open (no window with
// candidates has run yet, or the last KeepHaplotypes call broke
// continuity).
func (g *Generator) CurrentPhaseSet() int { return g.phaseSet }

// ForceForward advances the cursor to the end of the current window
// unconditionally, used by the pipeline driver to break out of a region
// whose candidate density keeps exceeding the holdout budget, per
// HaplotypeGenerator::force_forward. It also closes any open phase set:
// the skipped candidates make the next window's haplotypes unrelated to
// whatever was retained going in.
func (g *Generator) ForceForward() {
	if g.Done() {
		return
	}
	region := g.NextActiveRegion()
	for g.cursor < len(g.variants) && g.variants[g.cursor].Region().Begin < region.End {
		g.cursor++
	}
	g.forcedForward++
	g.retained = nil
	g.phaseSet = 0
}

// ForcedForwardCount reports how many times ForceForward has fired, surfaced
// as a diagnostic counter by the pipeline driver.
func (g *Generator) ForcedForwardCount() int { return g.forcedForward }

// mergeRetained returns retained plus every allele in alts that does not
// overlap a retained allele's region, so a fresh window's proposals always
// carry the previous window's committed backbone forward unchanged.
func mergeRetained(retained, alts []allele.Allele) []allele.Allele {
	if len(retained) == 0 {
		return alts
	}
	out := append([]allele.Allele(nil), retained...)
	for _, a := range alts {
		overlap := false
		for _, r := range retained {
			if r.Region.Overlaps(a.Region) {
				overlap = true
				break
			}
		}
		if !overlap {
			out = append(out, a)
		}
	}
	return out
}

// powerSet enumerates every subset of the variants at indices that contains
// no two mutually overlapping regions, each subset becoming one allele
// combination (the empty subset is the all-reference haplotype). Returns
// nil if the subset count would exceed maxHaplotypes, signalling the
// caller should hold out a candidate and retry with a smaller active set.
func powerSet(variants []allele.Variant, indices []int, maxHaplotypes int) [][]allele.Allele {
	n := len(indices)
	if n > 20 {
		// 2^20 subsets is already far beyond any realistic maxHaplotypes
		// budget; treat as an immediate overflow signal rather than
		// enumerating.
		return nil
	}
	total := 1 << uint(n)
	var out [][]allele.Allele
	for mask := 0; mask < total; mask++ {
		alts := make([]allele.Allele, 0, n)
		ok := true
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) == 0 {
				continue
			}
			v := variants[indices[i]]
			overlap := false
			for _, a := range alts {
				if a.Region.Overlaps(v.Region()) {
					overlap = true
					break
				}
			}
			if overlap {
				ok = false
				break
			}
			alts = append(alts, v.Alt)
		}
		if !ok {
			continue
		}
		out = append(out, alts)
		if len(out) > maxHaplotypes {
			return nil
		}
	}
	return out
}
