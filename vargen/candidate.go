package vargen

import (
	"math"
	"sort"

	"github.com/grailbio/varcall/allele"
)

// Candidate is one surviving candidate variant together with the evidence
// the Scanner accumulated for it.
type Candidate struct {
	Variant                    allele.Variant
	ForwardReads               int
	ReverseReads               int
	Samples                    map[string]int
	Depth                      int
	StrandBiasPValue           float64
	MisalignmentLogProbability float64
	WeakStrandBias             bool

	// BaseQualities holds the per-supporting-read summed base quality
	// contributed to this candidate's alt allele, per
	// cigar_scanner.cpp's VariantObservation::SampleObservationStats and
	// spec.md §3's "observed base-quality list".
	BaseQualities []int
	// MappingQualities holds the per-supporting-read MAPQ.
	MappingQualities []byte
	// EdgeSupport counts supporting reads where the candidate touches that
	// read's own aligned edge, per cigar_scanner.cpp's edge_support.
	EdgeSupport int
}

// SupportingReads returns the total read support across strands.
func (c Candidate) SupportingReads() int { return c.ForwardReads + c.ReverseReads }

// ObservationFraction returns supporting reads over total depth at the
// candidate's region, or 0 if depth is unknown.
func (c Candidate) ObservationFraction() float64 {
	if c.Depth == 0 {
		return 0
	}
	return float64(c.SupportingReads()) / float64(c.Depth)
}

// Mode selects which inclusion predicate Candidates applies.
type Mode int

const (
	// Germline applies isGoodGermline, the depth-tiered germline predicate.
	Germline Mode = iota
	// Somatic applies isGoodSomatic with Options.MinSomaticObservationFraction
	// as the expected-VAF floor, since subclonal variants can sit at a few
	// percent VAF.
	Somatic
	// SingleCell applies isGoodSomatic per sample with a 0.25 expected-VAF
	// floor, mirroring cigar_scanner.cpp's is_good_cell (a single cell's
	// genome is either heterozygous, homozygous, or absent for an allele,
	// so a much higher VAF is expected than in a somatic bulk sample).
	SingleCell
)

// singleCellMinExpectedVAF is_good_cell's fixed expected-VAF floor.
const singleCellMinExpectedVAF = 0.25

// Candidates returns the surviving candidates in Variant order
// (allele.SortVariants / allele.DedupVariants order), after applying the
// Scanner's Options thresholds for mode.
func (s *Scanner) Candidates(mode Mode) []Candidate {
	var out []Candidate
	for _, o := range s.obs {
		depth := s.depthAt(o.variant)
		c := Candidate{
			Variant:                 o.variant,
			ForwardReads:            o.forward,
			ReverseReads:            o.reverse,
			Samples:                 o.samples,
			Depth:                   depth,
			StrandBiasPValue:        strandBiasPValue(o.forward, o.reverse),
			MisalignmentLogProbability: lnProbCorrectlyAligned(o.penalty, o.expectedEvents, o.lnProbMapped),
			BaseQualities:           append([]int(nil), o.baseQualities...),
			MappingQualities:        append([]byte(nil), o.mappingQualities...),
			EdgeSupport:             o.edgeSupport,
		}
		if !s.include(c, mode) {
			continue
		}
		c.WeakStrandBias = c.StrandBiasPValue < s.opts.WeakStrandBiasPValue
		out = append(out, c)
	}
	variants := make([]allele.Variant, len(out))
	byVariant := make(map[string]Candidate, len(out))
	for i, c := range out {
		variants[i] = c.Variant
		byVariant[variantKey(c.Variant)] = c
	}
	allele.SortVariants(variants)
	variants = allele.DedupVariants(variants)
	result := make([]Candidate, 0, len(variants))
	for _, v := range variants {
		result = append(result, byVariant[variantKey(v)])
	}
	return result
}

func (s *Scanner) depthAt(v allele.Variant) int {
	return s.depth[posKey(v.Region().Contig, v.Region().Begin)]
}

// include applies the mode-specific inclusion predicate, mirroring
// cigar_scanner.cpp's is_good_germline_candidate / is_good_somatic_candidate
// / is_good_cell_candidate. A candidate failing the misalignment gate is
// dropped regardless of mode before the depth/quality-tiered predicate ever
// runs; the strand-bias gate applies in Germline mode only.
func (s *Scanner) include(c Candidate, mode Mode) bool {
	if c.MisalignmentLogProbability < s.opts.MinLnProbCorrectlyAligned {
		return false
	}
	switch mode {
	case Somatic:
		return isGoodSomatic(c, s.opts.MinSomaticObservationFraction)
	case SingleCell:
		for _, n := range c.Samples {
			if n >= s.opts.MinCellSupportingReads && isGoodSomatic(c, singleCellMinExpectedVAF) {
				return true
			}
		}
		return false
	default: // Germline
		if c.StrandBiasPValue < s.opts.StrongStrandBiasPValue {
			return false
		}
		return isGoodGermline(c)
	}
}

// isGoodGermline implements cigar_scanner.cpp's is_good_germline: a
// depth-tiered predicate keyed on the candidate's supporting-read count,
// survivor base-quality distribution, and strand balance. Per spec.md §4.1.
func isGoodGermline(c Candidate) bool {
	support := c.SupportingReads()
	depth := c.Depth
	if depth < 4 {
		return support > 1 || sumInts(c.BaseQualities) >= 30 || c.Variant.IsDeletion()
	}

	// cigar_scanner.cpp additionally requires
	// min(forward_strand_depth, reverse_strand_depth) > 1 here, using the
	// per-base per-strand depth tracker it keeps; this scanner only tracks
	// combined-strand depth (see Scanner.depth), so the gate is applied on
	// support alone.
	if support > 20 && isCompletelyStrandBiased(c.ForwardReads, c.ReverseReads) {
		return false
	}

	switch {
	case c.Variant.IsSNV():
		if isLikelyRunthroughArtifact(c.ForwardReads, c.ReverseReads, c.BaseQualities) {
			return false
		}
		survivors := survivorsAbove(c.BaseQualities, 20)
		if depth <= 10 {
			return survivors > 1
		}
		return survivors > 2 && float64(survivors)/float64(depth) > 0.1

	case c.Variant.IsInsertion():
		altLen := len(c.Variant.Alt.Sequence)
		if support == 1 && altLen > 10 {
			return false
		}
		switch {
		case depth < 10:
			return support > 1 || (altLen > 3 && isTandemRepeat(c.Variant.Alt.Sequence, 4))
		case depth <= 30:
			return support > 1
		case depth <= 60:
			if support == 1 {
				return false
			}
			if float64(support)/float64(depth) > 0.3 {
				return true
			}
			survivors := survivorsAbove(c.BaseQualities, 25)
			if survivors <= 1 {
				return false
			}
			if survivors > 2 {
				return true
			}
			return float64(maxSurvivor(c.BaseQualities, 25))/float64(altLen) > 20
		default:
			if support == 1 {
				return false
			}
			if float64(support)/float64(depth) > 0.35 {
				return true
			}
			survivors := survivorsAbove(c.BaseQualities, 20)
			if survivors <= 1 {
				return false
			}
			if survivors > 3 {
				return true
			}
			return float64(maxSurvivor(c.BaseQualities, 20))/float64(altLen) > 20
		}

	default: // deletion or MNV
		if c.Variant.Region().Size() < 10 {
			return support > 1 && float64(support)/float64(depth) > 0.05
		}
		return float64(support)/(float64(depth)-math.Sqrt(float64(depth))) > 0.1
	}
}

// isGoodSomatic implements cigar_scanner.cpp's is_good_somatic: looser
// strand-bias tolerance than germline (bias only disqualifies at much
// higher support counts), and an approximate-VAF floor in place of a
// germline survivor-count floor, since somatic variants are often
// subclonal. minExpectedVAF is is_good_somatic's min_expected_vaf
// parameter (Options.MinSomaticObservationFraction, or 0.25 for
// single-cell mode via is_good_cell).
func isGoodSomatic(c Candidate, minExpectedVAF float64) bool {
	support := c.SupportingReads()
	depth := c.Depth
	if support > 15 && isCompletelyStrandBiased(c.ForwardReads, c.ReverseReads) {
		return false
	}
	if support > 25 && isAlmostCompletelyStrandBiased(c.ForwardReads, c.ReverseReads) {
		return false
	}
	if support > 50 && isStronglyStrandBiased(c.ForwardReads, c.ReverseReads) {
		return false
	}

	adjustment := math.Sqrt(float64(depth))
	if adjustment > float64(depth-1) {
		adjustment = float64(depth - 1)
	}
	if adjustment < 0 {
		adjustment = 0
	}
	adjustedDepth := float64(depth) - adjustment
	if adjustedDepth <= 0 {
		adjustedDepth = 1
	}
	approxVAF := float64(len(c.BaseQualities)) / adjustedDepth

	switch {
	case c.Variant.IsSNV():
		if isLikelyRunthroughArtifact(c.ForwardReads, c.ReverseReads, c.BaseQualities) {
			return false
		}
		survivors := survivorsAbove(c.BaseQualities, 15)
		if survivors >= 2 && approxVAF >= minExpectedVAF && c.EdgeSupport < support {
			return approxVAF >= 0.01 || !isCompletelyStrandBiased(c.ForwardReads, c.ReverseReads)
		}
		return false

	case c.Variant.IsInsertion():
		altLen := len(c.Variant.Alt.Sequence)
		if support == 1 && altLen > 8 {
			return false
		}
		survivors := survivorsAbove(c.BaseQualities, 15)
		if altLen < 10 {
			return survivors >= 2 && approxVAF >= minExpectedVAF
		}
		return survivors >= 2 && approxVAF >= minExpectedVAF/3

	default: // deletion or MNV
		if c.Variant.Region().Size() < 10 {
			return support > 1 && approxVAF >= minExpectedVAF
		}
		return float64(support)/approxVAF >= minExpectedVAF/3
	}
}

func sumInts(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// survivorsAbove returns the count of qualities at or above min, per
// cigar_scanner.cpp's erase_below(quals, min).size().
func survivorsAbove(quals []int, min int) int {
	n := 0
	for _, q := range quals {
		if q >= min {
			n++
		}
	}
	return n
}

// maxSurvivor returns the highest quality at or above min, per
// cigar_scanner.cpp's partial_sort(quals, 2) followed by quals[0] (the
// std::greater<> comparator sorts descending, so index 0 is the maximum).
func maxSurvivor(quals []int, min int) int {
	best := 0
	for _, q := range quals {
		if q >= min && q > best {
			best = q
		}
	}
	return best
}

func medianInt(xs []byte) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]byte(nil), xs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// isCompletelyStrandBiased reports whether all support sits on one strand,
// per cigar_scanner.cpp's is_completely_strand_biased.
func isCompletelyStrandBiased(forward, reverse int) bool {
	support := forward + reverse
	return support > 0 && (forward == 0 || forward == support)
}

// isAlmostCompletelyStrandBiased allows at most one read on the minority
// strand, per cigar_scanner.cpp's is_almost_completely_strand_biased.
func isAlmostCompletelyStrandBiased(forward, reverse int) bool {
	support := forward + reverse
	return forward <= 1 || forward >= support-1
}

// isStronglyStrandBiased reports whether the two-sided strand-balance
// p-value falls below 0.01, per cigar_scanner.cpp's is_strongly_strand_biased.
func isStronglyStrandBiased(forward, reverse int) bool {
	return strandBiasPValue(forward, reverse) < 0.01
}

// isLikelyRunthroughArtifact flags candidates whose support is both
// completely strand-biased and backed mostly by low base qualities — the
// signature of a polymerase runthrough artifact rather than a true variant,
// per cigar_scanner.cpp's is_likely_runthrough_artifact.
func isLikelyRunthroughArtifact(forward, reverse int, quals []int) bool {
	support := forward + reverse
	if support < 10 || !isCompletelyStrandBiased(forward, reverse) {
		return false
	}
	bq := make([]byte, len(quals))
	for i, q := range quals {
		if q > 255 {
			q = 255
		}
		bq[i] = byte(q)
	}
	return medianInt(bq) < 15
}

// isTandemRepeat reports whether seq is composed of a single repeating
// unit of some period in [1, maxPeriod], per cigar_scanner.cpp's
// is_tandem_repeat (used to down-weight short low-complexity insertions
// that do not independently corroborate across reads).
func isTandemRepeat(seq []byte, maxPeriod int) bool {
	n := len(seq)
	if n == 0 {
		return false
	}
	for period := 1; period <= maxPeriod && period <= n; period++ {
		if n%period != 0 {
			continue
		}
		repeats := true
		for i := period; i < n; i++ {
			if seq[i] != seq[i-period] {
				repeats = false
				break
			}
		}
		if repeats {
			return true
		}
	}
	return false
}
