package vargen

import (
	"fmt"
	"math"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genome"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// observation accumulates evidence for one candidate Variant across however
// many reads the Scanner has seen so far. baseQualities/mappingQualities/
// edgeSupport track the per-supporting-read evidence the tiered inclusion
// predicate (see candidate.go's isGoodGermline/isGoodSomatic) needs, per
// spec.md §3 "Candidate observation" and cigar_scanner.cpp's
// VariantObservation::SampleObservationStats (observed_base_qualities,
// observed_mapping_qualities, edge_support).
type observation struct {
	variant        allele.Variant
	forward        int
	reverse        int
	samples        map[string]int
	penalty        float64 // accumulated misalignment penalty from supporting reads
	expectedEvents float64 // accumulated mutation-rate-derived expected-mismatch budget

	// baseQualities holds one entry per supporting read: the summed base
	// quality of the bases the read contributes to this candidate's alt
	// allele (a single byte for an SNV, the sum over inserted bases for an
	// insertion, 0 for a deletion since its alt allele is empty), per
	// cigar_scanner.cpp's sum_base_qualities.
	baseQualities []int
	// mappingQualities holds one entry per supporting read: that read's
	// MAPQ, per spec.md §3's "observed mapping-quality list".
	mappingQualities []byte
	// edgeSupport counts supporting reads where this candidate's region
	// begins or ends exactly at that read's own aligned edge, per
	// cigar_scanner.cpp's begins_equal/ends_equal edge_support tally (used
	// by the somatic predicate to discount read-end artifacts).
	edgeSupport int
	// lnProbMapped accumulates, over every touching read, log(1 -
	// 10^(-MAPQ/10)) — the log-probability that the read's alignment
	// position is correct — kept separate from expectedEvents so it can be
	// added to the Poisson log-survival term rather than folded into the
	// Poisson rate itself, per cigar_scanner.cpp's
	// ln_probability_read_correctly_aligned.
	lnProbMapped float64
}

// ReferenceFetcher returns the reference bases over a region. Shaped
// identically to haplotype.ReferenceFetcher, kept as its own type here since
// vargen runs before any haplotype exists and should not import the
// haplotype package just for this function type.
type ReferenceFetcher func(genome.Region) ([]byte, error)

// Scanner walks reads' CIGARs against a reference and accumulates candidate
// variant evidence, mirroring CigarScanner::add_read /
// CigarScanner::do_add_read in cigar_scanner.cpp.
type Scanner struct {
	opts  Options
	fetch ReferenceFetcher
	obs   map[string]*observation
	depth map[string]int // keyed by "contig:pos", total reads overlapping that reference base
}

// NewScanner returns an empty Scanner that will fetch reference bases via
// fetch.
func NewScanner(fetch ReferenceFetcher, opts Options) *Scanner {
	return &Scanner{
		opts:  opts,
		fetch: fetch,
		obs:   make(map[string]*observation),
		depth: make(map[string]int),
	}
}

func variantKey(v allele.Variant) string {
	return fmt.Sprintf("%s|%s", v.Region().String(), v.Alt.Sequence)
}

func posKey(contig string, pos genome.PosType) string {
	return fmt.Sprintf("%s:%d", contig, pos)
}

// AddRead incorporates one aligned read's evidence into the scanner's
// running candidate set.
func (s *Scanner) AddRead(r Read) error {
	refPos := r.Position
	seqPos := 0
	var penalty float64
	var touched []string

	for pos := r.Position; pos < r.End(); pos++ {
		s.depth[posKey(r.Contig, pos)]++
	}

	for _, op := range r.Cigar {
		switch op.Type {
		case CigarMatch, CigarEqual, CigarDiff:
			p, keys, err := s.scanMatch(r, refPos, seqPos, op.Length)
			if err != nil {
				return err
			}
			penalty += p
			touched = append(touched, keys...)
			refPos += genome.PosType(op.Length)
			seqPos += op.Length
		case CigarInsertion:
			key := s.addInsertion(r, refPos, seqPos, op.Length)
			penalty += insertionPenalty(op.Length)
			touched = append(touched, key)
			seqPos += op.Length
		case CigarDeletion:
			key, err := s.addDeletion(r, refPos, op.Length)
			if err != nil {
				return err
			}
			penalty += deletionPenalty(op.Length)
			touched = append(touched, key)
			refPos += genome.PosType(op.Length)
		case CigarSkip:
			refPos += genome.PosType(op.Length)
		case CigarSoftClip:
			seqPos += op.Length
		case CigarHardClip, CigarPad:
			// consumes neither reference nor query
		default:
			return errors.Errorf("vargen: unrecognised cigar op %q", rune(op.Type))
		}
	}

	expected := expectedMismatchBudget(r, s.opts.MaxExpectedMutationRate)
	lnMapped := lnProbReadMapped(r)
	for _, key := range touched {
		o := s.obs[key]
		o.penalty += penalty
		o.expectedEvents += expected
		o.lnProbMapped += lnMapped
	}
	return nil
}

// scanMatch compares read bases against the reference over a run of M/=/X
// CIGAR ops, emitting one SNV candidate per mismatching, sufficiently
// high-quality base.
func (s *Scanner) scanMatch(r Read, refPos genome.PosType, seqPos, length int) (float64, []string, error) {
	region := genome.NewRegion(r.Contig, refPos, refPos+genome.PosType(length))
	ref, err := s.fetch(region)
	if err != nil {
		return 0, nil, err
	}
	var penalty float64
	var keys []string
	for i := 0; i < length; i++ {
		base := r.Sequence[seqPos+i]
		qual := r.Qualities[seqPos+i]
		if base == ref[i] || base == 'N' || ref[i] == 'N' {
			continue
		}
		if qual < s.opts.MinBaseQuality {
			continue
		}
		pos := refPos + genome.PosType(i)
		snvRegion := genome.SinglePos(r.Contig, pos)
		v := allele.NewVariant(snvRegion, ref[i:i+1], r.Sequence[seqPos+i:seqPos+i+1])
		key := s.record(r, v, int(qual), s.touchesEdge(r, snvRegion))
		keys = append(keys, key)
		penalty += snvPenalty(qual)
	}
	return penalty, keys, nil
}

func (s *Scanner) addInsertion(r Read, refPos genome.PosType, seqPos, length int) string {
	inserted := r.Sequence[seqPos : seqPos+length]
	region := genome.InsertionPoint(r.Contig, refPos)
	v := allele.NewVariant(region, nil, inserted)
	qual := 0
	for _, q := range r.Qualities[seqPos : seqPos+length] {
		qual += int(q)
	}
	return s.record(r, v, qual, s.touchesEdge(r, region))
}

// addDeletion builds the deletion Variant once the reference bases over the
// deleted span are available.
func (s *Scanner) addDeletion(r Read, refPos genome.PosType, length int) (string, error) {
	region := genome.NewRegion(r.Contig, refPos, refPos+genome.PosType(length))
	ref, err := s.fetch(region)
	if err != nil {
		return "", err
	}
	v := allele.NewVariant(region, ref, nil)
	// A deletion's alt allele is empty, so its summed base quality is 0 by
	// definition (cigar_scanner.cpp's sum_base_qualities over zero bases),
	// matching is_good_germline's deletion branch never consulting it.
	return s.record(r, v, 0, s.touchesEdge(r, region)), nil
}

// touchesEdge reports whether region begins or ends exactly at read r's own
// aligned edge, per cigar_scanner.cpp's begins_equal/ends_equal: a candidate
// that only ever appears at a read's boundary is weaker evidence, since
// aligners are more likely to misplace an indel/mismatch right at a clip
// boundary.
func (s *Scanner) touchesEdge(r Read, region genome.Region) bool {
	return region.Begin == r.Position || region.End == r.End()
}

func (s *Scanner) record(r Read, v allele.Variant, qual int, isEdge bool) string {
	key := variantKey(v)
	o, ok := s.obs[key]
	if !ok {
		o = &observation{variant: v, samples: make(map[string]int)}
		s.obs[key] = o
	}
	if r.Reverse {
		o.reverse++
	} else {
		o.forward++
	}
	o.samples[r.SampleID]++
	o.baseQualities = append(o.baseQualities, qual)
	o.mappingQualities = append(o.mappingQualities, r.MappingQuality)
	if isEdge {
		o.edgeSupport++
	}
	return key
}

// snvPenalty and the indel penalties weight a candidate-unrelated error
// event by how surprising it is given quality/length, feeding the
// misalignment score the way cigar_scanner.cpp's calculate_candidate_quality
// folds mismatch/indel evidence into one tally.
func snvPenalty(qual byte) float64 { return math.Pow(10, -float64(qual)/10) }
func insertionPenalty(length int) float64 { return 0.1 * float64(length) }
func deletionPenalty(length int) float64  { return 0.1 * float64(length) }

// expectedMismatchBudget returns mu, the expected count of mismatch/indel
// events a correctly-aligned read of r's length would accrue under rate
// (Options.MaxExpectedMutationRate), per cigar_scanner.cpp's
// max_expected_mutation_rate * region_size(read). Deliberately independent
// of r's mapping quality: MAPQ contributes its own additive log-term via
// lnProbReadMapped rather than being folded into this Poisson rate.
func expectedMismatchBudget(r Read, rate float64) float64 {
	return rate * float64(len(r.Sequence))
}

// lnProbReadMapped returns log(1 - 10^(-MAPQ/10)), the log-probability that
// r's reported alignment position is correct, per cigar_scanner.cpp's
// ln_probability_read_correctly_aligned (the ln10Div10 * mapping_quality
// term negated and complemented).
func lnProbReadMapped(r Read) float64 {
	lnProbMissmapped := -(math.Ln10 / 10) * float64(r.MappingQuality)
	return math.Log1p(-math.Exp(lnProbMissmapped))
}

// strandBiasPValue returns a two-sided p-value for the null hypothesis that
// forward/reverse support is split 50/50, via the tail probability of a
// Beta(forward+0.5, reverse+0.5) posterior at 0.5 (Jeffreys-prior framing),
// per cigar_scanner.cpp's strand-bias test.
func strandBiasPValue(forward, reverse int) float64 {
	if forward+reverse == 0 {
		return 1
	}
	dist := distuv.Beta{Alpha: float64(forward) + 0.5, Beta: float64(reverse) + 0.5}
	tail := dist.CDF(0.5)
	if tail > 0.5 {
		tail = 1 - tail
	}
	return 2 * tail
}

// logPoissonSurvival returns log(P(X >= k)) under a Poisson distribution
// with rate mu, the survival tail computed via CDF (1 - CDF(k-1)) rather
// than a library Survival() method, matching cigar_scanner.cpp's
// maths::log_poisson_sf.
func logPoissonSurvival(k, mu float64) float64 {
	if mu <= 0 {
		mu = 1e-6
	}
	dist := distuv.Poisson{Lambda: mu}
	sf := 1 - dist.CDF(k-1)
	if sf <= 0 {
		return math.Inf(-1)
	}
	return math.Log(sf)
}

// lnProbCorrectlyAligned returns the log-probability that a read contributing
// observedPenalty misalignment-penalty units, against an expected-event
// budget of expectedEvents and accumulated mapping-quality term lnProbMapped,
// is in fact correctly aligned. lnProbMapped and the Poisson log-survival
// term are kept additive (never multiplied into a single rate), per
// cigar_scanner.cpp's ln_probability_read_correctly_aligned: log(1 -
// 10^(-MAPQ/10)) + log_poisson_sf(k, mu). A candidate with zero observed
// penalty is trivially well-aligned (ln probability 0), matching the
// original's k==0 fast path.
func lnProbCorrectlyAligned(observedPenalty, expectedEvents, lnProbMapped float64) float64 {
	k := math.Floor(observedPenalty)
	if k <= 0 {
		return 0
	}
	return lnProbMapped + logPoissonSurvival(k, expectedEvents)
}
