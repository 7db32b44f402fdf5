package vargen

import "math"

// Options configures candidate inclusion thresholds, per
// cigar_scanner.cpp's CandidateVariantGenerator::Options and spec.md §4.1
// "germline/somatic/cell/threshold" predicates.
type Options struct {
	// MinSupportingReads is the minimum total read support (across all
	// samples) a candidate needs to be reported at all. Scanner does not
	// consult it.
	MinSupportingReads int

	// MinObservationFraction is the minimum supporting-read fraction of
	// total depth at the candidate's region a germline candidate needs.
	// Scanner does not consult it.
	MinObservationFraction float64

	// MinSomaticObservationFraction is the (lower) fraction threshold used
	// for somatic-mode candidates, where low-VAF subclonal variants are
	// expected.
	MinSomaticObservationFraction float64

	// MinSomaticSupportingReads is the minimum read support a somatic
	// candidate needs, independent of MinSupportingReads. Scanner does not
	// consult it.
	MinSomaticSupportingReads int

	// MinCellSupportingReads is the per-cell minimum read support a
	// candidate needs in single-cell mode, where one cell's coverage is
	// often just a handful of reads.
	MinCellSupportingReads int

	// StrongStrandBiasPValue is the p-value threshold below which a
	// candidate is dropped outright as strand-biased noise.
	StrongStrandBiasPValue float64

	// WeakStrandBiasPValue is the higher p-value threshold below which a
	// candidate is flagged (but not dropped) as possibly strand-biased.
	WeakStrandBiasPValue float64

	// MinBaseQuality is the minimum phred base quality a mismatched/indel
	// base needs to be counted as evidence at all.
	MinBaseQuality byte

	// MaxExpectedMutationRate is the per-base mutation rate used to derive
	// a read's expected mismatch/indel count (mu = rate * read length) in
	// expectedMismatchBudget, per cigar_scanner.cpp's
	// misalignment_parameters.max_expected_mutation_rate.
	MaxExpectedMutationRate float64

	// MinLnProbCorrectlyAligned is the natural-log probability threshold
	// below which a candidate's MisalignmentLogProbability makes Scanner
	// drop it as likely misaligned, per
	// cigar_scanner.cpp's is_likely_misaligned /
	// misalignment_parameters.min_ln_prob_correctly_aligned.
	MinLnProbCorrectlyAligned float64
}

// DefaultOptions returns the thresholds used by a standard germline call,
// matching the constants cigar_scanner.cpp initializes its Options with.
func DefaultOptions() Options {
	return Options{
		MinSupportingReads:            2,
		MinObservationFraction:        0.25,
		MinSomaticObservationFraction: 0.01,
		MinSomaticSupportingReads:     3,
		MinCellSupportingReads:        1,
		StrongStrandBiasPValue:        0.01,
		WeakStrandBiasPValue:          0.05,
		MinBaseQuality:                20,
		MaxExpectedMutationRate:       1e-3,
		MinLnProbCorrectlyAligned:     math.Log(0.01),
	}
}
