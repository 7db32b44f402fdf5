// Package errormodel provides context-dependent indel (and SNV) error
// penalty tables keyed by the tandem-repeat motif and periodicity ending at
// each base of a haplotype, used as pair-HMM gap-open/extend transition
// costs (spec.md §4.3).
package errormodel

import "github.com/grailbio/varcall/haplotype"

// Penalty is a phred-like open/extend penalty (higher = less likely gap).
type Penalty = uint8

// Model evaluates the per-base gap-open penalty vector for a haplotype's
// materialised sequence, one entry per base, plus a constant gap-extend
// penalty. Two concrete instruments (NovaSeq, HiSeq) implement Model, per
// spec.md §4.3 "two parallel models".
type Model interface {
	// Evaluate returns one gap-open penalty per base of seq.
	Evaluate(seq []byte) []Penalty
	// ExtensionPenalty returns the (constant, per spec) gap-extend penalty.
	ExtensionPenalty() Penalty
	// DefaultOpenPenalty is used for haplotype positions with no
	// identifiable tandem-repeat context (e.g. position 0).
	DefaultOpenPenalty() Penalty
}

// EvaluateHaplotype is a convenience wrapper for the common case of scoring
// an already-materialised haplotype.
func EvaluateHaplotype(m Model, h *haplotype.Haplotype) []Penalty {
	return m.Evaluate(h.Sequence())
}
