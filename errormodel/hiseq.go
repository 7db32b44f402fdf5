package errormodel

// HiSeq implements Model for Illumina HiSeq-profiled libraries. Unlike
// NovaSeq, HiSeq uses a single homopolymer table regardless of base
// identity (no AT/CG split) and applies no CG/GC dinucleotide discount,
// matching hiseq_indel_error_model.hpp's table layout.
type HiSeq struct{}

var hiSeqHomopolymer = [50]Penalty{
	60, 60, 50, 45, 41, 36, 30, 25, 23, 22, 21, 20, 19, 18, 17, 16, 15, 14, 13, 12,
	11, 10, 9, 9, 8, 8, 7, 7, 6, 6, 5, 5, 5, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var hiSeqDinucleotide = [50]Penalty{
	60, 60, 50, 46, 42, 37, 31, 27, 25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15, 14,
	13, 12, 11, 10, 9, 8, 7, 6, 6, 6, 5, 5, 5, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var hiSeqTrinucleotide = [50]Penalty{
	60, 60, 50, 46, 42, 38, 32, 28, 26, 25, 24, 23, 22, 21, 18, 17, 17, 16, 15, 14,
	13, 12, 11, 10, 9, 8, 7, 6, 6, 6, 5, 5, 5, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var hiSeqPolynucleotide = [50]Penalty{
	60, 60, 50, 46, 42, 38, 32, 28, 26, 25, 24, 23, 22, 21, 18, 17, 17, 16, 15, 14,
	13, 12, 11, 10, 9, 8, 7, 6, 6, 6, 5, 5, 5, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

// DefaultOpenPenalty returns the penalty for an isolated (non-repeat) base.
func (HiSeq) DefaultOpenPenalty() Penalty { return hiSeqHomopolymer[0] }

// ExtensionPenalty returns the fixed gap-extend penalty.
func (HiSeq) ExtensionPenalty() Penalty { return 3 }

// Evaluate returns the per-base open-penalty vector for seq.
func (h HiSeq) Evaluate(seq []byte) []Penalty {
	out := make([]Penalty, len(seq))
	for p := range seq {
		period, _, periodicity := motifAt(seq, p)
		out[p] = h.openPenalty(period, periodicity)
	}
	return out
}

func (HiSeq) openPenalty(period, periodicity int) Penalty {
	switch period {
	case 1:
		return tableLookup(&hiSeqHomopolymer, periodicity)
	case 2:
		return tableLookup(&hiSeqDinucleotide, periodicity)
	case 3:
		return tableLookup(&hiSeqTrinucleotide, periodicity)
	default:
		return tableLookup(&hiSeqPolynucleotide, periodicity)
	}
}
