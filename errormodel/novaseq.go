package errormodel

// NovaSeq implements Model for Illumina NovaSeq-profiled libraries. Table
// values are reproduced verbatim from the reference instrument calibration
// (50 entries per table, periodicity clamped to the final entry beyond
// index 49).
type NovaSeq struct{}

var novaSeqATHomopolymer = [50]Penalty{
	60, 60, 43, 41, 40, 36, 34, 30, 24, 20, 16, 13, 12, 11, 10, 10, 9, 9, 8, 8, 7, 7,
	7, 6, 6, 6, 6, 5, 5, 5, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var novaSeqCGHomopolymer = [50]Penalty{
	60, 60, 42, 40, 37, 33, 28, 22, 18, 15, 12, 10, 9, 8, 6, 6, 5, 5, 5, 5, 5, 5, 5, 4,
	4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var novaSeqDinucleotide = [50]Penalty{
	60, 60, 38, 37, 32, 26, 21, 18, 16, 14, 14, 13, 13, 12, 12, 11, 11, 11, 10, 10,
	10, 9, 9, 9, 8, 8, 7, 7, 7, 7, 6, 6, 6, 5, 5, 4, 4, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var novaSeqTrinucleotide = [50]Penalty{
	60, 60, 37, 32, 26, 22, 20, 19, 18, 17, 17, 16, 15, 15, 14, 13, 13, 12, 12, 11,
	12, 10, 9, 9, 8, 8, 7, 7, 7, 7, 6, 6, 5, 5, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

var novaSeqPolynucleotide = [50]Penalty{
	60, 60, 50, 46, 42, 38, 32, 28, 26, 25, 24, 23, 22, 21, 18, 17, 17, 16, 15, 14,
	13, 12, 11, 10, 9, 8, 7, 6, 6, 6, 5, 5, 5, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

func tableLookup(table *[50]Penalty, periodicity int) Penalty {
	if periodicity < len(table) {
		return table[periodicity]
	}
	return table[len(table)-1]
}

// DefaultOpenPenalty returns the penalty for an isolated (non-repeat) base,
// i.e. the period-1 table's first entry.
func (NovaSeq) DefaultOpenPenalty() Penalty { return novaSeqATHomopolymer[0] }

// ExtensionPenalty returns the fixed gap-extend penalty (3, per spec.md
// §4.3).
func (NovaSeq) ExtensionPenalty() Penalty { return 3 }

// Evaluate returns the per-base open-penalty vector for seq.
func (n NovaSeq) Evaluate(seq []byte) []Penalty {
	out := make([]Penalty, len(seq))
	for p := range seq {
		period, motif, periodicity := motifAt(seq, p)
		out[p] = n.openPenalty(period, motif, periodicity)
	}
	return out
}

func (NovaSeq) openPenalty(period int, motif []byte, periodicity int) Penalty {
	switch period {
	case 1:
		if motif[0] == 'A' || motif[0] == 'T' {
			return tableLookup(&novaSeqATHomopolymer, periodicity)
		}
		return tableLookup(&novaSeqCGHomopolymer, periodicity)
	case 2:
		result := tableLookup(&novaSeqDinucleotide, periodicity)
		if result > 7 && isCGDinucleotide(motif) {
			result -= 2
		}
		return result
	case 3:
		return tableLookup(&novaSeqTrinucleotide, periodicity)
	default:
		return tableLookup(&novaSeqPolynucleotide, periodicity)
	}
}

func isCGDinucleotide(motif []byte) bool {
	return len(motif) == 2 &&
		((motif[0] == 'C' && motif[1] == 'G') || (motif[0] == 'G' && motif[1] == 'C'))
}
