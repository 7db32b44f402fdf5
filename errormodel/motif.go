package errormodel

// motifAt identifies the longest tandem-repeat motif ending at base index p
// (inclusive) of seq, for period in {1,2,3,4}. It returns the period, the
// motif bases (length == period), and the periodicity: how many whole
// repeats of the motif make up the trailing run ending at p. Periods above 3
// all share a single "polynucleotide" penalty table in the model, so any
// period >= 4 winner is still reported with its true period capped to 4 for
// table-selection purposes by the caller.
//
// This mirrors octopus's tandem-repeat detection: try each candidate period,
// measure how many trailing bases form a repeat of that period, and keep the
// period with the longest such run (ties favor the smallest period).
func motifAt(seq []byte, p int) (period int, motif []byte, periodicity int) {
	bestPeriod := 1
	bestRunLen := 1
	for candidate := 1; candidate <= 4 && candidate <= p+1; candidate++ {
		runLen := repeatRunLength(seq, p, candidate)
		if runLen > bestRunLen {
			bestRunLen = runLen
			bestPeriod = candidate
		}
	}
	periodicity = bestRunLen / bestPeriod
	if periodicity < 1 {
		periodicity = 1
	}
	return bestPeriod, seq[p-bestPeriod+1 : p+1], periodicity
}

// repeatRunLength returns the length of the longest suffix of seq[0:p+1]
// that is periodic with the given period, i.e. the largest run such that
// seq[i] == seq[i+period] for every i in the run, walking backward from
// p-period.
func repeatRunLength(seq []byte, p, period int) int {
	if p+1 < period {
		return 0
	}
	run := period
	i := p - period
	for i >= 0 && seq[i] == seq[i+period] {
		run++
		i--
	}
	return run
}
