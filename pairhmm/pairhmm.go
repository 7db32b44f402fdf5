// Package pairhmm computes the log-likelihood of a read's bases given a
// haplotype's materialised sequence via a three-state (match/insert/delete)
// pair-HMM, with affine gap transition costs drawn from a context-aware
// indel error model (errormodel, C4) and emission costs from the read's own
// base qualities (spec.md §4.2, C5). The loop shape follows the low-level,
// flat-array numeric style of biosimd's byte-array kernels rather than a
// recursive formulation, since this is the hottest inner loop in the
// pipeline (every read is scored against every haplotype in its window).
package pairhmm

import (
	"math"

	"github.com/grailbio/varcall/errormodel"
	"gonum.org/v1/gonum/floats"
)

// phredToProb converts a phred-scaled quality/penalty byte to an error
// probability: 10^(-q/10).
func phredToProb(q errormodel.Penalty) float64 {
	return math.Pow(10, -float64(q)/10)
}

// ln10Div10 is used for phred<->ln conversions without repeated calls to
// math.Log/math.Pow in the hot loop.
const ln10Div10 = 2.302585092994046 / 10

func lnPhredToProb(q byte) float64 { return -float64(q) * ln10Div10 }

// Options carries the indel error model that supplies the gap-open and
// gap-extend penalties. LogLikelihood floors each base quality at 1, so a
// quality-0 base never gives a matching base probability 0 (log(0)).
type Options struct {
	Model errormodel.Model
}

// LogLikelihood returns the natural-log probability of observing readSeq
// (with per-base phred quality readQual) given it was sequenced from
// haplotypeSeq, via the forward algorithm over the full (possibly
// rectangular) alignment matrix. Both sequences are over the same strand;
// the caller is responsible for any reverse-complementing before calling in.
//
// The implementation mirrors the classical three-state affine-gap pair-HMM
// (Match/Insertion/Deletion) used by short-read haplotype callers: gap-open
// transition probability at haplotype column j comes from
// opts.Model.Evaluate(haplotypeSeq)[j] (phred-scaled), gap-extend is
// opts.Model.ExtensionPenalty() throughout (spec.md §4.3's single constant).
func LogLikelihood(readSeq, readQual, haplotypeSeq []byte, opts Options) float64 {
	n := len(readSeq)
	m := len(haplotypeSeq)
	if n == 0 {
		return 0
	}
	if m == 0 {
		// No haplotype bases to align against: every read base is an
		// unexplained insertion.
		return float64(n) * math.Log(1e-6)
	}

	gapOpen := opts.Model.Evaluate(haplotypeSeq) // one phred penalty per haplotype base
	extendPenalty := opts.Model.ExtensionPenalty()
	lnExtend := lnPhredToProb(extendPenalty)
	lnOneMinusExtend := math.Log1p(-phredToProb(extendPenalty))

	negInf := math.Inf(-1)

	// M, I, D are (n+1) x (m+1) log-probability matrices; flattened into
	// row-major slices to keep the inner loop allocation-free per cell.
	size := (n + 1) * (m + 1)
	M := make([]float64, size)
	I := make([]float64, size)
	D := make([]float64, size)
	idx := func(i, j int) int { return i*(m+1) + j }

	for i := range M {
		M[i], I[i], D[i] = negInf, negInf, negInf
	}
	// Base case: zero-length alignment has probability 1 (log 0), uniformly
	// distributed across the haplotype's start column per standard local
	// pair-HMM initialisation.
	initProb := -math.Log(float64(m))
	for j := 0; j <= m; j++ {
		M[idx(0, j)] = initProb
	}

	for i := 1; i <= n; i++ {
		rq := readQual[i-1]
		if rq < 1 {
			rq = 1
		}
		lnMatchErr := lnPhredToProb(rq)             // log P(wrong base | quality)
		lnMatchOK := math.Log1p(-phredToProb(rq))   // log P(right base | quality)
		for j := 1; j <= m; j++ {
			lnOpen := lnPhredToProb(gapOpen[j-1])
			lnOneMinusOpen := math.Log1p(-phredToProb(gapOpen[j-1]))

			var emission float64
			if readSeq[i-1] == haplotypeSeq[j-1] || readSeq[i-1] == 'N' || haplotypeSeq[j-1] == 'N' {
				emission = lnMatchOK
			} else {
				emission = lnMatchErr - math.Log(3)
			}

			mPrev := floats.LogSumExp([]float64{
				M[idx(i-1, j-1)] + lnOneMinusOpen*2,
				I[idx(i-1, j-1)] + lnOneMinusExtend,
				D[idx(i-1, j-1)] + lnOneMinusExtend,
			})
			M[idx(i, j)] = emission + mPrev

			I[idx(i, j)] = floats.LogSumExp([]float64{
				M[idx(i-1, j)] + lnOpen,
				I[idx(i-1, j)] + lnExtend,
			})

			D[idx(i, j)] = floats.LogSumExp([]float64{
				M[idx(i, j-1)] + lnOpen,
				D[idx(i, j-1)] + lnExtend,
			})
		}
	}

	// Total likelihood sums the match/insert/delete states across the final
	// row (read fully consumed at any haplotype end position), matching the
	// "anywhere in the haplotype" semantics a rolling haplotype window needs.
	final := make([]float64, 0, (m+1)*3)
	for j := 0; j <= m; j++ {
		final = append(final, M[idx(n, j)], I[idx(n, j)], D[idx(n, j)])
	}
	return floats.LogSumExp(final)
}
