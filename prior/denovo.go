package prior

import (
	"math"
	"strconv"
	"sync"

	"github.com/grailbio/varcall/haplotype"
)

// DeNovoParameters holds the per-base mutation rate used to score a
// parent->child haplotype transition, per spec.md §4.5 "De-novo model".
type DeNovoParameters struct {
	// MutationRate is the per-base probability of a de-novo substitution
	// or indel event along a germline transmission.
	MutationRate float64
}

// DefaultDeNovoParameters matches typical germline mutation rate estimates
// (~1e-8 per base per generation), scaled up here to a per-candidate-window
// rate since the model operates over short haplotype windows, not whole
// chromosomes; see original_source's indel_mutation_model.hpp Parameters
// for the analogous per-haplotype, not per-genome, scaling.
func DefaultDeNovoParameters() DeNovoParameters {
	return DeNovoParameters{MutationRate: 1e-3}
}

// DeNovo computes the log-probability that a child haplotype arose from a
// given parental haplotype via a small number of point mutations/indels,
// using materialised-sequence edit distance as the mutation count and the
// configured per-base MutationRate as the per-edit probability. Cached by
// the (parent handle, child handle) pair, per spec.md §4.5/§9.
type DeNovo struct {
	Arena  *haplotype.Arena
	Params DeNovoParameters

	mu    sync.Mutex
	cache map[string]float64
}

// NewDeNovo returns a DeNovo model over arena's haplotypes.
func NewDeNovo(arena *haplotype.Arena, params DeNovoParameters) *DeNovo {
	return &DeNovo{Arena: arena, Params: params, cache: make(map[string]float64)}
}

func pairKey(a, b haplotype.Handle) string {
	buf := make([]byte, 0, 16)
	buf = strconv.AppendInt(buf, int64(a), 10)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, int64(b), 10)
	return string(buf)
}

// LogProbability returns log P(child | parent) under the mutation model.
// parent == child (the common case: the child inherited this haplotype
// unchanged) scores 0 (log 1): no mutation event required.
func (d *DeNovo) LogProbability(parent, child haplotype.Handle) float64 {
	if parent == child {
		return 0
	}
	key := pairKey(parent, child)
	d.mu.Lock()
	if v, ok := d.cache[key]; ok {
		d.mu.Unlock()
		return v
	}
	d.mu.Unlock()

	p := d.Arena.Get(parent).Sequence()
	c := d.Arena.Get(child).Sequence()
	dist := editDistance(p, c)
	mu := d.Params.MutationRate
	if mu <= 0 {
		mu = 1e-300
	}
	// dist mutation events at rate mu each, remaining length unmutated;
	// approximate via a geometric per-event penalty rather than modeling
	// exact alignment likelihoods (that is pairhmm's job, not this prior).
	length := len(p)
	if len(c) > length {
		length = len(c)
	}
	unmutated := length - dist
	if unmutated < 0 {
		unmutated = 0
	}
	lp := float64(dist)*math.Log(mu) + float64(unmutated)*math.Log(1-mu)

	d.mu.Lock()
	d.cache[key] = lp
	d.mu.Unlock()
	return lp
}

// editDistance computes the Levenshtein distance between a and b, used as
// the mutation-event count between two haplotype sequences of possibly
// differing length (indel de-novo events).
func editDistance(a, b []byte) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
