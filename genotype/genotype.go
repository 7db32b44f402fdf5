// Package genotype implements ploidy-sized multisets of haplotype handles
// (Genotype) and the enumeration / inverse-index operations over them
// (C8). Grounded on original_source/src/genotype.cpp: haplotypes are
// addressed by arena index (haplotype.Handle) rather than shared_ptr, so
// genotype equality and the HaplotypePtrLess ordering collapse to plain
// integer comparison.
package genotype

import (
	"sort"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/haplotype"
)

// Genotype is a multiset of size Ploidy of haplotype handles, stored sorted
// ascending (the Go analogue of genotype.cpp's HaplotypePtrLess-ordered
// vector of shared_ptr<Haplotype>).
type Genotype struct {
	Haplotypes []haplotype.Handle // sorted ascending, length == ploidy
}

// New builds a Genotype from haplotypes, sorting them.
func New(haplotypes ...haplotype.Handle) Genotype {
	hs := append([]haplotype.Handle(nil), haplotypes...)
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return Genotype{Haplotypes: hs}
}

// Ploidy returns the number of haplotype copies.
func (g Genotype) Ploidy() int { return len(g.Haplotypes) }

// IsHomozygous reports whether every copy is the same haplotype, per
// genotype.cpp's is_homozygous (which compares only front/back of a sorted
// vector).
func (g Genotype) IsHomozygous() bool {
	if len(g.Haplotypes) == 0 {
		return true
	}
	return g.Haplotypes[0] == g.Haplotypes[len(g.Haplotypes)-1]
}

// Zygosity counts the number of distinct haplotypes, per genotype.cpp's
// zygosity (a forward scan over runs of equal elements in the sorted
// vector).
func (g Genotype) Zygosity() int {
	n := 0
	for i := 0; i < len(g.Haplotypes); {
		j := i + 1
		for j < len(g.Haplotypes) && g.Haplotypes[j] == g.Haplotypes[i] {
			j++
		}
		n++
		i = j
	}
	return n
}

// ContainsHaplotype reports whether h is one of g's copies.
func (g Genotype) ContainsHaplotype(h haplotype.Handle) bool {
	i := sort.Search(len(g.Haplotypes), func(i int) bool { return g.Haplotypes[i] >= h })
	return i < len(g.Haplotypes) && g.Haplotypes[i] == h
}

// Count returns the number of copies of h in g.
func (g Genotype) Count(h haplotype.Handle) int {
	lo := sort.SearchInts(handlesToInts(g.Haplotypes), int(h))
	n := 0
	for i := lo; i < len(g.Haplotypes) && g.Haplotypes[i] == h; i++ {
		n++
	}
	return n
}

func handlesToInts(hs []haplotype.Handle) []int {
	out := make([]int, len(hs))
	for i, h := range hs {
		out[i] = int(h)
	}
	return out
}

// CopyUnique returns the distinct haplotype handles in g, in ascending
// order, per genotype.cpp's copy_unique_ref.
func (g Genotype) CopyUnique() []haplotype.Handle {
	var out []haplotype.Handle
	for i, h := range g.Haplotypes {
		if i == 0 || h != g.Haplotypes[i-1] {
			out = append(out, h)
		}
	}
	return out
}

// Contains reports whether any haplotype copy in g (resolved through arena)
// contains a. The spec's Genotype.contains(genotype, allele) operation.
func Contains(arena *haplotype.Arena, g Genotype, a allele.Allele) bool {
	for _, h := range g.CopyUnique() {
		if arena.Get(h).Contains(a) {
			return true
		}
	}
	return false
}

// Equal reports structural equality: same ploidy, same sorted handles.
func (g Genotype) Equal(o Genotype) bool {
	if len(g.Haplotypes) != len(o.Haplotypes) {
		return false
	}
	for i := range g.Haplotypes {
		if g.Haplotypes[i] != o.Haplotypes[i] {
			return false
		}
	}
	return true
}
