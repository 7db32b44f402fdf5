package genotype

import "github.com/grailbio/varcall/haplotype"

// NumGenotypes returns the multiset coefficient C(numElements+ploidy-1,
// ploidy), the count of distinct genotypes of the given ploidy over
// numElements haplotypes, per genotype.cpp's num_genotypes.
func NumGenotypes(numElements, ploidy int) int {
	if numElements == 0 || ploidy == 0 {
		return 0
	}
	return int(binomial(numElements+ploidy-1, ploidy))
}

func binomial(n, k int) int64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	var result int64 = 1
	for i := 0; i < k; i++ {
		result = result * int64(n-i) / int64(i+1)
	}
	return result
}

// GenerateAll produces every multiset of size ploidy over haplotypes, as
// sorted-ascending-index Genotypes, per genotype.cpp's
// generate_all_genotypes. The recursive "combinations with repetition"
// algorithm builds each genotype by choosing non-decreasing handle indices.
func GenerateAll(haplotypes []haplotype.Handle, ploidy int) []Genotype {
	if len(haplotypes) == 0 || ploidy == 0 {
		return nil
	}
	result := make([]Genotype, 0, NumGenotypes(len(haplotypes), ploidy))
	current := make([]haplotype.Handle, 0, ploidy)
	var recurse func(start int, remaining int)
	recurse = func(start int, remaining int) {
		if remaining == 0 {
			g := make([]haplotype.Handle, len(current))
			copy(g, current)
			result = append(result, Genotype{Haplotypes: g})
			return
		}
		for i := start; i < len(haplotypes); i++ {
			current = append(current, haplotypes[i])
			recurse(i, remaining-1)
			current = current[:len(current)-1]
		}
	}
	recurse(0, ploidy)
	return result
}

// InverseTable returns, per haplotype handle (indexed by its position in
// haplotypes), the sorted slice of indices into genotypes whose Genotype
// contains that haplotype. Grounded on trio_caller.cpp's
// make_inverse_genotype_table, used for O(H*G/H) haplotype-posterior
// marginalisation (spec.md §4.4/§4.6).
func InverseTable(haplotypes []haplotype.Handle, genotypes []Genotype) [][]int {
	result := make([][]int, len(haplotypes))
	index := make(map[haplotype.Handle]int, len(haplotypes))
	for i, h := range haplotypes {
		index[h] = i
	}
	for gi, g := range genotypes {
		for _, h := range g.CopyUnique() {
			if hi, ok := index[h]; ok {
				result[hi] = append(result[hi], gi)
			}
		}
	}
	return result
}
