package haplotype

import (
	"encoding/binary"

	"blainsmith.com/go/seahash"
)

// Handle is an arena-index reference to a Haplotype. Handles are stable for
// the lifetime of the Arena they were issued from; they are not comparable
// across Arenas. Genotypes (genotype.Genotype) are built from Handles rather
// than pointers, per spec.md §9.
type Handle int

// Arena owns a de-duplicated collection of materialised Haplotypes, shared
// read-only by every consumer holding one of its Handles (the pileup/bio
// equivalent of a shared_ptr pool, made index-based instead of pointer-based
// so genotype equality is an index-tuple comparison).
type Arena struct {
	haplotypes []Haplotype
	byFingerprint map[uint64][]Handle
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{byFingerprint: make(map[uint64][]Handle)}
}

// fingerprint folds a haplotype's region and materialised sequence into a
// 64-bit SeaHash digest, used only to narrow candidate de-duplication
// buckets; Equal still confirms true equality on any hash collision.
func fingerprint(h *Haplotype) uint64 {
	hasher := seahash.New()
	_, _ = hasher.Write([]byte(h.Region.Contig))
	var posBuf [16]byte
	binary.LittleEndian.PutUint64(posBuf[0:8], uint64(h.Region.Begin))
	binary.LittleEndian.PutUint64(posBuf[8:16], uint64(h.Region.End))
	_, _ = hasher.Write(posBuf[:])
	_, _ = hasher.Write(h.seq)
	return hasher.Sum64()
}

// Intern materialises h (if not already) and returns the Handle for its
// canonical copy in the arena, reusing an existing entry when h is
// structurally Equal to one already present.
func (a *Arena) Intern(h Haplotype, fetch ReferenceFetcher) (Handle, error) {
	if h.seq == nil {
		if _, err := h.Materialize(fetch); err != nil {
			return -1, err
		}
	}
	fp := fingerprint(&h)
	for _, candidate := range a.byFingerprint[fp] {
		if a.haplotypes[candidate].Equal(&h) {
			return candidate, nil
		}
	}
	handle := Handle(len(a.haplotypes))
	a.haplotypes = append(a.haplotypes, h)
	a.byFingerprint[fp] = append(a.byFingerprint[fp], handle)
	return handle, nil
}

// Get returns a pointer to the Haplotype for handle. The pointer is valid
// until the next Reset.
func (a *Arena) Get(handle Handle) *Haplotype {
	return &a.haplotypes[handle]
}

// Len returns the number of distinct haplotypes interned so far.
func (a *Arena) Len() int { return len(a.haplotypes) }

// Reset clears the arena, invalidating all previously issued Handles. The
// pipeline driver does not call it; it builds a fresh Arena per region.
func (a *Arena) Reset() {
	a.haplotypes = a.haplotypes[:0]
	a.byFingerprint = make(map[uint64][]Handle)
}
