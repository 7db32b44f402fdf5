package genome

import (
	gointerval "github.com/biogo/store/interval"
)

// Index answers "which of a set of regions overlap a query region" queries
// in better than linear time, backed by one github.com/biogo/store/interval
// tree per contig. It generalizes the static endpoint-union scan used
// elsewhere in the pack (for a fixed BED-like region set) to the dynamic
// insert/remove pattern the haplotype window needs as candidates enter and
// leave the active window (C12).
type Index struct {
	trees   map[string]*gointerval.IntTree
	entries map[int]Region
	nextUID uintptr
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		trees:   make(map[string]*gointerval.IntTree),
		entries: make(map[int]Region),
	}
}

type regionNode struct {
	start, end int
	uid        uintptr
	id         int
}

func (n regionNode) Overlap(b gointerval.IntRange) bool {
	return n.start < b.End && b.Start < n.end
}
func (n regionNode) ID() uintptr             { return n.uid }
func (n regionNode) Range() gointerval.IntRange { return gointerval.IntRange{Start: n.start, End: n.end} }
func (n regionNode) String() string          { return "" }

// Insert adds region r under key id (the caller's own identifier, e.g. a
// slice index into its candidate list); call Build after a batch of Insert
// calls before querying.
func (ix *Index) Insert(id int, r Region) {
	tree, ok := ix.trees[r.Contig]
	if !ok {
		tree = &gointerval.IntTree{}
		ix.trees[r.Contig] = tree
	}
	end := int(r.End)
	if r.IsEmpty() {
		// biogo's interval tree requires Start < End for a well-formed node;
		// represent an insertion-point region as a one-wide node so it is
		// still locatable by point queries, while Region still reports
		// the true empty interval to callers.
		end = int(r.Begin) + 1
	}
	node := regionNode{start: int(r.Begin), end: end, uid: ix.nextUID, id: id}
	ix.nextUID++
	ix.entries[id] = r
	_ = tree.Insert(node, true)
}

// Build finalizes the tree structure after a batch of Insert calls.
func (ix *Index) Build() {
	for _, t := range ix.trees {
		t.AdjustRanges()
	}
}

// Overlapping returns the ids of all inserted regions overlapping q.
func (ix *Index) Overlapping(q Region) []int {
	tree, ok := ix.trees[q.Contig]
	if !ok {
		return nil
	}
	end := int(q.End)
	if q.IsEmpty() {
		end = int(q.Begin) + 1
	}
	query := regionNode{start: int(q.Begin), end: end}
	var ids []int
	tree.DoMatching(func(iv gointerval.IntInterface) (done bool) {
		n := iv.(regionNode)
		if ix.entries[n.id].Overlaps(q) {
			ids = append(ids, n.id)
		}
		return false
	}, query)
	return ids
}

// Region returns the region stored for id.
func (ix *Index) Region(id int) (Region, bool) {
	r, ok := ix.entries[id]
	return r, ok
}

// Len returns the number of entries in the index.
func (ix *Index) Len() int { return len(ix.entries) }
