// Package closure builds and holds the precomputed transitive closure
// (ancestor/descendant sets) over a store's active IS_A hierarchy.
package closure

import (
	"log"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/wardle/snomed-terminology/snomed"
	"github.com/wardle/snomed-terminology/store"
)

// bitmapSet adapts a *roaring.Bitmap, indexed by dense node index rather than
// raw SCTID, to the store.Set interface — translating indices back to ids at
// the boundary so callers never see the internal compression scheme.
type bitmapSet struct {
	bm        *roaring.Bitmap
	idxToID   []snomed.Identifier
	idToIndex map[snomed.Identifier]uint32
}

func (s bitmapSet) Contains(id snomed.Identifier) bool {
	idx, ok := s.idToIndex[id]
	if !ok {
		return false
	}
	return s.bm.Contains(idx)
}

func (s bitmapSet) Len() int { return int(s.bm.GetCardinality()) }

func (s bitmapSet) Each(f func(snomed.Identifier)) {
	it := s.bm.Iterator()
	for it.HasNext() {
		f(s.idxToID[it.Next()])
	}
}

// Closure is the built transitive closure: a per-node compressed bitmap of
// descendant indices and ancestor indices, addressable by SCTID via an
// id<->dense-index mapping (roaring bitmaps operate on uint32, SCTIDs do not
// fit in 32 bits, so every node is interned to a small dense index first).
type Closure struct {
	idToIndex   map[snomed.Identifier]uint32
	indexToID   []snomed.Identifier
	descendants []*roaring.Bitmap
	ancestors   []*roaring.Bitmap
}

// Ancestors implements store.Closure.
func (c *Closure) Ancestors(id snomed.Identifier) (store.Set, bool) {
	idx, ok := c.idToIndex[id]
	if !ok {
		return nil, false
	}
	return bitmapSet{bm: c.ancestors[idx], idxToID: c.indexToID, idToIndex: c.idToIndex}, true
}

// Descendants implements store.Closure.
func (c *Closure) Descendants(id snomed.Identifier) (store.Set, bool) {
	idx, ok := c.idToIndex[id]
	if !ok {
		return nil, false
	}
	return bitmapSet{bm: c.descendants[idx], idxToID: c.indexToID, idToIndex: c.idToIndex}, true
}

// NodeCount returns how many distinct concept ids are covered by the closure.
func (c *Closure) NodeCount() int { return len(c.indexToID) }

// Build computes the transitive closure of s's active IS_A hierarchy: a
// reverse-topological traversal over children, accumulating
// descendants(n) = union of {c} ∪ descendants(c) for c in children(n).
// Ancestors are derived by inverting the resulting descendant sets. Cycles
// are resolved via Tarjan strongly connected components: all members of one
// SCC become each other's mutual ancestors and descendants, and the SCC is
// reported to s.RecordCycle once.
func Build(s *store.Store, logger *log.Logger) (*Closure, error) {
	if logger == nil {
		logger = log.New(logDiscard{}, "", 0)
	}
	children := s.Children()
	parents := s.Parents()

	ids := collectNodeIDs(s, children, parents)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idToIndex := make(map[snomed.Identifier]uint32, len(ids))
	for i, id := range ids {
		idToIndex[id] = uint32(i)
	}

	childAdj := make([][]uint32, len(ids))
	for i, id := range ids {
		for child := range children[id] {
			if idx, ok := idToIndex[child]; ok {
				childAdj[i] = append(childAdj[i], idx)
			}
		}
	}

	sccs := tarjanSCCs(childAdj)

	descendants := make([]*roaring.Bitmap, len(ids))
	for _, scc := range sccs {
		combined := roaring.New()
		memberSet := make(map[uint32]struct{}, len(scc))
		for _, m := range scc {
			memberSet[m] = struct{}{}
		}
		for _, m := range scc {
			for _, child := range childAdj[m] {
				if _, inSCC := memberSet[child]; inSCC {
					continue
				}
				combined.Add(child)
				combined.Or(descendants[child])
			}
		}
		if len(scc) > 1 {
			s.RecordCycle()
			logger.Printf("closure: cycle detected in IS_A hierarchy, %d mutually-descending concepts", len(scc))
		}
		for _, m := range scc {
			d := combined.Clone()
			for _, other := range scc {
				if other != m {
					d.Add(other)
				}
			}
			descendants[m] = d
		}
	}

	ancestors := make([]*roaring.Bitmap, len(ids))
	for i := range ancestors {
		ancestors[i] = roaring.New()
	}
	for m, d := range descendants {
		it := d.Iterator()
		for it.HasNext() {
			ancestors[it.Next()].Add(uint32(m))
		}
	}

	return &Closure{idToIndex: idToIndex, indexToID: ids, descendants: descendants, ancestors: ancestors}, nil
}

// collectNodeIDs gathers every id that needs a dense index: concepts plus
// anything appearing as a key or value in the children/parents adjacency
// (a relationship may name a source or destination concept never inserted,
// per the data-model's dangling-reference invariant).
func collectNodeIDs(s *store.Store, children, parents map[snomed.Identifier]map[snomed.Identifier]struct{}) []snomed.Identifier {
	seen := make(map[snomed.Identifier]struct{})
	for _, id := range s.AllConceptIDs() {
		seen[id] = struct{}{}
	}
	for id, set := range children {
		seen[id] = struct{}{}
		for child := range set {
			seen[child] = struct{}{}
		}
	}
	for id, set := range parents {
		seen[id] = struct{}{}
		for parent := range set {
			seen[parent] = struct{}{}
		}
	}
	ids := make([]snomed.Identifier, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }
