// Package store implements the in-memory SNOMED CT terminology store: the
// primary record maps and hierarchy/refset adjacency indexes built by
// streaming rf2 records, behind a one-way Loading → Serving lifecycle.
package store

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wardle/snomed-terminology/snomed"
)

// Phase identifies where a Store sits in its one-way lifecycle.
type Phase int32

const (
	// Loading is the mutable phase: Insert* methods are accepted.
	Loading Phase = iota
	// Serving is the immutable, read-only phase. Once a Store reaches Serving
	// it never returns to Loading.
	Serving
)

// Store owns every record collection and adjacency index built from one
// release. It is safe for concurrent use: Insert* methods may be called from
// multiple goroutines during Loading (guarded by mu); once Freeze is called
// reads never take the lock, matching the "append-only during loading,
// read-only during serving" resource policy.
type Store struct {
	mu    sync.Mutex
	phase int32 // atomic Phase

	concepts              map[snomed.Identifier]*snomed.Concept
	descriptionsByConcept map[snomed.Identifier][]*snomed.Description

	// relationships is the single owned copy of every relationship record;
	// outgoing/incoming hold indices into it rather than duplicating the
	// record, per spec option (a)/(b) ("avoid storing each record twice").
	relationships []*snomed.Relationship
	outgoing      map[snomed.Identifier][]int
	incoming      map[snomed.Identifier][]int

	parents  map[snomed.Identifier]map[snomed.Identifier]struct{}
	children map[snomed.Identifier]map[snomed.Identifier]struct{}

	refsetMembers map[snomed.Identifier]map[snomed.Identifier]struct{}

	mrcmDomain          map[snomed.Identifier]*snomed.MRCMDomain
	mrcmAttributeDomain map[snomed.Identifier]*snomed.MRCMAttributeDomain
	mrcmAttributeRange  map[snomed.Identifier]*snomed.MRCMAttributeRange

	danglingReferences int
	cyclesDetected     int

	closure Closure // set by closure.Build via SetClosure; nil until then
}

// Closure is the minimal surface the store needs from a built transitive
// closure, satisfied by *closure.Closure. Kept as an interface here so store
// has no import-cycle dependency on the closure package.
type Closure interface {
	Ancestors(id snomed.Identifier) (Set, bool)
	Descendants(id snomed.Identifier) (Set, bool)
}

// Set is a read-only membership/enumeration view of a concept id collection,
// satisfied by both plain map-backed sets and roaring-bitmap-backed ones.
type Set interface {
	Contains(id snomed.Identifier) bool
	Len() int
	Each(func(snomed.Identifier))
}

// mapSet is the plain-map Set implementation used for parents/children/refsetMembers.
type mapSet map[snomed.Identifier]struct{}

func (s mapSet) Contains(id snomed.Identifier) bool { _, ok := s[id]; return ok }
func (s mapSet) Len() int                           { return len(s) }
func (s mapSet) Each(f func(snomed.Identifier)) {
	for id := range s {
		f(id)
	}
}

// New returns an empty Store in the Loading phase.
func New() *Store {
	return &Store{
		concepts:              make(map[snomed.Identifier]*snomed.Concept),
		descriptionsByConcept: make(map[snomed.Identifier][]*snomed.Description),
		outgoing:              make(map[snomed.Identifier][]int),
		incoming:              make(map[snomed.Identifier][]int),
		parents:               make(map[snomed.Identifier]map[snomed.Identifier]struct{}),
		children:              make(map[snomed.Identifier]map[snomed.Identifier]struct{}),
		refsetMembers:         make(map[snomed.Identifier]map[snomed.Identifier]struct{}),
		mrcmDomain:            make(map[snomed.Identifier]*snomed.MRCMDomain),
		mrcmAttributeDomain:   make(map[snomed.Identifier]*snomed.MRCMAttributeDomain),
		mrcmAttributeRange:    make(map[snomed.Identifier]*snomed.MRCMAttributeRange),
	}
}

// Phase returns the store's current lifecycle phase.
func (s *Store) Phase() Phase { return Phase(atomic.LoadInt32(&s.phase)) }

// Freeze publishes the store into the Serving phase. It is idempotent but
// the transition itself is one-way: once Serving, InsertXxx methods fail.
func (s *Store) Freeze() { atomic.StoreInt32(&s.phase, int32(Serving)) }

// SetClosure attaches a built transitive closure, enabling O(1)
// GetAncestors/GetDescendants/IsDescendantOf. Intended to be called by
// closure.Build's caller, after which Freeze is typically called.
func (s *Store) SetClosure(c Closure) { s.closure = c }

// HasClosure reports whether a transitive closure has been attached.
func (s *Store) HasClosure() bool { return s.closure != nil }

func (s *Store) requireLoading() error {
	if s.Phase() == Serving {
		return ErrAlreadyServing
	}
	return nil
}

// InsertConcept adds or replaces a concept record by id.
func (s *Store) InsertConcept(c *snomed.Concept) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concepts[c.ID] = c
	return nil
}

// InsertDescription appends a description, indexed by its owning concept.
// A description referencing a concept id never inserted is retained (dangling
// references are permitted per the data-model invariants) and counted.
func (s *Store) InsertDescription(d *snomed.Description) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptionsByConcept[d.ConceptID] = append(s.descriptionsByConcept[d.ConceptID], d)
	if _, ok := s.concepts[d.ConceptID]; !ok {
		s.danglingReferences++
	}
	return nil
}

// InsertRelationship appends one relationship record, maintaining outgoing,
// incoming, and (for active IS_A rows) the parents/children adjacency in a
// single pass, per invariant 1.
func (s *Store) InsertRelationship(r *snomed.Relationship) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.relationships)
	s.relationships = append(s.relationships, r)
	s.outgoing[r.SourceID] = append(s.outgoing[r.SourceID], idx)
	s.incoming[r.DestinationID] = append(s.incoming[r.DestinationID], idx)

	if _, ok := s.concepts[r.SourceID]; !ok {
		s.danglingReferences++
	}
	if _, ok := s.concepts[r.DestinationID]; !ok {
		s.danglingReferences++
	}

	if r.IsA() {
		if s.parents[r.SourceID] == nil {
			s.parents[r.SourceID] = make(map[snomed.Identifier]struct{})
		}
		s.parents[r.SourceID][r.DestinationID] = struct{}{}
		if s.children[r.DestinationID] == nil {
			s.children[r.DestinationID] = make(map[snomed.Identifier]struct{})
		}
		s.children[r.DestinationID][r.SourceID] = struct{}{}
	}
	return nil
}

// InsertRefsetMember records that refsetId's membership includes the
// referenced component, for simple and language refsets alike (a language
// refset member is also always a plain RefsetMember via embedding).
func (s *Store) InsertRefsetMember(m *snomed.RefsetMember) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refsetMembers[m.RefsetID] == nil {
		s.refsetMembers[m.RefsetID] = make(map[snomed.Identifier]struct{})
	}
	s.refsetMembers[m.RefsetID][m.ReferencedComponentID] = struct{}{}
	return nil
}

// InsertMRCMDomain stores one MRCM domain rule, keyed by its referenced
// component id.
func (s *Store) InsertMRCMDomain(m *snomed.MRCMDomain) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	s.mrcmDomain[m.ReferencedComponentID] = m
	s.mu.Unlock()
	return s.InsertRefsetMember(&m.RefsetMember)
}

// InsertMRCMAttributeDomain stores one MRCM attribute-domain rule, keyed by
// the attribute concept id it describes (the referenced component).
func (s *Store) InsertMRCMAttributeDomain(m *snomed.MRCMAttributeDomain) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	s.mrcmAttributeDomain[m.ReferencedComponentID] = m
	s.mu.Unlock()
	return s.InsertRefsetMember(&m.RefsetMember)
}

// InsertMRCMAttributeRange stores one MRCM attribute-range rule.
func (s *Store) InsertMRCMAttributeRange(m *snomed.MRCMAttributeRange) error {
	if err := s.requireLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	s.mrcmAttributeRange[m.ReferencedComponentID] = m
	s.mu.Unlock()
	return s.InsertRefsetMember(&m.RefsetMember)
}

// GetConcept returns the concept with the given id, and whether it was found.
func (s *Store) GetConcept(id snomed.Identifier) (*snomed.Concept, bool) {
	c, ok := s.concepts[id]
	return c, ok
}

// GetDescriptions returns every description belonging to a concept, in
// insertion order. The returned slice may be empty but is never nil.
func (s *Store) GetDescriptions(id snomed.Identifier) []*snomed.Description {
	if ds := s.descriptionsByConcept[id]; ds != nil {
		return ds
	}
	return []*snomed.Description{}
}

// GetFSN returns the first active fully specified name for a concept.
func (s *Store) GetFSN(id snomed.Identifier) (*snomed.Description, bool) {
	for _, d := range s.descriptionsByConcept[id] {
		if d.Active && d.IsFullySpecifiedName() {
			return d, true
		}
	}
	return nil, false
}

// GetPreferredTerm returns the first active synonym for a concept, falling
// back to the FSN if no active synonym exists. Per Open Question 3, language
// refset acceptability ordering is not consulted.
func (s *Store) GetPreferredTerm(id snomed.Identifier) (*snomed.Description, bool) {
	for _, d := range s.descriptionsByConcept[id] {
		if d.Active && d.IsSynonym() {
			return d, true
		}
	}
	return s.GetFSN(id)
}

// GetParents returns the set of ids that are active IS_A destinations from id.
func (s *Store) GetParents(id snomed.Identifier) Set {
	return mapSet(s.parents[id])
}

// GetChildren returns the set of ids with an active IS_A relationship to id.
func (s *Store) GetChildren(id snomed.Identifier) Set {
	return mapSet(s.children[id])
}

// GetOutgoing returns every relationship (active or not) sourced from id.
func (s *Store) GetOutgoing(id snomed.Identifier) []*snomed.Relationship {
	idxs := s.outgoing[id]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]*snomed.Relationship, len(idxs))
	for i, ix := range idxs {
		out[i] = s.relationships[ix]
	}
	return out
}

// GetIncoming returns every relationship (active or not) destined at id.
func (s *Store) GetIncoming(id snomed.Identifier) []*snomed.Relationship {
	idxs := s.incoming[id]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]*snomed.Relationship, len(idxs))
	for i, ix := range idxs {
		out[i] = s.relationships[ix]
	}
	return out
}

// GetRefsetMembers returns the set of referenced component ids for a refset.
func (s *Store) GetRefsetMembers(refsetID snomed.Identifier) Set {
	return mapSet(s.refsetMembers[refsetID])
}

// GetMRCMAttributeDomain returns the MRCM attribute-domain rule for an
// attribute concept id. The ecl evaluator does not call it: refinement
// matching there ignores role groups (Open Question 4).
func (s *Store) GetMRCMAttributeDomain(attributeID snomed.Identifier) (*snomed.MRCMAttributeDomain, bool) {
	m, ok := s.mrcmAttributeDomain[attributeID]
	return m, ok
}

// GetAncestors returns id's ancestor set: O(1) if a closure has been attached,
// else an O(V+E) BFS over parents as the spec's fallback complexity column allows.
func (s *Store) GetAncestors(id snomed.Identifier) Set {
	if s.closure != nil {
		if set, ok := s.closure.Ancestors(id); ok {
			return set
		}
	}
	return s.bfs(id, s.parents)
}

// GetDescendants returns id's descendant set, with the same O(1)/BFS fallback
// behavior as GetAncestors.
func (s *Store) GetDescendants(id snomed.Identifier) Set {
	if s.closure != nil {
		if set, ok := s.closure.Descendants(id); ok {
			return set
		}
	}
	return s.bfs(id, s.children)
}

// IsDescendantOf reports whether a is a (possibly indirect) IS_A descendant of b.
func (s *Store) IsDescendantOf(a, b snomed.Identifier) bool {
	return s.GetAncestors(a).Contains(b)
}

func (s *Store) bfs(start snomed.Identifier, adjacency map[snomed.Identifier]map[snomed.Identifier]struct{}) Set {
	visited := make(mapSet)
	queue := []snomed.Identifier{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range adjacency[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}

// Statistics summarizes the record counts and integrity signals accumulated
// during loading, mirroring the teacher's Statistics.String() precedent.
type Statistics struct {
	Concepts           int
	Descriptions       int
	Relationships      int
	RefsetMembers      int
	InstalledRefsets   []string
	DanglingReferences int
	CyclesDetected     int
}

func (st Statistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Concepts: %d\n", st.Concepts)
	fmt.Fprintf(&b, "Descriptions: %d\n", st.Descriptions)
	fmt.Fprintf(&b, "Relationships: %d\n", st.Relationships)
	fmt.Fprintf(&b, "Refset members: %d\n", st.RefsetMembers)
	fmt.Fprintf(&b, "Dangling references: %d\n", st.DanglingReferences)
	fmt.Fprintf(&b, "Cycles detected: %d\n", st.CyclesDetected)
	fmt.Fprintf(&b, "Installed refsets: %d\n", len(st.InstalledRefsets))
	for _, r := range st.InstalledRefsets {
		fmt.Fprintf(&b, "  %s\n", r)
	}
	return b.String()
}

// Statistics computes a snapshot of the store's current record counts.
func (s *Store) Statistics() Statistics {
	descCount := 0
	for _, ds := range s.descriptionsByConcept {
		descCount += len(ds)
	}
	refsetCount := 0
	installed := make([]string, 0, len(s.refsetMembers))
	for refsetID, members := range s.refsetMembers {
		refsetCount += len(members)
		installed = append(installed, refsetID.String())
	}
	return Statistics{
		Concepts:           len(s.concepts),
		Descriptions:       descCount,
		Relationships:      len(s.relationships),
		RefsetMembers:      refsetCount,
		InstalledRefsets:   installed,
		DanglingReferences: s.danglingReferences,
		CyclesDetected:     s.cyclesDetected,
	}
}

// RecordCycle increments the cycle-detected counter; called by closure.Build
// once per strongly connected component of more than one concept found in
// the IS_A hierarchy.
func (s *Store) RecordCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cyclesDetected++
}

// AllConceptIDs returns every concept id currently stored, for callers (the
// closure builder, ECL wildcard evaluation) that need to enumerate roots or
// the full active set. Order is unspecified.
func (s *Store) AllConceptIDs() []snomed.Identifier {
	ids := make([]snomed.Identifier, 0, len(s.concepts))
	for id := range s.concepts {
		ids = append(ids, id)
	}
	return ids
}

// Children exposes the raw children adjacency for the closure builder's
// topological traversal (it needs the full map, not just one id's set).
func (s *Store) Children() map[snomed.Identifier]map[snomed.Identifier]struct{} { return s.children }

// Parents exposes the raw parents adjacency, symmetric to Children.
func (s *Store) Parents() map[snomed.Identifier]map[snomed.Identifier]struct{} { return s.parents }
