package ecl

import (
	"context"
	"testing"

	"github.com/wardle/snomed-terminology/closure"
	"github.com/wardle/snomed-terminology/snomed"
	"github.com/wardle/snomed-terminology/store"
)

// buildTestStore builds root(138875005) -> clinicalFinding(404684003) ->
// disease(64572001) -> diabetesMellitus(73211009) -> {type1(46635009), type2(44054006)},
// plus a finding site attribute (363698007) from diabetesMellitus to pancreaticStructure(15776009),
// and a simple refset (attributeRefset, id 900000000000497000) containing type1DM.
func buildTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	for _, id := range []snomed.Identifier{rootID, findingID, diseaseID, diabetesID, type1ID, type2ID, pancreasID} {
		if err := s.InsertConcept(&snomed.Concept{ID: id, Active: true}); err != nil {
			t.Fatalf("insert concept: %v", err)
		}
	}
	isaEdges := [][2]snomed.Identifier{
		{findingID, rootID},
		{diseaseID, findingID},
		{diabetesID, diseaseID},
		{type1ID, diabetesID},
		{type2ID, diabetesID},
	}
	nextID := snomed.Identifier(1)
	for _, e := range isaEdges {
		r := &snomed.Relationship{ID: nextID, Active: true, SourceID: e[0], DestinationID: e[1], TypeID: snomed.IsA}
		nextID++
		if err := s.InsertRelationship(r); err != nil {
			t.Fatalf("insert relationship: %v", err)
		}
	}
	findingSiteRel := &snomed.Relationship{ID: nextID, Active: true, SourceID: diabetesID, DestinationID: pancreasID, TypeID: findSiteID}
	if err := s.InsertRelationship(findingSiteRel); err != nil {
		t.Fatalf("insert finding site relationship: %v", err)
	}
	if err := s.InsertRefsetMember(&snomed.RefsetMember{ID: "1", Active: true, RefsetID: refsetID, ReferencedComponentID: type1ID}); err != nil {
		t.Fatalf("insert refset member: %v", err)
	}

	c, err := closure.Build(s, nil)
	if err != nil {
		t.Fatalf("build closure: %v", err)
	}
	s.SetClosure(c)
	s.Freeze()
	return s
}

const (
	rootID     snomed.Identifier = 138875005
	findingID  snomed.Identifier = 404684003
	diseaseID  snomed.Identifier = 64572001
	diabetesID snomed.Identifier = 73211009
	type1ID    snomed.Identifier = 46635009
	type2ID    snomed.Identifier = 44054006
	pancreasID snomed.Identifier = 15776009
	findSiteID snomed.Identifier = 363698007
	refsetID   snomed.Identifier = 900000000000497000
)

func idSet(ids []snomed.Identifier) map[snomed.Identifier]bool {
	out := make(map[snomed.Identifier]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func TestDescendantOfExcludesSelf(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	res, err := e.Eval(context.Background(), DescendantOf{ID: diabetesID}, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	got := idSet(res.IDs)
	if got[diabetesID] {
		t.Error("expected DescendantOf to exclude the concept itself")
	}
	if !got[type1ID] || !got[type2ID] {
		t.Errorf("expected both subtypes in descendant set, got %v", got)
	}
}

func TestDescendantOrSelfIncludesSelf(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	res, err := e.Eval(context.Background(), DescendantOrSelf{ID: diabetesID}, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	got := idSet(res.IDs)
	if !got[diabetesID] {
		t.Error("expected DescendantOrSelf to include the concept itself")
	}
}

func TestSetLawsIdempotentAndSelfCancel(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	a := DescendantOrSelf{ID: diseaseID}

	resAndA, err := e.Eval(context.Background(), And{Left: a, Right: a}, 0)
	if err != nil {
		t.Fatalf("eval AND: %v", err)
	}
	resA, err := e.Eval(context.Background(), a, 0)
	if err != nil {
		t.Fatalf("eval A: %v", err)
	}
	if resAndA.TotalCount != resA.TotalCount {
		t.Errorf("A AND A should equal A: got %d want %d", resAndA.TotalCount, resA.TotalCount)
	}

	resOrA, err := e.Eval(context.Background(), Or{Left: a, Right: a}, 0)
	if err != nil {
		t.Fatalf("eval OR: %v", err)
	}
	if resOrA.TotalCount != resA.TotalCount {
		t.Errorf("A OR A should equal A: got %d want %d", resOrA.TotalCount, resA.TotalCount)
	}

	resMinusA, err := e.Eval(context.Background(), Minus{Left: a, Right: a}, 0)
	if err != nil {
		t.Fatalf("eval MINUS: %v", err)
	}
	if resMinusA.TotalCount != 0 {
		t.Errorf("A MINUS A should be empty, got %d", resMinusA.TotalCount)
	}
}

func TestOrIsUnionOfDisjointBranches(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	res, err := e.Eval(context.Background(), Or{Left: ConceptRef{ID: type1ID}, Right: ConceptRef{ID: type2ID}}, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	got := idSet(res.IDs)
	if len(got) != 2 || !got[type1ID] || !got[type2ID] {
		t.Errorf("expected union of exactly {type1, type2}, got %v", got)
	}
}

func TestMemberOfRefset(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	res, err := e.Eval(context.Background(), MemberOf{RefsetID: refsetID}, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if res.TotalCount != 1 || res.IDs[0] != type1ID {
		t.Errorf("expected refset membership to contain only type1DM, got %v", res.IDs)
	}
}

func TestRefinementFiltersByAttributeDestination(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	base := DescendantOrSelf{ID: diabetesID}
	refinement := Refinement{Base: base, AttributeTypeID: findSiteID, Op: "=", Value: ConceptRef{ID: pancreasID}}
	res, err := e.Eval(context.Background(), refinement, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if res.TotalCount != 1 || res.IDs[0] != diabetesID {
		t.Errorf("expected only diabetesMellitus itself to carry the finding site, got %v", res.IDs)
	}
}

func TestRefinementRejectsUnsupportedComparator(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	refinement := Refinement{Base: ConceptRef{ID: diabetesID}, AttributeTypeID: findSiteID, Op: "!=", Value: ConceptRef{ID: pancreasID}}
	if _, err := e.Eval(context.Background(), refinement, 0); err != ErrUnsupportedComparator {
		t.Errorf("expected ErrUnsupportedComparator, got %v", err)
	}
}

func TestGroupedIsPassThrough(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	plain, err := e.Eval(context.Background(), DescendantOf{ID: diseaseID}, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	grouped, err := e.Eval(context.Background(), Grouped{Inner: DescendantOf{ID: diseaseID}}, 0)
	if err != nil {
		t.Fatalf("eval grouped: %v", err)
	}
	if plain.TotalCount != grouped.TotalCount {
		t.Errorf("Grouped should not change the evaluated set: plain=%d grouped=%d", plain.TotalCount, grouped.TotalCount)
	}
}

func TestEvalRespectsLimitAndReportsTruncation(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	res, err := e.Eval(context.Background(), DescendantOrSelf{ID: rootID}, 2)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if len(res.IDs) != 2 {
		t.Errorf("expected exactly 2 ids returned under limit, got %d", len(res.IDs))
	}
	if !res.Truncated {
		t.Error("expected Truncated to be true when the full set exceeds the limit")
	}
	if res.TotalCount <= 2 {
		t.Errorf("expected TotalCount to reflect the full set size, got %d", res.TotalCount)
	}
}

func TestEvalCancellationReturnsNoPartialResult(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := e.Eval(ctx, DescendantOrSelf{ID: rootID}, 0)
	if err != ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if res.IDs != nil || res.TotalCount != 0 {
		t.Errorf("expected zero-value Result on cancellation, got %+v", res)
	}
}

func TestMatchesReportsMembership(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	ok, err := e.Matches(context.Background(), DescendantOf{ID: diseaseID}, type1ID)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if !ok {
		t.Error("expected type1DM to match < disease")
	}
	ok, err = e.Matches(context.Background(), DescendantOf{ID: diseaseID}, pancreasID)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if ok {
		t.Error("expected pancreasID not to match < disease")
	}
}

func TestUnknownNodeTypeIsRejected(t *testing.T) {
	s := buildTestStore(t)
	e := NewEvaluator(s)
	if _, err := e.Eval(context.Background(), nil, 0); err == nil {
		t.Error("expected evaluating a nil node to fail")
	}
}
