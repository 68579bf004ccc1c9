package search

import (
	"testing"

	"github.com/wardle/snomed-terminology/snomed"
)

func TestSubstringSearchIsCaseInsensitive(t *testing.T) {
	idx := NewSubstringIndex()
	put(t, idx, 1, "Diabetes mellitus type 1", true)
	put(t, idx, 1, "Type 1 diabetes mellitus", true)
	put(t, idx, 2, "Diabetic retinopathy", true)

	hits, err := idx.Search("DIABETES", 0, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly 1 concept to match 'diabetes', got %d", len(hits))
	}
	if hits[0].ConceptID != 1 {
		t.Errorf("expected concept 1, got %d", hits[0].ConceptID)
	}
	if len(hits[0].Terms) != 2 {
		t.Errorf("expected both matching terms of concept 1, got %v", hits[0].Terms)
	}
}

func TestSubstringSearchRespectsLimitAndInsertionOrder(t *testing.T) {
	idx := NewSubstringIndex()
	put(t, idx, 1, "finding one", true)
	put(t, idx, 2, "finding two", true)
	put(t, idx, 3, "finding three", true)

	hits, err := idx.Search("finding", 2, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected exactly 2 hits under limit=2, got %d", len(hits))
	}
	if hits[0].ConceptID != 1 || hits[1].ConceptID != 2 {
		t.Errorf("expected insertion-order concepts 1,2 — got %v, %v", hits[0].ConceptID, hits[1].ConceptID)
	}
}

func TestSubstringSearchActiveOnlyFilter(t *testing.T) {
	idx := NewSubstringIndex()
	put(t, idx, 1, "inactive finding", false)
	put(t, idx, 2, "active finding", true)

	hits, err := idx.Search("finding", 0, true)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ConceptID != 2 {
		t.Fatalf("expected activeOnly to exclude concept 1, got %v", hits)
	}
}

func put(t *testing.T, idx *SubstringIndex, conceptID snomed.Identifier, term string, active bool) {
	t.Helper()
	if err := idx.Put(&snomed.Description{ConceptID: conceptID, Term: term, Active: active}); err != nil {
		t.Fatalf("put: %v", err)
	}
}
