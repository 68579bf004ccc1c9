package search

import (
	"os"
	"testing"

	"github.com/wardle/snomed-terminology/snomed"
)

func TestBleveIndexSearchAndActiveOnlyFilter(t *testing.T) {
	path := t.TempDir() + "/bleve-index"
	defer os.RemoveAll(path)
	idx, err := NewBleveIndex(path, false)
	if err != nil {
		t.Fatalf("new bleve index: %v", err)
	}
	defer idx.Close()

	descriptions := []*snomed.Description{
		{ID: 1, ConceptID: 24700007, Active: true, TypeID: snomed.Synonym, Term: "Multiple sclerosis"},
		{ID: 2, ConceptID: 24700007, Active: true, TypeID: snomed.FullySpecifiedName, Term: "Multiple sclerosis (disorder)"},
		{ID: 3, ConceptID: 128188000, Active: false, TypeID: snomed.Synonym, Term: "Multifocal motor neuropathy"},
	}
	for _, d := range descriptions {
		if err := idx.Put(d); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	hits, err := idx.Search("mult scler", 10, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ConceptID != 24700007 {
		t.Fatalf("expected exactly multiple sclerosis's concept, got %v", hits)
	}

	hits, err = idx.Search("multifocal", 10, true)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected activeOnly to exclude the inactive concept, got %v", hits)
	}

	hits, err = idx.Search("parkin", 10, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no matches for an unrelated query, got %v", hits)
	}
}
