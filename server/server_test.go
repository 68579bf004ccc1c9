package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wardle/snomed-terminology/closure"
	"github.com/wardle/snomed-terminology/search"
	"github.com/wardle/snomed-terminology/snomed"
	"github.com/wardle/snomed-terminology/store"
	"github.com/wardle/snomed-terminology/terminology"
)

const (
	rootID     snomed.Identifier = 138875005
	diabetesID snomed.Identifier = 73211009
	type1ID    snomed.Identifier = 46635009
)

func buildSvc(t *testing.T) *terminology.Svc {
	t.Helper()
	s := store.New()
	idx := search.NewSubstringIndex()
	for id, term := range map[snomed.Identifier]string{
		rootID:     "Clinical finding (finding)",
		diabetesID: "Diabetes mellitus",
		type1ID:    "Type 1 diabetes mellitus",
	} {
		if err := s.InsertConcept(&snomed.Concept{ID: id, Active: true}); err != nil {
			t.Fatalf("insert concept: %v", err)
		}
		d := &snomed.Description{ID: id + 1_000_000, ConceptID: id, Active: true, TypeID: snomed.Synonym, Term: term}
		if err := s.InsertDescription(d); err != nil {
			t.Fatalf("insert description: %v", err)
		}
		if err := idx.Put(d); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	for i, e := range [][2]snomed.Identifier{{diabetesID, rootID}, {type1ID, diabetesID}} {
		r := &snomed.Relationship{ID: snomed.Identifier(i + 1), Active: true, SourceID: e[0], DestinationID: e[1], TypeID: snomed.IsA}
		if err := s.InsertRelationship(r); err != nil {
			t.Fatalf("insert relationship: %v", err)
		}
	}
	c, err := closure.Build(s, nil)
	if err != nil {
		t.Fatalf("build closure: %v", err)
	}
	s.SetClosure(c)
	s.Freeze()
	return terminology.NewService(s, idx)
}

func TestGetConceptHandler(t *testing.T) {
	mux := NewMux(buildSvc(t))
	req := httptest.NewRequest(http.MethodGet, "/concepts/73211009", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view conceptView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID != diabetesID {
		t.Errorf("expected concept %d, got %d", diabetesID, view.ID)
	}
}

func TestGetConceptHandlerNotFound(t *testing.T) {
	mux := NewMux(buildSvc(t))
	req := httptest.NewRequest(http.MethodGet, "/concepts/999999999", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIsDescendantOfHandler(t *testing.T) {
	mux := NewMux(buildSvc(t))
	req := httptest.NewRequest(http.MethodGet, "/concepts/46635009/descendant-of/138875005", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got bool
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got {
		t.Error("expected type1DM to be a descendant of root")
	}
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	mux := NewMux(buildSvc(t))
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing q, got %d", rec.Code)
	}
}

func TestSearchHandlerReturnsHits(t *testing.T) {
	mux := NewMux(buildSvc(t))
	req := httptest.NewRequest(http.MethodGet, "/search?q=diabetes", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var hits []search.Hit
	if err := json.NewDecoder(rec.Body).Decode(&hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 concepts to match 'diabetes', got %d", len(hits))
	}
}

func TestExecuteECLHandler(t *testing.T) {
	mux := NewMux(buildSvc(t))
	body := `{"expression":{"op":"descendantOrSelf","id":73211009},"limit":0}`
	req := httptest.NewRequest(http.MethodPost, "/ecl/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view eclResultView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TotalCount != 2 {
		t.Fatalf("expected diabetesMellitus + type1DM, got %d", view.TotalCount)
	}
}

func TestMatchesECLHandler(t *testing.T) {
	mux := NewMux(buildSvc(t))
	body := `{"op":"descendantOf","id":138875005}`
	req := httptest.NewRequest(http.MethodPost, "/ecl/matches/46635009", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var matched bool
	if err := json.NewDecoder(rec.Body).Decode(&matched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !matched {
		t.Error("expected type1DM to match < root")
	}
}

func TestStatisticsHandler(t *testing.T) {
	mux := NewMux(buildSvc(t))
	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
