package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wardle/snomed-terminology/rf2"
	"github.com/wardle/snomed-terminology/snomed"
)

func mustWrite(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// fixture builds a tiny release tree mirroring the endocrine-disease chain
// used by spec scenarios S1-S3: root -> ClinicalFinding -> Disease ->
// DiabetesMellitus -> {Type1DM, Type2DM}.
func fixture(t *testing.T) *rf2.Catalog {
	t.Helper()
	dir := t.TempDir()

	concept := "id\teffectiveTime\tactive\tmoduleId\tdefinitionStatusId\n"
	for _, id := range []string{"138875005", "404684003", "64572001", "362969004", "73211009", "46635009", "44054006"} {
		concept += id + "\t20020131\t1\t138875005\t900000000000074008\n"
	}
	conceptPath := mustWrite(t, dir, "sct2_Concept_Snapshot_INT_20020131.txt", concept)

	description := "id\teffectiveTime\tactive\tmoduleId\tconceptId\tlanguageCode\ttypeId\tterm\tcaseSignificanceId\n" +
		"1\t20020131\t1\t138875005\t73211009\ten\t900000000000003001\tDiabetes mellitus (disorder)\t900000000000448009\n" +
		"2\t20020131\t1\t138875005\t73211009\ten\t900000000000013009\tDiabetes mellitus\t900000000000448009\n"
	descriptionPath := mustWrite(t, dir, "sct2_Description_Snapshot-en_INT_20020131.txt", description)

	rel := "id\teffectiveTime\tactive\tmoduleId\tsourceId\tdestinationId\trelationshipGroup\ttypeId\tcharacteristicTypeId\tmodifierId\n"
	isaRows := [][2]string{
		{"404684003", "138875005"},
		{"64572001", "404684003"},
		{"362969004", "64572001"},
		{"73211009", "362969004"},
		{"46635009", "73211009"},
		{"44054006", "73211009"},
	}
	for i, pair := range isaRows {
		rel += intToStr(i+1) + "\t20020131\t1\t138875005\t" + pair[0] + "\t" + pair[1] + "\t0\t116680003\t900000000000010007\t900000000000451002\n"
	}
	relPath := mustWrite(t, dir, "sct2_Relationship_Snapshot_INT_20020131.txt", rel)

	return &rf2.Catalog{
		ReleaseDate:      "20020131",
		ConceptFile:      conceptPath,
		DescriptionFile:  descriptionPath,
		RelationshipFile: relPath,
	}
}

func intToStr(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return string(b)
}

func TestRoundTripConceptDescriptionRelationship(t *testing.T) {
	cat := fixture(t)
	l := &Loader{Catalog: cat, Config: rf2.Config{BatchSize: 10}}
	s := New()
	if _, err := l.LoadSequential(s); err != nil {
		t.Fatalf("load: %v", err)
	}

	c, ok := s.GetConcept(73211009)
	if !ok || c.ID != 73211009 {
		t.Fatalf("expected round-tripped concept 73211009, got %+v ok=%v", c, ok)
	}
	descs := s.GetDescriptions(73211009)
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptions, got %d", len(descs))
	}
}

func TestHierarchyInversionAndSubsumption(t *testing.T) {
	cat := fixture(t)
	l := &Loader{Catalog: cat, Config: rf2.Config{BatchSize: 10}}
	s := New()
	if _, err := l.LoadSequential(s); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !s.GetChildren(snomed.Identifier(73211009)).Contains(46635009) {
		t.Error("expected 46635009 to be a child of 73211009")
	}
	if !s.GetParents(snomed.Identifier(46635009)).Contains(73211009) {
		t.Error("expected 73211009 to be a parent of 46635009")
	}
	// hierarchy inversion: b in children(a) iff a in parents(b)
	s.GetChildren(snomed.Identifier(73211009)).Each(func(child snomed.Identifier) {
		if !s.GetParents(child).Contains(73211009) {
			t.Errorf("inversion violated for child %d", child)
		}
	})

	if !s.IsDescendantOf(46635009, 73211009) {
		t.Error("expected 46635009 to be a descendant of 73211009 (direct BFS fallback)")
	}
	if !s.IsDescendantOf(46635009, 64572001) {
		t.Error("expected 46635009 to be a descendant of 64572001 (transitive, BFS fallback)")
	}
	if s.IsDescendantOf(73211009, 46635009) {
		t.Error("did not expect 73211009 to be a descendant of 46635009")
	}
}

func TestDanglingReferenceCounted(t *testing.T) {
	s := New()
	if err := s.InsertDescription(&snomed.Description{ID: 1, ConceptID: 999999, Active: true}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	stats := s.Statistics()
	if stats.DanglingReferences != 1 {
		t.Errorf("expected 1 dangling reference, got %d", stats.DanglingReferences)
	}
}

func TestFreezeIsOneWayAndRejectsMutation(t *testing.T) {
	s := New()
	if err := s.InsertConcept(&snomed.Concept{ID: 1}); err != nil {
		t.Fatalf("unexpected error while loading: %v", err)
	}
	s.Freeze()
	if s.Phase() != Serving {
		t.Fatal("expected Serving phase after Freeze")
	}
	if err := s.InsertConcept(&snomed.Concept{ID: 2}); err != ErrAlreadyServing {
		t.Fatalf("expected ErrAlreadyServing, got %v", err)
	}
}

func TestActiveOnlyFilterIdempotent(t *testing.T) {
	cat := fixture(t)
	cfg := rf2.Config{ActiveOnly: true, BatchSize: 10}
	l := &Loader{Catalog: cat, Config: cfg}
	s1 := New()
	if _, err := l.LoadSequential(s1); err != nil {
		t.Fatalf("load: %v", err)
	}
	s2 := New()
	if _, err := l.LoadSequential(s2); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s1.Statistics().Concepts != s2.Statistics().Concepts {
		t.Error("expected repeated activeOnly loading to be idempotent in record count")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	cat := fixture(t)
	cfg := rf2.Config{BatchSize: 3}

	seq := New()
	if _, err := (&Loader{Catalog: cat, Config: cfg}).LoadSequential(seq); err != nil {
		t.Fatalf("sequential load: %v", err)
	}

	par := New()
	if _, err := (&Loader{Catalog: cat, Config: cfg}).LoadParallel(context.Background(), par); err != nil {
		t.Fatalf("parallel load: %v", err)
	}

	for _, id := range []snomed.Identifier{138875005, 404684003, 64572001, 362969004, 73211009, 46635009, 44054006} {
		seqParents := seq.GetParents(id)
		parParents := par.GetParents(id)
		if seqParents.Len() != parParents.Len() {
			t.Fatalf("parent set size mismatch for %d: seq=%d par=%d", id, seqParents.Len(), parParents.Len())
		}
		seqOut := seq.GetOutgoing(id)
		parOut := par.GetOutgoing(id)
		if len(seqOut) != len(parOut) {
			t.Fatalf("outgoing length mismatch for %d: seq=%d par=%d", id, len(seqOut), len(parOut))
		}
		for i := range seqOut {
			if seqOut[i].ID != parOut[i].ID {
				t.Fatalf("outgoing order mismatch for %d at position %d: seq=%d par=%d", id, i, seqOut[i].ID, parOut[i].ID)
			}
		}
	}
}

func TestStatisticsStringIncludesCounts(t *testing.T) {
	cat := fixture(t)
	s := New()
	if _, err := (&Loader{Catalog: cat, Config: rf2.Config{BatchSize: 10}}).LoadSequential(s); err != nil {
		t.Fatalf("load: %v", err)
	}
	out := s.Statistics().String()
	if out == "" {
		t.Fatal("expected non-empty statistics summary")
	}
}

func TestGetPreferredTermFallsBackToFSN(t *testing.T) {
	s := New()
	et := time.Date(2002, 1, 31, 0, 0, 0, 0, time.UTC)
	fsn := &snomed.Description{ID: 1, ConceptID: 1, Active: true, TypeID: snomed.FullySpecifiedName, Term: "Foo (disorder)", EffectiveTime: et}
	if err := s.InsertDescription(fsn); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d, ok := s.GetPreferredTerm(1)
	if !ok || d.Term != "Foo (disorder)" {
		t.Fatalf("expected FSN fallback, got %+v ok=%v", d, ok)
	}
}
