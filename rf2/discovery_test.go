package rf2

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("id\teffectiveTime\tactive\tmoduleId\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscoverFindsRequiredFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Snapshot", "Terminology", "sct2_Concept_Snapshot_INT_20220228.txt"))
	touch(t, filepath.Join(root, "Snapshot", "Terminology", "sct2_Description_Snapshot-en_INT_20220228.txt"))
	touch(t, filepath.Join(root, "Snapshot", "Terminology", "sct2_Relationship_Snapshot_INT_20220228.txt"))
	touch(t, filepath.Join(root, "Snapshot", "Terminology", "sct2_StatedRelationship_Snapshot_INT_20220228.txt"))
	touch(t, filepath.Join(root, "Snapshot", "Refset", "Language", "der2_cRefset_LanguageSnapshot-en_INT_20220228.txt"))

	cat, err := Discover(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.ConceptFile == "" || cat.DescriptionFile == "" || cat.RelationshipFile == "" {
		t.Fatalf("expected required files to be found: %+v", cat)
	}
	if cat.StatedRelationshipFile == "" {
		t.Errorf("expected stated relationship file to be classified")
	}
	if cat.LanguageRefsetFile == "" {
		t.Errorf("expected language refset file to be classified")
	}
	if cat.ReleaseDate != "20220228" {
		t.Errorf("expected release date 20220228, got %q", cat.ReleaseDate)
	}
}

func TestDiscoverNewestNameWins(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "sct2_Concept_Snapshot_INT_20210131.txt"))
	touch(t, filepath.Join(root, "sct2_Concept_Snapshot_INT_20220228.txt"))
	touch(t, filepath.Join(root, "sct2_Description_Snapshot-en_INT_20220228.txt"))
	touch(t, filepath.Join(root, "sct2_Relationship_Snapshot_INT_20220228.txt"))

	cat, err := Discover(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(cat.ConceptFile) != "sct2_Concept_Snapshot_INT_20220228.txt" {
		t.Errorf("expected newest concept file to win, got %s", cat.ConceptFile)
	}
}

func TestDiscoverMissingRequiredFile(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "sct2_Concept_Snapshot_INT_20220228.txt"))

	_, err := Discover(root)
	if err == nil {
		t.Fatal("expected RequiredFileMissing error, got nil")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}
