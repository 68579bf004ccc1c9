package rf2

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// maxWalkDepth bounds the worst-case recursive directory walk during discovery.
const maxWalkDepth = 8

// Catalog names the one winning file for each recognised RF2 category under a
// release tree, plus the release date extracted from the concept file's name.
type Catalog struct {
	ReleaseDate          string
	ConceptFile          string
	DescriptionFile      string
	RelationshipFile     string
	StatedRelationshipFile string
	TextDefinitionFile   string
	SimpleRefsetFile     string
	LanguageRefsetFile   string
	MRCMDomainFile       string
	MRCMAttributeDomainFile string
	MRCMAttributeRangeFile  string
}

// category identifies one of the recognised RF2 file kinds.
type category int

const (
	categoryConcept category = iota
	categoryDescription
	categoryRelationship
	categoryStatedRelationship
	categoryTextDefinition
	categorySimpleRefset
	categoryLanguageRefset
	categoryMRCMDomain
	categoryMRCMAttributeDomain
	categoryMRCMAttributeRange
)

// classifiers pairs each category with the case-insensitive filename prefix that
// identifies it. No prefix here is a prefix of another, so at most one entry
// matches a given name and the order of the list does not change the result.
var classifiers = []struct {
	cat    category
	prefix string
}{
	{categoryStatedRelationship, "sct2_statedrelationship_snapshot_"},
	{categoryRelationship, "sct2_relationship_snapshot_"},
	{categoryTextDefinition, "sct2_textdefinition_snapshot_"},
	{categoryDescription, "sct2_description_snapshot_"},
	{categoryConcept, "sct2_concept_snapshot_"},
	{categoryLanguageRefset, "der2_crefset_language"},
	{categoryMRCMAttributeDomain, "der2_cissccrefset_mrcmattributedomain"},
	{categoryMRCMAttributeRange, "der2_ssccrefset_mrcmattributerange"},
	{categoryMRCMDomain, "der2_crefset_mrcmdomain"},
	{categorySimpleRefset, "der2_refset_simple"},
}

var releaseDatePattern = regexp.MustCompile(`(\d{8})\.txt$`)

// classify returns the category matched by a leaf filename, and ok=false if none match.
func classify(name string) (category, bool) {
	lower := strings.ToLower(name)
	for _, c := range classifiers {
		if strings.HasPrefix(lower, c.prefix) {
			return c.cat, true
		}
	}
	return 0, false
}

// Discover walks root (to a bounded depth) classifying every leaf file, keeping
// the lexicographically greatest match per category, and returns the resulting
// Catalog. It fails with a *ConfigError wrapping RequiredFileMissing if the
// concept, description, or relationship category has no match.
func Discover(root string) (*Catalog, error) {
	candidates := make(map[category]string)
	err := walk(root, 0, func(path string, name string) {
		cat, ok := classify(name)
		if !ok {
			return
		}
		if existing, found := candidates[cat]; !found || filepath.Base(path) > filepath.Base(existing) {
			candidates[cat] = path
		}
	})
	if err != nil {
		return nil, err
	}
	cat := &Catalog{
		ConceptFile:             candidates[categoryConcept],
		DescriptionFile:         candidates[categoryDescription],
		RelationshipFile:        candidates[categoryRelationship],
		StatedRelationshipFile:  candidates[categoryStatedRelationship],
		TextDefinitionFile:      candidates[categoryTextDefinition],
		SimpleRefsetFile:        candidates[categorySimpleRefset],
		LanguageRefsetFile:      candidates[categoryLanguageRefset],
		MRCMDomainFile:          candidates[categoryMRCMDomain],
		MRCMAttributeDomainFile: candidates[categoryMRCMAttributeDomain],
		MRCMAttributeRangeFile:  candidates[categoryMRCMAttributeRange],
	}
	if cat.ConceptFile == "" {
		return nil, RequiredFileMissing("concept")
	}
	if cat.DescriptionFile == "" {
		return nil, RequiredFileMissing("description")
	}
	if cat.RelationshipFile == "" {
		return nil, RequiredFileMissing("relationship")
	}
	if m := releaseDatePattern.FindStringSubmatch(cat.ConceptFile); m != nil {
		cat.ReleaseDate = m[1]
	}
	return cat, nil
}

func walk(dir string, depth int, visit func(path, name string)) error {
	if depth > maxWalkDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	// Deterministic traversal order so newest-name-wins tie-breaking is reproducible
	// regardless of the underlying filesystem's directory entry ordering.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := walk(full, depth+1, visit); err != nil {
				return err
			}
			continue
		}
		visit(full, e.Name())
	}
	return nil
}

// DiscoverOptions configures source resolution ahead of local discovery.
type DiscoverOptions struct {
	// TempDir is the parent directory into which a remote source is downloaded.
	// An empty value uses the default temp directory.
	TempDir string
}

// DiscoverFromSource resolves source — a local filesystem path or an s3://
// URI — to a local directory and discovers a Catalog from it. Local paths are
// discovered directly; s3:// sources are first downloaded in full to a
// temporary directory via the s3 downloader in s3.go.
func DiscoverFromSource(ctx context.Context, source string, opts DiscoverOptions) (*Catalog, error) {
	if strings.HasPrefix(source, "s3://") {
		localDir, err := downloadS3Prefix(ctx, source, opts.TempDir)
		if err != nil {
			return nil, err
		}
		return Discover(localDir)
	}
	return Discover(source)
}
