package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/index/scorch"
	"github.com/wardle/snomed-terminology/snomed"
)

// document is the unit bleve indexes: one description, keyed by its own id
// so concept/description pairs never collide. Keywords carries faceting
// tokens (currently just "ca" for an active description), the same trick the
// teacher's index uses for hierarchy/refset facets.
type document struct {
	ConceptID string
	Term      string
	Keywords  []string
}

// BleveIndex is the optional, richer alternative to SubstringIndex, adapted
// from the teacher's sole search backend: real relevance scoring (per-token
// match and prefix queries) instead of a plain substring scan.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex opens (or creates, unless readOnly) a bleve index at path.
func NewBleveIndex(path string, readOnly bool) (*BleveIndex, error) {
	config := map[string]interface{}{"read_only": readOnly}
	index, err := bleve.OpenUsing(path, config)
	if err == nil {
		return &BleveIndex{index: index}, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		return nil, err
	}
	if readOnly {
		return nil, fmt.Errorf("search: cannot open bleve index read-only: no index at %s", path)
	}

	indexMapping := bleve.NewIndexMapping()
	documentMapping := bleve.NewDocumentMapping()
	indexMapping.AddDocumentMapping("document", documentMapping)
	indexMapping.DefaultType = "document"

	conceptIDMapping := bleve.NewTextFieldMapping()
	conceptIDMapping.IncludeInAll = false
	conceptIDMapping.IncludeTermVectors = false
	conceptIDMapping.Store = true
	conceptIDMapping.Analyzer = keyword.Name
	documentMapping.AddFieldMappingsAt("ConceptID", conceptIDMapping)

	termMapping := bleve.NewTextFieldMapping()
	termMapping.Analyzer = "en"
	termMapping.Store = true
	documentMapping.AddFieldMappingsAt("Term", termMapping)

	keywordsMapping := bleve.NewTextFieldMapping()
	keywordsMapping.Analyzer = keyword.Name
	keywordsMapping.Store = false
	keywordsMapping.IncludeInAll = false
	keywordsMapping.IncludeTermVectors = false
	documentMapping.AddFieldMappingsAt("Keywords", keywordsMapping)

	index, err = bleve.NewUsing(path, indexMapping, scorch.Name, scorch.Name, nil)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{index: index}, nil
}

// Put indexes one description's term, analyzed for free-text matching.
func (b *BleveIndex) Put(d *snomed.Description) error {
	if d.IsFullySpecifiedName() {
		return nil // FSNs are omitted from search, matching the teacher's precedent
	}
	doc := document{
		ConceptID: d.ConceptID.String(),
		Term:      d.Term,
	}
	if d.Active {
		doc.Keywords = append(doc.Keywords, "ca")
	}
	return b.index.Index(d.ID.String(), &doc)
}

// Search runs a conjunction-of-per-token match/prefix query over Term,
// optionally filtered to active descriptions, returning up to limit concepts.
func (b *BleveIndex) Search(q string, limit int, activeOnly bool) ([]Hit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("search: empty query")
	}
	if limit <= 0 {
		limit = 100
	}
	query := bleve.NewConjunctionQuery()
	for _, token := range strings.Fields(q) {
		tokenQuery := bleve.NewMatchQuery(token)
		tokenQuery.SetField("Term")
		if len(token) < 3 {
			query.AddQuery(tokenQuery)
			continue
		}
		alt := bleve.NewDisjunctionQuery()
		alt.AddQuery(tokenQuery)
		prefixQuery := bleve.NewPrefixQuery(token)
		prefixQuery.SetField("Term")
		alt.AddQuery(prefixQuery)
		query.AddQuery(alt)
	}
	if activeOnly {
		activeQuery := bleve.NewTermQuery("ca")
		activeQuery.SetField("Keywords")
		query.AddQuery(activeQuery)
	}

	req := bleve.NewSearchRequest(query)
	req.Size = limit
	req.Fields = []string{"ConceptID", "Term"}
	result, err := b.index.Search(req)
	if err != nil {
		return nil, err
	}

	order := make([]snomed.Identifier, 0, len(result.Hits))
	byConcept := make(map[snomed.Identifier]*Hit)
	for _, hit := range result.Hits {
		conceptIDStr, _ := hit.Fields["ConceptID"].(string)
		raw, err := strconv.ParseUint(conceptIDStr, 10, 64)
		if err != nil {
			continue
		}
		conceptID := snomed.Identifier(raw)
		term, _ := hit.Fields["Term"].(string)
		h, seen := byConcept[conceptID]
		if !seen {
			h = &Hit{ConceptID: conceptID}
			byConcept[conceptID] = h
			order = append(order, conceptID)
		}
		h.Terms = append(h.Terms, term)
	}
	hits := make([]Hit, len(order))
	for i, id := range order {
		hits[i] = *byConcept[id]
	}
	return hits, nil
}

// Close releases the underlying bleve index handle.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
