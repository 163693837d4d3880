package taxonomy

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// VocabDocument is one indexed vocabulary entry.
type VocabDocument struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"` // "category" or "tag"
}

// VocabResult is a search hit with its relevance score.
type VocabResult struct {
	Name  string
	Kind  string
	Score float64
}

// SearchIndex provides typo-tolerant full-text search over one user's
// category and tag vocabularies using Bleve. Vocabularies are small, so the
// index is built in memory from a fresh vocabulary snapshot and discarded
// with the request; there is no shared index to keep consistent across
// callers.
type SearchIndex struct {
	index bleve.Index
}

// NewSearchIndex builds an in-memory index over the given vocabularies.
func NewSearchIndex(categories, tags []string) (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create vocabulary index: %w", err)
	}

	si := &SearchIndex{index: index}
	if err := si.indexVocabulary(categories, tags); err != nil {
		_ = index.Close()
		return nil, err
	}
	return si, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	return indexMapping
}

func (si *SearchIndex) indexVocabulary(categories, tags []string) error {
	batch := si.index.NewBatch()

	for i, name := range categories {
		doc := VocabDocument{
			ID:   fmt.Sprintf("category_%d", i),
			Name: name,
			Kind: "category",
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index category %q: %w", name, err)
		}
	}

	for i, name := range tags {
		doc := VocabDocument{
			ID:   fmt.Sprintf("tag_%d", i),
			Name: name,
			Kind: "tag",
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index tag %q: %w", name, err)
		}
	}

	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search runs a match query with one edit of typo tolerance.
func (si *SearchIndex) Search(query string, limit int) ([]VocabResult, error) {
	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"name", "kind"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("vocabulary search failed: %w", err)
	}

	results := make([]VocabResult, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		name, _ := hit.Fields["name"].(string)
		kind, _ := hit.Fields["kind"].(string)
		results = append(results, VocabResult{
			Name:  name,
			Kind:  kind,
			Score: hit.Score,
		})
	}
	return results, nil
}

// Close releases the in-memory index.
func (si *SearchIndex) Close() error {
	return si.index.Close()
}
