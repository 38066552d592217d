package transaction

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// searchDocument is the indexed form of a transaction
type searchDocument struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Direction   string `json:"direction"`
}

// SearchHit is a transaction with its relevance score.
type SearchHit struct {
	Transaction Transaction
	Score       float64
}

// SearchIndex is an in-memory full-text index over one user's transactions.
// Descriptions are matched with one edit of typo tolerance, and the last
// term of the query also matches as a prefix.
type SearchIndex struct {
	index   bleve.Index
	indexMu sync.RWMutex
	byID    map[string]Transaction
}

func NewSearchIndex(txns []Transaction) (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return newSearchIndex(index, txns)
}

// newSearchIndex indexes txns into index. index is closed when indexing
// fails.
func newSearchIndex(index bleve.Index, txns []Transaction) (*SearchIndex, error) {
	si := &SearchIndex{index: index, byID: make(map[string]Transaction, len(txns))}
	if err := si.indexAll(txns); err != nil {
		if cerr := index.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close search index: %w", cerr))
		}
		return nil, err
	}
	return si, nil
}

func (si *SearchIndex) indexAll(txns []Transaction) error {
	batch := si.index.NewBatch()
	for _, t := range txns {
		id := t.ID.String()
		si.byID[id] = t
		doc := searchDocument{
			Description: t.Description,
			Category:    t.Category,
			Direction:   string(t.Direction),
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to index transaction %s: %w", id, err)
		}
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("direction", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// Search returns up to limit transactions matching text, best first. A
// non-empty category restricts hits to that category.
func (si *SearchIndex) Search(text, category string, limit int) ([]SearchHit, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	match := bleve.NewMatchQuery(text)
	match.SetField("description")
	match.SetFuzziness(1)

	terms := strings.Fields(text)
	prefix := bleve.NewPrefixQuery(terms[len(terms)-1])
	prefix.SetField("description")

	var q query.Query = bleve.NewDisjunctionQuery(match, prefix)
	if category != "" {
		term := bleve.NewTermQuery(category)
		term.SetField("category")
		q = bleve.NewConjunctionQuery(q, term)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit

	res, err := si.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		t, ok := si.byID[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{Transaction: t, Score: h.Score})
	}
	return hits, nil
}

func (si *SearchIndex) Close() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()
	return si.index.Close()
}
