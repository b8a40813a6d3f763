package index

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/lexandro/mirrormeta-mcp/meta"
)

// SymbolSearch provides prefix, substring and fuzzy search over symbol names using a
// Bleve in-memory index.
type SymbolSearch struct {
	mu      sync.RWMutex
	index   bleve.Index
	entries map[string]SymbolEntry // key: document ID
}

// NewSymbolSearch creates an empty in-memory symbol search index.
func NewSymbolSearch() (*SymbolSearch, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &SymbolSearch{
		index:   bleveIndex,
		entries: make(map[string]SymbolEntry),
	}, nil
}

// symbolDocument is the document structure stored in Bleve.
type symbolDocument struct {
	Name  string `json:"name"`
	Lower string `json:"lower"`
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Dir   string `json:"dir"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// lower, kind, path and dir are matched as whole terms
	for _, field := range []string{"lower", "kind", "path", "dir"} {
		keywordMapping := bleve.NewKeywordFieldMapping()
		keywordMapping.Store = false
		keywordMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, keywordMapping)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Add indexes every entry of a symbol index.
func (ss *SymbolSearch) Add(symbols *SymbolIndex) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	batch := ss.index.NewBatch()
	for _, entry := range symbols.Entries() {
		id := documentID(entry)
		doc := symbolDocument{
			Name:  entry.SymbolName,
			Lower: entry.LowerName,
			Kind:  string(entry.SymbolType),
			Path:  entry.Path,
			Dir:   symbols.Dir(),
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("indexing symbol %s: %w", entry.SymbolName, err)
		}
		ss.entries[id] = entry
	}
	if err := ss.index.Batch(batch); err != nil {
		return fmt.Errorf("indexing symbols of %s: %w", symbols.Dir(), err)
	}
	return nil
}

func documentID(entry SymbolEntry) string {
	return entry.Path + "#" + string(entry.SymbolType) + "#" + entry.LowerName
}

// SearchOptions configures a symbol search.
type SearchOptions struct {
	Query      string
	Kind       meta.SymbolKind // empty matches every kind
	Dirs       []string        // empty searches every folder
	MaxResults int
	Fuzzy      bool // also match names within two edits of Query
}

// Search returns entries whose names start with or contain Query, best matches first.
func (ss *SymbolSearch) Search(options SearchOptions) ([]SymbolEntry, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(options.Query))
	if term == "" {
		return nil, errors.New("query is required")
	}
	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}

	searchRequest := bleve.NewSearchRequest(buildQuery(term, options))
	searchRequest.Size = options.MaxResults

	searchResults, err := ss.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("searching symbols: %w", err)
	}

	results := make([]SymbolEntry, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		if entry, ok := ss.entries[hit.ID]; ok {
			results = append(results, entry)
		}
	}
	return results, nil
}

func buildQuery(term string, options SearchOptions) query.Query {
	prefixQuery := bleve.NewPrefixQuery(term)
	prefixQuery.SetField("lower")
	prefixQuery.SetBoost(2)

	containsQuery := bleve.NewWildcardQuery("*" + term + "*")
	containsQuery.SetField("lower")

	nameQuery := bleve.NewDisjunctionQuery(prefixQuery, containsQuery)
	if options.Fuzzy {
		fuzzyQuery := bleve.NewFuzzyQuery(term)
		fuzzyQuery.SetField("lower")
		fuzzyQuery.SetFuzziness(2)
		nameQuery.AddQuery(fuzzyQuery)
	}

	conjuncts := []query.Query{nameQuery}
	if options.Kind != "" {
		kindQuery := bleve.NewTermQuery(string(options.Kind))
		kindQuery.SetField("kind")
		conjuncts = append(conjuncts, kindQuery)
	}
	if len(options.Dirs) > 0 {
		dirQuery := bleve.NewDisjunctionQuery()
		for _, dir := range options.Dirs {
			termQuery := bleve.NewTermQuery(dir)
			termQuery.SetField("dir")
			dirQuery.AddQuery(termQuery)
		}
		conjuncts = append(conjuncts, dirQuery)
	}
	if len(conjuncts) == 1 {
		return nameQuery
	}
	return bleve.NewConjunctionQuery(conjuncts...)
}

// Count returns the number of indexed symbols.
func (ss *SymbolSearch) Count() uint64 {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	count, _ := ss.index.DocCount()
	return count
}

// Close closes the Bleve index.
func (ss *SymbolSearch) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.index.Close()
}
