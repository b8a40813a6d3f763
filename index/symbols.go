package index

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/lexandro/mirrormeta-mcp/language"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/spf13/afero"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a suggestion.
const suggestThreshold = 0.8

// SymbolEntry is one defined symbol and the mirrored file that declares it.
type SymbolEntry struct {
	Path       string // mirrored file path
	SymbolName string
	SymbolType meta.SymbolKind
	LowerName  string // lower-cased SymbolName for case-insensitive matching
	LineNum    int
}

// SymbolIndex lists the symbols declared by the structured-source members of one folder,
// in directory listing order. It only records locations, not full metadata.
type SymbolIndex struct {
	dir     string
	store   *meta.Store
	entries []SymbolEntry
}

// GatherDefinedSymbols builds the symbol index of dirPath from the metadata of its
// structured-source members. Members without readable metadata are skipped.
func GatherDefinedSymbols(store *meta.Store, dirPath string) (*SymbolIndex, error) {
	entries, err := afero.ReadDir(store.Fs(), dirPath)
	if err != nil {
		return nil, &meta.DirectoryError{Dir: dirPath, Op: "list", Err: err}
	}

	symbolIndex := &SymbolIndex{dir: dirPath, store: store}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !language.IsMemberFileName(name) || language.FromPath(name) != language.RPG {
			continue
		}
		mirroredPath := filepath.Join(dirPath, name)
		record := store.Read(mirroredPath)
		if record == nil {
			continue
		}
		for _, symbol := range record.DefinedSymbols {
			symbolIndex.entries = append(symbolIndex.entries, SymbolEntry{
				Path:       mirroredPath,
				SymbolName: symbol.SymbolName,
				SymbolType: symbol.SymbolType,
				LowerName:  strings.ToLower(symbol.SymbolName),
				LineNum:    symbol.LineNum,
			})
		}
	}
	return symbolIndex, nil
}

// Dir returns the folder the index was built from.
func (si *SymbolIndex) Dir() string { return si.dir }

// Len returns the number of entries.
func (si *SymbolIndex) Len() int { return len(si.entries) }

// Entries returns the entries in listing order.
func (si *SymbolIndex) Entries() []SymbolEntry { return si.entries }

// Find returns the path of the first member that defines symbolName with the given kind,
// matching the name case-insensitively, together with that member's metadata re-read from
// the store. It returns "" and nil when nothing matches.
func (si *SymbolIndex) Find(symbolName string, kind meta.SymbolKind) (string, *meta.MemberMetadata) {
	lowerName := strings.ToLower(symbolName)
	for _, entry := range si.entries {
		if entry.SymbolType == kind && entry.LowerName == lowerName {
			return entry.Path, si.store.Read(entry.Path)
		}
	}
	return "", nil
}

// Suggest returns up to limit entries whose names are close to symbolName, best first.
// An empty kind matches every kind.
func (si *SymbolIndex) Suggest(symbolName string, kind meta.SymbolKind, limit int) []SymbolEntry {
	type scored struct {
		entry SymbolEntry
		score float32
	}
	lowerName := strings.ToLower(symbolName)

	var candidates []scored
	for _, entry := range si.entries {
		if kind != "" && entry.SymbolType != kind {
			continue
		}
		score, err := edlib.StringsSimilarity(lowerName, entry.LowerName, edlib.JaroWinkler)
		if err != nil || score < suggestThreshold {
			continue
		}
		candidates = append(candidates, scored{entry: entry, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	suggestions := make([]SymbolEntry, 0, limit)
	for _, candidate := range candidates[:limit] {
		suggestions = append(suggestions, candidate.entry)
	}
	return suggestions
}
