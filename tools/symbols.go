package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchSymbolsArgs defines the input parameters for the mirror_search_symbols tool.
type SearchSymbolsArgs struct {
	Query      string `json:"query" jsonschema:"Symbol name prefix or fragment, case-insensitive"`
	Kind       string `json:"kind,omitempty" jsonschema:"Optional symbol kind filter (procedure, subroutine, ...)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of symbols to return (default 50)"`
	Fuzzy      bool   `json:"fuzzy,omitempty" jsonschema:"Also match names within two edits of the query"`
	Folders    string `json:"folders,omitempty" jsonschema:"Glob on known folder paths to limit the search (e.g. /mirror/S067454R/*)"`
}

// SearchSymbolsHandler holds the dependencies for the symbol search tool.
type SearchSymbolsHandler struct {
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_search_symbols request.
func (h *SearchSymbolsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchSymbolsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Query) == "" {
		h.Logger.Warn("mirror_search_symbols called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	var kind meta.SymbolKind
	if args.Kind != "" {
		parsed, ok := meta.ParseSymbolKind(strings.TrimSpace(args.Kind))
		if !ok {
			return errorResult(fmt.Sprintf("Error: unknown symbol kind %q", args.Kind)), nil, nil
		}
		kind = parsed
	}

	var dirs []string
	if args.Folders != "" {
		matched, err := h.Catalog.MatchDirs(args.Folders)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
		}
		if len(matched) == 0 {
			return textResult(fmt.Sprintf("No known folder matches %s.", args.Folders)), nil, nil
		}
		dirs = matched
	}

	results, err := h.Catalog.Search(index.SearchOptions{
		Query:      args.Query,
		Kind:       kind,
		Dirs:       dirs,
		MaxResults: args.MaxResults,
		Fuzzy:      args.Fuzzy,
	})
	if err != nil {
		h.Logger.Error("mirror_search_symbols failed", "query", args.Query, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("mirror_search_symbols",
		"query", args.Query,
		"kind", kind,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return textResult(FormatSymbolEntries(results)), nil, nil
}
