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

const maxSuggestions = 5

// FindDefinitionArgs defines the input parameters for the mirror_find_definition tool.
type FindDefinitionArgs struct {
	Name string `json:"name" jsonschema:"Symbol name, matched case-insensitively"`
	Kind string `json:"kind,omitempty" jsonschema:"Symbol kind: procedure (default), prototype, subroutine, datastruct, file, constant, field or variable"`
	Dir     string `json:"dir,omitempty" jsonschema:"Mirrored folder to search. Empty searches every known folder"`
	Folders string `json:"folders,omitempty" jsonschema:"Glob on known folder paths to search instead of all of them (e.g. /mirror/*/QRPGLESRC)"`
}

// FindDefinitionHandler holds the dependencies for the find-definition tool.
type FindDefinitionHandler struct {
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_find_definition request.
func (h *FindDefinitionHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FindDefinitionArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	name := strings.TrimSpace(args.Name)
	if name == "" {
		h.Logger.Warn("mirror_find_definition called with empty name")
		return errorResult("Error: name parameter is required"), nil, nil
	}
	kind, ok := parseKind(args.Kind)
	if !ok {
		return errorResult(fmt.Sprintf("Error: unknown symbol kind %q", args.Kind)), nil, nil
	}

	if args.Dir != "" && args.Folders != "" {
		return errorResult("Error: dir and folders cannot be combined"), nil, nil
	}

	var (
		path        string
		record      *meta.MemberMetadata
		suggestions []index.SymbolEntry
	)
	switch {
	case args.Folders != "":
		dirs, err := h.Catalog.MatchDirs(args.Folders)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
		}
		if len(dirs) == 0 {
			return textResult(fmt.Sprintf("No known folder matches %s.", args.Folders)), nil, nil
		}
		path, record = h.Catalog.FindIn(dirs, name, kind)
		if path == "" {
			suggestions = h.Catalog.Suggest(name, kind, maxSuggestions, dirs...)
		}
	case args.Dir != "":
		symbols := h.Catalog.Symbols(args.Dir)
		if symbols == nil {
			var err error
			if symbols, err = h.Catalog.Refresh(args.Dir); err != nil {
				h.Logger.Error("mirror_find_definition failed", "dir", args.Dir, "error", err)
				return errorResult(fmt.Sprintf("Find error: %v", err)), nil, nil
			}
		}
		path, record = symbols.Find(name, kind)
		if path == "" {
			suggestions = symbols.Suggest(name, kind, maxSuggestions)
		}
	default:
		path, record = h.Catalog.Find(name, kind)
		if path == "" {
			suggestions = h.Catalog.Suggest(name, kind, maxSuggestions)
		}
	}

	h.Logger.Info("mirror_find_definition",
		"name", name,
		"kind", kind,
		"dir", args.Dir,
		"folders", args.Folders,
		"found", path != "",
		"elapsed", time.Since(start),
	)

	if path == "" {
		return textResult(FormatSuggestions(name, kind, suggestions)), nil, nil
	}
	return textResult(FormatDefinition(name, kind, path, record)), nil, nil
}

// parseKind maps an optional tool argument to a symbol kind, defaulting to procedure.
func parseKind(value string) (meta.SymbolKind, bool) {
	if strings.TrimSpace(value) == "" {
		return meta.KindProcedure, true
	}
	return meta.ParseSymbolKind(strings.TrimSpace(value))
}
