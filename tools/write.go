package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WriteArgs defines the input parameters for the mirror_write tool.
type WriteArgs struct {
	Path            string             `json:"path" jsonschema:"Absolute path of the mirrored file"`
	Listing         meta.ListingRecord `json:"listing" jsonschema:"Listing row of the remote member (MBRNAME, FILENAME, LIBNAME, SRCTYPE, MBRTEXT, CHGDATE, CHGTIME, mtime)"`
	StartLine       *int               `json:"startLine,omitempty" jsonschema:"Line where compile time array data begins, -1 for none. Omit to keep the stored value"`
	CaptureOriginal bool               `json:"captureOriginal,omitempty" jsonschema:"Record the file's current text as its original content (only the first time)"`
}

// WriteHandler records member metadata after a file was mirrored.
type WriteHandler struct {
	Manager *mirror.Manager
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_write request.
func (h *WriteHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args WriteArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("mirror_write called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}
	if strings.TrimSpace(args.Listing.MemberName) == "" {
		return errorResult("Error: listing.MBRNAME is required"), nil, nil
	}

	result, err := h.Manager.WriteMember(args.Path, mirror.WriteRequest{
		Listing:         args.Listing,
		StartLine:       args.StartLine,
		CaptureOriginal: args.CaptureOriginal,
	})
	if err != nil {
		h.Logger.Error("mirror_write failed", "path", args.Path, "error", err)
		return errorResult(fmt.Sprintf("Write error: %v", err)), nil, nil
	}
	refreshFolder(h.Catalog, filepath.Dir(args.Path), h.Logger)

	record := result.Record
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Recorded %s/%s(%s) %s for %s\n",
		record.SourceLibrary, record.SourceFileName, record.Member, record.SourceType, args.Path))
	if args.CaptureOriginal {
		if result.OriginalWritten {
			builder.WriteString("Original content recorded.\n")
		} else {
			builder.WriteString("Original content already recorded, kept.\n")
		}
	}
	return textResult(builder.String()), nil, nil
}

// SetSymbolsArgs defines the input parameters for the mirror_set_symbols tool.
type SetSymbolsArgs struct {
	Path    string               `json:"path" jsonschema:"Absolute path of the mirrored file"`
	Symbols []meta.DefinedSymbol `json:"symbols" jsonschema:"Every symbol the member declares; replaces the stored list. An empty list clears it"`
}

// SetSymbolsHandler stores the result of a symbol scan.
type SetSymbolsHandler struct {
	Manager *mirror.Manager
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_set_symbols request.
func (h *SetSymbolsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SetSymbolsArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("mirror_set_symbols called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}
	symbols, err := NormalizeSymbols(args.Symbols)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}

	applied, err := h.Manager.UpdateMember(args.Path, meta.SetDefinedSymbols{Symbols: symbols})
	if err != nil {
		h.Logger.Error("mirror_set_symbols failed", "path", args.Path, "error", err)
		return errorResult(fmt.Sprintf("Update error: %v", err)), nil, nil
	}
	if !applied {
		return errorResult(fmt.Sprintf("No metadata for %s (orphan or not mirrored)", args.Path)), nil, nil
	}
	refreshFolder(h.Catalog, filepath.Dir(args.Path), h.Logger)

	h.Logger.Info("mirror_set_symbols", "path", args.Path, "symbols", len(symbols))
	return textResult(fmt.Sprintf("Recorded %d symbols for %s", len(symbols), args.Path)), nil, nil
}

// NormalizeSymbols checks every symbol and rewrites kinds to their canonical spelling.
func NormalizeSymbols(symbols []meta.DefinedSymbol) ([]meta.DefinedSymbol, error) {
	normalized := make([]meta.DefinedSymbol, 0, len(symbols))
	for i, symbol := range symbols {
		symbol.SymbolName = strings.TrimSpace(symbol.SymbolName)
		if symbol.SymbolName == "" {
			return nil, fmt.Errorf("symbol %d has no name", i+1)
		}
		kind, ok := meta.ParseSymbolKind(string(symbol.SymbolType))
		if !ok {
			return nil, fmt.Errorf("symbol %s has unknown kind %q", symbol.SymbolName, symbol.SymbolType)
		}
		symbol.SymbolType = kind
		if symbol.LineNum < 0 {
			symbol.LineNum = 0
		}
		normalized = append(normalized, symbol)
	}
	return normalized, nil
}

// SetChangeTrackingArgs defines the input parameters for the mirror_set_change_tracking tool.
type SetChangeTrackingArgs struct {
	Path       string `json:"path" jsonschema:"Absolute path of the mirrored file"`
	ChangeDate string `json:"chgDate" jsonschema:"Remote change date (CYYMMDD)"`
	ChangeTime string `json:"chgTime" jsonschema:"Remote change time (HHMMSS)"`
	ModTime    int64  `json:"mtime,omitempty" jsonschema:"Remote modification time in epoch milliseconds"`
}

// SetChangeTrackingHandler records new remote change stamps for a member.
type SetChangeTrackingHandler struct {
	Manager *mirror.Manager
	Logger  *slog.Logger
}

// Handle processes a mirror_set_change_tracking request.
func (h *SetChangeTrackingHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SetChangeTrackingArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("mirror_set_change_tracking called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}

	applied, err := h.Manager.UpdateMember(args.Path, meta.SetChangeTracking{
		ModifiedTimestamp: args.ModTime,
		ChangeDate:        args.ChangeDate,
		ChangeTime:        args.ChangeTime,
	})
	if err != nil {
		h.Logger.Error("mirror_set_change_tracking failed", "path", args.Path, "error", err)
		return errorResult(fmt.Sprintf("Update error: %v", err)), nil, nil
	}
	if !applied {
		return errorResult(fmt.Sprintf("No metadata for %s (orphan or not mirrored)", args.Path)), nil, nil
	}

	h.Logger.Info("mirror_set_change_tracking", "path", args.Path, "chgDate", args.ChangeDate, "chgTime", args.ChangeTime)
	return textResult(fmt.Sprintf("Change stamps of %s set to %s %s", args.Path, args.ChangeDate, args.ChangeTime)), nil, nil
}

// ForgetArgs defines the input parameters for the mirror_forget tool.
type ForgetArgs struct {
	Path         string `json:"path" jsonschema:"Absolute path of the mirrored file"`
	KeepOriginal bool   `json:"keepOriginal,omitempty" jsonschema:"Keep the original-content sidecar"`
}

// ForgetHandler deletes the sidecars of a member. The mirrored file is left alone.
type ForgetHandler struct {
	Manager *mirror.Manager
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_forget request.
func (h *ForgetHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ForgetArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("mirror_forget called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}

	if err := h.Manager.ForgetMember(args.Path, args.KeepOriginal); err != nil {
		h.Logger.Error("mirror_forget failed", "path", args.Path, "error", err)
		return errorResult(fmt.Sprintf("Delete error: %v", err)), nil, nil
	}
	refreshFolder(h.Catalog, filepath.Dir(args.Path), h.Logger)

	return textResult(fmt.Sprintf("Removed sidecars of %s; the file is now an orphan", args.Path)), nil, nil
}

// refreshFolder re-reads dir into the catalog after its metadata changed.
func refreshFolder(catalog *index.Catalog, dir string, logger *slog.Logger) {
	if catalog == nil {
		return
	}
	if _, err := catalog.Refresh(dir); err != nil {
		var dirErr *meta.DirectoryError
		if errors.As(err, &dirErr) {
			logger.Debug("catalog refresh skipped", "dir", dir, "error", err)
			return
		}
		logger.Warn("catalog refresh failed", "dir", dir, "error", err)
	}
}
