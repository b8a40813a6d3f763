package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RenameArgs defines the input parameters for the mirror_rename tool.
type RenameArgs struct {
	Path    string `json:"path" jsonschema:"Absolute path of the mirrored file to rename"`
	NewName string `json:"newName" jsonschema:"New base name without extension (e.g. CIN0103X); the extension is kept"`
}

// RenameHandler holds the dependencies for the rename tool.
type RenameHandler struct {
	Manager *mirror.Manager
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_rename request. A failed sidecar move is reported but does
// not make the result an error once the mirrored file itself was renamed.
func (h *RenameHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RenameArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" || args.NewName == "" {
		h.Logger.Warn("mirror_rename called without path or newName")
		return errorResult("Error: path and newName parameters are required"), nil, nil
	}

	result := h.Manager.Rename(args.Path, args.NewName)
	if result.FileErr != nil {
		return errorResult(fmt.Sprintf("Rename error: %v", result.FileErr)), nil, nil
	}

	refreshFolder(h.Catalog, filepath.Dir(args.Path), h.Logger)

	return textResult(FormatRenameResult(result)), nil, nil
}
