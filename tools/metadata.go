package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataArgs defines the input parameters for the mirror_metadata tool.
type MetadataArgs struct {
	Path string `json:"path" jsonschema:"Absolute path of a mirrored file (e.g. /mirror/S067454R/STEVESRC/CIN0103R.sqlrpgle)"`
}

// MetadataHandler holds the dependencies for the metadata tool.
type MetadataHandler struct {
	Store  *meta.Store
	Logger *slog.Logger
}

// Handle processes a mirror_metadata request.
func (h *MetadataHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args MetadataArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("mirror_metadata called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}

	record, err := h.Store.Load(args.Path)
	if err != nil {
		var malformed *meta.MalformedError
		switch {
		case errors.Is(err, meta.ErrNotFound):
			h.Logger.Info("mirror_metadata: no metadata", "path", args.Path)
			return errorResult(fmt.Sprintf("No metadata for %s (orphan or not mirrored)", args.Path)), nil, nil
		case errors.As(err, &malformed):
			h.Logger.Warn("mirror_metadata: malformed sidecar", "path", args.Path, "error", err)
			return errorResult(fmt.Sprintf("Metadata sidecar of %s is malformed: %v", args.Path, malformed.Err)), nil, nil
		default:
			h.Logger.Error("mirror_metadata failed", "path", args.Path, "error", err)
			return errorResult(fmt.Sprintf("Metadata error: %v", err)), nil, nil
		}
	}

	modified, err := h.Store.LocallyModified(args.Path)
	if err != nil {
		h.Logger.Debug("mirror_metadata: modification check failed", "path", args.Path, "error", err)
	}

	output, err := FormatMetadata(args.Path, record, modified)
	if err != nil {
		return errorResult(fmt.Sprintf("Metadata error: %v", err)), nil, nil
	}

	h.Logger.Info("mirror_metadata", "path", args.Path, "member", record.Member)
	return textResult(output), nil, nil
}

// OriginalArgs defines the input parameters for the mirror_original tool.
type OriginalArgs struct {
	Path string `json:"path" jsonschema:"Absolute path of a mirrored file"`
}

// OriginalHandler serves the text a member had when it was first mirrored.
type OriginalHandler struct {
	Store  *meta.Store
	Logger *slog.Logger
}

// Handle processes a mirror_original request.
func (h *OriginalHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args OriginalArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("mirror_original called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}

	original := h.Store.ReadOriginal(args.Path)
	if original == nil {
		h.Logger.Info("mirror_original: no original content", "path", args.Path)
		return errorResult(fmt.Sprintf("No original content recorded for %s", args.Path)), nil, nil
	}

	modified, err := h.Store.LocallyModified(args.Path)
	if err != nil {
		h.Logger.Debug("mirror_original: modification check failed", "path", args.Path, "error", err)
	}

	h.Logger.Info("mirror_original", "path", args.Path, "modified", modified)
	return textResult(FormatOriginalContent(args.Path, original, modified)), nil, nil
}
