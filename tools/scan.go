package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScanArgs defines the input parameters for the mirror_scan tool.
type ScanArgs struct {
	Dir     string `json:"dir" jsonschema:"Absolute path of a mirrored source folder (e.g. /mirror/S067454R/STEVESRC)"`
	Pattern string `json:"pattern,omitempty" jsonschema:"Optional glob on member file names to limit the listed members (e.g. CIN*.sqlrpgle)"`
}

// ScanHandler holds the dependencies for the scan tool.
type ScanHandler struct {
	Manager *mirror.Manager
	Catalog *index.Catalog
	Logger  *slog.Logger
}

// Handle processes a mirror_scan request.
func (h *ScanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ScanArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Dir == "" {
		h.Logger.Warn("mirror_scan called with empty dir")
		return errorResult("Error: dir parameter is required"), nil, nil
	}
	if args.Pattern != "" && !doublestar.ValidatePattern(args.Pattern) {
		return errorResult(fmt.Sprintf("Error: invalid pattern %q", args.Pattern)), nil, nil
	}

	result, err := h.Manager.ScanFolder(ctx, args.Dir)
	if err != nil {
		h.Logger.Error("mirror_scan failed", "dir", args.Dir, "error", err)
		return errorResult(fmt.Sprintf("Scan error: %v", err)), nil, nil
	}

	if h.Catalog != nil {
		if _, err := h.Catalog.Refresh(args.Dir); err != nil {
			h.Logger.Warn("mirror_scan: symbol refresh failed", "dir", args.Dir, "error", err)
		}
	}

	shown := filterMembers(result.Members, args.Pattern)

	h.Logger.Info("mirror_scan",
		"dir", args.Dir,
		"members", len(result.Members),
		"orphans", len(result.Orphans),
		"removed", len(result.RemovedSidecars),
		"elapsed", time.Since(start),
	)

	return textResult(FormatScanResult(result, shown)), nil, nil
}

// filterMembers keeps the records whose mirrored file name matches pattern.
func filterMembers(members []*meta.MemberMetadata, pattern string) []*meta.MemberMetadata {
	if pattern == "" {
		return members
	}
	var matched []*meta.MemberMetadata
	for _, record := range members {
		if ok, _ := doublestar.Match(pattern, record.MirroredFileName); ok {
			matched = append(matched, record)
		}
	}
	return matched
}
