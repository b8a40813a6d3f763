package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the mirror_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Catalog   *index.Catalog
	StartTime time.Time
	RootDirs  []string
	Logger    *slog.Logger
}

// Handle processes a mirror_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	dirs := h.Catalog.Dirs()
	symbolCount := h.Catalog.SymbolCount()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("mirror_status",
		"folders", len(dirs),
		"symbols", symbolCount,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== mirrormeta-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Mirror roots: %s\n", strings.Join(h.RootDirs, ", ")))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Mirrored folders: %d\n", len(dirs)))
	builder.WriteString(fmt.Sprintf("Defined symbols: %d\n", symbolCount))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if len(dirs) > 0 {
		builder.WriteString("\nFolders:\n")
		for _, dir := range dirs {
			count := 0
			if symbols := h.Catalog.Symbols(dir); symbols != nil {
				count = symbols.Len()
			}
			builder.WriteString(fmt.Sprintf("  %-48s %d symbols\n", dir, count))
		}
	}

	return textResult(builder.String()), nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
