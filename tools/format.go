package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// FormatScanResult formats a folder scan as human-readable text.
// Members and orphans are listed in directory order; shown is the filtered member list.
func FormatScanResult(result *mirror.ScanResult, shown []*meta.MemberMetadata) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s ──\n", result.Dir))
	builder.WriteString(fmt.Sprintf("Members: %d, orphans: %d, removed sidecars: %d\n",
		len(result.Members), len(result.Orphans), len(result.RemovedSidecars)))

	if len(shown) > 0 {
		builder.WriteString("\nMembers:\n")
		for _, record := range shown {
			builder.WriteString(fmt.Sprintf("  %-24s %-10s %-5s %s\n",
				record.MirroredFileName, record.SourceType, record.LangCode, record.TextDescription))
		}
	}
	if len(result.Orphans) > 0 {
		builder.WriteString("\nOrphans (no metadata):\n")
		for _, name := range result.Orphans {
			builder.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}
	if len(result.RemovedSidecars) > 0 {
		builder.WriteString("\nRemoved sidecars:\n")
		for _, name := range result.RemovedSidecars {
			builder.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}
	return builder.String()
}

// FormatMetadata renders a metadata record as its sidecar JSON with a short header.
func FormatMetadata(mirroredPath string, record *meta.MemberMetadata, locallyModified bool) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding metadata of %s: %w", mirroredPath, err)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s ──\n", mirroredPath))
	builder.WriteString(fmt.Sprintf("Sidecar: %s\n", record.MetadataFileName))
	if locallyModified {
		builder.WriteString("Locally modified: yes\n")
	}
	builder.WriteString("\n")
	builder.Write(data)
	builder.WriteString("\n")
	return builder.String(), nil
}

// FormatDefinition formats a find-definition hit.
func FormatDefinition(symbolName string, kind meta.SymbolKind, mirroredPath string, record *meta.MemberMetadata) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s %s is defined in %s\n", kind, symbolName, mirroredPath))
	if record == nil {
		builder.WriteString("(metadata no longer readable)\n")
		return builder.String()
	}
	builder.WriteString(fmt.Sprintf("  member: %s/%s(%s)  type: %s\n",
		record.SourceLibrary, record.SourceFileName, record.Member, record.SourceType))
	for _, symbol := range record.DefinedSymbols {
		if symbol.SymbolType == kind && strings.EqualFold(symbol.SymbolName, symbolName) && symbol.LineNum > 0 {
			builder.WriteString(fmt.Sprintf("  line: %d\n", symbol.LineNum))
			break
		}
	}
	return builder.String()
}

// FormatSymbolEntries formats symbol search results grouped in result order.
func FormatSymbolEntries(entries []index.SymbolEntry) string {
	if len(entries) == 0 {
		return "No symbols matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d symbols:\n\n", len(entries)))
	for _, entry := range entries {
		location := entry.Path
		if entry.LineNum > 0 {
			location = fmt.Sprintf("%s:%d", entry.Path, entry.LineNum)
		}
		builder.WriteString(fmt.Sprintf("  %-32s %-11s %s\n", entry.SymbolName, entry.SymbolType, location))
	}
	return builder.String()
}

// FormatSuggestions formats a find miss with "did you mean" candidates.
func FormatSuggestions(symbolName string, kind meta.SymbolKind, suggestions []index.SymbolEntry) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("No %s named %s is defined.", kind, symbolName))
	if len(suggestions) == 0 {
		return builder.String()
	}
	builder.WriteString(" Did you mean:\n")
	for _, entry := range suggestions {
		builder.WriteString(fmt.Sprintf("  %s (%s)\n", entry.SymbolName, filepath.Base(entry.Path)))
	}
	return builder.String()
}

// FormatRenameResult reports each part of a rename on its own line.
func FormatRenameResult(result mirror.RenameResult) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s -> %s\n", result.OldPath, result.NewPath))
	builder.WriteString(formatRenamePart("file", result.FileRenamed, result.FileErr))
	builder.WriteString(formatRenamePart("metadata", result.MetadataRenamed, result.MetadataErr))
	builder.WriteString(formatRenamePart("original", result.OriginalRenamed, result.OriginalErr))
	return builder.String()
}

func formatRenamePart(part string, renamed bool, err error) string {
	switch {
	case err != nil:
		return fmt.Sprintf("  %-8s failed: %v\n", part, err)
	case renamed:
		return fmt.Sprintf("  %-8s renamed\n", part)
	default:
		return fmt.Sprintf("  %-8s nothing to move\n", part)
	}
}

// FormatOriginalContent formats the original mirrored text with line numbers.
func FormatOriginalContent(mirroredPath string, original *meta.OriginalContent, locallyModified bool) string {
	lines := strings.Split(original.OriginalLinesText, "\n")
	lineCount := len(lines)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s original (%d lines) ──\n", mirroredPath, lineCount))
	if locallyModified {
		builder.WriteString("The mirrored file has been modified locally.\n")
	}

	// Calculate width needed for line numbers
	width := len(fmt.Sprintf("%d", lineCount))

	for i, line := range lines {
		builder.WriteString(fmt.Sprintf("%*d│ %s\n", width, i+1, line))
	}

	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
