package server

import (
	"github.com/lexandro/mirrormeta-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Handlers bundles the tool handlers registered by Setup.
type Handlers struct {
	Scan          *tools.ScanHandler
	Metadata      *tools.MetadataHandler
	Original      *tools.OriginalHandler
	FindDef       *tools.FindDefinitionHandler
	SearchSymbols *tools.SearchSymbolsHandler
	Rename        *tools.RenameHandler
	Status        *tools.StatusHandler
	Reconcile     *tools.ReconcileHandler

	Write             *tools.WriteHandler
	SetSymbols        *tools.SetSymbolsHandler
	SetChangeTracking *tools.SetChangeTrackingHandler
	Forget            *tools.ForgetHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mirrormeta-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server knows the metadata kept next to locally mirrored IBM i source members.
Each mirrored folder (one source physical file) holds member files such as CIN0103R.sqlrpgle and a
.mirror sidecar folder with one JSON record per member.

- Use mirror_metadata to see which remote member a local file came from
- Use mirror_find_definition to locate the member that defines a procedure or subroutine
- Use mirror_search_symbols to browse defined symbols by prefix
- Use mirror_rename instead of a plain file rename so the sidecars follow the file
- Use mirror_scan to list a folder's members and orphans and drop stale sidecars
- Use mirror_original to compare a member with the text it was mirrored with
- After mirroring a member, use mirror_write with its listing row, then mirror_set_symbols once
  its symbols are known`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "mirror_scan",
		Description: `Reconcile one mirrored folder: list its members with metadata, report orphans (files with no metadata) and delete metadata sidecars no file refers to.

Filtering:
  - pattern: glob on member file names (e.g. "CIN*", "*.sqlrpgle")`,
	}, handlers.Scan.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_metadata",
		Description: "Show the metadata record of a mirrored file: source library, file, member, type, change stamps, language code and defined symbols. Also reports whether the file was edited since it was mirrored.",
	}, handlers.Metadata.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_original",
		Description: `Show the text a member had when it was first mirrored. Returns numbered lines (format: "N│ content").`,
	}, handlers.Original.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "mirror_find_definition",
		Description: `Find the mirrored file that defines a symbol. Names match case-insensitively; the kind must match exactly.

Kinds: procedure (default), prototype, subroutine, datastruct, file, constant, field, variable.
On a miss, close names are suggested.`,
	}, handlers.FindDef.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_search_symbols",
		Description: "Search defined symbols across all mirrored folders by prefix or fragment, optionally fuzzy and filtered by kind.",
	}, handlers.SearchSymbols.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_rename",
		Description: "Rename a mirrored file (base name only, extension kept) and move its metadata and original-content sidecars with it.",
	}, handlers.Rename.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_status",
		Description: "Show server status: mirror roots, cataloged folders, symbol count, memory usage and uptime.",
	}, handlers.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_reconcile",
		Description: "Reconcile every known mirrored folder now and rebuild the symbol catalog.",
	}, handlers.Reconcile.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "mirror_write",
		Description: `Record the metadata of a member that was just mirrored to a local file. The file must already exist.

The listing row uses the remote column names: MBRNAME, FILENAME, LIBNAME, SRCTYPE, MBRTEXT, CHGDATE, CHGTIME, mtime.
The stored compile time array start line is kept unless startLine is given.`,
	}, handlers.Write.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_set_symbols",
		Description: "Replace the defined symbols of a mirrored member (name, kind, optional line). mirror_find_definition and mirror_search_symbols see them immediately.",
	}, handlers.SetSymbols.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_set_change_tracking",
		Description: "Record new remote change stamps (chgDate, chgTime, mtime) for a mirrored member.",
	}, handlers.SetChangeTracking.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mirror_forget",
		Description: "Delete the metadata (and by default the original-content) sidecar of a mirrored file. The file itself is kept and becomes an orphan.",
	}, handlers.Forget.Handle)

	return mcpServer
}
