package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/lexandro/mirrormeta-mcp/register"
	"github.com/lexandro/mirrormeta-mcp/tools"
	"github.com/spf13/cobra"
)

func (a *app) newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>...",
		Short: "Reconcile mirrored folders with their metadata sidecars",
		Long: `Reconcile mirrored folders: list the members that have metadata, report orphans
and delete metadata sidecars that no mirrored file refers to.

Examples:
  mirrormeta-mcp scan /mirror/S067454R/STEVESRC
  mirrormeta-mcp scan /mirror/S067454R/*`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := a.newManager()
			var failed int
			for _, dir := range args {
				result, err := manager.ScanFolder(cmd.Context(), filepath.Clean(dir))
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", dir, err)
					failed++
					continue
				}
				fmt.Fprint(cmd.OutOrStdout(), tools.FormatScanResult(result, result.Members))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d folders could not be scanned", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the metadata record of a mirrored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.newStore()
			path := filepath.Clean(args[0])

			record, err := store.Load(path)
			if err != nil {
				if errors.Is(err, meta.ErrNotFound) {
					return fmt.Errorf("no metadata for %s", path)
				}
				return err
			}
			modified, err := store.LocallyModified(path)
			if err != nil {
				a.logger.Debug("modification check failed", "path", path, "error", err)
			}
			output, err := tools.FormatMetadata(path, record, modified)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}
}

func (a *app) newFindCommand() *cobra.Command {
	var kindName, dir string
	cmd := &cobra.Command{
		Use:   "find <symbol>",
		Short: "Find the mirrored file that defines a symbol",
		Long: `Find the mirrored file in a folder that defines a symbol.
Names match case-insensitively; the kind must match exactly.

Examples:
  mirrormeta-mcp find AddLabelModel_ErrorCheck --dir /mirror/S067454R/STEVESRC
  mirrormeta-mcp find AddLabelHeader --kind subroutine`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := meta.ParseSymbolKind(kindName)
			if !ok {
				return fmt.Errorf("unknown symbol kind %q", kindName)
			}
			if dir == "" {
				dir = "."
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", dir, err)
			}

			symbols, err := index.GatherDefinedSymbols(a.newStore(), absDir)
			if err != nil {
				return err
			}
			path, record := symbols.Find(args[0], kind)
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), tools.FormatSuggestions(args[0], kind, symbols.Suggest(args[0], kind, 5)))
				return fmt.Errorf("%s not found", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), tools.FormatDefinition(args[0], kind, path, record))
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", string(meta.KindProcedure), "Symbol kind")
	cmd.Flags().StringVar(&dir, "dir", "", "Mirrored folder (default: current directory)")
	return cmd
}

func (a *app) newRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <file> <new-base-name>",
		Short: "Rename a mirrored file together with its sidecars",
		Long: `Rename a mirrored file, keeping its extension, and move its metadata and
original-content sidecars with it.

Example:
  mirrormeta-mcp rename /mirror/S067454R/STEVESRC/CIN0103R.sqlrpgle CIN0103X`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := a.newManager().Rename(filepath.Clean(args[0]), args[1])
			if result.FileErr != nil {
				return result.FileErr
			}
			fmt.Fprint(cmd.OutOrStdout(), tools.FormatRenameResult(result))
			if !result.Complete() {
				return errors.New("file renamed but sidecars were left behind; the next scan reports them")
			}
			return nil
		},
	}
}

func (a *app) newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.settings.TOML()
			if err != nil {
				return err
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func (a *app) newRegisterCommand() *cobra.Command {
	var serverName string
	cmd := &cobra.Command{
		Use:   "register <project|user> [directory] [-- serve flags...]",
		Short: "Register this server with an MCP client",
		Long: `Register this server in an MCP client configuration.

  register project [directory]  writes <directory>/.mcp.json (default: .)
  register user                 writes ~/.claude.json

Arguments after -- are passed to the serve command, e.g.
  mirrormeta-mcp register user -- --root /mirror`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, forwarded := register.SplitArgs(args, cmd.ArgsLenAtDash())
			if len(positional) == 0 {
				return errors.New("scope is required")
			}
			scope, err := register.ParseScope(positional[0])
			if err != nil {
				return err
			}
			options := register.Options{Scope: scope, ServerName: serverName, ServerArgs: forwarded}
			if len(positional) > 1 {
				if scope != register.ScopeProject {
					return errors.New("a directory is only accepted for project scope")
				}
				options.Directory = positional[1]
			}

			configPath, err := register.Register(options)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered in %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverName, "name", "", "Server name (default: binary name without -mcp)")
	return cmd
}

// readJSONArg decodes the JSON document named by arg into v; "-" reads stdin.
func readJSONArg(cmd *cobra.Command, arg string, v any) error {
	var reader io.Reader = cmd.InOrStdin()
	if arg != "-" {
		f, err := os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
		reader = f
	}
	if err := json.NewDecoder(reader).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", arg, err)
	}
	return nil
}

func (a *app) newWriteCommand() *cobra.Command {
	var startLine int
	var captureOriginal bool
	cmd := &cobra.Command{
		Use:   "write <file> <listing.json|->",
		Short: "Record the metadata of a freshly mirrored file",
		Long: `Record the metadata of a mirrored file from its remote listing row.

The listing is a JSON object with the listing columns:
  {"MBRNAME":"CIN0103R","FILENAME":"STEVESRC","LIBNAME":"S067454R","SRCTYPE":"SQLRPGLE",
   "MBRTEXT":"print container labels","CHGDATE":"1230415","CHGTIME":"101500","mtime":1681553700000}

Example:
  mirrormeta-mcp write /mirror/S067454R/STEVESRC/CIN0103R.sqlrpgle - --original < row.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var listing meta.ListingRecord
			if err := readJSONArg(cmd, args[1], &listing); err != nil {
				return err
			}
			if listing.MemberName == "" {
				return errors.New("listing has no MBRNAME")
			}
			request := mirror.WriteRequest{Listing: listing, CaptureOriginal: captureOriginal}
			if cmd.Flags().Changed("start-line") {
				request.StartLine = meta.StartLine(startLine)
			}

			result, err := a.newManager().WriteMember(filepath.Clean(args[0]), request)
			if err != nil {
				return err
			}
			record := result.Record
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s/%s(%s) %s\n",
				record.SourceLibrary, record.SourceFileName, record.Member, record.SourceType)
			if result.OriginalWritten {
				fmt.Fprintln(cmd.OutOrStdout(), "Original content recorded.")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&startLine, "start-line", -1, "Line where compile time array data begins (-1 for none; default keeps the stored value)")
	cmd.Flags().BoolVar(&captureOriginal, "original", false, "Record the file's current text as its original content")
	return cmd
}

func (a *app) newSetSymbolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-symbols <file> <symbols.json|->",
		Short: "Replace the defined symbols of a mirrored file",
		Long: `Replace the defined symbols of a mirrored file with a JSON array such as
  [{"symbolName":"AddLabelHeader","symbolType":"subroutine","lineNum":300}]
An empty array clears them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var symbols []meta.DefinedSymbol
			if err := readJSONArg(cmd, args[1], &symbols); err != nil {
				return err
			}
			symbols, err := tools.NormalizeSymbols(symbols)
			if err != nil {
				return err
			}

			path := filepath.Clean(args[0])
			applied, err := a.newManager().UpdateMember(path, meta.SetDefinedSymbols{Symbols: symbols})
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("no metadata for %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d symbols for %s\n", len(symbols), path)
			return nil
		},
	}
}

func (a *app) newForgetCommand() *cobra.Command {
	var keepOriginal bool
	cmd := &cobra.Command{
		Use:   "forget <file>",
		Short: "Delete the sidecars of a mirrored file",
		Long:  "Delete the metadata and original-content sidecars of a mirrored file. The file itself is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			if err := a.newManager().ForgetMember(path, keepOriginal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed sidecars of %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepOriginal, "keep-original", false, "Keep the original-content sidecar")
	return cmd
}
