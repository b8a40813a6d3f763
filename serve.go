package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lexandro/mirrormeta-mcp/ignore"
	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/server"
	"github.com/lexandro/mirrormeta-mcp/tools"
	"github.com/lexandro/mirrormeta-mcp/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func (a *app) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP server on stdio.

All mirror folders under the roots are reconciled at startup, then watched:
each folder whose files change is reconciled again once changes settle.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	cmd.Flags().StringSlice("root", nil, "Mirror root directory (repeatable, default: current working directory)")
	cmd.Flags().StringSlice("exclude", nil, "Extra ignore pattern (repeatable)")
	a.v.BindPFlag("serve.roots", cmd.Flags().Lookup("root"))
	a.v.BindPFlag("ignore.patterns", cmd.Flags().Lookup("exclude"))
	return cmd
}

// resolveRoots returns absolute mirror roots, defaulting to the working directory.
func resolveRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		roots = []string{wd}
	}
	resolved := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving root %s: %w", root, err)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	logger := a.logger
	roots, err := resolveRoots(a.settings.Serve.Roots)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting mirrormeta-mcp",
		"roots", roots,
		"metadataDir", a.settings.Sidecar.MetadataDir,
		"originalDir", a.settings.Sidecar.OriginalDir,
		"workers", a.settings.Scan.Workers,
	)
	startTime := time.Now()

	manager := a.newManager()
	catalog, err := index.NewCatalog(manager.Store())
	if err != nil {
		return fmt.Errorf("creating symbol catalog: %w", err)
	}
	defer catalog.Close()

	matchers := make(map[string]*ignore.Matcher, len(roots))
	for _, root := range roots {
		matchers[root] = ignore.NewMatcher(ignore.MatcherOptions{
			RootDir:        root,
			Layout:         a.settings.Layout(),
			CustomPatterns: a.settings.Ignore.Patterns,
		})
	}

	rec := &reconciler{
		manager:  manager,
		catalog:  catalog,
		roots:    roots,
		matchers: matchers,
		logger:   logger,
	}

	summary, err := rec.reconcileAll(ctx)
	if err != nil {
		return err
	}
	logger.Info("initial reconcile complete",
		"folders", summary.Folders,
		"orphans", summary.Orphans,
		"removed", summary.RemovedSidecars,
		"failed", summary.Failed,
		"symbols", catalog.SymbolCount(),
		"duration", summary.Elapsed,
	)

	if a.settings.Watch.Enabled {
		for _, root := range roots {
			fileWatcher, err := watcher.NewWatcher(root, matchers[root], a.settings.Debounce(), logger)
			if err != nil {
				logger.Warn("failed to start file watcher, continuing without live updates", "root", root, "error", err)
				continue
			}
			go fileWatcher.Start()
			go rec.handleWatcherEvents(ctx, fileWatcher, matchers[root])
			defer fileWatcher.Close()
		}
	}

	if interval := a.settings.ReconcileInterval(); interval > 0 {
		go runPeriodicReconcile(ctx, interval, rec, logger)
	}

	store := manager.Store()
	mcpServer := server.Setup(server.Handlers{
		Scan:          &tools.ScanHandler{Manager: manager, Catalog: catalog, Logger: logger},
		Metadata:      &tools.MetadataHandler{Store: store, Logger: logger},
		Original:      &tools.OriginalHandler{Store: store, Logger: logger},
		FindDef:       &tools.FindDefinitionHandler{Catalog: catalog, Logger: logger},
		SearchSymbols: &tools.SearchSymbolsHandler{Catalog: catalog, Logger: logger},
		Rename:        &tools.RenameHandler{Manager: manager, Catalog: catalog, Logger: logger},
		Status:        &tools.StatusHandler{Catalog: catalog, StartTime: startTime, RootDirs: roots, Logger: logger},
		Reconcile:     &tools.ReconcileHandler{DoReconcile: rec.reconcileAll, Logger: logger},

		Write:             &tools.WriteHandler{Manager: manager, Catalog: catalog, Logger: logger},
		SetSymbols:        &tools.SetSymbolsHandler{Manager: manager, Catalog: catalog, Logger: logger},
		SetChangeTracking: &tools.SetChangeTrackingHandler{Manager: manager, Logger: logger},
		Forget:            &tools.ForgetHandler{Manager: manager, Catalog: catalog, Logger: logger},
	})

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
