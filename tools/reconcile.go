package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReconcileArgs defines the input parameters for the mirror_reconcile tool.
type ReconcileArgs struct{}

// ReconcileSummary totals one reconcile pass over every mirror folder.
type ReconcileSummary struct {
	Folders         int
	Orphans         int
	RemovedSidecars int
	Failed          int
	Elapsed         string
}

// ReconcileFunc is the function signature for the reconcile operation.
// The serve command supplies it.
type ReconcileFunc func(ctx context.Context) (ReconcileSummary, error)

// ReconcileHandler holds the dependencies for the reconcile tool.
type ReconcileHandler struct {
	DoReconcile ReconcileFunc
	Logger      *slog.Logger
}

// Handle processes a mirror_reconcile request.
func (h *ReconcileHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReconcileArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("mirror_reconcile started")

	summary, err := h.DoReconcile(ctx)
	if err != nil {
		h.Logger.Error("mirror_reconcile failed", "error", err)
		return errorResult(fmt.Sprintf("Reconcile error: %v", err)), nil, nil
	}

	h.Logger.Info("mirror_reconcile complete",
		"folders", summary.Folders,
		"orphans", summary.Orphans,
		"removed", summary.RemovedSidecars,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed,
	)

	output := fmt.Sprintf("reconciled: %d folders (%d orphans, %d sidecars removed, %d failed) in %s",
		summary.Folders, summary.Orphans, summary.RemovedSidecars, summary.Failed, summary.Elapsed)

	return textResult(output), nil, nil
}
