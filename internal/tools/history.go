package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/elicit"
	"github.com/HendryAvila/plantbot/internal/history"
)

// historyResult maps store errors to tool results: unknown ids are the
// caller's mistake, anything else is an infrastructure failure.
func historyResult(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, history.ErrNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// HistoryTool handles the lab_history MCP tool.
type HistoryTool struct {
	store history.Store
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(store history.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for lab_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_history",
		mcp.WithDescription("List archived formulations, pinned first, then newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default: 20)"),
		),
	)
}

// Handle processes the lab_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("The lab notebook is empty. Use lab_chat with 'New' to run a formulation."), nil
	}

	limit := intArg(req, "limit", 20)
	sorted := history.Sorted(records)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Lab Notebook (%d of %d)\n\n", len(sorted), len(records))
	for _, r := range sorted {
		pin := ""
		if r.Pinned {
			pin = " [pinned]"
		}
		fmt.Fprintf(&sb, "- **%s**%s: score %.0f, %s, %.1f%% protein, pH %.1f (id: %s, %s)\n",
			r.Name, pin, r.Score, r.Source, r.Conc, r.PH, r.ID, r.Timestamp)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// RecallTool handles the lab_recall MCP tool.
type RecallTool struct {
	store history.Store
}

// NewRecallTool creates a RecallTool.
func NewRecallTool(store history.Store) *RecallTool {
	return &RecallTool{store: store}
}

// Definition returns the MCP tool definition for lab_recall.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_recall",
		mcp.WithDescription("Re-open an archived formulation with its outcome tier and profile."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	)
}

// Handle processes the lab_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	r, err := t.store.Get(ctx, id)
	if err != nil {
		return historyResult(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## File retrieved: %s\n\n", r.Name)
	fmt.Fprintf(&sb, "Score %.2f (%s)\n\n", r.Score, elicit.TierFor(r.Score))
	sb.WriteString(jsonBlock(struct {
		Record  history.Record `json:"record"`
		Profile elicit.Profile `json:"profile"`
	}{r, elicit.ProfileFor(r.Score, r.Stab, r.Conc)}))
	return mcp.NewToolResultText(sb.String()), nil
}

// RenameTool handles the lab_history_rename MCP tool.
type RenameTool struct {
	store history.Store
}

// NewRenameTool creates a RenameTool.
func NewRenameTool(store history.Store) *RenameTool {
	return &RenameTool{store: store}
}

// Definition returns the MCP tool definition for lab_history_rename.
func (t *RenameTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_history_rename",
		mcp.WithDescription("Rename an archived formulation."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New recipe name")),
	)
}

// Handle processes the lab_history_rename tool call.
func (t *RenameTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	name := strings.TrimSpace(req.GetString("name", ""))
	if id == "" || name == "" {
		return mcp.NewToolResultError("'id' and 'name' are required"), nil
	}
	if err := t.store.Rename(ctx, id, name); err != nil {
		return historyResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Renamed %s to %q.", id, name)), nil
}

// DeleteTool handles the lab_history_delete MCP tool.
type DeleteTool struct {
	store history.Store
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(store history.Store) *DeleteTool {
	return &DeleteTool{store: store}
}

// Definition returns the MCP tool definition for lab_history_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_history_delete",
		mcp.WithDescription("Delete an archived formulation permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	)
}

// Handle processes the lab_history_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.Delete(ctx, id); err != nil {
		return historyResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s.", id)), nil
}

// PinTool handles the lab_history_pin MCP tool.
type PinTool struct {
	store history.Store
}

// NewPinTool creates a PinTool.
func NewPinTool(store history.Store) *PinTool {
	return &PinTool{store: store}
}

// Definition returns the MCP tool definition for lab_history_pin.
func (t *PinTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_history_pin",
		mcp.WithDescription("Toggle the pin on an archived formulation. Pinned entries list first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	)
}

// Handle processes the lab_history_pin tool call.
func (t *PinTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	pinned, err := t.store.TogglePin(ctx, id)
	if err != nil {
		return historyResult(err)
	}
	if pinned {
		return mcp.NewToolResultText(fmt.Sprintf("Pinned %s.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Unpinned %s.", id)), nil
}
