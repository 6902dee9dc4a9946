package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/elicit"
)

// ChatTool handles the lab_chat MCP tool: one dialogue turn.
type ChatTool struct {
	machine  *elicit.Machine
	sessions *elicit.Sessions
}

// NewChatTool creates a ChatTool.
func NewChatTool(machine *elicit.Machine, sessions *elicit.Sessions) *ChatTool {
	return &ChatTool{machine: machine, sessions: sessions}
}

// Definition returns the MCP tool definition for lab_chat.
func (t *ChatTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_chat",
		mcp.WithDescription(
			"Send one message to the formulation scientist. Type 'New' to start a formulation, "+
				"'Add <name>' to characterize a new protein, then answer each question with a number. "+
				"Reuse the returned session_id on every following turn.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's reply for the current step"),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to continue. Omit to start a new session."),
		),
		mcp.WithString("name",
			mcp.Description("Recipe name to archive under if this turn completes the formulation (default: '<Source> Formulation')"),
		),
	)
}

// Handle processes the lab_chat tool call. Rejected input is part of the
// reply text; a storage or scoring failure is returned as a Go error and
// leaves the session where it was.
func (t *ChatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}

	sess := t.sessions.Open(req.GetString("session_id", ""))
	reply, err := t.machine.StepNamed(ctx, sess, message, req.GetString("name", ""))
	if err != nil {
		return nil, fmt.Errorf("lab_chat: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(reply.Text)
	fmt.Fprintf(&sb, "\n\n---\nsession_id: %s | state: %s", sess.ID, reply.State)
	if reply.Report != nil {
		fmt.Fprintf(&sb, " | record_id: %s | tier: %s", reply.Report.RecordID, reply.Report.Tier)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
