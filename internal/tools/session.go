package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/elicit"
)

// SessionTool handles the lab_session MCP tool.
type SessionTool struct {
	sessions *elicit.Sessions
}

// NewSessionTool creates a SessionTool.
func NewSessionTool(sessions *elicit.Sessions) *SessionTool {
	return &SessionTool{sessions: sessions}
}

// Definition returns the MCP tool definition for lab_session.
func (t *SessionTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_session",
		mcp.WithDescription("Show the current step and the values collected so far for a dialogue session."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by lab_chat"),
		),
	)
}

// Handle processes the lab_session tool call.
func (t *SessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	sess, ok := t.sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
	}
	return mcp.NewToolResultText(jsonBlock(sess.View())), nil
}
