package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the lab-status MCP prompt.
// It instructs the AI to summarize the model and the lab notebook.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("lab-status",
		mcp.WithPromptDescription(
			"Check the state of the lab: which model version is serving, "+
				"which proteins it knows, and the most recent formulations.",
		),
	)
}

// Handle processes the lab-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Lab Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please read the `plantbot://model/status` resource and call `lab_ingredients` and `lab_history` with limit=5.\n\n" +
						"Then:\n" +
						"1. Tell me whether the model is trained, its version, and whether a retrain is running\n" +
						"2. List the known proteins in one line\n" +
						"3. Show the recent formulations with their scores, pinned ones first\n" +
						"4. If the status shows a last_error, explain it plainly",
				),
			},
		},
	}, nil
}
