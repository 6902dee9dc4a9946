// Package prompts implements MCP prompt handlers for the formulation lab.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to drive the lab tools in a fixed order.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the lab-start MCP prompt.
// It walks the AI through one guided formulation via lab_chat.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("lab-start",
		mcp.WithPromptDescription(
			"Start a guided plant-protein formulation. "+
				"The scientist asks for the protein source, concentration, fat, pH and stabilizer, "+
				"then scores the texture and archives the result.",
		),
		mcp.WithArgument("source",
			mcp.ArgumentDescription("Protein source to start with (e.g. Pea, Soy). Ask me if omitted."),
		),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Recipe name for the archived result. Default: '<Source> Formulation'"),
		),
	)
}

// Handle processes the lab-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var source, name string
	if args := req.Params.Arguments; args != nil {
		source = args["source"]
		name = args["name"]
	}

	sourceStep := "2. Ask me which protein source to use and send my answer with `lab_chat`"
	if source != "" {
		sourceStep = fmt.Sprintf("2. Send '%s' with `lab_chat` as the protein source", source)
	}
	nameStep := "6. Before the final answer, ask me for a recipe name and pass it as `name` on that last `lab_chat` call"
	if name != "" {
		nameStep = fmt.Sprintf("6. Pass name='%s' on the last `lab_chat` call", name)
	}

	return &mcp.GetPromptResult{
		Description: "Start a plant-protein formulation",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to formulate a plant-based dairy alternative.\n\n" +
						"Please:\n" +
						"1. Call `lab_chat` with message='New' and keep the returned session_id for every later call\n" +
						sourceStep + "\n" +
						"3. Relay each question from the scientist to me and send my numeric answer back unchanged\n" +
						"4. If I name a protein the lab does not know, offer to characterize it with 'Add <name>'\n" +
						"5. Never invent values; if the scientist rejects an answer, ask me again\n" +
						nameStep + "\n" +
						"7. Show me the final score, tier and profile, and the record id it was archived under",
				),
			},
		},
	}, nil
}
