package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if len(r.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(r.Messages))
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", r.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt_Definition(t *testing.T) {
	def := NewStartPrompt().Definition()
	if def.Name != "lab-start" {
		t.Errorf("Name = %q", def.Name)
	}
	if len(def.Arguments) != 2 {
		t.Errorf("arguments = %d, want 2", len(def.Arguments))
	}
}

func TestStartPrompt_Defaults(t *testing.T) {
	r, err := NewStartPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, r)
	if !strings.Contains(text, "message='New'") {
		t.Errorf("should start with New:\n%s", text)
	}
	if !strings.Contains(text, "Ask me which protein source") || !strings.Contains(text, "ask me for a recipe name") {
		t.Errorf("should ask for source and name:\n%s", text)
	}
}

func TestStartPrompt_Arguments(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"source": "Fava", "name": "Fava Skyr"}
	r, err := NewStartPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, r)
	if !strings.Contains(text, "Send 'Fava'") || !strings.Contains(text, "name='Fava Skyr'") {
		t.Errorf("arguments not applied:\n%s", text)
	}
}

func TestStatusPrompt(t *testing.T) {
	p := NewStatusPrompt()
	if p.Definition().Name != "lab-status" {
		t.Errorf("Name = %q", p.Definition().Name)
	}
	r, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(promptText(t, r), "plantbot://model/status") {
		t.Error("status prompt should reference the status resource")
	}
}
