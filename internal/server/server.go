// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/plantbot/internal/config"
	"github.com/HendryAvila/plantbot/internal/prompts"
	"github.com/HendryAvila/plantbot/internal/resources"
	"github.com/HendryAvila/plantbot/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New opens the lab described by cfg and returns an MCP server with all
// tools, prompts and resources registered.
//
// The returned cleanup function waits for any background retrain and
// closes the history store. It is always non-nil.
func New(ctx context.Context, cfg config.Config) (*server.MCPServer, *App, func(), error) {
	app, cleanup, err := Open(ctx, cfg, nil)
	if err != nil {
		return nil, nil, cleanup, err
	}
	return NewMCPServer(app), app, cleanup, nil
}

// NewMCPServer registers the lab surface on a fresh MCP server.
func NewMCPServer(app *App) *server.MCPServer {
	s := server.NewMCPServer(
		"plantbot",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Dialogue tools ---

	chatTool := tools.NewChatTool(app.Machine, app.Sessions)
	s.AddTool(chatTool.Definition(), chatTool.Handle)

	sessionTool := tools.NewSessionTool(app.Sessions)
	s.AddTool(sessionTool.Definition(), sessionTool.Handle)

	// --- Ingredient and scoring tools ---

	ingredientsTool := tools.NewIngredientsTool(app.Lab)
	s.AddTool(ingredientsTool.Definition(), ingredientsTool.Handle)

	addTool := tools.NewAddIngredientTool(app.Lab)
	s.AddTool(addTool.Definition(), addTool.Handle)

	scoreTool := tools.NewScoreTool(app.Lab)
	s.AddTool(scoreTool.Definition(), scoreTool.Handle)

	// --- History tools ---

	historyTool := tools.NewHistoryTool(app.History)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	recallTool := tools.NewRecallTool(app.History)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	renameTool := tools.NewRenameTool(app.History)
	s.AddTool(renameTool.Definition(), renameTool.Handle)

	deleteTool := tools.NewDeleteTool(app.History)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	pinTool := tools.NewPinTool(app.History)
	s.AddTool(pinTool.Definition(), pinTool.Handle)

	// --- Prompts and resources ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	resourceHandler := resources.NewHandler(app.Lab)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s
}

func serverInstructions() string {
	return `You are connected to plantbot, a formulation lab for plant-based dairy alternatives.
A random forest trained on synthetic data predicts a texture score from 0 to 100
for a protein source, protein concentration, fat, pH and stabilizer dosage.

### Guided formulation
1. Call lab_chat with message="New" and keep the returned session_id
2. Pass the user's answers through lab_chat one at a time, in this order:
   protein source, concentration (%), fat (%), pH, stabilizer (%)
3. The last answer scores the formulation and archives it in the lab notebook.
   Pass name=<recipe name> on that call, or the record is named "<Source> Formulation"

### New proteins
- "Add <name>" (from idle or the protein prompt) asks for water holding capacity
  (g/g, >= 0) and solubility (0-100 %), saves the ingredient and retrains the model
- lab_add_ingredient does the same in one call

### Outcome tiers
- Above 80: premium (thick, creamy)
- Above 60: standard (pourable)
- Above 40: weak (thin gel)
- 40 or below: failure (watery)

### Important Rules
- Never invent numeric answers; ask the user
- A rejected answer leaves the step unchanged; ask again
- lab_score predicts without archiving; use it for what-if questions
- Use lab_history, lab_recall, lab_history_rename, lab_history_pin and
  lab_history_delete to manage the notebook`
}
