package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/lab"
)

// IngredientsTool handles the lab_ingredients MCP tool.
type IngredientsTool struct {
	lab *lab.Lab
}

// NewIngredientsTool creates an IngredientsTool.
func NewIngredientsTool(l *lab.Lab) *IngredientsTool {
	return &IngredientsTool{lab: l}
}

// Definition returns the MCP tool definition for lab_ingredients.
func (t *IngredientsTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_ingredients",
		mcp.WithDescription("List the protein sources the model knows, with water holding capacity and solubility."),
	)
}

// Handle processes the lab_ingredients tool call.
func (t *IngredientsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := t.lab.Ingredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ingredients: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("## Ingredients\n\n")
	sb.WriteString("| Name | WHC (g/g) | Solubility (%) | Notes |\n|---|---|---|---|\n")
	for _, name := range table.Names() {
		p := table[name]
		fmt.Fprintf(&sb, "| %s | %.2f | %.1f | %s |\n", name, p.WHC, p.Solubility, p.Description)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// AddIngredientTool handles the lab_add_ingredient MCP tool.
type AddIngredientTool struct {
	lab *lab.Lab
}

// NewAddIngredientTool creates an AddIngredientTool.
func NewAddIngredientTool(l *lab.Lab) *AddIngredientTool {
	return &AddIngredientTool{lab: l}
}

// Definition returns the MCP tool definition for lab_add_ingredient.
func (t *AddIngredientTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_add_ingredient",
		mcp.WithDescription(
			"Add or replace a protein source and retrain the model. "+
				"The name is normalized ('rice' -> 'Rice').",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Protein source name"),
		),
		mcp.WithNumber("whc",
			mcp.Required(),
			mcp.Description("Water holding capacity in g water per g protein (>= 0)"),
		),
		mcp.WithNumber("solubility",
			mcp.Required(),
			mcp.Description("Nitrogen solubility index in percent (0-100)"),
		),
		mcp.WithString("description",
			mcp.Description("Short note shown next to the ingredient (default: 'User customized.')"),
		),
	)
}

// Handle processes the lab_add_ingredient tool call.
func (t *AddIngredientTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	vals, bad := requireFloats(req, "whc", "solubility")
	if bad != nil {
		return bad, nil
	}
	prop := ingredients.Property{
		WHC:         vals[0],
		Solubility:  vals[1],
		Description: req.GetString("description", ingredients.CustomDescription),
	}
	if err := prop.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stored, err := t.lab.AddIngredient(ctx, name, prop)
	if errors.Is(err, lab.ErrRetrainFailed) {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Saved %s, but the model could not be retrained (%v). The previous model keeps serving.", stored, err)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lab_add_ingredient: %w", err)
	}
	if t.lab.Retraining() {
		return mcp.NewToolResultText(fmt.Sprintf("Saved %s. The model is retraining in the background.", stored)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %s and retrained the model.", stored)), nil
}
