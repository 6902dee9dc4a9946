package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/elicit"
	"github.com/HendryAvila/plantbot/internal/lab"
	"github.com/HendryAvila/plantbot/internal/model"
)

// ScoreTool handles the lab_score MCP tool: a one-shot prediction without
// the dialogue and without archiving.
type ScoreTool struct {
	lab *lab.Lab
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(l *lab.Lab) *ScoreTool {
	return &ScoreTool{lab: l}
}

// Definition returns the MCP tool definition for lab_score.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("lab_score",
		mcp.WithDescription(
			"Predict the texture score (0-100) of a formulation directly. "+
				"whc and solubility default to the ingredient's stored values.",
		),
		mcp.WithString("source", mcp.Required(), mcp.Description("Protein source name")),
		mcp.WithNumber("conc", mcp.Required(), mcp.Description("Protein concentration (%)")),
		mcp.WithNumber("fat", mcp.Required(), mcp.Description("Fat content (%)")),
		mcp.WithNumber("ph", mcp.Required(), mcp.Description("Target pH")),
		mcp.WithNumber("stab", mcp.Required(), mcp.Description("Stabilizer dosage (%)")),
		mcp.WithNumber("whc", mcp.Description("Override water holding capacity")),
		mcp.WithNumber("solubility", mcp.Description("Override solubility (%)")),
	)
}

// Handle processes the lab_score tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	if strings.TrimSpace(source) == "" {
		return mcp.NewToolResultError("'source' is required"), nil
	}
	vals, bad := requireFloats(req, "conc", "fat", "ph", "stab")
	if bad != nil {
		return bad, nil
	}

	table, err := t.lab.Ingredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ingredients: %w", err)
	}
	name, props, known := table.Lookup(source)
	whc, hasWHC := floatArg(req, "whc")
	sol, hasSol := floatArg(req, "solubility")
	if !known && (!hasWHC || !hasSol) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown source %q: pass whc and solubility, or use one of %s", source, strings.Join(table.Names(), ", "))), nil
	}
	if !hasWHC {
		whc = props.WHC
	}
	if !hasSol {
		sol = props.Solubility
	}

	pred, err := t.lab.Score(model.Features{
		Conc: vals[0], Fat: vals[1], PH: vals[2], Stab: vals[3], WHC: whc, Sol: sol,
	}, name)
	if errors.Is(err, model.ErrUntrained) {
		return mcp.NewToolResultError("the model is not trained yet; try again shortly"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	tier := elicit.TierFor(pred.Score)
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s: %.2f / 100 (%s)\n\n", name, pred.Score, tier)
	if pred.UnknownSource {
		fmt.Fprintf(&sb, "Note: %s is not in the serving model; scored without an ingredient profile.\n\n", name)
	}
	sb.WriteString(jsonBlock(struct {
		Prediction model.Prediction `json:"prediction"`
		Profile    elicit.Profile   `json:"profile"`
	}{pred, elicit.ProfileFor(pred.Score, vals[3], vals[0])}))
	sb.WriteString("\n\n" + elicit.Legend)
	return mcp.NewToolResultText(sb.String()), nil
}
