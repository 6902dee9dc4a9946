// Package resources implements MCP resource handlers for the formulation lab.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (plantbot://...) following MCP conventions.
package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/lab"
)

// StatusURI addresses the model status resource.
const StatusURI = "plantbot://model/status"

// StatusSource reports the lab status.
type StatusSource interface {
	Status(ctx context.Context) (lab.Status, error)
}

// Handler manages lab resource endpoints.
type Handler struct {
	lab StatusSource
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(l StatusSource) *Handler {
	return &Handler{lab: l}
}

// StatusResource returns the MCP resource definition for model status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Model Status",
		mcp.WithResourceDescription("Serving model version, feature columns, known ingredients and retrain state"),
		mcp.WithMIMEType("application/json"),
	)
}

// statusDoc adds the derived ingredient count to the lab status.
type statusDoc struct {
	lab.Status
	IngredientCount int `json:"ingredient_count"`
}

// HandleStatus returns the current lab status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.lab.Status(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, statusDoc{Status: st, IngredientCount: len(st.Ingredients)})
}
