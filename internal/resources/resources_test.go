package resources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/lab"
	"github.com/HendryAvila/plantbot/internal/model"
)

type fakeStatus struct {
	st  lab.Status
	err error
}

func (f fakeStatus) Status(context.Context) (lab.Status, error) { return f.st, f.err }

func readStatus(t *testing.T, src StatusSource) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = StatusURI
	out, err := NewHandler(src).HandleStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleStatus: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("contents = %d, want 1", len(out))
	}
	tc, ok := out[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", out[0])
	}
	return tc
}

func TestStatusResource_Definition(t *testing.T) {
	r := NewHandler(fakeStatus{}).StatusResource()
	if r.URI != StatusURI || r.MIMEType != "application/json" {
		t.Errorf("resource = %+v", r)
	}
}

func TestHandleStatus_JSON(t *testing.T) {
	src := fakeStatus{st: lab.Status{
		Model:       model.Status{Trained: true, Version: 3, Columns: []string{"conc", "fat"}},
		Ingredients: []string{"Oat", "Pea", "Soy"},
	}}
	tc := readStatus(t, src)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}

	var doc struct {
		Model struct {
			Trained bool   `json:"trained"`
			Version uint64 `json:"version"`
		} `json:"model"`
		Ingredients     []string `json:"ingredients"`
		IngredientCount int      `json:"ingredient_count"`
	}
	if err := json.Unmarshal([]byte(tc.Text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, tc.Text)
	}
	if !doc.Model.Trained || doc.Model.Version != 3 || doc.IngredientCount != 3 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHandleStatus_Error(t *testing.T) {
	tc := readStatus(t, fakeStatus{err: errors.New("bucket unreachable")})
	if tc.MIMEType != "text/plain" || tc.Text != "Error: bucket unreachable" {
		t.Errorf("error resource = %+v", tc)
	}
}
