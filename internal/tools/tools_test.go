package tools

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/plantbot/internal/blob"
	"github.com/HendryAvila/plantbot/internal/elicit"
	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/lab"
	"github.com/HendryAvila/plantbot/internal/model"
)

// --- Test helpers ---

// makeReq creates a CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type harness struct {
	lab      *lab.Lab
	history  history.Store
	sessions *elicit.Sessions
	machine  *elicit.Machine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	blobs := blob.NewMemoryStore()
	hist := history.NewDocStore(blobs)
	m := model.New(model.Options{Samples: 300, Trees: 6, Seed: 42}, nil)
	l := lab.New(ingredients.NewDocStore(blobs), hist, m, nil, lab.Options{})
	if err := l.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return &harness{
		lab:      l,
		history:  hist,
		sessions: elicit.NewSessions(),
		machine:  elicit.NewMachine(l, nil, nil),
	}
}

func call(t *testing.T, h interface {
	Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	r, err := h.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	return r
}

var sessionIDPattern = regexp.MustCompile(`session_id: (\S+)`)

func (h *harness) archiveSoy(t *testing.T, name string) string {
	t.Helper()
	chat := NewChatTool(h.machine, h.sessions)
	first := call(t, chat, map[string]interface{}{"message": "new"})
	m := sessionIDPattern.FindStringSubmatch(resultText(first))
	if m == nil {
		t.Fatalf("no session id in reply:\n%s", resultText(first))
	}
	id := m[1]
	for _, msg := range []string{"soy", "12", "3", "4.5"} {
		call(t, chat, map[string]interface{}{"message": msg, "session_id": id})
	}
	last := call(t, chat, map[string]interface{}{"message": "0.5", "session_id": id, "name": name})
	if last.IsError {
		t.Fatalf("final step failed: %s", resultText(last))
	}
	records, err := h.history.List(context.Background())
	if err != nil || len(records) == 0 {
		t.Fatalf("List = %v, %v", records, err)
	}
	return records[len(records)-1].ID
}

// --- Definition Tests ---

func TestDefinitions_NamesAndRequired(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewChatTool(h.machine, h.sessions).Definition(), "lab_chat", []string{"message"}},
		{NewSessionTool(h.sessions).Definition(), "lab_session", []string{"session_id"}},
		{NewIngredientsTool(h.lab).Definition(), "lab_ingredients", nil},
		{NewAddIngredientTool(h.lab).Definition(), "lab_add_ingredient", []string{"name", "whc", "solubility"}},
		{NewScoreTool(h.lab).Definition(), "lab_score", []string{"source", "conc", "fat", "ph", "stab"}},
		{NewHistoryTool(h.history).Definition(), "lab_history", nil},
		{NewRecallTool(h.history).Definition(), "lab_recall", []string{"id"}},
		{NewRenameTool(h.history).Definition(), "lab_history_rename", []string{"id", "name"}},
		{NewDeleteTool(h.history).Definition(), "lab_history_delete", []string{"id"}},
		{NewPinTool(h.history).Definition(), "lab_history_pin", []string{"id"}},
	}
	for _, tc := range cases {
		if tc.def.Name != tc.name {
			t.Errorf("Name = %q, want %q", tc.def.Name, tc.name)
		}
		for _, p := range tc.required {
			if _, ok := tc.def.InputSchema.Properties[p]; !ok {
				t.Errorf("%s: missing property %q", tc.name, p)
			}
		}
		if len(tc.def.InputSchema.Required) != len(tc.required) {
			t.Errorf("%s: required = %v, want %v", tc.name, tc.def.InputSchema.Required, tc.required)
		}
	}
}

// --- ChatTool Tests ---

func TestChatTool_FullFormulation(t *testing.T) {
	h := newHarness(t)
	id := h.archiveSoy(t, "Morning Soy")

	rec, err := h.history.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Name != "Morning Soy" || rec.Source != "Soy" || rec.Conc != 12 || rec.Stab != 0.5 {
		t.Errorf("archived record = %+v", rec)
	}
	if rec.WHC != 4.5 || rec.Sol != 85 {
		t.Errorf("ingredient properties not copied: whc=%v sol=%v", rec.WHC, rec.Sol)
	}
}

func TestChatTool_ReportsSessionAndState(t *testing.T) {
	h := newHarness(t)
	r := call(t, NewChatTool(h.machine, h.sessions), map[string]interface{}{"message": "New please"})
	text := resultText(r)
	if !strings.Contains(text, "state: ASK_PROTEIN") {
		t.Errorf("expected ASK_PROTEIN footer:\n%s", text)
	}
	if h.sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", h.sessions.Len())
	}
}

func TestChatTool_CallerSessionID(t *testing.T) {
	h := newHarness(t)
	chat := NewChatTool(h.machine, h.sessions)
	call(t, chat, map[string]interface{}{"message": "new", "session_id": "bench-1"})
	s, ok := h.sessions.Get("bench-1")
	if !ok || s.State != elicit.AskProtein {
		t.Fatalf("session bench-1 = %v, %v", s, ok)
	}
}

func TestChatTool_RejectedInputKeepsState(t *testing.T) {
	h := newHarness(t)
	chat := NewChatTool(h.machine, h.sessions)
	call(t, chat, map[string]interface{}{"message": "new", "session_id": "s"})
	call(t, chat, map[string]interface{}{"message": "pea", "session_id": "s"})
	r := call(t, chat, map[string]interface{}{"message": "lots", "session_id": "s"})
	if r.IsError {
		t.Fatalf("a rejected number is a normal reply, got error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "state: ASK_CONC") {
		t.Errorf("state should stay ASK_CONC:\n%s", resultText(r))
	}
}

// failingHistory rejects every append.
type failingHistory struct {
	history.Store
	err error
}

func (f failingHistory) Append(context.Context, history.Record, string) (string, error) {
	return "", f.err
}

func TestChatTool_StorageFailureIsGoError(t *testing.T) {
	boom := errors.New("disk full")
	blobs := blob.NewMemoryStore()
	m := model.New(model.Options{Samples: 300, Trees: 6, Seed: 42}, nil)
	l := lab.New(ingredients.NewDocStore(blobs), failingHistory{Store: history.NewDocStore(blobs), err: boom}, m, nil, lab.Options{})
	if err := l.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	sessions := elicit.NewSessions()
	chat := NewChatTool(elicit.NewMachine(l, nil, nil), sessions)
	for _, msg := range []string{"new", "soy", "12", "3", "4.5"} {
		call(t, chat, map[string]interface{}{"message": msg, "session_id": "s"})
	}

	r, err := chat.Handle(context.Background(), makeReq(map[string]interface{}{"message": "0.5", "session_id": "s"}))
	if !errors.Is(err, boom) || r != nil {
		t.Fatalf("Handle = %v, %v; want nil result and %v", r, err, boom)
	}
	sess, _ := sessions.Get("s")
	if st := sess.View().State; st != elicit.AskStab {
		t.Errorf("state = %v, want ASK_STAB", st)
	}
}

func TestChatTool_MissingMessage(t *testing.T) {
	h := newHarness(t)
	r := call(t, NewChatTool(h.machine, h.sessions), map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for empty message")
	}
}

// --- SessionTool Tests ---

func TestSessionTool_ShowsDraft(t *testing.T) {
	h := newHarness(t)
	chat := NewChatTool(h.machine, h.sessions)
	call(t, chat, map[string]interface{}{"message": "new", "session_id": "s"})
	call(t, chat, map[string]interface{}{"message": "oat", "session_id": "s"})

	r := call(t, NewSessionTool(h.sessions), map[string]interface{}{"session_id": "s"})
	text := resultText(r)
	if !strings.Contains(text, `"ASK_CONC"`) || !strings.Contains(text, `"Oat"`) {
		t.Errorf("session view missing state or source:\n%s", text)
	}
}

func TestSessionTool_Unknown(t *testing.T) {
	h := newHarness(t)
	r := call(t, NewSessionTool(h.sessions), map[string]interface{}{"session_id": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown session")
	}
}

// --- Ingredient Tool Tests ---

func TestIngredientsTool_ListsDefaults(t *testing.T) {
	h := newHarness(t)
	text := resultText(call(t, NewIngredientsTool(h.lab), nil))
	for _, name := range ingredients.Defaults().Names() {
		if !strings.Contains(text, "| "+name+" |") {
			t.Errorf("missing %s row:\n%s", name, text)
		}
	}
}

func TestAddIngredientTool_RetrainFailureReportsSave(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := NewAddIngredientTool(h.lab).Handle(ctx, makeReq(map[string]interface{}{
		"name": "rice", "whc": 2.0, "solubility": 55.0,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(r)
	if r.IsError || !strings.Contains(text, "Saved Rice") || !strings.Contains(text, "could not be retrained") {
		t.Errorf("result = %q (error=%v)", text, r.IsError)
	}
	table, _ := h.lab.Ingredients(context.Background())
	if _, ok := table["Rice"]; !ok {
		t.Error("Rice should be saved")
	}
}

func TestAddIngredientTool_AddsAndRetrains(t *testing.T) {
	h := newHarness(t)
	r := call(t, NewAddIngredientTool(h.lab), map[string]interface{}{
		"name": "rice", "whc": 2.0, "solubility": 55.0,
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Rice") {
		t.Errorf("expected normalized name:\n%s", resultText(r))
	}

	table, err := h.lab.Ingredients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	p, ok := table["Rice"]
	if !ok || p.Description != ingredients.CustomDescription {
		t.Errorf("Rice = %+v, %v", p, ok)
	}

	st, err := h.lab.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Model.Version != 2 {
		t.Errorf("model version = %d, want 2 after retrain", st.Model.Version)
	}
}

func TestAddIngredientTool_Validation(t *testing.T) {
	h := newHarness(t)
	tool := NewAddIngredientTool(h.lab)
	cases := map[string]map[string]interface{}{
		"missing name":   {"whc": 1.0, "solubility": 10.0},
		"missing whc":    {"name": "rice", "solubility": 10.0},
		"negative whc":   {"name": "rice", "whc": -1.0, "solubility": 10.0},
		"solubility 101": {"name": "rice", "whc": 1.0, "solubility": 101.0},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := call(t, tool, args); !r.IsError {
				t.Errorf("expected error, got %s", resultText(r))
			}
		})
	}
	table, _ := h.lab.Ingredients(context.Background())
	if _, ok := table["Rice"]; ok {
		t.Error("rejected input must not be stored")
	}
}

// --- ScoreTool Tests ---

func TestScoreTool_KnownSource(t *testing.T) {
	h := newHarness(t)
	r := call(t, NewScoreTool(h.lab), map[string]interface{}{
		"source": "soy", "conc": 12.0, "fat": 3.0, "ph": 4.5, "stab": 0.5,
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	want, err := h.lab.Score(model.Features{Conc: 12, Fat: 3, PH: 4.5, Stab: 0.5, WHC: 4.5, Sol: 85}, "Soy")
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(r)
	if !strings.Contains(text, "Soy: ") || !strings.Contains(text, string(elicit.TierFor(want.Score))) {
		t.Errorf("score text missing source or tier:\n%s", text)
	}
	if strings.Contains(text, "not in the serving model") {
		t.Error("Soy is a known source")
	}
}

func TestScoreTool_UnknownSourceNeedsProperties(t *testing.T) {
	h := newHarness(t)
	tool := NewScoreTool(h.lab)
	args := map[string]interface{}{"source": "lupin", "conc": 10.0, "fat": 2.0, "ph": 6.0, "stab": 0.2}
	if r := call(t, tool, args); !r.IsError {
		t.Fatal("expected error without whc/solubility")
	}

	args["whc"] = 3.0
	args["solubility"] = 40.0
	r := call(t, tool, args)
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "not in the serving model") {
		t.Errorf("expected unknown-source note:\n%s", resultText(r))
	}
}

func TestScoreTool_MissingNumber(t *testing.T) {
	h := newHarness(t)
	r := call(t, NewScoreTool(h.lab), map[string]interface{}{"source": "soy", "conc": 10.0})
	if !r.IsError || !strings.Contains(resultText(r), "'fat'") {
		t.Errorf("expected 'fat' required error, got %s", resultText(r))
	}
}

// --- History Tool Tests ---

func TestHistoryTool_Empty(t *testing.T) {
	h := newHarness(t)
	text := resultText(call(t, NewHistoryTool(h.history), nil))
	if !strings.Contains(text, "empty") {
		t.Errorf("expected empty notice:\n%s", text)
	}
}

func TestHistoryTool_PinnedFirstAndLimit(t *testing.T) {
	h := newHarness(t)
	first := h.archiveSoy(t, "First")
	h.archiveSoy(t, "Second")
	call(t, NewPinTool(h.history), map[string]interface{}{"id": first})

	text := resultText(call(t, NewHistoryTool(h.history), nil))
	if strings.Index(text, "First") > strings.Index(text, "Second") {
		t.Errorf("pinned entry should list first:\n%s", text)
	}
	if !strings.Contains(text, "[pinned]") {
		t.Errorf("missing pin marker:\n%s", text)
	}

	limited := resultText(call(t, NewHistoryTool(h.history), map[string]interface{}{"limit": float64(1)}))
	if strings.Contains(limited, "Second") || !strings.Contains(limited, "(1 of 2)") {
		t.Errorf("limit not applied:\n%s", limited)
	}
}

func TestRecallTool(t *testing.T) {
	h := newHarness(t)
	id := h.archiveSoy(t, "Recall Me")
	text := resultText(call(t, NewRecallTool(h.history), map[string]interface{}{"id": id}))
	if !strings.Contains(text, "Recall Me") || !strings.Contains(text, `"profile"`) {
		t.Errorf("recall output incomplete:\n%s", text)
	}
}

func TestHistoryMutations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.archiveSoy(t, "")

	rec, _ := h.history.Get(ctx, id)
	if rec.Name != "Soy Formulation" {
		t.Errorf("default name = %q", rec.Name)
	}

	if r := call(t, NewRenameTool(h.history), map[string]interface{}{"id": id, "name": "Thick Soy"}); r.IsError {
		t.Fatalf("rename: %s", resultText(r))
	}
	rec, _ = h.history.Get(ctx, id)
	if rec.Name != "Thick Soy" {
		t.Errorf("renamed = %q", rec.Name)
	}

	pin := NewPinTool(h.history)
	if !strings.HasPrefix(resultText(call(t, pin, map[string]interface{}{"id": id})), "Pinned") {
		t.Error("first toggle should pin")
	}
	if !strings.HasPrefix(resultText(call(t, pin, map[string]interface{}{"id": id})), "Unpinned") {
		t.Error("second toggle should unpin")
	}

	if r := call(t, NewDeleteTool(h.history), map[string]interface{}{"id": id}); r.IsError {
		t.Fatalf("delete: %s", resultText(r))
	}
	if _, err := h.history.Get(ctx, id); err == nil {
		t.Error("record should be gone")
	}
}

func TestHistoryMutations_UnknownID(t *testing.T) {
	h := newHarness(t)
	args := map[string]interface{}{"id": "missing", "name": "x"}
	for _, tool := range []interface {
		Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		NewRecallTool(h.history),
		NewRenameTool(h.history),
		NewDeleteTool(h.history),
		NewPinTool(h.history),
	} {
		if r := call(t, tool, args); !r.IsError {
			t.Errorf("%T: expected not-found error", tool)
		}
	}
}

// --- Helper Tests ---

func TestFloatArg(t *testing.T) {
	req := makeReq(map[string]interface{}{"a": 1.5, "b": " 2.25 ", "c": "x", "d": true})
	if v, ok := floatArg(req, "a"); !ok || v != 1.5 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if v, ok := floatArg(req, "b"); !ok || v != 2.25 {
		t.Errorf("b = %v, %v", v, ok)
	}
	for _, k := range []string{"c", "d", "missing"} {
		if _, ok := floatArg(req, k); ok {
			t.Errorf("%s should not parse", k)
		}
	}
}
