package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/plantbot/internal/history"
)

// run executes the root command with a fresh data dir and a small model.
func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	full := append([]string{}, args...)
	full = append(full, "--data-dir", dataDir, "--storage", "fs", "--samples", "300", "--trees", "6")
	root.SetArgs(full)
	root.SetIn(strings.NewReader(stdin))
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, dataDir, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, stdin, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func listRecords(t *testing.T, dir string) []history.Record {
	t.Helper()
	out := mustRun(t, dir, "", "history", "list", "--json")
	var records []history.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("history list --json: %v\n%s", err, out)
	}
	return records
}

const soySession = "new\nsoy\n12\n3\n4.5\n0.5\nMorning Soy\nquit\n"

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	want := map[string]bool{"serve": false, "chat": false, "score": false, "ingredients": false, "history": false, "version": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"data-dir", "storage", "history", "samples", "trees", "seed", "async-retrain"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := NewServeCmd(&globalOptions{})
	if cmd.Use != "serve" || cmd.Flags().Lookup("metrics-addr") == nil {
		t.Errorf("serve command = %q, metrics-addr flag missing?", cmd.Use)
	}
}

func TestVersionCmd(t *testing.T) {
	out := mustRun(t, t.TempDir(), "", "version")
	if !strings.HasPrefix(out, "plantbot dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestIngredients_ListSeedsDefaults(t *testing.T) {
	out := mustRun(t, t.TempDir(), "", "ingredients", "list")
	for _, name := range []string{"Almond", "Fava", "Oat", "Pea", "Soy"} {
		if !strings.Contains(out, name) {
			t.Errorf("list missing %s:\n%s", name, out)
		}
	}
}

func TestIngredients_AddThenList(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "", "ingredients", "add", "rice", "--whc", "2", "--sol", "55")
	if !strings.Contains(out, "Saved Rice.") {
		t.Errorf("add output = %q", out)
	}
	out = mustRun(t, dir, "", "ingredients", "list", "--json")
	if !strings.Contains(out, `"Rice"`) || !strings.Contains(out, "User customized.") {
		t.Errorf("Rice not listed:\n%s", out)
	}
}

func TestIngredients_AddRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "", "ingredients", "add", "rice", "--whc", "2", "--sol", "150"); err == nil {
		t.Fatal("expected error for solubility 150")
	}
	if _, err := run(t, dir, "", "ingredients", "add", "rice", "--whc", "2"); err == nil {
		t.Fatal("expected error for missing --sol")
	}
}

func TestChat_ArchivesNamedFormulation(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, soySession, "chat")
	if !strings.Contains(out, "Recipe name [Soy Formulation]:") {
		t.Errorf("chat should ask for the recipe name:\n%s", out)
	}
	if !strings.Contains(out, "/ 100") {
		t.Errorf("chat should print the report:\n%s", out)
	}

	records := listRecords(t, dir)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Name != "Morning Soy" || r.Source != "Soy" || r.Conc != 12 || r.Fat != 3 || r.PH != 4.5 || r.Stab != 0.5 {
		t.Errorf("record = %+v", r)
	}
}

func TestChat_BlankNameUsesDefault(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "new\npea\n10\n2\n6.5\n0.2\n\nquit\n", "chat")
	records := listRecords(t, dir)
	if len(records) != 1 || records[0].Name != "Pea Formulation" {
		t.Errorf("records = %+v", records)
	}
}

func TestChat_EOFEndsSession(t *testing.T) {
	if _, err := run(t, t.TempDir(), "hello\n", "chat"); err != nil {
		t.Errorf("EOF should end chat cleanly: %v", err)
	}
}

func TestHistory_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, soySession, "chat")
	id := listRecords(t, dir)[0].ID

	if out := mustRun(t, dir, "", "history", "pin", id); !strings.HasPrefix(out, "Pinned") {
		t.Errorf("pin output = %q", out)
	}
	mustRun(t, dir, "", "history", "rename", id, "Thick Soy")
	r := listRecords(t, dir)[0]
	if !r.Pinned || r.Name != "Thick Soy" {
		t.Errorf("record = %+v", r)
	}

	table := mustRun(t, dir, "", "history", "list")
	if !strings.Contains(table, "Thick Soy") || !strings.Contains(table, id) {
		t.Errorf("table output:\n%s", table)
	}

	mustRun(t, dir, "", "history", "delete", id)
	if got := listRecords(t, dir); len(got) != 0 {
		t.Errorf("records after delete = %+v", got)
	}
}

func TestHistory_UnknownID(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "history", "pin", "missing")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHistory_EmptyList(t *testing.T) {
	out := mustRun(t, t.TempDir(), "", "history", "list")
	if !strings.Contains(out, "No formulations yet") {
		t.Errorf("empty list output = %q", out)
	}
}

func TestHistoryFlag_SelectsSQLite(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "", "history", "list", "--history", "sqlite")
	if _, err := os.Stat(filepath.Join(dir, history.SQLiteFile)); err != nil {
		t.Errorf("sqlite file not created: %v", err)
	}
}

func TestScore_KnownSource(t *testing.T) {
	out := mustRun(t, t.TempDir(), "", "score", "--source", "soy", "--conc", "12", "--fat", "3", "--ph", "4.5", "--stab", "0.5")
	if !strings.HasPrefix(out, "Soy: ") || !strings.Contains(out, "Texture") {
		t.Errorf("score output:\n%s", out)
	}
	if strings.Contains(out, "not in the serving model") {
		t.Error("Soy is known")
	}
}

func TestScore_UnknownSource(t *testing.T) {
	dir := t.TempDir()
	args := []string{"score", "--source", "lupin", "--conc", "10", "--fat", "2", "--ph", "6", "--stab", "0.2"}
	if _, err := run(t, dir, "", args...); err == nil {
		t.Fatal("expected error without --whc/--sol")
	}
	out := mustRun(t, dir, "", append(args, "--whc", "3", "--sol", "40")...)
	if !strings.Contains(out, "Lupin: ") || !strings.Contains(out, "not in the serving model") {
		t.Errorf("score output:\n%s", out)
	}
}

func TestLoadConfig_BadDriver(t *testing.T) {
	if _, err := run(t, t.TempDir(), "", "history", "list", "--history", "mongo"); err == nil {
		t.Fatal("expected error for unknown history driver")
	}
}
