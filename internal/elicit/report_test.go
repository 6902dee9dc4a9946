package elicit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTierFor_StrictBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{100, TierPremium},
		{80.0001, TierPremium},
		{80, TierStandard},
		{60.5, TierStandard},
		{60, TierWeak},
		{40.01, TierWeak},
		{40, TierFailure},
		{0, TierFailure},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestProfileFor(t *testing.T) {
	p := ProfileFor(95, 0.5, 10)
	if p.Texture != 95 || p.Stability != 100 || p.Cost != 50 || p.Nutrition != 80 {
		t.Errorf("profile = %+v", p)
	}
	p = ProfileFor(50, 0.4, 25)
	if p.Stability != 35 || p.Cost != 0 || p.Nutrition != 100 {
		t.Errorf("profile = %+v", p)
	}
}

func TestReportText(t *testing.T) {
	r := Report{RecordID: "abc", Name: "Soy Formulation", Source: "Rice", Score: 72.5, Tier: TierStandard, UnknownSource: true}
	text := r.Text()
	for _, want := range []string{"72.50 / 100", "Standard Viscosity", "Rice is newer", `"Soy Formulation"`, "id abc"} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
}

func TestState_NamesAndJSON(t *testing.T) {
	for s := Idle; s <= DefineSol; s++ {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%d): %v", s, err)
		}
		var back State
		if err := json.Unmarshal(b, &back); err != nil || back != s {
			t.Errorf("round trip %s = %v, %v", b, back, err)
		}
	}
	if AskPH.String() != "ASK_PH" {
		t.Errorf("AskPH = %q", AskPH.String())
	}
	if State(42).Valid() {
		t.Error("State(42) should be invalid")
	}
	if _, err := json.Marshal(State(42)); err == nil {
		t.Error("marshaling an invalid state should fail")
	}
}

func TestNext(t *testing.T) {
	for from, want := range map[State]State{AskConc: AskFat, AskFat: AskPH, AskPH: AskStab} {
		if got, ok := next(from); !ok || got != want {
			t.Errorf("next(%v) = %v, %v", from, got, ok)
		}
	}
	if _, ok := next(AskStab); ok {
		t.Error("AskStab has no successor")
	}
}

func TestSessions(t *testing.T) {
	r := NewSessions()
	a := r.Open("")
	if a.ID == "" || a.State != Idle {
		t.Fatalf("new session = %+v", a.View())
	}
	if got := r.Open(a.ID); got != a {
		t.Error("Open(existing id) should return the same session")
	}
	named := r.Open("client-7")
	if named.ID != "client-7" {
		t.Errorf("ID = %q, want client-7", named.ID)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	r.Delete(a.ID)
	if _, ok := r.Get(a.ID); ok {
		t.Error("deleted session still present")
	}
}

func TestSessions_EvictsIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })

	r := NewSessionsTTL(10 * time.Minute)
	stale := r.Open("stale")
	busy := r.Open("busy")
	now = now.Add(5 * time.Minute)
	fresh := r.Open("fresh")

	busy.mu.Lock()
	now = now.Add(6 * time.Minute)
	r.Open("trigger")
	busy.mu.Unlock()

	if _, ok := r.Get(stale.ID); ok {
		t.Error("session idle for 11m should be evicted")
	}
	if _, ok := r.Get(busy.ID); !ok {
		t.Error("session mid-turn should be kept")
	}
	if got, ok := r.Get(fresh.ID); !ok || got != fresh {
		t.Error("session idle for 6m should be kept")
	}

	// A turn refreshes UpdatedAt and keeps the session alive.
	m := NewMachine(&fakeLab{table: soyOnly()}, nil, nil)
	if _, err := m.Step(context.Background(), fresh, "hello"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(9 * time.Minute)
	r.Open("")
	if _, ok := r.Get(fresh.ID); !ok {
		t.Error("recently stepped session should be kept")
	}
	if _, ok := r.Get(busy.ID); ok {
		t.Error("busy session should be evicted once it is idle")
	}

	keep := NewSessionsTTL(0)
	old := keep.Open("old")
	now = now.Add(24 * time.Hour)
	keep.Open("")
	if _, ok := keep.Get(old.ID); !ok {
		t.Error("zero ttl should disable eviction")
	}
}
