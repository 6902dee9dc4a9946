package lab

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/HendryAvila/plantbot/internal/blob"
	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/model"
	"github.com/HendryAvila/plantbot/internal/synth"
)

var soyTen = model.Features{Conc: 10, Fat: 2, PH: 4.5, Stab: 0.5, WHC: 4.5, Sol: 85}

// gate can hold training runs at generator creation.
type gate struct {
	closed  atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) generator() *synth.Generator {
	if g.closed.Load() {
		g.entered <- struct{}{}
		<-g.release
	}
	return synth.NewGenerator(3)
}

func newTestLab(t *testing.T, async bool, g *gate) (*Lab, *model.Model) {
	t.Helper()
	opts := model.Options{Samples: 300, Trees: 6, Seed: 42}
	if g != nil {
		opts.NewGenerator = g.generator
	}
	m := model.New(opts, nil)
	blobs := blob.NewMemoryStore()
	l := New(ingredients.NewDocStore(blobs), history.NewDocStore(blobs), m, nil, Options{AsyncRetrain: async})
	if err := l.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return l, m
}

func TestBootstrap_SeedsAndTrains(t *testing.T) {
	l, m := newTestLab(t, false, nil)
	if !m.Trained() {
		t.Fatal("model should be trained after Bootstrap")
	}
	table, err := l.Ingredients(context.Background())
	if err != nil {
		t.Fatalf("Ingredients: %v", err)
	}
	if len(table) != 5 {
		t.Errorf("len(table) = %d, want 5 defaults", len(table))
	}
	if got := len(m.Status().Columns); got != 11 {
		t.Errorf("columns = %d, want 6 numeric + 5 sources", got)
	}
}

func TestAddIngredient_SyncRetrains(t *testing.T) {
	l, m := newTestLab(t, false, nil)
	ctx := context.Background()

	name, err := l.AddIngredient(ctx, "rICE", ingredients.Property{WHC: 2, Solubility: 55, Description: ingredients.CustomDescription})
	if err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if name != "Rice" {
		t.Errorf("name = %q, want Rice", name)
	}
	if v := m.Status().Version; v != 2 {
		t.Errorf("model version = %d, want 2", v)
	}
	p, err := l.Score(soyTen, "Rice")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if p.UnknownSource {
		t.Error("Rice should be a known source after retrain")
	}
	table, _ := l.Ingredients(ctx)
	if got := table["Rice"]; got.WHC != 2 || got.Solubility != 55 {
		t.Errorf("stored Rice = %+v", got)
	}
}

func TestAddIngredient_InvalidSkipsRetrain(t *testing.T) {
	l, m := newTestLab(t, false, nil)
	_, err := l.AddIngredient(context.Background(), "Rice", ingredients.Property{WHC: 2, Solubility: 140})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if v := m.Status().Version; v != 1 {
		t.Errorf("model version = %d, want 1 (no retrain)", v)
	}
}

func TestAddIngredient_AsyncRetrains(t *testing.T) {
	l, m := newTestLab(t, true, nil)
	if _, err := l.AddIngredient(context.Background(), "Hemp", ingredients.Property{WHC: 2.8, Solubility: 35}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	l.WaitIdle()
	if l.Retraining() {
		t.Error("Retraining should be false after WaitIdle")
	}
	if v := m.Status().Version; v != 2 {
		t.Errorf("model version = %d, want 2", v)
	}
	if p, _ := l.Score(soyTen, "Hemp"); p.UnknownSource {
		t.Error("Hemp should be known after background retrain")
	}
}

func TestTableChanged_AsyncCoalesces(t *testing.T) {
	g := newGate()
	l, m := newTestLab(t, true, g)
	ctx := context.Background()
	g.closed.Store(true)

	if _, err := l.AddIngredient(ctx, "Hemp", ingredients.Property{WHC: 2.8, Solubility: 35}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	<-g.entered
	if !l.Retraining() {
		t.Fatal("retrain should be running")
	}

	// Both land while the first run is blocked; they collapse into one rerun.
	for _, n := range []string{"Rice", "Lupin"} {
		if _, err := l.AddIngredient(ctx, n, ingredients.Property{WHC: 2, Solubility: 50}); err != nil {
			t.Fatalf("AddIngredient(%s): %v", n, err)
		}
	}
	// Serving snapshot is still the bootstrap one.
	if p, _ := l.Score(soyTen, "Hemp"); !p.UnknownSource {
		t.Error("Hemp should be unknown while retrain is blocked")
	}

	g.closed.Store(false)
	close(g.release)
	l.WaitIdle()

	if v := m.Status().Version; v != 3 {
		t.Errorf("model version = %d, want 3 (bootstrap, first run, one rerun)", v)
	}
	for _, n := range []string{"Hemp", "Rice", "Lupin"} {
		if p, _ := l.Score(soyTen, n); p.UnknownSource {
			t.Errorf("%s should be known after rerun", n)
		}
	}
}

type failingIngredients struct {
	ingredients.Store
	err error
}

func (f failingIngredients) Save(context.Context, string, ingredients.Property) error { return f.err }

func TestAddIngredient_PersistenceErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	m := model.New(model.Options{Samples: 100, Trees: 2}, nil)
	blobs := blob.NewMemoryStore()
	l := New(failingIngredients{Store: ingredients.NewDocStore(blobs), err: boom}, history.NewDocStore(blobs), m, nil, Options{})

	_, err := l.AddIngredient(context.Background(), "Rice", ingredients.Property{WHC: 2, Solubility: 55})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if m.Trained() {
		t.Error("model should not train after a failed save")
	}
}

func TestAddIngredient_RetrainFailureKeepsSave(t *testing.T) {
	l, m := newTestLab(t, false, nil)
	before := m.Version()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	name, err := l.AddIngredient(ctx, "rice", ingredients.Property{WHC: 2, Solubility: 55})
	if !errors.Is(err, ErrRetrainFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrRetrainFailed wrapping context.Canceled", err)
	}
	if name != "Rice" {
		t.Errorf("name = %q, want Rice", name)
	}

	table, err := l.Ingredients(context.Background())
	if err != nil {
		t.Fatalf("Ingredients: %v", err)
	}
	if _, ok := table["Rice"]; !ok {
		t.Error("Rice should be saved even though training failed")
	}
	if m.Version() != before {
		t.Errorf("model version = %d, want %d", m.Version(), before)
	}
	st, err := l.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.LastError == "" {
		t.Error("status should report the failed retrain")
	}
}

func TestArchive(t *testing.T) {
	l, _ := newTestLab(t, false, nil)
	ctx := context.Background()
	id, err := l.Archive(ctx, history.Record{Source: "Soy", Conc: 10, Score: 82}, "", "premium")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	r, err := l.History().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Name != "Soy Formulation" || r.Pinned {
		t.Errorf("archived record = %+v", r)
	}
}

func TestStatus(t *testing.T) {
	l, _ := newTestLab(t, true, nil)
	st, err := l.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Model.Trained || !st.Async || st.Retraining || len(st.Ingredients) != 5 {
		t.Errorf("status = %+v", st)
	}
}

func TestConcurrentSyncAdds(t *testing.T) {
	l, m := newTestLab(t, false, nil)
	var wg sync.WaitGroup
	for _, n := range []string{"Rice", "Hemp", "Lupin", "Chickpea"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.AddIngredient(context.Background(), n, ingredients.Property{WHC: 2, Solubility: 50}); err != nil {
				t.Errorf("AddIngredient(%s): %v", n, err)
			}
		}()
	}
	wg.Wait()
	if v := m.Status().Version; v != 5 {
		t.Errorf("model version = %d, want 5", v)
	}
	if got := len(m.Status().Columns); got != 15 {
		t.Errorf("columns = %d, want 6 numeric + 9 sources", got)
	}
}
