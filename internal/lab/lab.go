// Package lab ties the ingredient table, the scoring model and the history
// together. Changing the table raises a retrain request; in async mode the
// request runs in the background and at most one follow-up run is queued.
package lab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/model"
	"github.com/HendryAvila/plantbot/internal/telemetry"
)

// ErrRetrainFailed wraps a training error raised after the ingredient was
// already saved. The table change stands; the previous model keeps serving.
var ErrRetrainFailed = errors.New("ingredient saved but retrain failed")

// Options configure a Lab.
type Options struct {
	// AsyncRetrain moves training off the caller's goroutine.
	AsyncRetrain bool
}

// Lab is the facade the dialogue and the MCP tools talk to.
type Lab struct {
	ingredients ingredients.Store
	history     history.Store
	model       *model.Model
	metrics     *telemetry.Metrics
	async       bool

	// train serializes synchronous retrains.
	train sync.Mutex

	mu      sync.Mutex
	idle    *sync.Cond
	running bool
	dirty   bool
	lastErr error
}

// New creates a Lab. metrics may be nil.
func New(ing ingredients.Store, hist history.Store, m *model.Model, metrics *telemetry.Metrics, opts Options) *Lab {
	l := &Lab{
		ingredients: ing,
		history:     hist,
		model:       m,
		metrics:     metrics,
		async:       opts.AsyncRetrain,
	}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Bootstrap loads (seeding if needed) the ingredient table and trains the
// model before the first request. It always runs synchronously.
func (l *Lab) Bootstrap(ctx context.Context) error {
	if err := l.retrainNow(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// Ingredients returns the current table.
func (l *Lab) Ingredients(ctx context.Context) (ingredients.Table, error) {
	return l.ingredients.Load(ctx)
}

// AddIngredient upserts an ingredient and retrains. It returns the
// normalized name the ingredient was stored under. A persistence failure is
// returned before any retrain is attempted, with an empty name. A training
// failure after the save is wrapped in ErrRetrainFailed and still returns
// the name.
func (l *Lab) AddIngredient(ctx context.Context, name string, p ingredients.Property) (string, error) {
	key := ingredients.Normalize(name)
	if err := l.ingredients.Save(ctx, key, p); err != nil {
		return "", err
	}
	log.Printf("lab: ingredient %q saved (whc %.2f, solubility %.1f)", key, p.WHC, p.Solubility)
	if err := l.TableChanged(ctx); err != nil {
		return key, fmt.Errorf("%w: %w", ErrRetrainFailed, err)
	}
	return key, nil
}

// TableChanged is the "ingredient table changed" event. In sync mode it
// trains on the caller's goroutine and returns the training error. In async
// mode it returns immediately; a request that arrives while a run is in
// flight marks the table dirty so one more run picks up the latest table.
func (l *Lab) TableChanged(ctx context.Context) error {
	if !l.async {
		err := l.retrainNow(ctx)
		l.mu.Lock()
		l.lastErr = err
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	if l.running {
		l.dirty = true
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.mu.Unlock()

	go l.retrainLoop(context.WithoutCancel(ctx))
	return nil
}

func (l *Lab) retrainLoop(ctx context.Context) {
	for {
		err := l.retrainNow(ctx)
		if err != nil {
			log.Printf("WARNING: lab: background retrain failed: %v", err)
		}

		l.mu.Lock()
		l.lastErr = err
		if !l.dirty {
			l.running = false
			l.idle.Broadcast()
			l.mu.Unlock()
			return
		}
		l.dirty = false
		l.mu.Unlock()
	}
}

func (l *Lab) retrainNow(ctx context.Context) error {
	l.train.Lock()
	defer l.train.Unlock()

	table, err := l.ingredients.Load(ctx)
	if err != nil {
		return err
	}
	return l.model.Train(ctx, table)
}

// WaitIdle blocks until no background retrain is running or queued.
func (l *Lab) WaitIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.running {
		l.idle.Wait()
	}
}

// Retraining reports whether a background retrain is running.
func (l *Lab) Retraining() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Score predicts with the serving model snapshot.
func (l *Lab) Score(f model.Features, source string) (model.Prediction, error) {
	return l.model.Score(f, source)
}

// Archive appends a finished formulation to history and counts it by tier.
func (l *Lab) Archive(ctx context.Context, rec history.Record, name, tier string) (string, error) {
	id, err := l.history.Append(ctx, rec, name)
	if err != nil {
		return "", err
	}
	l.metrics.ObserveFormulation(tier)
	return id, nil
}

// History exposes the history store for listing and editing.
func (l *Lab) History() history.Store { return l.history }

// Status summarizes the lab for status displays.
type Status struct {
	Model       model.Status `json:"model"`
	Ingredients []string     `json:"ingredients"`
	Async       bool         `json:"async_retrain"`
	Retraining  bool         `json:"retraining"`
	LastError   string       `json:"last_error,omitempty"`
}

// Status reports the serving model and the current table.
func (l *Lab) Status(ctx context.Context) (Status, error) {
	table, err := l.ingredients.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Model:       l.model.Status(),
		Ingredients: table.Names(),
		Async:       l.async,
	}
	l.mu.Lock()
	st.Retraining = l.running
	if l.lastErr != nil {
		st.LastError = l.lastErr.Error()
	}
	l.mu.Unlock()
	return st, nil
}
