// Package model trains and serves the texture scoring model.
//
// Training resamples a synthetic dataset from the ingredient table, lays it
// out with a Schema (numeric columns plus one indicator per ingredient),
// standardizes it and fits a random forest. The result is an immutable
// snapshot that is published atomically: a prediction sees either the
// previous model or the new one, never a mix.
package model

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/synth"
	"github.com/HendryAvila/plantbot/internal/telemetry"
)

var (
	// ErrUntrained is returned by Score before the first successful training.
	ErrUntrained = errors.New("model is not trained")
	// ErrTrainingInProgress is returned by Train while another training runs.
	ErrTrainingInProgress = errors.New("model training already in progress")
)

// Options configure training. Zero values fall back to DefaultOptions.
type Options struct {
	Samples  int
	Trees    int
	Seed     uint64
	MaxDepth int
	Workers  int

	// NewGenerator supplies the dataset generator for each run. The default
	// reseeds randomly, so every run sees a fresh dataset.
	NewGenerator func() *synth.Generator
}

// DefaultOptions mirrors the reference configuration: 2000 rows, 100 trees,
// forest seed 42, fully grown trees.
func DefaultOptions() Options {
	return Options{
		Samples:      synth.DefaultCount,
		Trees:        100,
		Seed:         42,
		NewGenerator: synth.NewRandomGenerator,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Samples <= 0 {
		o.Samples = d.Samples
	}
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.NewGenerator == nil {
		o.NewGenerator = d.NewGenerator
	}
	return o
}

// snapshot is one trained model. Never mutated after publication.
type snapshot struct {
	schema    Schema
	scaler    Scaler
	forest    *Forest
	version   uint64
	rows      int
	trainedAt time.Time
}

// Model owns the current snapshot and the training guard.
type Model struct {
	opts    Options
	metrics *telemetry.Metrics

	current  atomic.Pointer[snapshot]
	versions atomic.Uint64
	training sync.Mutex
}

// New creates an untrained model. metrics may be nil.
func New(opts Options, metrics *telemetry.Metrics) *Model {
	return &Model{opts: opts.withDefaults(), metrics: metrics}
}

// Train regenerates the dataset from table and fits a fresh snapshot. Only
// one training runs at a time; a concurrent call gets ErrTrainingInProgress.
// On failure the previous snapshot keeps serving.
func (m *Model) Train(ctx context.Context, table ingredients.Table) error {
	if !m.training.TryLock() {
		m.metrics.ObserveTraining("busy", 0, 0)
		return ErrTrainingInProgress
	}
	defer m.training.Unlock()

	start := time.Now()
	snap, err := m.fit(ctx, table)
	if err != nil {
		m.metrics.ObserveTraining("error", time.Since(start), 0)
		return err
	}

	snap.version = m.versions.Add(1)
	snap.trainedAt = time.Now().UTC()
	m.current.Store(snap)

	elapsed := time.Since(start)
	m.metrics.ObserveTraining("ok", elapsed, snap.version)
	log.Printf("model: trained v%d on %d rows, %d columns, %d trees in %s (schema %s)",
		snap.version, snap.rows, snap.schema.Width(), len(snap.forest.Trees), elapsed.Round(time.Millisecond), snap.schema.Version)
	return nil
}

func (m *Model) fit(ctx context.Context, table ingredients.Table) (*snapshot, error) {
	examples, err := m.opts.NewGenerator().Generate(table, m.opts.Samples)
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}

	schema := NewSchema(table.Names())
	X := make([][]float64, len(examples))
	y := make([]float64, len(examples))
	for i, ex := range examples {
		X[i], _ = schema.Vector(exampleFeatures(ex), ex.Source)
		y[i] = ex.Score
	}

	scaler := FitScaler(X, schema.Width())
	for i := range X {
		X[i] = scaler.Transform(X[i])
	}

	forest, err := FitForest(ctx, X, y, ForestParams{
		Trees:    m.opts.Trees,
		Seed:     m.opts.Seed,
		MaxDepth: m.opts.MaxDepth,
		Workers:  m.opts.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}

	return &snapshot{schema: schema, scaler: scaler, forest: forest, rows: len(examples)}, nil
}

// Prediction is the result of scoring one formulation.
type Prediction struct {
	Score         float64 `json:"score"`
	ModelVersion  uint64  `json:"model_version"`
	SchemaVersion string  `json:"schema_version"`
	// UnknownSource is set when the source matched no indicator column and
	// the one-hot block was zero-filled.
	UnknownSource bool `json:"unknown_source,omitempty"`
}

// Score predicts the texture score of f made with source.
func (m *Model) Score(f Features, source string) (Prediction, error) {
	snap := m.current.Load()
	if snap == nil {
		return Prediction{}, ErrUntrained
	}

	row, known := snap.schema.Vector(f, source)
	if err := snap.schema.Check(row); err != nil {
		return Prediction{}, err
	}
	if !known {
		log.Printf("model: source %q is not in schema %s, one-hot columns zero-filled", source, snap.schema.Version)
	}
	m.metrics.ObservePrediction(known)

	return Prediction{
		Score:         snap.forest.Predict(snap.scaler.Transform(row)),
		ModelVersion:  snap.version,
		SchemaVersion: snap.schema.Version,
		UnknownSource: !known,
	}, nil
}

// Predict is Score without the error: an untrained model scores 0.
func (m *Model) Predict(f Features, source string) float64 {
	p, err := m.Score(f, source)
	if err != nil {
		return 0
	}
	return p.Score
}

// Trained reports whether a snapshot is serving.
func (m *Model) Trained() bool { return m.current.Load() != nil }

// Version returns the serving snapshot's version, 0 when untrained.
func (m *Model) Version() uint64 {
	if snap := m.current.Load(); snap != nil {
		return snap.version
	}
	return 0
}

// Schema returns the serving column layout. ok is false when untrained.
func (m *Model) Schema() (s Schema, ok bool) {
	snap := m.current.Load()
	if snap == nil {
		return Schema{}, false
	}
	s = snap.schema
	s.Columns = slices.Clone(s.Columns)
	s.Sources = slices.Clone(s.Sources)
	return s, true
}

// Training reports whether a training run currently holds the guard.
func (m *Model) Training() bool {
	if m.training.TryLock() {
		m.training.Unlock()
		return false
	}
	return true
}

// Status describes the serving snapshot.
type Status struct {
	Trained       bool      `json:"trained"`
	Training      bool      `json:"training"`
	Version       uint64    `json:"version"`
	SchemaVersion string    `json:"schema_version,omitempty"`
	Columns       []string  `json:"columns,omitempty"`
	Rows          int       `json:"rows,omitempty"`
	Trees         int       `json:"trees,omitempty"`
	TrainedAt     time.Time `json:"trained_at,omitzero"`
}

// Status returns a copy of the serving snapshot's metadata.
func (m *Model) Status() Status {
	st := Status{Training: m.Training()}
	snap := m.current.Load()
	if snap == nil {
		return st
	}
	st.Trained = true
	st.Version = snap.version
	st.SchemaVersion = snap.schema.Version
	st.Columns = append([]string(nil), snap.schema.Columns...)
	st.Rows = snap.rows
	st.Trees = len(snap.forest.Trees)
	st.TrainedAt = snap.trainedAt
	return st
}
