// Package synth fabricates labeled texture examples from the ingredient
// table. The label is a deliberately synthetic proxy: a linear blend of the
// formulation inputs with isoelectric and solubility penalties, clamped to
// [0, 100] and blurred with unit Gaussian noise.
package synth

import (
	"fmt"
	"math/rand/v2"

	"github.com/HendryAvila/plantbot/internal/ingredients"
)

// DefaultCount is the number of examples drawn per training run.
const DefaultCount = 2000

// Sampling ranges and noise levels of the generator.
const (
	ConcMin, ConcMax = 2.0, 15.0
	FatMin, FatMax   = 0.5, 6.0
	PHMin, PHMax     = 3.8, 6.5
	StabMin, StabMax = 0.0, 1.2

	WHCNoise   = 0.2
	SolNoise   = 5.0
	ScoreNoise = 1.0
)

// Example is one synthetic formulation with its texture label.
type Example struct {
	Conc   float64 `json:"conc"`
	Fat    float64 `json:"fat"`
	PH     float64 `json:"ph"`
	Stab   float64 `json:"stab"`
	WHC    float64 `json:"whc"`
	Sol    float64 `json:"sol"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Generator draws examples from its random source. A Generator is not safe
// for concurrent use; training creates one per run.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded deterministically.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomGenerator returns a generator with a fresh random seed, so every
// training run resamples its dataset.
func NewRandomGenerator() *Generator {
	return NewGenerator(rand.Uint64())
}

// Generate draws n examples. Each draw picks a source uniformly from table,
// samples the formulation inputs, jitters the source's whc and solubility,
// and labels the result.
func (g *Generator) Generate(table ingredients.Table, n int) ([]Example, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("generating examples: empty ingredient table")
	}
	if n < 0 {
		return nil, fmt.Errorf("generating examples: negative count %d", n)
	}

	sources := table.Names()
	out := make([]Example, n)
	for i := range out {
		src := sources[g.rng.IntN(len(sources))]
		props := table[src]

		ex := Example{
			Conc:   g.uniform(ConcMin, ConcMax),
			Fat:    g.uniform(FatMin, FatMax),
			PH:     g.uniform(PHMin, PHMax),
			Stab:   g.uniform(StabMin, StabMax),
			WHC:    props.WHC + g.rng.NormFloat64()*WHCNoise,
			Sol:    props.Solubility + g.rng.NormFloat64()*SolNoise,
			Source: src,
		}
		ex.Score = Label(ex.Conc, ex.Fat, ex.PH, ex.Stab, ex.WHC, ex.Sol, g.rng.NormFloat64()*ScoreNoise)
		out[i] = ex
	}
	return out, nil
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// Label computes the texture score for one formulation. noise is added after
// the first clamp and the result is clamped again.
func Label(conc, fat, ph, stab, whc, sol, noise float64) float64 {
	score := 3.5*conc + 2.0*fat + 30*stab + 5.0*whc
	if ph < 4.4 && sol < 50 {
		score -= 20
	} else if ph < 4.4 {
		score -= 10
	}
	if sol > 80 {
		score += 5
	}
	score = clamp(score, 0, 100)
	score += noise
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
