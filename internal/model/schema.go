package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/HendryAvila/plantbot/internal/synth"
)

// sourcePrefix names the one-hot indicator columns: "source_Soy".
const sourcePrefix = "source_"

// NumericColumns are the leading columns of every feature vector, in order.
var NumericColumns = []string{"conc", "fat", "ph", "stab", "whc", "sol"}

// Features are the numeric inputs of one formulation.
type Features struct {
	Conc float64 `json:"conc"`
	Fat  float64 `json:"fat"`
	PH   float64 `json:"ph"`
	Stab float64 `json:"stab"`
	WHC  float64 `json:"whc"`
	Sol  float64 `json:"sol"`
}

func (f Features) values() [6]float64 {
	return [6]float64{f.Conc, f.Fat, f.PH, f.Stab, f.WHC, f.Sol}
}

// Schema is the feature layout fixed at training time: numeric columns
// followed by one indicator per source, sources sorted. Inference builds
// vectors only through the schema of the snapshot it predicts with.
type Schema struct {
	Columns []string `json:"columns"`
	Sources []string `json:"sources"`
	Version string   `json:"version"`
}

// NewSchema derives the layout for the given source names.
func NewSchema(sources []string) Schema {
	srcs := slices.Clone(sources)
	slices.Sort(srcs)
	srcs = slices.Compact(srcs)

	cols := make([]string, 0, len(NumericColumns)+len(srcs))
	cols = append(cols, NumericColumns...)
	for _, s := range srcs {
		cols = append(cols, sourcePrefix+s)
	}

	sum := sha256.Sum256([]byte(strings.Join(cols, "\x00")))
	return Schema{
		Columns: cols,
		Sources: srcs,
		Version: hex.EncodeToString(sum[:])[:12],
	}
}

// Width is the number of columns.
func (s Schema) Width() int { return len(s.Columns) }

// Vector lays out f and the one-hot encoding of source. known is false when
// source matches no indicator column; every indicator is then zero.
func (s Schema) Vector(f Features, source string) (row []float64, known bool) {
	row = make([]float64, s.Width())
	vals := f.values()
	copy(row, vals[:])

	if i, ok := slices.BinarySearch(s.Sources, source); ok {
		row[len(NumericColumns)+i] = 1
		known = true
	}
	return row, known
}

// Check rejects a row that does not match the schema width.
func (s Schema) Check(row []float64) error {
	if len(row) != s.Width() {
		return fmt.Errorf("feature vector has %d columns, schema %s expects %d", len(row), s.Version, s.Width())
	}
	return nil
}

func exampleFeatures(ex synth.Example) Features {
	return Features{Conc: ex.Conc, Fat: ex.Fat, PH: ex.PH, Stab: ex.Stab, WHC: ex.WHC, Sol: ex.Sol}
}
