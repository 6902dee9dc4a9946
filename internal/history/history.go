// Package history persists completed formulations.
//
// A Record is written once when a dialogue finishes and afterwards only its
// name and pin flag change. Three backends share the Store contract: a JSON
// document in a blob store (the legacy on-disk format), SQLite and Postgres.
package history

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// TimestampLayout is the layout of Record.Timestamp. It sorts
// lexicographically in time order.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("history: record not found")

// Record is one completed formulation. WHC and Sol are the ingredient
// values at selection time, not live references.
type Record struct {
	ID        string  `json:"id"`
	Pinned    bool    `json:"pinned"`
	Name      string  `json:"name"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
	Conc      float64 `json:"conc"`
	Fat       float64 `json:"fat"`
	PH        float64 `json:"ph"`
	Stab      float64 `json:"stab"`
	WHC       float64 `json:"whc"`
	Sol       float64 `json:"sol"`
	Score     float64 `json:"score"`
}

// Store defines the persistence interface for formulation history.
type Store interface {
	// Append stores rec and returns its id. A missing id is generated, a
	// blank name falls back to DefaultName, pinned defaults to false.
	Append(ctx context.Context, rec Record, name string) (string, error)
	// List returns every record in insertion order.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	// TogglePin flips the pin flag and returns the new value.
	TogglePin(ctx context.Context, id string) (bool, error)
	Close() error
}

// DefaultName is the display name of a record saved without one.
func DefaultName(source string) string {
	return source + " Formulation"
}

// prepare fills the defaults Append promises.
func prepare(rec Record, name string) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if n := strings.TrimSpace(name); n != "" {
		rec.Name = n
	} else if strings.TrimSpace(rec.Name) == "" {
		rec.Name = DefaultName(rec.Source)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = timeNow().Format(TimestampLayout)
	}
	return rec
}

func validName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", errors.New("history: name is required")
	}
	return n, nil
}

// Sorted returns a copy of records ordered for display: pinned first, then
// newest first.
func Sorted(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}
