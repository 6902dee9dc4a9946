// Package elicit runs the guided formulation dialogue.
//
// A Session walks IDLE -> ASK_PROTEIN -> ASK_CONC -> ASK_FAT -> ASK_PH ->
// ASK_STAB and is finalized back to IDLE, with an ingredient-authoring
// branch DEFINE_WHC -> DEFINE_SOL -> IDLE reachable from IDLE and
// ASK_PROTEIN. Invalid input never advances the state and never writes into
// the draft; the same step can be retried any number of times.
package elicit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/lab"
	"github.com/HendryAvila/plantbot/internal/model"
	"github.com/HendryAvila/plantbot/internal/telemetry"
)

// Recoverable input errors, reported in Reply.Err.
var (
	ErrInvalidNumber     = errors.New("input is not a number")
	ErrUnknownIngredient = errors.New("unknown ingredient")
	ErrOutOfRange        = errors.New("value out of range")
)

// Lab is what the dialogue needs from the scoring engine.
type Lab interface {
	Ingredients(ctx context.Context) (ingredients.Table, error)
	AddIngredient(ctx context.Context, name string, p ingredients.Property) (string, error)
	Retraining() bool
	Score(f model.Features, source string) (model.Prediction, error)
	Archive(ctx context.Context, rec history.Record, name, tier string) (string, error)
}

// Namer supplies a display name when a formulation is finalized. A blank
// name falls back to "<Source> Formulation".
type Namer interface {
	Name(ctx context.Context, d Draft) (string, error)
}

// NamerFunc adapts a function to Namer.
type NamerFunc func(ctx context.Context, d Draft) (string, error)

func (f NamerFunc) Name(ctx context.Context, d Draft) (string, error) { return f(ctx, d) }

// Reply is the outcome of one dialogue turn.
type Reply struct {
	Text  string `json:"text"`
	State State  `json:"state"`
	// Err is set when the input was rejected; the state did not change.
	Err    error   `json:"-"`
	Report *Report `json:"report,omitempty"`
}

// Machine applies dialogue turns to sessions.
type Machine struct {
	lab     Lab
	namer   Namer
	metrics *telemetry.Metrics
}

// NewMachine creates a Machine. namer and metrics may be nil.
func NewMachine(l Lab, namer Namer, metrics *telemetry.Metrics) *Machine {
	return &Machine{lab: l, namer: namer, metrics: metrics}
}

// Step applies one user input to s. The returned error is reserved for
// storage and scoring failures; on error the session is left unchanged.
func (m *Machine) Step(ctx context.Context, s *Session, input string) (Reply, error) {
	return m.StepNamed(ctx, s, input, "")
}

// StepNamed is Step with a display name to use if this turn finalizes the
// formulation. A blank name defers to the Namer.
func (m *Machine) StepNamed(ctx context.Context, s *Session, input, name string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.State
	reply, err := m.step(ctx, s, strings.TrimSpace(input), name)
	s.UpdatedAt = timeNow()
	reply.State = s.State

	outcome := "advanced"
	switch {
	case err != nil:
		outcome = "error"
	case reply.Err != nil:
		outcome = "rejected"
	case s.State == from && reply.Report == nil:
		outcome = "ignored"
	}
	m.metrics.ObserveStep(from.String(), outcome)
	return reply, err
}

func (m *Machine) step(ctx context.Context, s *Session, input, name string) (Reply, error) {
	switch s.State {
	case Idle:
		if strings.Contains(strings.ToLower(input), "new") {
			return m.startFormulation(ctx, s)
		}
		if ing, ok := addIntent(input); ok {
			return startAuthoring(s, ing), nil
		}
		return Reply{Text: msgIdleHint}, nil

	case AskProtein:
		table, err := m.lab.Ingredients(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("loading ingredients: %w", err)
		}
		if source, props, ok := table.Lookup(input); ok {
			s.Draft = Draft{Source: source, Props: props}
			s.State = AskConc
			return Reply{Text: fmt.Sprintf(msgAskConc, source)}, nil
		}
		if ing, ok := addIntent(input); ok {
			return startAuthoring(s, ing), nil
		}
		return Reply{
			Text: fmt.Sprintf(msgUnknownProtein, input, strings.Join(table.Names(), ", ")),
			Err:  fmt.Errorf("%w: %q", ErrUnknownIngredient, input),
		}, nil

	case DefineWHC:
		v, rejected := parseNumber(input)
		if rejected != nil {
			return *rejected, nil
		}
		if v < 0 {
			return outOfRange((ingredients.Property{WHC: v}).Validate()), nil
		}
		s.PendingWHC = v
		s.State = DefineSol
		return Reply{Text: msgDefineSol}, nil

	case DefineSol:
		v, rejected := parseNumber(input)
		if rejected != nil {
			return *rejected, nil
		}
		prop := ingredients.Property{WHC: s.PendingWHC, Solubility: v, Description: ingredients.CustomDescription}
		if err := prop.Validate(); err != nil {
			return outOfRange(err), nil
		}
		stored, err := m.lab.AddIngredient(ctx, s.PendingName, prop)
		if err != nil && !errors.Is(err, lab.ErrRetrainFailed) {
			return Reply{}, fmt.Errorf("adding ingredient %q: %w", s.PendingName, err)
		}
		s.reset()
		if err != nil {
			log.Printf("WARNING: elicit: %v", err)
			return Reply{Text: fmt.Sprintf(msgSyncFailed, stored, stored)}, nil
		}
		if m.lab.Retraining() {
			return Reply{Text: fmt.Sprintf(msgSyncedAsync, stored, stored)}, nil
		}
		return Reply{Text: fmt.Sprintf(msgSynced, stored)}, nil

	case AskConc, AskFat, AskPH:
		v, rejected := parseNumber(input)
		if rejected != nil {
			return *rejected, nil
		}
		*s.Draft.field(s.State) = &v
		nxt, _ := next(s.State)
		s.State = nxt
		return Reply{Text: prompts[nxt]}, nil

	case AskStab:
		v, rejected := parseNumber(input)
		if rejected != nil {
			return *rejected, nil
		}
		return m.finalize(ctx, s, v, name)

	default:
		bad := s.State
		s.reset()
		return Reply{}, fmt.Errorf("session %s: invalid state %v", s.ID, bad)
	}
}

var prompts = map[State]string{
	AskFat:  msgAskFat,
	AskPH:   msgAskPH,
	AskStab: msgAskStab,
}

func (m *Machine) startFormulation(ctx context.Context, s *Session) (Reply, error) {
	table, err := m.lab.Ingredients(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("loading ingredients: %w", err)
	}
	s.reset()
	s.State = AskProtein
	return Reply{Text: msgAskProtein(table)}, nil
}

func startAuthoring(s *Session, name string) Reply {
	s.reset()
	s.PendingName = ingredients.Normalize(name)
	s.State = DefineWHC
	return Reply{Text: fmt.Sprintf(msgDefineWHC, s.PendingName)}
}

// finalize scores the completed draft, archives it and returns the session
// to Idle. The draft is only written once every step has succeeded.
func (m *Machine) finalize(ctx context.Context, s *Session, stab float64, name string) (Reply, error) {
	d := s.Draft
	if d.Conc == nil || d.Fat == nil || d.PH == nil {
		bad := s.State
		s.reset()
		return Reply{}, fmt.Errorf("session %s: incomplete draft at %v", s.ID, bad)
	}
	d.Stab = &stab

	pred, err := m.lab.Score(model.Features{
		Conc: *d.Conc,
		Fat:  *d.Fat,
		PH:   *d.PH,
		Stab: stab,
		WHC:  d.Props.WHC,
		Sol:  d.Props.Solubility,
	}, d.Source)
	untrained := errors.Is(err, model.ErrUntrained)
	if err != nil && !untrained {
		return Reply{}, fmt.Errorf("scoring formulation: %w", err)
	}
	if untrained {
		log.Printf("WARNING: elicit: session %s finalized before the model was trained, scoring 0", s.ID)
		pred = model.Prediction{}
	}

	name = strings.TrimSpace(name)
	if name == "" && m.namer != nil {
		if name, err = m.namer.Name(ctx, d); err != nil {
			return Reply{}, fmt.Errorf("naming formulation: %w", err)
		}
		name = strings.TrimSpace(name)
	}
	if name == "" {
		name = history.DefaultName(d.Source)
	}

	tier := TierFor(pred.Score)
	id, err := m.lab.Archive(ctx, history.Record{
		Source: d.Source,
		Conc:   *d.Conc,
		Fat:    *d.Fat,
		PH:     *d.PH,
		Stab:   stab,
		WHC:    d.Props.WHC,
		Sol:    d.Props.Solubility,
		Score:  pred.Score,
	}, name, string(tier))
	if err != nil {
		return Reply{}, fmt.Errorf("archiving formulation: %w", err)
	}

	report := &Report{
		RecordID:      id,
		Name:          name,
		Source:        d.Source,
		Score:         pred.Score,
		Tier:          tier,
		Profile:       ProfileFor(pred.Score, stab, *d.Conc),
		ModelVersion:  pred.ModelVersion,
		UnknownSource: pred.UnknownSource,
		Untrained:     untrained,
	}
	s.Last = report
	s.reset()
	return Reply{Text: report.Text(), Report: report}, nil
}

// addIntent recognizes "add <name>" in any letter case.
func addIntent(input string) (string, bool) {
	if len(input) < 4 || !strings.EqualFold(input[:4], "add ") {
		return "", false
	}
	name := strings.TrimSpace(input[4:])
	return name, name != ""
}

// parseNumber parses a float. On failure it returns the rejection reply.
func parseNumber(input string) (float64, *Reply) {
	v, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Reply{Text: msgInvalidNumber, Err: fmt.Errorf("%w: %q", ErrInvalidNumber, input)}
	}
	return v, nil
}

func outOfRange(err error) Reply {
	return Reply{Text: msgOutOfRange(err), Err: fmt.Errorf("%w: %v", ErrOutOfRange, err)}
}
