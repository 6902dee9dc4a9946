package elicit

import "fmt"

// State is a dialogue step. The zero value is Idle.
type State int

const (
	Idle State = iota
	AskProtein
	AskConc
	AskFat
	AskPH
	AskStab
	DefineWHC
	DefineSol
)

var stateNames = [...]string{
	Idle:       "IDLE",
	AskProtein: "ASK_PROTEIN",
	AskConc:    "ASK_CONC",
	AskFat:     "ASK_FAT",
	AskPH:      "ASK_PH",
	AskStab:    "ASK_STAB",
	DefineWHC:  "DEFINE_WHC",
	DefineSol:  "DEFINE_SOL",
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return s >= Idle && int(s) < len(stateNames)
}

func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// formulationSteps lists the numeric steps in dialogue order.
var formulationSteps = []State{AskConc, AskFat, AskPH, AskStab}

// next returns the step after s in the formulation sequence. AskStab has
// no successor; finishing it finalizes the formulation.
func next(s State) (State, bool) {
	for i, st := range formulationSteps[:len(formulationSteps)-1] {
		if st == s {
			return formulationSteps[i+1], true
		}
	}
	return Idle, false
}
