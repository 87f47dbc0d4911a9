package submission

// State is a step of a single submission run. A run only moves forward.
type State int

const (
	Idle State = iota
	Validating
	ResolvingIdentity
	ResolvingClassification
	CreatingEncounter
	WritingPayload
	WritingProjection
	Done
)

var stateNames = [...]string{
	Idle:                    "idle",
	Validating:              "validating",
	ResolvingIdentity:       "resolving_identity",
	ResolvingClassification: "resolving_classification",
	CreatingEncounter:       "creating_encounter",
	WritingPayload:          "writing_payload",
	WritingProjection:       "writing_projection",
	Done:                    "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// trace records visited states and enforces forward-only movement.
type trace struct {
	states []State
}

func newTrace() *trace {
	return &trace{states: []State{Idle}}
}

func (t *trace) current() State {
	return t.states[len(t.states)-1]
}

func (t *trace) enter(s State) {
	if s <= t.current() {
		panic("submission: state " + s.String() + " revisited after " + t.current().String())
	}
	t.states = append(t.states, s)
}
