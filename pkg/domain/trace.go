package domain

import "time"

// StepKind categorizes a trace step.
type StepKind string

const (
	StepExplore StepKind = "explore"
	StepMatch   StepKind = "match"
	StepInvoke  StepKind = "invoke"
	StepFailure StepKind = "failure"
	StepStop    StepKind = "stop"
)

// Step is one decision recorded during a throw.
type Step struct {
	Kind       StepKind   `json:"kind"`
	Location   LocationID `json:"location,omitempty"`
	Distance   int        `json:"distance"`
	Exit       string     `json:"exit,omitempty"`
	Subscriber EntityID   `json:"subscriber,omitempty"`
	Level      string     `json:"level,omitempty"`
	Handler    string     `json:"handler,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Trace is the ordered diagnostic log of one throw.
type Trace struct {
	ID          string        `json:"id"`
	Signal      string        `json:"signal"`
	Source      EntityID      `json:"source"`
	Local       bool          `json:"local"`
	Propagation int           `json:"propagation"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Steps       []Step        `json:"steps"`
}

// Add appends a step.
func (t *Trace) Add(step Step) {
	t.Steps = append(t.Steps, step)
}

// Failures returns the failure steps in order.
func (t *Trace) Failures() []Step {
	var out []Step
	for _, s := range t.Steps {
		if s.Kind == StepFailure {
			out = append(out, s)
		}
	}
	return out
}

// Filter returns the steps of the given kind in order.
func (t *Trace) Filter(kind StepKind) []Step {
	var out []Step
	for _, s := range t.Steps {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}
