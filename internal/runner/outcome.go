package runner

import (
	"fmt"
	"time"

	"github.com/chriserin/ftrun/internal/parser"
)

// Status is the lifecycle state of a feature, scenario or step.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusPassed
	StatusFailed
	StatusError
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s >= StatusPassed
}

// Outcome is the result of running one unit. Once terminal it never changes.
type Outcome struct {
	Status   Status
	Reason   string
	Err      error
	Duration time.Duration

	started time.Time
}

func (o *Outcome) start() {
	if o.Status == StatusPending {
		o.Status = StatusRunning
		o.started = time.Now()
	}
}

// finish sets the terminal status. It returns false, leaving the outcome
// unchanged, if a terminal status was already recorded.
func (o *Outcome) finish(status Status, reason string, err error) bool {
	if o.Status.Terminal() {
		return false
	}
	o.Status = status
	o.Reason = reason
	o.Err = err
	if !o.started.IsZero() {
		o.Duration = time.Since(o.started)
	}
	return true
}

// Failure is an assertion-style step failure. Steps return one (usually via
// Failf) to be recorded as failed rather than error.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Failf builds a *Failure.
func Failf(format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

type StepResult struct {
	Step       parser.Step
	Background bool // step comes from the feature's Background
	Outcome
}

type ScenarioResult struct {
	Feature  *parser.Feature
	Scenario parser.Block
	Outline  *parser.Block // nil for plain scenarios
	Index    int           // 1-based example index, 0 for plain scenarios
	Tags     []string      // effective tags
	Steps    []*StepResult
	Outcome
}

type FeatureResult struct {
	Feature   *parser.Feature
	Scenarios []*ScenarioResult
	Outcome

	units    []*unit
	selected bool
}

type Result struct {
	Features []*FeatureResult
	Faults   []error // faults raised by after hooks
	Outcome
}

// Passed reports whether nothing failed or errored, hooks included.
func (r *Result) Passed() bool {
	return r.Status != StatusFailed && r.Status != StatusError && len(r.Faults) == 0
}

// Counts tallies units by status.
type Counts struct {
	Features  map[Status]int
	Scenarios map[Status]int
	Steps     map[Status]int
}

func (r *Result) Counts() Counts {
	c := Counts{
		Features:  map[Status]int{},
		Scenarios: map[Status]int{},
		Steps:     map[Status]int{},
	}
	for _, fr := range r.Features {
		c.Features[fr.Status]++
		for _, sr := range fr.Scenarios {
			c.Scenarios[sr.Status]++
			for _, st := range sr.Steps {
				c.Steps[st.Status]++
			}
		}
	}
	return c
}

// aggregate derives a parent's outcome from its children: error beats failed
// beats passed; a parent whose children were all skipped is skipped.
func aggregate(children []*Outcome) (Status, string, error) {
	for _, want := range []Status{StatusError, StatusFailed, StatusPassed} {
		for _, o := range children {
			if o.Status == want {
				if want == StatusPassed {
					return StatusPassed, "", nil
				}
				return want, o.Reason, o.Err
			}
		}
	}
	return StatusSkipped, "", nil
}
