package runner

import (
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/assertions"
	"github.com/abdul-hamid-achik/storyspec/packages/capture"
	"github.com/abdul-hamid-achik/storyspec/packages/http"
)

// Scenario is one named call in the suite. Path may reference fixture values
// as {{key}}.
type Scenario struct {
	Name        string
	Method      string
	Path        string
	Body        any
	Captures    []capture.Capture
	Checks      []assertions.Check
	Invalidates []string
}

type State int

const (
	StatePending State = iota
	StateRunning
	StatePassed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureKind says why a scenario failed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureTransport  FailureKind = "transport"
	FailureAssertion  FailureKind = "assertion"
	FailureParse      FailureKind = "parse"
	FailureDependency FailureKind = "dependency"
)

type ScenarioResult struct {
	Name       string
	Order      int
	State      State
	Passed     bool
	Failure    FailureKind
	Message    string
	Duration   time.Duration
	Assertions []*assertions.Result
	Outcome    *http.Outcome
	Request    *http.Request
	// Unset lists fixture keys the scenario referenced before any earlier
	// step produced them.
	Unset []string
}

type RunResult struct {
	RunID     string
	BaseURL   string
	StartedAt time.Time
	Results   []*ScenarioResult
	Passed    int
	Failed    int
	Duration  time.Duration
	Latency   LatencySummary
	// AuthErr is set when the suite could not authenticate.
	AuthErr error
}

// OK reports whether every scenario passed.
func (r *RunResult) OK() bool {
	return r.Failed == 0 && r.AuthErr == nil
}
