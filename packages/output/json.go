package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Runs     []JSONRun   `json:"runs"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
	Errors   []string    `json:"errors,omitempty"`
}

// JSONSummary represents the scenario summary across runs
type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONRun represents one suite run
type JSONRun struct {
	RunID     string         `json:"runId"`
	BaseURL   string         `json:"baseUrl"`
	StartedAt string         `json:"startedAt"`
	AuthError string         `json:"authError,omitempty"`
	Latency   JSONLatency    `json:"latency"`
	Scenarios []JSONScenario `json:"scenarios"`
}

// JSONLatency is the latency summary in milliseconds
type JSONLatency struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	Max float64 `json:"max"`
}

// JSONScenario represents a single scenario verdict
type JSONScenario struct {
	Name       string          `json:"name"`
	Order      int             `json:"order"`
	Passed     bool            `json:"passed"`
	Failure    string          `json:"failure,omitempty"`
	Message    string          `json:"message,omitempty"`
	Duration   float64         `json:"duration"`
	Unset      []string        `json:"unset,omitempty"`
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int     `json:"statusCode"`
	Status     string  `json:"status"`
	Duration   float64 `json:"duration"`
}

// JSONAssertion represents an assertion result
type JSONAssertion struct {
	Check    string `json:"check"`
	Kind     string `json:"kind"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer io.Writer
	runs   []JSONRun
	errors []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		runs:   make([]JSONRun, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	run := JSONRun{
		RunID:     result.RunID,
		BaseURL:   result.BaseURL,
		StartedAt: result.StartedAt.Format(time.RFC3339),
		Latency: JSONLatency{
			Min: millis(result.Latency.Min),
			P50: millis(result.Latency.P50),
			P95: millis(result.Latency.P95),
			Max: millis(result.Latency.Max),
		},
		Scenarios: make([]JSONScenario, 0, len(result.Results)),
	}
	if result.AuthErr != nil {
		run.AuthError = result.AuthErr.Error()
	}

	for _, r := range result.Results {
		sc := JSONScenario{
			Name:     r.Name,
			Order:    r.Order,
			Passed:   r.Passed,
			Failure:  string(r.Failure),
			Message:  r.Message,
			Duration: millis(r.Duration),
			Unset:    r.Unset,
		}

		if r.Request != nil {
			sc.Request = &JSONRequest{
				Method: r.Request.Method,
				URL:    r.Request.URL(result.BaseURL),
			}
		}

		if r.Outcome != nil && !r.Outcome.TransportFailed() {
			sc.Response = &JSONResponse{
				StatusCode: r.Outcome.StatusCode,
				Status:     r.Outcome.Status,
				Duration:   millis(r.Outcome.Duration),
			}
		}

		for _, a := range r.Assertions {
			sc.Assertions = append(sc.Assertions, JSONAssertion{
				Check:    a.Check,
				Kind:     a.Kind.String(),
				Expected: a.Expected,
				Actual:   a.Actual,
				Passed:   a.Passed,
				Message:  a.Message,
			})
		}

		run.Scenarios = append(run.Scenarios, sc)
	}

	f.runs = append(f.runs, run)
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, run := range f.runs {
		for _, sc := range run.Scenarios {
			summary.Total++
			if sc.Passed {
				summary.Passed++
			} else {
				summary.Failed++
			}
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Runs:     f.runs,
		Duration: millis(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
		Errors:   f.errors,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
