package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
)

// TAPFormatter formats run results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
	errors    []string
}

type tapResult struct {
	number   int
	name     string
	passed   bool
	failure  runner.FailureKind
	message  string
	failures []string
	unset    []string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		f.testCount++
		f.results = append(f.results, tapResult{
			number:   f.testCount,
			name:     r.Name,
			passed:   r.Passed,
			failure:  r.Failure,
			message:  r.Message,
			failures: failedAssertions(r),
			unset:    r.Unset,
		})
	}
}

// FormatError records an error that is not tied to a scenario. With no
// results the stream bails out, otherwise the error becomes a diagnostic.
func (f *TAPFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	if f.testCount == 0 && len(f.errors) > 0 {
		_, err := fmt.Fprintf(f.writer, "Bail out! %s\n", strings.ReplaceAll(f.errors[0], "\n", " "))
		return err
	}
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		if r.passed {
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
			continue
		}

		fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
		fmt.Fprintf(f.writer, "  ---\n")
		fmt.Fprintf(f.writer, "  failure: %s\n", r.failure)
		fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.message))
		if len(r.failures) > 0 {
			fmt.Fprintf(f.writer, "  failures:\n")
			for _, a := range r.failures {
				fmt.Fprintf(f.writer, "    - %s\n", escapeYAML(a))
			}
		}
		if len(r.unset) > 0 {
			fmt.Fprintf(f.writer, "  unset: [%s]\n", strings.Join(r.unset, ", "))
		}
		fmt.Fprintf(f.writer, "  ...\n")
	}

	for _, msg := range f.errors {
		fmt.Fprintf(f.writer, "# error: %s\n", strings.ReplaceAll(msg, "\n", " "))
	}
	fmt.Fprintf(f.writer, "# time %dms\n", totalDuration.Milliseconds())
	return nil
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		return "\"" + s + "\""
	}
	return s
}
