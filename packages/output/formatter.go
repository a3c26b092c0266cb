package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
)

// Formatter renders run results.
type Formatter interface {
	FormatHeader(version string)
	FormatResult(result *runner.RunResult)
	FormatError(err error)
}

// Flushable is implemented by formatters that accumulate results and write
// them in one document at the end of a run.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Options configure New.
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter registered under format.
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case "", "console":
		consoleOpts := []ConsoleOption{
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
		}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case "json":
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case "junit":
		var junitOpts []JUnitOption
		if opts.Writer != nil {
			junitOpts = append(junitOpts, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(junitOpts...), nil
	case "tap":
		var tapOpts []TAPOption
		if opts.Writer != nil {
			tapOpts = append(tapOpts, TAPWithWriter(opts.Writer))
		}
		return NewTAPFormatter(tapOpts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// failedAssertions describes every failing check of r, one line each.
func failedAssertions(r *runner.ScenarioResult) []string {
	var lines []string
	for _, a := range r.Assertions {
		if a.Passed {
			continue
		}
		if a.Actual == nil {
			lines = append(lines, fmt.Sprintf("%s: %s: %s", a.Check, a.Kind, a.Message))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s: expected %v, got %v", a.Check, a.Kind, a.Expected, a.Actual))
	}
	return lines
}
