package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating long values
func formatValue(v any, maxLen int) string {
	if v == nil {
		return "-"
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+result.BaseURL))
	if f.verbose {
		fmt.Fprintf(f.writer, "Run:     %s\n", result.RunID)
	}
	fmt.Fprintf(f.writer, "\n")

	if result.AuthErr != nil {
		fmt.Fprintf(f.writer, "  %s %s\n\n", red("x"), red(result.AuthErr.Error()))
	}

	for _, r := range result.Results {
		if r.Failure == runner.FailureDependency {
			fmt.Fprintf(f.writer, "  %s %s %s\n", yellow("-"), r.Name, yellow("(not run: authentication failed)"))
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if f.verbose && r.Outcome != nil && !r.Outcome.TransportFailed() {
			fmt.Fprintf(f.writer, "    Status: %d\n", r.Outcome.StatusCode)
		}

		if len(r.Unset) > 0 {
			fmt.Fprintf(f.writer, "    %s unset fixture values: %s\n", yellow("!"), strings.Join(r.Unset, ", "))
		}

		if r.Passed {
			continue
		}

		if r.Failure == runner.FailureTransport {
			fmt.Fprintf(f.writer, "    %s %s\n", red("→"), r.Message)
		}
		for _, a := range r.Assertions {
			if a.Passed {
				continue
			}
			fmt.Fprintf(f.writer, "    %s %s %s\n", red("→"), a.Check, yellow("["+a.Kind.String()+"]"))
			fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(a.Expected, 100))
			fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(a.Actual, 100))
			if a.Message != "" {
				fmt.Fprintf(f.writer, "      %s\n", a.Message)
			}
		}

		if f.verbose && r.Request != nil {
			fmt.Fprintf(f.writer, "    Reproduce:\n      %s\n", r.Request.Curl(result.BaseURL))
			if r.Outcome != nil && len(r.Outcome.Body) > 0 {
				fmt.Fprintf(f.writer, "    Body: %s\n", formatValue(r.Outcome.BodyString(), 200))
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Scenarios: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Results))
	fmt.Fprintf(f.writer, "Time:      %dms\n", result.Duration.Milliseconds())
	if result.Latency.Count > 0 {
		fmt.Fprintf(f.writer, "Latency:   min %dms, p50 %dms, p95 %dms, max %dms\n",
			result.Latency.Min.Milliseconds(),
			result.Latency.P50.Milliseconds(),
			result.Latency.P95.Milliseconds(),
			result.Latency.Max.Milliseconds())
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("storyspec"), version)
}
