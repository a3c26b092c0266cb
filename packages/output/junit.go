package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents one suite run
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	ID        string          `xml:"id,attr,omitempty"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single scenario
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents an assertion or parse failure
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a transport or dependency failure
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitFormatter formats run results as JUnit XML
type JUnitFormatter struct {
	writer     io.Writer
	testSuites []JUnitTestSuite
	errors     []string
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:     os.Stdout,
		testSuites: make([]JUnitTestSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResult(result *runner.RunResult) {
	suite := JUnitTestSuite{
		Name:      "stories",
		ID:        result.RunID,
		Tests:     len(result.Results),
		Time:      result.Duration.Seconds(),
		Timestamp: result.StartedAt.Format(time.RFC3339),
		TestCases: make([]JUnitTestCase, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		tc := JUnitTestCase{
			Name:      r.Name,
			ClassName: "stories",
			Time:      r.Duration.Seconds(),
		}

		switch r.Failure {
		case runner.FailureNone:
		case runner.FailureTransport, runner.FailureDependency:
			suite.Errors++
			tc.Error = &JUnitError{
				Message: r.Message,
				Type:    errorType(r.Failure),
			}
		default:
			suite.Failures++
			var failureMsg strings.Builder
			for _, line := range failedAssertions(r) {
				fmt.Fprintln(&failureMsg, line)
			}
			if len(r.Unset) > 0 {
				fmt.Fprintf(&failureMsg, "unset fixture values: %s\n", strings.Join(r.Unset, ", "))
			}
			tc.Failure = &JUnitFailure{
				Message: r.Message,
				Type:    errorType(r.Failure),
				Content: failureMsg.String(),
			}
		}

		suite.TestCases = append(suite.TestCases, tc)
	}

	f.testSuites = append(f.testSuites, suite)
}

func errorType(kind runner.FailureKind) string {
	switch kind {
	case runner.FailureTransport:
		return "TransportFailure"
	case runner.FailureDependency:
		return "DependencyFailure"
	case runner.FailureParse:
		return "ParseFailure"
	default:
		return "AssertionError"
	}
}

// FormatError records an error that is not tied to a scenario. Flush writes
// each one as an errored test case of a "run" suite.
func (f *JUnitFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JUnitFormatter) errorSuite() JUnitTestSuite {
	suite := JUnitTestSuite{
		Name:      "run",
		Tests:     len(f.errors),
		Errors:    len(f.errors),
		TestCases: make([]JUnitTestCase, 0, len(f.errors)),
	}
	for i, msg := range f.errors {
		suite.TestCases = append(suite.TestCases, JUnitTestCase{
			Name:      fmt.Sprintf("error %d", i+1),
			ClassName: "run",
			Error:     &JUnitError{Message: msg, Type: "RunError"},
		})
	}
	return suite
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	testSuites := f.testSuites
	if len(f.errors) > 0 {
		testSuites = append(testSuites, f.errorSuite())
	}

	var totalTests, totalFailures, totalErrors int
	for _, suite := range testSuites {
		totalTests += suite.Tests
		totalFailures += suite.Failures
		totalErrors += suite.Errors
	}

	suites := JUnitTestSuites{
		Name:       "storyspec",
		Tests:      totalTests,
		Failures:   totalFailures,
		Errors:     totalErrors,
		Time:       totalDuration.Seconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: testSuites,
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}
