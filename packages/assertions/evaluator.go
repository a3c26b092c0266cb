package assertions

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/storyspec/packages/http"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Kind classifies a verdict so that diagnosis can tell a wrong value from a
// body that never had the expected shape.
type Kind int

const (
	KindPass Kind = iota
	KindMismatch
	KindParseFailure
	KindTransportFailure
	// KindInvalidCheck means the check itself is malformed, whatever the
	// response holds.
	KindInvalidCheck
)

func (k Kind) String() string {
	switch k {
	case KindPass:
		return "pass"
	case KindMismatch:
		return "mismatch"
	case KindParseFailure:
		return "parse failure"
	case KindTransportFailure:
		return "transport failure"
	case KindInvalidCheck:
		return "invalid check"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Result struct {
	Check    string
	Kind     Kind
	Passed   bool
	Expected any
	Actual   any
	Message  string
}

// Check is one assertion evaluated against a response.
type Check interface {
	Describe() string
	Evaluate(e *Evaluator) *Result
}

// Evaluator decodes a response body once and answers typed field lookups.
type Evaluator struct {
	outcome  *http.Outcome
	body     gjson.Result
	parseErr error
}

func NewEvaluator(out *http.Outcome) *Evaluator {
	e := &Evaluator{outcome: out}
	switch {
	case out.TransportFailed():
		e.parseErr = fmt.Errorf("no response: %v", out.Err)
	case len(strings.TrimSpace(string(out.Body))) == 0:
		e.parseErr = fmt.Errorf("response body is empty")
	case !gjson.ValidBytes(out.Body):
		e.parseErr = fmt.Errorf("response body is not valid JSON: %s", truncate(out.BodyString(), 80))
	default:
		e.body = gjson.ParseBytes(out.Body)
	}
	return e
}

// Outcome returns the response under evaluation.
func (e *Evaluator) Outcome() *http.Outcome {
	return e.outcome
}

// Lookup returns the JSON value at path; an empty path means the document
// root. The error is non-nil when the body is not JSON or the path is absent.
func (e *Evaluator) Lookup(path string) (gjson.Result, error) {
	if e.parseErr != nil {
		return gjson.Result{}, e.parseErr
	}
	if path == "" {
		return e.body, nil
	}
	v := e.body.Get(convertBracketNotation(path))
	if !v.Exists() {
		return gjson.Result{}, fmt.Errorf("field %q is absent", path)
	}
	return v, nil
}

// Evaluate runs every check in order.
func (e *Evaluator) Evaluate(checks []Check) []*Result {
	results := make([]*Result, len(checks))
	for i, c := range checks {
		results[i] = e.run(c)
	}
	return results
}

func (e *Evaluator) run(c Check) *Result {
	if e.outcome.TransportFailed() {
		return &Result{
			Check:   c.Describe(),
			Kind:    KindTransportFailure,
			Message: fmt.Sprintf("transport failure: %v", e.outcome.Err),
		}
	}
	r := c.Evaluate(e)
	r.Check = c.Describe()
	r.Passed = r.Kind == KindPass
	return r
}

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketPattern.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

var bracketPattern = regexp.MustCompile(`\[(\d+)\]`)

func pass(expected, actual any) *Result {
	return &Result{Kind: KindPass, Expected: expected, Actual: actual}
}

func mismatch(expected, actual any, format string, args ...any) *Result {
	return &Result{Kind: KindMismatch, Expected: expected, Actual: actual, Message: fmt.Sprintf(format, args...)}
}

func invalidCheck(expected any, err error) *Result {
	return &Result{Kind: KindInvalidCheck, Expected: expected, Message: err.Error()}
}

func parseFailure(expected any, err error) *Result {
	return &Result{Kind: KindParseFailure, Expected: expected, Message: err.Error()}
}

// jsonType names the JSON type of a gjson value the way schema documents do.
func jsonType(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if v.IsArray() {
			return "array"
		}
		return "object"
	default:
		return "unknown"
	}
}

func validateSchema(schema string, doc gjson.Result) (bool, string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(doc.Raw),
	)
	if err != nil {
		return false, "", err
	}
	if result.Valid() {
		return true, "", nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return false, strings.Join(errs, "; "), nil
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
