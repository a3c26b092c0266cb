package assertions

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Status asserts the response status code.
func Status(code int) Check {
	return statusCheck{expected: code}
}

type statusCheck struct {
	expected int
}

func (c statusCheck) Describe() string {
	return fmt.Sprintf("status == %d", c.expected)
}

func (c statusCheck) Evaluate(e *Evaluator) *Result {
	actual := e.Outcome().StatusCode
	if actual == c.expected {
		return pass(c.expected, actual)
	}
	return mismatch(c.expected, actual, "expected status %d, got %d", c.expected, actual)
}

// Field asserts that the value at path equals expected exactly. The Go type
// of expected declares the JSON type: string, bool, or any integer or float
// kind for numbers. A missing field or a value of another JSON type is a
// parse failure, not a mismatch.
func Field(path string, expected any) Check {
	return fieldCheck{path: path, expected: expected}
}

type fieldCheck struct {
	path     string
	expected any
}

func (c fieldCheck) Describe() string {
	return fmt.Sprintf("%s == %q", c.path, fmt.Sprint(c.expected))
}

func (c fieldCheck) Evaluate(e *Evaluator) *Result {
	v, err := e.Lookup(c.path)
	if err != nil {
		return parseFailure(c.expected, err)
	}

	switch want := c.expected.(type) {
	case string:
		if v.Type != gjson.String {
			return parseFailure(want, fmt.Errorf("field %q is %s, want string", c.path, jsonType(v)))
		}
		if v.Str != want {
			return mismatch(want, v.Str, "expected %q, got %q", want, v.Str)
		}
		return pass(want, v.Str)
	case bool:
		if v.Type != gjson.True && v.Type != gjson.False {
			return parseFailure(want, fmt.Errorf("field %q is %s, want boolean", c.path, jsonType(v)))
		}
		if v.Bool() != want {
			return mismatch(want, v.Bool(), "expected %t, got %t", want, v.Bool())
		}
		return pass(want, v.Bool())
	default:
		num, ok := toFloat64(want)
		if !ok {
			return invalidCheck(want, fmt.Errorf("unsupported expected type %T", want))
		}
		if v.Type != gjson.Number {
			return parseFailure(want, fmt.Errorf("field %q is %s, want number", c.path, jsonType(v)))
		}
		if v.Num != num {
			return mismatch(want, v.Num, "expected %v, got %v", want, v.Num)
		}
		return pass(want, v.Num)
	}
}

// FieldNotEmpty asserts that path holds a non-empty string.
func FieldNotEmpty(path string) Check {
	return notEmptyCheck{path: path}
}

type notEmptyCheck struct {
	path string
}

func (c notEmptyCheck) Describe() string {
	return fmt.Sprintf("%s is not empty", c.path)
}

func (c notEmptyCheck) Evaluate(e *Evaluator) *Result {
	v, err := e.Lookup(c.path)
	if err != nil {
		return parseFailure("non-empty string", err)
	}
	if v.Type != gjson.String {
		return parseFailure("non-empty string", fmt.Errorf("field %q is %s, want string", c.path, jsonType(v)))
	}
	if v.Str == "" {
		return mismatch("non-empty string", v.Str, "expected %s to be non-empty", c.path)
	}
	return pass("non-empty string", v.Str)
}

// Sequence asserts that path (the root when empty) holds a JSON array. An
// empty array passes.
func Sequence(path string) Check {
	return sequenceCheck{path: path}
}

type sequenceCheck struct {
	path string
}

func (c sequenceCheck) Describe() string {
	if c.path == "" {
		return "body is array"
	}
	return fmt.Sprintf("%s is array", c.path)
}

func (c sequenceCheck) Evaluate(e *Evaluator) *Result {
	v, err := e.Lookup(c.path)
	if err != nil {
		return parseFailure("array", err)
	}
	if !v.IsArray() {
		return parseFailure("array", fmt.Errorf("body is %s, want array", jsonType(v)))
	}
	return pass("array", fmt.Sprintf("array with %d items", len(v.Array())))
}

// Schema validates the whole body against a JSON Schema document.
func Schema(schema string) Check {
	return schemaCheck{schema: schema}
}

type schemaCheck struct {
	schema string
}

func (c schemaCheck) Describe() string {
	return "body matches schema"
}

func (c schemaCheck) Evaluate(e *Evaluator) *Result {
	v, err := e.Lookup("")
	if err != nil {
		return parseFailure("schema", err)
	}
	ok, detail, err := validateSchema(c.schema, v)
	if err != nil {
		return parseFailure("schema", fmt.Errorf("schema validation error: %w", err))
	}
	if !ok {
		return parseFailure("schema", fmt.Errorf("schema validation failed: %s", detail))
	}
	return pass("schema", jsonType(v))
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
