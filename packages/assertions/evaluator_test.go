package assertions

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/storyspec/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createOutcome(statusCode int, body string) *http.Outcome {
	return &http.Outcome{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
		Duration:   100 * time.Millisecond,
	}
}

func evaluateOne(out *http.Outcome, c Check) *Result {
	return NewEvaluator(out).Evaluate([]Check{c})[0]
}

func TestEvaluator_Status(t *testing.T) {
	result := evaluateOne(createOutcome(201, `{}`), Status(201))

	assert.True(t, result.Passed)
	assert.Equal(t, KindPass, result.Kind)
	assert.Equal(t, 201, result.Actual)
	assert.Equal(t, "status == 201", result.Check)
}

func TestEvaluator_StatusMismatch(t *testing.T) {
	result := evaluateOne(createOutcome(404, `{}`), Status(200))

	assert.False(t, result.Passed)
	assert.Equal(t, KindMismatch, result.Kind)
	assert.Contains(t, result.Message, "expected status 200, got 404")
}

func TestEvaluator_StatusWithNonJSONBody(t *testing.T) {
	result := evaluateOne(createOutcome(400, `Bad Request`), Status(400))

	assert.True(t, result.Passed)
}

func TestEvaluator_Field(t *testing.T) {
	body := `{"msg": "Deleted successfully!", "count": 3, "ok": true, "items": [{"id": "a"}]}`

	tests := []struct {
		name     string
		check    Check
		wantKind Kind
	}{
		{"string equal", Field("msg", "Deleted successfully!"), KindPass},
		{"string differs", Field("msg", "Deleted"), KindMismatch},
		{"string is case sensitive", Field("msg", "deleted successfully!"), KindMismatch},
		{"trailing whitespace differs", Field("msg", "Deleted successfully! "), KindMismatch},
		{"number equal", Field("count", 3), KindPass},
		{"number differs", Field("count", 4), KindMismatch},
		{"bool equal", Field("ok", true), KindPass},
		{"bracket path", Field("items[0].id", "a"), KindPass},
		{"absent field", Field("missing", "x"), KindParseFailure},
		{"wrong type", Field("count", "3"), KindParseFailure},
		{"string where number expected", Field("msg", 1), KindParseFailure},
		{"int8 equal", Field("count", int8(3)), KindPass},
		{"uint equal", Field("count", uint(3)), KindPass},
		{"uint64 differs", Field("count", uint64(4)), KindMismatch},
		{"unsupported expected type", Field("count", []int{3}), KindInvalidCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluateOne(createOutcome(200, body), tt.check)
			assert.Equal(t, tt.wantKind, result.Kind, result.Message)
			assert.Equal(t, tt.wantKind == KindPass, result.Passed)
		})
	}
}

func TestEvaluator_FieldOnInvalidJSON(t *testing.T) {
	result := evaluateOne(createOutcome(200, `<html>oops</html>`), Field("msg", "x"))

	assert.Equal(t, KindParseFailure, result.Kind)
	assert.Contains(t, result.Message, "not valid JSON")
}

func TestEvaluator_FieldOnEmptyBody(t *testing.T) {
	result := evaluateOne(createOutcome(200, ``), Field("msg", "x"))

	assert.Equal(t, KindParseFailure, result.Kind)
	assert.Contains(t, result.Message, "empty")
}

func TestEvaluator_FieldNotEmpty(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind Kind
	}{
		{"present", `{"storyId": "abc-123"}`, KindPass},
		{"empty string", `{"storyId": ""}`, KindMismatch},
		{"absent", `{"msg": "Successfully created!"}`, KindParseFailure},
		{"not a string", `{"storyId": 42}`, KindParseFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluateOne(createOutcome(201, tt.body), FieldNotEmpty("storyId"))
			assert.Equal(t, tt.wantKind, result.Kind)
		})
	}
}

func TestEvaluator_Sequence(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind Kind
	}{
		{"empty array", `[]`, KindPass},
		{"array of objects", `[{"id": "a"}, {"id": "b"}]`, KindPass},
		{"object", `{"items": []}`, KindParseFailure},
		{"not json", `nope`, KindParseFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluateOne(createOutcome(200, tt.body), Sequence(""))
			assert.Equal(t, tt.wantKind, result.Kind)
		})
	}
}

func TestEvaluator_SequenceAtPath(t *testing.T) {
	result := evaluateOne(createOutcome(200, `{"items": [1, 2]}`), Sequence("items"))

	assert.True(t, result.Passed)
	assert.Equal(t, "array with 2 items", result.Actual)
}

func TestEvaluator_Schema(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["storyId", "msg"],
		"properties": {
			"storyId": {"type": "string"},
			"msg": {"type": "string"}
		}
	}`

	ok := evaluateOne(createOutcome(201, `{"storyId": "x", "msg": "Successfully created!"}`), Schema(schema))
	assert.True(t, ok.Passed)

	bad := evaluateOne(createOutcome(201, `{"msg": "Successfully created!"}`), Schema(schema))
	assert.False(t, bad.Passed)
	assert.Equal(t, KindParseFailure, bad.Kind)
	assert.Contains(t, bad.Message, "storyId")
}

func TestEvaluator_TransportFailure(t *testing.T) {
	out := &http.Outcome{
		StatusCode: http.StatusTransportFailure,
		Err:        errors.New("connection refused"),
	}

	results := NewEvaluator(out).Evaluate([]Check{Status(200), Field("msg", "x")})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Passed)
		assert.Equal(t, KindTransportFailure, r.Kind)
		assert.Contains(t, r.Message, "connection refused")
	}
}

func TestEvaluator_PreservesOrder(t *testing.T) {
	results := NewEvaluator(createOutcome(200, `{"msg": "ok"}`)).Evaluate([]Check{
		Status(200),
		Field("msg", "ok"),
		Field("msg", "nope"),
	})

	require.Len(t, results, 3)
	assert.Equal(t, "status == 200", results[0].Check)
	assert.True(t, results[1].Passed)
	assert.False(t, results[2].Passed)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "pass", KindPass.String())
	assert.Equal(t, "mismatch", KindMismatch.String())
	assert.Equal(t, "parse failure", KindParseFailure.String())
	assert.Equal(t, "transport failure", KindTransportFailure.String())
	assert.Equal(t, "invalid check", KindInvalidCheck.String())
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "h...", truncate("héllo", 2))
	assert.Equal(t, "hé...", truncate("héllo", 3))

	body := strings.Repeat("a", 79) + "ñ<html>"
	result := evaluateOne(createOutcome(200, body), Field("msg", "x"))
	assert.Equal(t, KindParseFailure, result.Kind)
	assert.True(t, utf8.ValidString(result.Message))
	assert.NotContains(t, result.Message, "ñ")
}
