package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_Resolve(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "FROM_ENV" {
			return "env-value", true
		}
		return "", false
	}

	tests := []struct {
		name        string
		input       string
		vars        map[string]string
		expected    string
		wantMissing []string
	}{
		{
			name:     "no references",
			input:    "https://example.com",
			expected: "https://example.com",
		},
		{
			name:     "explicit variable",
			input:    "${PASSWORD}",
			vars:     map[string]string{"PASSWORD": "123456"},
			expected: "123456",
		},
		{
			name:     "explicit wins over environment",
			input:    "${FROM_ENV}",
			vars:     map[string]string{"FROM_ENV": "explicit"},
			expected: "explicit",
		},
		{
			name:     "environment fallback",
			input:    "user=${FROM_ENV}",
			expected: "user=env-value",
		},
		{
			name:     "default used when unset",
			input:    "${HOST:-localhost}:${PORT:-3000}",
			expected: "localhost:3000",
		},
		{
			name:     "empty default",
			input:    "[${NOTHING:-}]",
			expected: "[]",
		},
		{
			name:        "missing variables reported",
			input:       "${B} ${A} ${B}",
			expected:    "  ",
			wantMissing: []string{"A", "B"},
		},
		{
			name:     "braces without dollar untouched",
			input:    "/api/Story/Edit/{{storyId}}",
			expected: "/api/Story/Edit/{{storyId}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := NewResolver(tt.vars).WithLookup(lookup).Resolve(tt.input)
			assert.Equal(t, tt.expected, got)
			if tt.wantMissing == nil {
				assert.Empty(t, missing)
			} else {
				assert.Equal(t, tt.wantMissing, missing)
			}
		})
	}
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("STORYSPEC_TEST_BASE_URL", "http://localhost:3000")

	vars := LoadSystemEnv("STORYSPEC_TEST_")

	assert.Equal(t, "http://localhost:3000", vars["BASE_URL"])
}

func TestMergeVariables(t *testing.T) {
	merged := MergeVariables(
		map[string]string{"A": "1", "B": "1"},
		map[string]string{"B": "2"},
	)

	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged)
}
