package fixture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetUnset(t *testing.T) {
	s := NewStore()

	v, err := s.Get(KeyStoryID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnset))
	assert.Empty(t, v)
	assert.False(t, s.IsSet(KeyStoryID))
}

func TestStore_EmptyValueIsSet(t *testing.T) {
	s := NewStore()
	s.Set(KeyStoryID, "")

	v, err := s.Get(KeyStoryID)

	require.NoError(t, err)
	assert.Equal(t, "", v)
	assert.True(t, s.IsSet(KeyStoryID))
}

func TestStore_OverwriteByLaterStep(t *testing.T) {
	s := NewStore()
	s.Set(KeyStoryID, "first")
	s.Set(KeyStoryID, "second")

	v, err := s.Get(KeyStoryID)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestStore_Invalidate(t *testing.T) {
	s := NewStore()
	s.Set(KeyStoryID, "abc")
	s.Invalidate(KeyStoryID)

	_, err := s.Get(KeyStoryID)
	assert.ErrorIs(t, err, ErrUnset)
}

func TestStore_Expand(t *testing.T) {
	s := NewStore()
	s.Set(KeyStoryID, "abc")

	tests := []struct {
		name     string
		template string
		want     string
		unset    []string
	}{
		{"no references", "/api/Story/All", "/api/Story/All", nil},
		{"set reference", "/api/Story/Edit/{{storyId}}", "/api/Story/Edit/abc", nil},
		{"spaces inside braces", "/api/Story/Edit/{{ storyId }}", "/api/Story/Edit/abc", nil},
		{"unset reference", "/api/Story/Delete/{{other}}", "/api/Story/Delete/", []string{"other"}},
		{"repeated unset reference", "/{{b}}/{{a}}/{{b}}", "///", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unset := s.Expand(tt.template)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unset, unset)
		})
	}
}

func TestStore_ResetAndSnapshot(t *testing.T) {
	s := NewStore()
	s.Set(KeyToken, "t")
	s.Set(KeyStoryID, "id")

	snap := s.Snapshot()
	s.Reset()

	assert.Equal(t, map[string]string{KeyToken: "t", KeyStoryID: "id"}, snap)
	assert.Empty(t, s.Snapshot())
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{"storyId"}, References("/api/Story/Edit/{{storyId}}"))
	assert.Nil(t, References("/api/Story/All"))
}
