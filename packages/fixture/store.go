package fixture

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Well-known keys shared by the story scenarios.
const (
	KeyToken   = "token"
	KeyStoryID = "storyId"
)

// ErrUnset is returned for a key that no earlier step has written, or whose
// value was invalidated.
var ErrUnset = errors.New("fixture value unset")

var referencePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Store holds values produced by one scenario and consumed by later ones.
// A Store belongs to exactly one suite run.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewStore() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

// Set writes a value, overwriting whatever an earlier step stored.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value for key, or ErrUnset.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrUnset)
	}
	return v, nil
}

// IsSet reports whether key currently holds a value.
func (s *Store) IsSet(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Invalidate returns key to the unset state.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Reset clears every value. Only called between suite runs.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}

// Expand replaces {{key}} references in template. Unset keys expand to the
// empty string and are returned, sorted and deduplicated, as the second value.
func (s *Store) Expand(template string) (string, []string) {
	seen := make(map[string]bool)
	var unset []string

	s.mu.RLock()
	defer s.mu.RUnlock()

	expanded := referencePattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := s.values[key]; ok {
			return v
		}
		if !seen[key] {
			seen[key] = true
			unset = append(unset, key)
		}
		return ""
	})

	sort.Strings(unset)
	return expanded, unset
}

// References lists the keys a template refers to.
func References(template string) []string {
	var keys []string
	for _, m := range referencePattern.FindAllStringSubmatch(template, -1) {
		keys = append(keys, strings.TrimSpace(m[1]))
	}
	return keys
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
