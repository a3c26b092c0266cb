package capture

import (
	"strconv"

	"github.com/abdul-hamid-achik/storyspec/packages/fixture"
	"github.com/abdul-hamid-achik/storyspec/packages/http"
	"github.com/tidwall/gjson"
)

type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
)

// Capture names a response value to copy into the fixture store under Key.
type Capture struct {
	Key    string
	Source Source
	Path   string
}

// Body captures the JSON value at path.
func Body(key, path string) Capture {
	return Capture{Key: key, Source: SourceBody, Path: path}
}

// Header captures a response header.
func Header(key, name string) Capture {
	return Capture{Key: key, Source: SourceHeader, Path: name}
}

type Extractor struct {
	outcome  *http.Outcome
	bodyJSON gjson.Result
}

func NewExtractor(out *http.Outcome) *Extractor {
	e := &Extractor{
		outcome: out,
	}
	if !out.TransportFailed() && gjson.ValidBytes(out.Body) {
		e.bodyJSON = gjson.ParseBytes(out.Body)
	}
	return e
}

// Extract returns the captured value rendered as a string. Objects and arrays
// are returned as raw JSON. A missing value, JSON null or an empty string
// reports false.
func (e *Extractor) Extract(c Capture) (string, bool) {
	if e.outcome.TransportFailed() {
		return "", false
	}
	switch c.Source {
	case SourceBody:
		return e.extractFromBody(c.Path)
	case SourceHeader:
		v := e.outcome.Header(c.Path)
		return v, v != ""
	case SourceStatus:
		return strconv.Itoa(e.outcome.StatusCode), true
	default:
		return "", false
	}
}

func (e *Extractor) extractFromBody(path string) (string, bool) {
	if !e.bodyJSON.Exists() {
		return "", false
	}

	result := e.bodyJSON
	if path != "" {
		result = e.bodyJSON.Get(path)
	}
	if !result.Exists() || result.Type == gjson.Null {
		return "", false
	}

	var value string
	switch result.Type {
	case gjson.String:
		value = result.Str
	default:
		value = result.Raw
	}
	return value, value != ""
}

// Apply extracts every capture and writes the present ones into the store.
// Values that could not be extracted leave the store untouched; the returned
// slice lists their keys in capture order.
func Apply(out *http.Outcome, captures []Capture, store *fixture.Store) []string {
	extractor := NewExtractor(out)
	var missing []string

	for _, c := range captures {
		if value, ok := extractor.Extract(c); ok {
			store.Set(c.Key, value)
			continue
		}
		missing = append(missing, c.Key)
	}

	return missing
}
