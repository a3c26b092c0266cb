package env

import (
	"os"
	"regexp"
	"sort"
)

// ${NAME} or ${NAME:-default}
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LookupFunc resolves a variable name.
type LookupFunc func(name string) (string, bool)

// Resolver interpolates ${VAR} references in configuration text. Explicit
// variables take precedence over the process environment.
type Resolver struct {
	variables map[string]string
	lookup    LookupFunc
}

func NewResolver(vars map[string]string) *Resolver {
	r := &Resolver{
		variables: make(map[string]string),
		lookup:    os.LookupEnv,
	}
	for k, v := range vars {
		r.variables[k] = v
	}
	return r
}

// WithLookup replaces the process environment as the fallback source.
func (r *Resolver) WithLookup(fn LookupFunc) *Resolver {
	r.lookup = fn
	return r
}

func (r *Resolver) get(name string) (string, bool) {
	if v, ok := r.variables[name]; ok {
		return v, true
	}
	if r.lookup != nil {
		return r.lookup(name)
	}
	return "", false
}

// Resolve expands every reference. Unknown variables without a default
// expand to the empty string and are reported, sorted, as the second value.
func (r *Resolver) Resolve(input string) (string, []string) {
	missing := make(map[string]bool)

	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		name, def := groups[1], groups[2]
		if v, ok := r.get(name); ok {
			return v
		}
		if len(match) > len(name)+3 {
			return def
		}
		missing[name] = true
		return ""
	})

	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return out, names
}
