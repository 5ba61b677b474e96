package validation

import (
	"sort"
	"strings"
)

// Errors maps dotted field paths to a human readable message. A nil or empty
// Errors means the values are valid.
type Errors map[string]string

// Issue is a single field failure, used where an ordered list is more
// convenient than a map.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// OK reports whether there are no failures.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Err returns e as an error, or nil when there are no failures.
func (e Errors) Err() error {
	if e.OK() {
		return nil
	}
	return e
}

// Error implements error.
func (e Errors) Error() string {
	issues := e.Issues()
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Keys returns the failing paths in lexical order.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Issues returns the failures ordered by path.
func (e Errors) Issues() []Issue {
	out := make([]Issue, 0, len(e))
	for _, key := range e.Keys() {
		out = append(out, Issue{Path: key, Message: e[key]})
	}
	return out
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
