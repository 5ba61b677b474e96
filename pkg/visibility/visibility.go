// Package visibility defines the rule evaluation contract shared by the
// conditional controller, validation and the renderers.
package visibility

import "strings"

// ExtrasPrefix routes an identifier to Context.Extras instead of the form
// values.
const ExtrasPrefix = "extras."

// Evaluator decides whether a rule holds for the field at fieldPath. The same
// rules drive visibility, derived requiredness and hints.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval calls fn.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Context is what a rule can see: the nested form snapshot and caller
// supplied extras such as the operator role.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// Resolve looks up an identifier as written in a rule.
func (c Context) Resolve(ident string) (any, bool) {
	ident = strings.TrimSpace(ident)
	if rest, ok := strings.CutPrefix(ident, ExtrasPrefix); ok {
		return Lookup(c.Extras, rest)
	}
	return Lookup(c.Values, ident)
}

// Lookup walks a dotted path ("siteAddress.postcode") through nested maps. A
// flat key containing dots wins over the nested walk.
func Lookup(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}
