package conditional

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/visibility"
	"github.com/goliatone/go-instructform/pkg/visibility/expr"
)

// Set is a set of dotted field paths.
type Set map[string]struct{}

// Has reports whether path is in the set.
func (s Set) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for path := range s {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Hint is an informational message attached to a field. Hints never block
// submission.
type Hint struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of a single evaluation.
type Result struct {
	Visible  Set
	Required Set
	Hints    []Hint
}

// Controller evaluates registry rules.
type Controller struct {
	registry  *model.Registry
	evaluator visibility.Evaluator
}

// Option customises a Controller.
type Option func(*Controller)

// WithEvaluator swaps the rule evaluator.
func WithEvaluator(e visibility.Evaluator) Option {
	return func(c *Controller) {
		if e != nil {
			c.evaluator = e
		}
	}
}

// New returns a Controller for reg.
func New(reg *model.Registry, opts ...Option) *Controller {
	c := &Controller{registry: reg, evaluator: expr.New()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Evaluate computes visibility, requiredness and hints for values, which is
// the nested snapshot produced by the form state.
func (c *Controller) Evaluate(values map[string]any, extras map[string]any) (Result, error) {
	res := Result{Visible: Set{}, Required: Set{}}
	if c == nil || c.registry == nil {
		return res, nil
	}
	ctx := visibility.Context{Values: values, Extras: extras}
	for _, section := range c.registry.Sections {
		if err := c.evaluateFields(section.Fields, "", true, true, ctx, &res); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func (c *Controller) evaluateFields(fields []model.Field, prefix string, parentVisible, parentRequired bool, ctx visibility.Context, res *Result) error {
	for _, field := range fields {
		path := model.JoinPath(prefix, field.Key)

		visible := parentVisible
		if visible && field.VisibleWhen != "" {
			ok, err := c.evaluator.Eval(path, field.VisibleWhen, ctx)
			if err != nil {
				return fmt.Errorf("conditional: visibleWhen: %w", err)
			}
			visible = ok
		}
		if !visible {
			continue
		}
		res.Visible[path] = struct{}{}

		required := field.Required
		if field.RequiredWhen != "" {
			ok, err := c.evaluator.Eval(path, field.RequiredWhen, ctx)
			if err != nil {
				return fmt.Errorf("conditional: requiredWhen: %w", err)
			}
			required = required || ok
		}
		if !parentRequired {
			required = false
		}
		if required {
			res.Required[path] = struct{}{}
		}

		if field.Hint != "" {
			show := field.HintWhen == ""
			if !show {
				ok, err := c.evaluator.Eval(path, field.HintWhen, ctx)
				if err != nil {
					return fmt.Errorf("conditional: hintWhen: %w", err)
				}
				show = ok
			}
			if show {
				res.Hints = append(res.Hints, Hint{Path: path, Message: field.Hint})
			}
		}

		if len(field.Nested) > 0 {
			// optional groups become required once partially filled
			childRequired := required || (parentRequired && hasAnyValue(ctx.Values, path))
			if err := c.evaluateFields(field.Nested, path, true, childRequired, ctx, res); err != nil {
				return err
			}
		}
	}
	return nil
}

// VisibleAndRequired evaluates reg against values with the default
// evaluator and returns the set of visible fields that are required.
func VisibleAndRequired(reg *model.Registry, values map[string]any) (Set, error) {
	res, err := New(reg).Evaluate(values, nil)
	if err != nil {
		return nil, err
	}
	return res.Required, nil
}

func hasAnyValue(values map[string]any, path string) bool {
	current, ok := visibility.Lookup(values, path)
	if !ok {
		return false
	}
	group, ok := current.(map[string]any)
	if !ok {
		return false
	}
	for _, v := range group {
		if s, isString := v.(string); isString {
			if strings.TrimSpace(s) != "" {
				return true
			}
			continue
		}
		if v != nil {
			return true
		}
	}
	return false
}

