package validation

import (
	"github.com/goliatone/go-instructform/pkg/conditional"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/visibility"
)

// Validate checks every visible field of reg against values. state is the
// controller output for the same values; hidden fields are skipped and only
// fields in state.Required are enforced as required.
func Validate(reg *model.Registry, values map[string]any, state conditional.Result) Errors {
	errs := Errors{}
	if reg == nil {
		return errs
	}
	reg.Walk(func(path string, _ model.Section, field model.Field) bool {
		if !state.Visible.Has(path) {
			return false
		}
		if field.Kind == model.KindNested {
			return true
		}

		value, _ := visibility.Lookup(values, path)
		if isEmpty(field, value) {
			if state.Required.Has(path) {
				errs[path] = requiredMessage(field)
			}
			return true
		}
		if field.Kind == model.KindBoolean && field.Constraint.MustBeTrue {
			if b, ok := value.(bool); !ok || !b {
				errs[path] = requiredMessage(field)
			}
			return true
		}
		if msg := checkValue(field, value); msg != "" {
			errs[path] = msg
		}
		return true
	})
	return errs
}

// Check runs the conditional controller and Validate in one call.
func Check(reg *model.Registry, values map[string]any) (Errors, error) {
	state, err := conditional.New(reg).Evaluate(values, nil)
	if err != nil {
		return nil, err
	}
	return Validate(reg, values, state), nil
}

