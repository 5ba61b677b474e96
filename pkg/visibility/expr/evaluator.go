package expr

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-instructform/pkg/visibility"
)

// Evaluator compiles rules on first use and evaluates them against a
// visibility.Context. It is safe for concurrent use.
type Evaluator struct {
	programs sync.Map // rule -> node
}

var _ visibility.Evaluator = (*Evaluator)(nil)

// New returns an Evaluator with an empty program cache.
func New() *Evaluator { return &Evaluator{} }

// Compile parses rule without evaluating it, reporting syntax errors early.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

// Eval reports whether rule holds. An empty rule always holds.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	root, err := e.program(rule)
	if err != nil {
		return false, fmt.Errorf("%s: %w", fieldPath, err)
	}
	return root.eval(ctx)
}

func (e *Evaluator) program(rule string) (node, error) {
	key := strings.TrimSpace(rule)
	if cached, ok := e.programs.Load(key); ok {
		return cached.(node), nil
	}
	tokens, err := lex(key)
	if err != nil {
		return nil, err
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	e.programs.Store(key, root)
	return root, nil
}

// scope is the view of the form a compiled rule evaluates against.
type scope = visibility.Context

func equals(value any, lit token) (bool, error) {
	switch lit.kind {
	case tokNull:
		return value == nil || value == "", nil
	case tokBool:
		return asBool(value) == (lit.text == "true"), nil
	case tokNumber:
		want, err := strconv.ParseFloat(lit.text, 64)
		if err != nil {
			return false, fmt.Errorf("expr: invalid number %q", lit.text)
		}
		got, ok := asNumber(value)
		return ok && got == want, nil
	case tokString:
		return asString(value) == lit.text, nil
	default:
		return false, fmt.Errorf("expr: unsupported literal %q", lit.text)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		if n, ok := asNumber(value); ok {
			return n != 0
		}
		return true
	}
}

func asBool(value any) bool {
	if s, ok := value.(string); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed
		}
	}
	return truthy(value)
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
