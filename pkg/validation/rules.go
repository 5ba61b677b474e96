package validation

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-instructform/pkg/model"
)

// DateLayout is the accepted layout for date fields.
const DateLayout = "2006-01-02"

const defaultMinPhoneDigits = 10

func requiredMessage(field model.Field) string {
	if field.Message != "" {
		return field.Message
	}
	return labelOf(field) + " is required"
}

func labelOf(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Key
}

// isEmpty reports whether value counts as "not provided" for field.
func isEmpty(field model.Field, value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return field.Kind == model.KindBoolean && !v
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case int:
		return field.Kind == model.KindAttachments && v == 0
	default:
		return false
	}
}

// checkValue applies the kind specific constraint to a non-empty value and
// returns the failure message, or "" when the value is acceptable.
func checkValue(field model.Field, value any) string {
	label := labelOf(field)
	switch field.Kind {
	case model.KindText:
		s := asString(value)
		if limit := field.Constraint.MaxLength; limit > 0 && len([]rune(s)) > limit {
			return fmt.Sprintf("%s must be at most %d characters", label, limit)
		}
	case model.KindEmail:
		if !validEmail(asString(value)) {
			return "Enter a valid email address"
		}
	case model.KindPhone:
		minDigits := field.Constraint.MinDigits
		if minDigits <= 0 {
			minDigits = defaultMinPhoneDigits
		}
		if !validPhone(asString(value), minDigits) {
			return fmt.Sprintf("%s must contain at least %d digits", label, minDigits)
		}
	case model.KindNumber:
		n, ok := asNumber(value)
		if !ok {
			return label + " must be a number"
		}
		lower := 0.0
		if field.Constraint.Min != nil {
			lower = *field.Constraint.Min
		}
		if n < lower {
			if lower == 0 {
				return label + " must be zero or more"
			}
			return fmt.Sprintf("%s must be at least %s", label, strconv.FormatFloat(lower, 'f', -1, 64))
		}
		if field.Constraint.Max != nil && n > *field.Constraint.Max {
			return fmt.Sprintf("%s must be at most %s", label, strconv.FormatFloat(*field.Constraint.Max, 'f', -1, 64))
		}
	case model.KindDate:
		if _, err := time.Parse(DateLayout, strings.TrimSpace(asString(value))); err != nil {
			return label + " must be a date (YYYY-MM-DD)"
		}
	case model.KindEnum:
		s := asString(value)
		for _, option := range field.Enum {
			if option == s {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(field.Enum, ", "))
	case model.KindBoolean:
		if _, ok := value.(bool); !ok {
			return label + " must be true or false"
		}
	case model.KindSignature:
		if !strings.HasPrefix(asString(value), "data:image/") {
			return label + " is not a valid image"
		}
	}
	return ""
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func validPhone(s string, minDigits int) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= minDigits
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
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
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
