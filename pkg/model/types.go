package model

// Kind is the simplified enum for instruction field kinds.
type Kind string

const (
	KindText        Kind = "text"
	KindEmail       Kind = "email"
	KindPhone       Kind = "phone"
	KindNumber      Kind = "number"
	KindDate        Kind = "date"
	KindBoolean     Kind = "boolean"
	KindEnum        Kind = "enum"
	KindNested      Kind = "nested"
	KindSignature   Kind = "signature"
	KindAttachments Kind = "attachments"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindEmail, KindPhone, KindNumber, KindDate, KindBoolean,
		KindEnum, KindNested, KindSignature, KindAttachments:
		return true
	default:
		return false
	}
}

// Constraint carries kind specific validation parameters. Numbers default to
// a lower bound of zero unless Min is set.
type Constraint struct {
	MinDigits  int      `json:"minDigits,omitempty" yaml:"minDigits,omitempty"`
	MustBeTrue bool     `json:"mustBeTrue,omitempty" yaml:"mustBeTrue,omitempty"`
	MaxLength  int      `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min        *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Field describes a single input. Key is unique within its section; nested
// fields are keyed relative to their parent.
type Field struct {
	Key          string     `json:"key"`
	Kind         Kind       `json:"kind"`
	Label        string     `json:"label,omitempty"`
	Required     bool       `json:"required"`
	RequiredWhen string     `json:"requiredWhen,omitempty"`
	VisibleWhen  string     `json:"visibleWhen,omitempty"`
	Hint         string     `json:"hint,omitempty"`
	HintWhen     string     `json:"hintWhen,omitempty"`
	Message      string     `json:"message,omitempty"`
	Enum         []string   `json:"enum,omitempty"`
	Constraint   Constraint `json:"constraint,omitempty"`
	Nested       []Field    `json:"nested,omitempty"`
}

// Derived reports whether requiredness depends on other values.
func (f Field) Derived() bool {
	return f.RequiredWhen != ""
}

// Conditional reports whether the field has any rule driven by siblings.
func (f Field) Conditional() bool {
	return f.RequiredWhen != "" || f.VisibleWhen != ""
}

// Section groups related fields into a fieldset.
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Registry is the top-level form description.
type Registry struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections"`
}
