package html

// View is the template data for a whole form.
type View struct {
	Title    string        `json:"title"`
	Action   string        `json:"action"`
	Method   string        `json:"method"`
	Disabled bool          `json:"disabled"`
	Alerts   []string      `json:"alerts,omitempty"`
	Hidden   []HiddenField `json:"hidden,omitempty"`
	Sections []SectionView `json:"sections"`
}

// SectionView is one visible section.
type SectionView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldView `json:"fields"`
}

// FieldView is one visible field. Name is the registry path, which is also
// the form parameter the intake backend binds.
type FieldView struct {
	Name      string       `json:"name"`
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Input     string       `json:"input"`
	Value     string       `json:"value,omitempty"`
	Checked   bool         `json:"checked,omitempty"`
	Required  bool         `json:"required,omitempty"`
	MaxLength int          `json:"max_length,omitempty"`
	Error     string       `json:"error,omitempty"`
	Hint      string       `json:"hint,omitempty"`
	Options   []OptionView `json:"options,omitempty"`
	Children  []FieldView  `json:"children,omitempty"`
	Preview   string       `json:"preview,omitempty"`
	Files     []string     `json:"files,omitempty"`
}

// OptionView is a select option.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}
