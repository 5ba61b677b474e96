package registry

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-instructform/pkg/address"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/visibility/expr"
)

// DefaultDocument is the file name of the embedded instruction registry.
const DefaultDocument = "instruction.yaml"

// Template produces the nested fields for a `template:` reference.
type Template func() []model.Field

var templates = map[string]Template{
	"address": address.Fields,
}

type documentFile struct {
	ID       string        `json:"id" yaml:"id"`
	Title    string        `json:"title" yaml:"title"`
	Sections []sectionFile `json:"sections" yaml:"sections"`
}

type sectionFile struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Key          string           `json:"key" yaml:"key"`
	Kind         string           `json:"kind" yaml:"kind"`
	Label        string           `json:"label" yaml:"label"`
	Required     bool             `json:"required" yaml:"required"`
	RequiredWhen string           `json:"requiredWhen" yaml:"requiredWhen"`
	VisibleWhen  string           `json:"visibleWhen" yaml:"visibleWhen"`
	Hint         string           `json:"hint" yaml:"hint"`
	HintWhen     string           `json:"hintWhen" yaml:"hintWhen"`
	Message      string           `json:"message" yaml:"message"`
	Enum         []string         `json:"enum" yaml:"enum"`
	Constraint   model.Constraint `json:"constraint" yaml:"constraint"`
	Template     string           `json:"template" yaml:"template"`
	Fields       []fieldFile      `json:"fields" yaml:"fields"`
}

var (
	defaultOnce sync.Once
	defaultReg  *model.Registry
	defaultErr  error
)

// Default returns the embedded instruction registry. The result is shared;
// callers must treat it as read-only.
func Default() (*model.Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = LoadFS(EmbeddedFS(), DefaultDocument)
	})
	return defaultReg, defaultErr
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *model.Registry {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	return reg
}

// LoadFS reads and parses the named document from fsys.
func LoadFS(fsys fs.FS, name string) (*model.Registry, error) {
	if fsys == nil {
		return nil, fmt.Errorf("registry: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// Parse decodes a JSON or YAML registry document. source is only used in
// error messages.
func Parse(data []byte, source string) (*model.Registry, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("registry: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("registry: parse %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}

	reg := &model.Registry{
		ID:       strings.TrimSpace(doc.ID),
		Title:    strings.TrimSpace(doc.Title),
		Sections: make([]model.Section, 0, len(doc.Sections)),
	}
	for _, raw := range doc.Sections {
		fields, err := buildFields(raw.Fields, source)
		if err != nil {
			return nil, err
		}
		reg.Sections = append(reg.Sections, model.Section{
			ID:          strings.TrimSpace(raw.ID),
			Title:       raw.Title,
			Description: raw.Description,
			Fields:      fields,
		})
	}

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry: %s: %w", source, err)
	}
	if err := compileRules(reg); err != nil {
		return nil, fmt.Errorf("registry: %s: %w", source, err)
	}
	return reg, nil
}

func buildFields(raw []fieldFile, source string) ([]model.Field, error) {
	out := make([]model.Field, 0, len(raw))
	for _, entry := range raw {
		field := model.Field{
			Key:          strings.TrimSpace(entry.Key),
			Kind:         model.Kind(strings.ToLower(strings.TrimSpace(entry.Kind))),
			Label:        entry.Label,
			Required:     entry.Required,
			RequiredWhen: strings.TrimSpace(entry.RequiredWhen),
			VisibleWhen:  strings.TrimSpace(entry.VisibleWhen),
			Hint:         entry.Hint,
			HintWhen:     strings.TrimSpace(entry.HintWhen),
			Message:      entry.Message,
			Enum:         append([]string(nil), entry.Enum...),
			Constraint:   entry.Constraint,
		}

		if name := strings.TrimSpace(entry.Template); name != "" {
			tmpl, ok := templates[name]
			if !ok {
				return nil, fmt.Errorf("registry: %s: field %q references unknown template %q", source, field.Key, name)
			}
			field.Kind = model.KindNested
			field.Nested = tmpl()
		}
		if len(entry.Fields) > 0 {
			nested, err := buildFields(entry.Fields, source)
			if err != nil {
				return nil, err
			}
			field.Nested = append(field.Nested, nested...)
		}
		out = append(out, field)
	}
	return out, nil
}

func compileRules(reg *model.Registry) error {
	eval := expr.New()
	var firstErr error
	reg.Walk(func(path string, _ model.Section, field model.Field) bool {
		if firstErr != nil {
			return false
		}
		for _, rule := range []string{field.RequiredWhen, field.VisibleWhen, field.HintWhen} {
			if rule == "" {
				continue
			}
			if err := eval.Compile(rule); err != nil {
				firstErr = fmt.Errorf("field %q rule %q: %w", path, rule, err)
				return false
			}
		}
		return true
	})
	return firstErr
}
