package html

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/pkg/conditional"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/visibility"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

const (
	formTemplate        = "form"
	defaultPreviewWidth = 240
	textareaThreshold   = 255
)

// Templates returns the embedded templates rooted at the template directory.
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithRegistry overrides the embedded field registry.
func WithRegistry(reg *model.Registry) Option {
	return func(r *Renderer) {
		r.registry = reg
	}
}

// WithTemplates replaces the embedded templates. The set must provide
// form.tpl, field.tpl and input.tpl.
func WithTemplates(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.templates = files
		}
	}
}

// WithPreviewWidth sets the width of the signature preview in pixels.
func WithPreviewWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.previewWidth = width
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer turns form state into HTML.
type Renderer struct {
	registry     *model.Registry
	controller   *conditional.Controller
	templates    fs.FS
	engine       *Engine
	previewWidth int
	logger       *zap.Logger
}

// Request carries the per-render settings.
type Request struct {
	Action string
	Method string
	Hidden []HiddenField
}

// New builds a Renderer.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		templates:    Templates(),
		previewWidth: defaultPreviewWidth,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.registry == nil {
		reg, err := registry.Default()
		if err != nil {
			return nil, fmt.Errorf("html: load registry: %w", err)
		}
		r.registry = reg
	}
	engine, err := NewEngine(r.templates, nil)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	r.controller = conditional.New(r.registry)
	return r, nil
}

// Render writes the form to out and returns the markup.
func (r *Renderer) Render(state *form.State, req Request, out ...io.Writer) (string, error) {
	view, err := r.View(state, req)
	if err != nil {
		return "", err
	}
	return r.engine.RenderTemplate(formTemplate, view, out...)
}

// View builds the template data for state.
func (r *Renderer) View(state *form.State, req Request) (View, error) {
	values := state.Snapshot()
	result, err := r.controller.Evaluate(values, nil)
	if err != nil {
		return View{}, fmt.Errorf("html: evaluate rules: %w", err)
	}
	errs := state.Errors()
	hints := make(map[string]string, len(result.Hints))
	for _, hint := range result.Hints {
		hints[hint.Path] = hint.Message
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = "post"
	}
	view := View{
		Title:    r.registry.Title,
		Action:   req.Action,
		Method:   method,
		Disabled: state.Disabled(),
		Alerts:   state.Alerts(),
		Hidden:   sortHidden(req.Hidden),
	}

	b := fieldBuilder{
		values:       values,
		result:       result,
		errors:       errs,
		hints:        hints,
		previewWidth: r.previewWidth,
		logger:       r.logger,
	}
	for _, section := range r.registry.Sections {
		fields := b.fields(section.Fields, "")
		if len(fields) == 0 {
			continue
		}
		view.Sections = append(view.Sections, SectionView{
			ID:          section.ID,
			Title:       section.Title,
			Description: section.Description,
			Fields:      fields,
		})
	}
	return view, nil
}

type fieldBuilder struct {
	values       map[string]any
	result       conditional.Result
	errors       map[string]string
	hints        map[string]string
	previewWidth int
	logger       *zap.Logger
}

func (b fieldBuilder) fields(fields []model.Field, prefix string) []FieldView {
	out := make([]FieldView, 0, len(fields))
	for _, field := range fields {
		path := model.JoinPath(prefix, field.Key)
		if !b.result.Visible.Has(path) {
			continue
		}
		value, _ := visibility.Lookup(b.values, path)
		view := FieldView{
			Name:      path,
			ID:        "field-" + strings.ReplaceAll(path, ".", "-"),
			Label:     field.Label,
			Input:     inputType(field),
			Required:  b.result.Required.Has(path),
			MaxLength: field.Constraint.MaxLength,
			Error:     b.errors[path],
			Hint:      b.hints[path],
		}

		switch field.Kind {
		case model.KindNested:
			view.Children = b.fields(field.Nested, path)
		case model.KindBoolean:
			checked, _ := value.(bool)
			view.Checked = checked
		case model.KindEnum:
			current := text(value)
			view.Options = make([]OptionView, 0, len(field.Enum))
			for _, option := range field.Enum {
				view.Options = append(view.Options, OptionView{
					Value:    option,
					Label:    optionLabel(option),
					Selected: option == current,
				})
			}
		case model.KindSignature:
			view.Value = text(value)
			if view.Value != "" {
				preview, err := signature.Thumbnail(view.Value, b.previewWidth)
				if err != nil {
					b.logger.Warn("signature preview failed", zap.Error(err))
				} else {
					view.Preview = preview
				}
			}
		case model.KindAttachments:
			if names, ok := value.([]string); ok {
				view.Files = names
			}
		default:
			view.Value = text(value)
		}
		out = append(out, view)
	}
	return out
}

func inputType(field model.Field) string {
	switch field.Kind {
	case model.KindEmail:
		return "email"
	case model.KindPhone:
		return "tel"
	case model.KindNumber:
		return "number"
	case model.KindDate:
		return "date"
	case model.KindBoolean:
		return "checkbox"
	case model.KindEnum:
		return "select"
	case model.KindNested:
		return "group"
	case model.KindSignature:
		return "signature"
	case model.KindAttachments:
		return "file"
	}
	if field.Constraint.MaxLength > textareaThreshold {
		return "textarea"
	}
	return "text"
}

func optionLabel(option string) string {
	label := strings.ReplaceAll(option, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

