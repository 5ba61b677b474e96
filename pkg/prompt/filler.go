package prompt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/conditional"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/geo"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/validation"
	"github.com/goliatone/go-instructform/pkg/visibility"
)

const textAreaThreshold = 255

// Theme holds optional message prefixes.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithRegistry overrides the embedded field registry.
func WithRegistry(reg *model.Registry) Option {
	return func(f *Filler) {
		f.registry = reg
	}
}

// WithSections restricts the walk to the given section ids.
func WithSections(ids ...string) Option {
	return func(f *Filler) {
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				f.sections[id] = struct{}{}
			}
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Filler drives a form through a Driver.
type Filler struct {
	driver     Driver
	registry   *model.Registry
	controller *conditional.Controller
	sections   map[string]struct{}
	theme      Theme
	logger     *zap.Logger
}

// New builds a Filler. Without WithDriver the survey driver is used.
func New(opts ...Option) (*Filler, error) {
	f := &Filler{
		sections: map[string]struct{}{},
		theme:    Theme{ErrorPrefix: "✗ "},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	if f.registry == nil {
		reg, err := registry.Default()
		if err != nil {
			return nil, fmt.Errorf("prompt: load registry: %w", err)
		}
		f.registry = reg
	}
	f.controller = conditional.New(f.registry)
	return f, nil
}

// Fill asks for every visible field of the selected sections, writing each
// accepted answer into state. Current values are offered as defaults, so a
// loaded draft can be reviewed in place.
func (f *Filler) Fill(ctx context.Context, state *form.State) error {
	for _, section := range f.registry.Sections {
		if len(f.sections) > 0 {
			if _, ok := f.sections[section.ID]; !ok {
				continue
			}
		}
		if err := f.info(ctx, "", "== "+section.Title+" =="); err != nil {
			return err
		}
		if err := f.fillFields(ctx, state, section.Fields, ""); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillFields(ctx context.Context, state *form.State, fields []model.Field, prefix string) error {
	for _, field := range fields {
		path := model.JoinPath(prefix, field.Key)
		result, err := f.controller.Evaluate(state.Snapshot(), nil)
		if err != nil {
			return fmt.Errorf("prompt: evaluate rules: %w", err)
		}
		if !result.Visible.Has(path) {
			continue
		}

		switch {
		case field.Kind == model.KindNested:
			if err := f.info(ctx, "", field.Label); err != nil {
				return err
			}
			if err := f.fillFields(ctx, state, field.Nested, path); err != nil {
				return err
			}
			continue
		case path == "latitude":
			if err := f.askLocation(ctx, state); err != nil {
				return err
			}
			continue
		case path == "longitude" || path == "mapsLink":
			continue
		}

		if err := f.askUntilValid(ctx, state, field, path, result.Required.Has(path)); err != nil {
			return err
		}
		if err := f.showHint(ctx, state, path); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) askUntilValid(ctx context.Context, state *form.State, field model.Field, path string, required bool) error {
	for {
		if err := f.ask(ctx, state, field, path, required); err != nil {
			if errors.Is(err, ErrAborted) || ctx.Err() != nil {
				return err
			}
			if err := f.info(ctx, f.theme.ErrorPrefix, err.Error()); err != nil {
				return err
			}
			continue
		}
		errs, err := validation.Check(f.registry, state.Snapshot())
		if err != nil {
			return err
		}
		msg, failed := errs[path]
		if !failed {
			return nil
		}
		if err := f.info(ctx, f.theme.ErrorPrefix, msg); err != nil {
			return err
		}
	}
}

func (f *Filler) ask(ctx context.Context, state *form.State, field model.Field, path string, required bool) error {
	label := field.Label
	if required {
		label += " *"
	}
	current, _ := visibility.Lookup(state.Snapshot(), path)

	switch field.Kind {
	case model.KindBoolean:
		def, _ := current.(bool)
		v, err := f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def})
		if err != nil {
			return err
		}
		return state.Bind(path, strconv.FormatBool(v))

	case model.KindEnum:
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      field.Enum,
			DefaultIndex: indexOf(field.Enum, asString(current)),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(field.Enum) {
			return errors.New("choose one of the listed options")
		}
		return state.Bind(path, field.Enum[idx])

	case model.KindSignature:
		raw, err := f.driver.Input(ctx, InputConfig{
			Message: label + " (path to a PNG or JPEG image)",
			Help:    "The image is embedded as the signature artifact.",
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		artifact, err := signatureFromFile(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		return state.SetSignature(artifact)

	case model.KindAttachments:
		raw, err := f.driver.Input(ctx, InputConfig{
			Message: label + " (comma separated paths, blank for none)",
			Default: strings.Join(state.Draft().Attachments, ", "),
		})
		if err != nil {
			return err
		}
		return replaceAttachments(state, raw)

	case model.KindText:
		if field.Constraint.MaxLength > textAreaThreshold {
			v, err := f.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: asString(current)})
			if err != nil {
				return err
			}
			return state.Bind(path, v)
		}
	}

	v, err := f.driver.Input(ctx, InputConfig{Message: label, Default: asString(current), Help: field.Hint})
	if err != nil {
		return err
	}
	return state.Bind(path, strings.TrimSpace(v))
}

func (f *Filler) askLocation(ctx context.Context, state *form.State) error {
	_, has := state.Location()
	add, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Record the site location?", Default: has})
	if err != nil {
		return err
	}
	if !add {
		return state.ClearLocation()
	}
	for {
		lat, err := f.askFloat(ctx, "Latitude")
		if err != nil {
			return err
		}
		lng, err := f.askFloat(ctx, "Longitude")
		if err != nil {
			return err
		}
		point, err := state.ConfirmLocation(geo.Point{Lat: lat, Lng: lng})
		if err != nil {
			if err := f.info(ctx, f.theme.ErrorPrefix, err.Error()); err != nil {
				return err
			}
			continue
		}
		return f.info(ctx, f.theme.InfoPrefix, "Map link: "+point.MapsLink)
	}
}

func (f *Filler) askFloat(ctx context.Context, label string) (float64, error) {
	for {
		raw, err := f.driver.Input(ctx, InputConfig{Message: label})
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil {
			return v, nil
		}
		if err := f.info(ctx, f.theme.ErrorPrefix, label+" must be a number"); err != nil {
			return 0, err
		}
	}
}

func (f *Filler) showHint(ctx context.Context, state *form.State, path string) error {
	result, err := f.controller.Evaluate(state.Snapshot(), nil)
	if err != nil {
		return err
	}
	for _, hint := range result.Hints {
		if hint.Path == path {
			return f.info(ctx, f.theme.InfoPrefix, hint.Message)
		}
	}
	return nil
}

func (f *Filler) info(ctx context.Context, prefix, msg string) error {
	return f.driver.Info(ctx, prefix+msg)
}

func replaceAttachments(state *form.State, raw string) error {
	var files []attachments.FileHandle
	for _, part := range strings.Split(raw, ",") {
		path := strings.TrimSpace(part)
		if path == "" {
			continue
		}
		file := attachments.LocalFile{Path: path}
		if _, err := file.Size(); err != nil {
			return fmt.Errorf("cannot attach %s: %w", path, err)
		}
		files = append(files, file)
	}
	for state.Attachments().Len() > 0 {
		if err := state.RemoveAttachment(state.Attachments().Len() - 1); err != nil {
			return err
		}
	}
	return state.AppendAttachments(files...)
}

func signatureFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read signature: %w", err)
	}
	mime := http.DetectContentType(data)
	artifact := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	if _, _, err := signature.DecodeArtifact(artifact, signature.DefaultMaxBytes); err != nil {
		return "", err
	}
	return artifact, nil
}

func asString(value any) string {
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

