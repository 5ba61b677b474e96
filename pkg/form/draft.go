package form

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/geo"
	"github.com/goliatone/go-instructform/pkg/signature"
)

// Draft is a saved form: the typed sections plus enough to rebuild the
// signature, attachment list and location. Drafts are YAML documents; JSON is
// accepted as well since it parses as YAML.
type Draft struct {
	Client      Client          `yaml:"client" json:"client"`
	Property    Property        `yaml:"property" json:"property"`
	Authority   Authority       `yaml:"authority" json:"authority"`
	Invoicing   Invoicing       `yaml:"invoicing" json:"invoicing"`
	Terms       Terms           `yaml:"terms" json:"terms"`
	Notes       string          `yaml:"notes,omitempty" json:"notes,omitempty"`
	Signature   *DraftSignature `yaml:"signature,omitempty" json:"signature,omitempty"`
	Attachments []string        `yaml:"attachments,omitempty" json:"attachments,omitempty"`
	Location    *geo.Point      `yaml:"location,omitempty" json:"location,omitempty"`
}

// DraftSignature carries either a finished artifact or the strokes to replay
// onto a fresh surface. DataURL wins when both are set.
type DraftSignature struct {
	DataURL string              `yaml:"dataUrl,omitempty" json:"dataUrl,omitempty"`
	Strokes [][]signature.Point `yaml:"strokes,omitempty" json:"strokes,omitempty"`
}

// ParseDraft decodes a draft document.
func ParseDraft(data []byte) (Draft, error) {
	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("form: parse draft: %w", err)
	}
	return d, nil
}

// LoadDraft reads and decodes the draft at path. Relative attachment paths
// are resolved against the draft's directory.
func LoadDraft(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, fmt.Errorf("form: read draft: %w", err)
	}
	d, err := ParseDraft(data)
	if err != nil {
		return Draft{}, err
	}
	base := filepath.Dir(path)
	for i, p := range d.Attachments {
		if !filepath.IsAbs(p) {
			d.Attachments[i] = filepath.Join(base, p)
		}
	}
	return d, nil
}

// FromDraft builds a new form from d. Signature strokes are replayed through
// a surface configured with cfg.
func FromDraft(d Draft, cfg signature.Config) (*State, error) {
	s := New()
	if err := s.Apply(d, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply overwrites the form with the contents of d.
func (s *State) Apply(d Draft, cfg signature.Config) error {
	var artifact string
	if d.Signature != nil {
		artifact = d.Signature.DataURL
		if artifact == "" && len(d.Signature.Strokes) > 0 {
			var bound string
			surface := signature.NewSurface(cfg, func(v string) { bound = v })
			if err := surface.Replay(d.Signature.Strokes); err != nil {
				return fmt.Errorf("form: replay signature: %w", err)
			}
			artifact = bound
		}
	}

	files := make([]attachments.FileHandle, 0, len(d.Attachments))
	for _, p := range d.Attachments {
		files = append(files, attachments.LocalFile{Path: p})
	}

	var location *geo.GeoPoint
	if d.Location != nil {
		point, err := geo.Confirm(*d.Location)
		if err != nil {
			return fmt.Errorf("form: draft location: %w", err)
		}
		location = &point
	}

	return s.mutate(func() error {
		s.client = d.Client
		s.property = d.Property
		s.authority = d.Authority
		s.invoicing = d.Invoicing
		s.terms = d.Terms
		s.notes = d.Notes
		s.signature = artifact
		s.attachments = attachments.NewList(files...)
		s.location = location
		return nil
	})
}

// Draft exports the form. Attachments backed by local files keep their path;
// other handles are recorded by name only.
func (s *State) Draft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Draft{
		Client:    s.client,
		Property:  s.property,
		Authority: s.authority,
		Invoicing: s.invoicing,
		Terms:     s.terms,
		Notes:     s.notes,
	}
	if s.signature != "" {
		d.Signature = &DraftSignature{DataURL: s.signature}
	}
	for _, f := range s.attachments.Items() {
		if local, ok := f.(attachments.LocalFile); ok {
			d.Attachments = append(d.Attachments, local.Path)
			continue
		}
		d.Attachments = append(d.Attachments, f.Name())
	}
	if s.location != nil {
		d.Location = &geo.Point{Lat: s.location.Lat, Lng: s.location.Lng}
	}
	return d
}

// MarshalDraft encodes d as YAML.
func MarshalDraft(d Draft) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("form: marshal draft: %w", err)
	}
	return data, nil
}
