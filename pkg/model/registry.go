package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errRegistryIDMissing = errors.New("model: registry id is required")
	errSectionIDMissing  = errors.New("model: section id is required")
)

// JoinPath joins a parent path and child key with a dot.
func JoinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// Walk visits every field depth first, passing the dotted path and the
// section it belongs to. Returning false from fn skips the nested fields of
// the current field.
func (r *Registry) Walk(fn func(path string, section Section, field Field) bool) {
	if r == nil || fn == nil {
		return
	}
	for _, section := range r.Sections {
		walkFields(section, section.Fields, "", fn)
	}
}

func walkFields(section Section, fields []Field, prefix string, fn func(string, Section, Field) bool) {
	for _, field := range fields {
		path := JoinPath(prefix, field.Key)
		if !fn(path, section, field) {
			continue
		}
		if len(field.Nested) > 0 {
			walkFields(section, field.Nested, path, fn)
		}
	}
}

// Lookup resolves a dotted path to its field definition.
func (r *Registry) Lookup(path string) (Field, bool) {
	var (
		found Field
		ok    bool
	)
	r.Walk(func(candidate string, _ Section, field Field) bool {
		if ok {
			return false
		}
		if candidate == path {
			found, ok = field, true
			return false
		}
		return strings.HasPrefix(path, candidate+".")
	})
	return found, ok
}

// Paths lists every dotted field path in declaration order.
func (r *Registry) Paths() []string {
	var out []string
	r.Walk(func(path string, _ Section, _ Field) bool {
		out = append(out, path)
		return true
	})
	return out
}

// Section returns the section with the given id.
func (r *Registry) Section(id string) (Section, bool) {
	if r == nil {
		return Section{}, false
	}
	for _, section := range r.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// Validate checks structural invariants: known kinds, unique keys per
// section (and per nested parent), enum options present and nested children
// declared.
func (r *Registry) Validate() error {
	if r == nil || strings.TrimSpace(r.ID) == "" {
		return errRegistryIDMissing
	}
	sectionIDs := make(map[string]struct{}, len(r.Sections))
	for _, section := range r.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return errSectionIDMissing
		}
		if _, dup := sectionIDs[section.ID]; dup {
			return fmt.Errorf("model: duplicate section %q", section.ID)
		}
		sectionIDs[section.ID] = struct{}{}
		if err := validateFields(section.ID, "", section.Fields); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(sectionID, prefix string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			return fmt.Errorf("model: section %q has a field without key", sectionID)
		}
		if strings.Contains(key, ".") {
			return fmt.Errorf("model: section %q field key %q must not contain dots", sectionID, key)
		}
		path := JoinPath(prefix, key)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("model: section %q defines duplicate field %q", sectionID, path)
		}
		seen[key] = struct{}{}

		if !field.Kind.Valid() {
			return fmt.Errorf("model: field %q has unknown kind %q", path, field.Kind)
		}
		switch field.Kind {
		case KindEnum:
			if len(field.Enum) == 0 {
				return fmt.Errorf("model: enum field %q declares no options", path)
			}
		case KindNested:
			if len(field.Nested) == 0 {
				return fmt.Errorf("model: nested field %q declares no children", path)
			}
			if err := validateFields(sectionID, path, field.Nested); err != nil {
				return err
			}
		}
	}
	return nil
}
