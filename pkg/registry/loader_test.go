package registry_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/registry"
)

func TestDefault_LoadsInstructionRegistry(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}

	var sections []string
	for _, section := range reg.Sections {
		sections = append(sections, section.ID)
	}
	want := []string{"client", "property", "authority", "invoicing", "location", "declaration"}
	if diff := cmp.Diff(want, sections); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}

	postcode, ok := reg.Lookup("siteAddress.postcode")
	if !ok {
		t.Fatalf("expected siteAddress.postcode to be registered")
	}
	if !postcode.Required || postcode.Kind != model.KindText {
		t.Fatalf("unexpected postcode field: %+v", postcode)
	}

	other, ok := reg.Lookup("propertyTypeOther")
	if !ok || other.RequiredWhen != `propertyType == "other"` {
		t.Fatalf("unexpected propertyTypeOther field: %+v", other)
	}

	sig, ok := reg.Lookup("signatureDataUrl")
	if !ok || sig.Kind != model.KindSignature || sig.Message != "Signature is required" {
		t.Fatalf("unexpected signature field: %+v", sig)
	}

	lat, _ := reg.Lookup("latitude")
	if lat.Constraint.Min == nil || *lat.Constraint.Min != -90 {
		t.Fatalf("expected latitude min constraint, got %+v", lat.Constraint)
	}
}

func TestParse_RejectsDuplicateKeysWithinSection(t *testing.T) {
	doc := `
id: dup
sections:
  - id: client
    fields:
      - {key: email, kind: email}
      - {key: email, kind: text}
`
	_, err := registry.Parse([]byte(doc), "dup.yaml")
	if err == nil || !strings.Contains(err.Error(), "duplicate field") {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
}

func TestParse_AllowsSameKeyInDifferentNestedParents(t *testing.T) {
	doc := `{"id":"ok","sections":[{"id":"a","fields":[
		{"key":"home","kind":"nested","template":"address"},
		{"key":"work","kind":"nested","template":"address"}
	]}]}`
	reg, err := registry.Parse([]byte(doc), "ok.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := reg.Lookup("work.postcode"); !ok {
		t.Fatalf("expected work.postcode path")
	}
}

func TestParse_RejectsUnknownTemplateAndBadRules(t *testing.T) {
	cases := map[string]string{
		"template": "id: x\nsections:\n  - id: a\n    fields:\n      - {key: f, kind: nested, template: phonebook}\n",
		"rule":     "id: x\nsections:\n  - id: a\n    fields:\n      - {key: f, kind: text, visibleWhen: 'a = 1'}\n",
		"kind":     "id: x\nsections:\n  - id: a\n    fields:\n      - {key: f, kind: colour}\n",
		"enum":     "id: x\nsections:\n  - id: a\n    fields:\n      - {key: f, kind: enum}\n",
	}
	for name, doc := range cases {
		if _, err := registry.Parse([]byte(doc), name); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"form.yaml": {Data: []byte("id: tiny\nsections:\n  - id: a\n    fields:\n      - {key: name, kind: text, required: true}\n")},
	}
	reg, err := registry.LoadFS(fsys, "form.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"name"}, reg.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	if _, err := registry.LoadFS(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected error for missing document")
	}
}
