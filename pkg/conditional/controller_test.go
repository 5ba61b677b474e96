package conditional_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/conditional"
	"github.com/goliatone/go-instructform/pkg/registry"
)

func TestVisibleAndRequired_PropertyTypeOther(t *testing.T) {
	reg := registry.MustDefault()

	required, err := conditional.VisibleAndRequired(reg, map[string]any{"propertyType": "other"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !required.Has("propertyTypeOther") {
		t.Fatalf("expected propertyTypeOther to be required when propertyType is other")
	}

	required, err = conditional.VisibleAndRequired(reg, map[string]any{"propertyType": "open"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if required.Has("propertyTypeOther") {
		t.Fatalf("did not expect propertyTypeOther to be required for open land")
	}
}

func TestEvaluate_HiddenFieldsAreNotVisible(t *testing.T) {
	ctrl := conditional.New(registry.MustDefault())

	res, err := ctrl.Evaluate(map[string]any{"propertyType": "open", "authorityRole": "owner"}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, path := range []string{"propertyTypeOther", "hasLandRegistry", "hasLease", "hasManagementContract"} {
		if res.Visible.Has(path) {
			t.Fatalf("expected %s to be hidden", path)
		}
	}
}

func TestEvaluate_SitePlanHintAddsNoRequiredField(t *testing.T) {
	ctrl := conditional.New(registry.MustDefault())

	without, err := ctrl.Evaluate(map[string]any{"sitePlanAvailable": false}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	with, err := ctrl.Evaluate(map[string]any{"sitePlanAvailable": true}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if diff := cmp.Diff(without.Required.Sorted(), with.Required.Sorted()); diff != "" {
		t.Fatalf("site plan must not change required fields (-without +with):\n%s", diff)
	}
	if !hasHint(with.Hints, "sitePlanAvailable") {
		t.Fatalf("expected site plan hint, got %+v", with.Hints)
	}
	if hasHint(without.Hints, "sitePlanAvailable") {
		t.Fatalf("did not expect site plan hint, got %+v", without.Hints)
	}
}

func TestEvaluate_RepresentativeDocumentsEncouragedNotEnforced(t *testing.T) {
	ctrl := conditional.New(registry.MustDefault())

	res, err := ctrl.Evaluate(map[string]any{"authorityRole": "managing_agent"}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, path := range []string{"hasLandRegistry", "hasLease", "hasManagementContract"} {
		if !res.Visible.Has(path) {
			t.Fatalf("expected %s to be visible for representatives", path)
		}
		if res.Required.Has(path) {
			t.Fatalf("expected %s to stay optional", path)
		}
	}
	if !hasHint(res.Hints, "authorityRole") {
		t.Fatalf("expected encouragement hint, got %+v", res.Hints)
	}

	res, err = ctrl.Evaluate(map[string]any{"authorityRole": "managing_agent", "hasLease": true}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasHint(res.Hints, "authorityRole") {
		t.Fatalf("hint should clear once a document is ticked")
	}
}

func TestEvaluate_InvoicingSameAsClientDropsAddress(t *testing.T) {
	ctrl := conditional.New(registry.MustDefault())

	res, err := ctrl.Evaluate(map[string]any{"invoicingSameAsClient": false}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Required.Has("invoicingAddress.postcode") {
		t.Fatalf("expected invoicing postcode to be required")
	}
	if res.Required.Has("invoicingAddress.line2") {
		t.Fatalf("line2 must stay optional")
	}

	res, err = ctrl.Evaluate(map[string]any{"invoicingSameAsClient": true}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Visible.Has("invoicingAddress") || res.Required.Has("invoicingAddress.postcode") {
		t.Fatalf("expected invoicing address to be hidden")
	}
}

func TestEvaluate_IsPureFunctionOfValues(t *testing.T) {
	ctrl := conditional.New(registry.MustDefault())
	values := map[string]any{"propertyType": "other"}

	first, err := ctrl.Evaluate(values, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := ctrl.Evaluate(map[string]any{"propertyType": "open"}, nil); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	second, err := ctrl.Evaluate(values, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results depend on history (-first +second):\n%s", diff)
	}
}

func hasHint(hints []conditional.Hint, path string) bool {
	for _, hint := range hints {
		if hint.Path == path {
			return true
		}
	}
	return false
}

func TestEvaluate_BlankOptionalGroupStaysOptional(t *testing.T) {
	reg, err := registry.Parse([]byte(`{"id":"t","sections":[{"id":"a","fields":[
		{"key":"work","kind":"nested","template":"address"}
	]}]}`), "optional.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctrl := conditional.New(reg)

	res, err := ctrl.Evaluate(map[string]any{"work": map[string]any{"line2": "   ", "city": "\t"}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Required.Has("work.postcode") {
		t.Fatalf("whitespace must not make the optional group required")
	}

	res, err = ctrl.Evaluate(map[string]any{"work": map[string]any{"line2": "Flat 2"}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Required.Has("work.postcode") {
		t.Fatalf("a partly filled group must require its postcode")
	}
}
