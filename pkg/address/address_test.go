package address_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/address"
)

func TestCompose_SkipsEmptyParts(t *testing.T) {
	addr := address.Address{
		Line1:    " 12 Mill Lane ",
		City:     "Leeds",
		Postcode: "ls1  4ap",
		Country:  "United Kingdom",
	}

	want := "12 Mill Lane, Leeds, LS1 4AP, United Kingdom"
	if got := addr.Compose(); got != want {
		t.Fatalf("Compose() = %q, want %q", got, want)
	}
}

func TestComplete(t *testing.T) {
	full := address.Address{Line1: "1 High St", City: "York", Postcode: "YO1 7HH", Country: "United Kingdom"}
	if !full.Complete() {
		t.Fatalf("expected address to be complete")
	}

	missing := full
	missing.Postcode = "   "
	if missing.Complete() {
		t.Fatalf("expected address without postcode to be incomplete")
	}

	if !(address.Address{Line2: " "}).IsZero() {
		t.Fatalf("expected whitespace-only address to be zero")
	}
}

func TestFields_Template(t *testing.T) {
	var keys []string
	var required []string
	for _, field := range address.Fields() {
		keys = append(keys, field.Key)
		if field.Required {
			required = append(required, field.Key)
		}
	}

	if diff := cmp.Diff([]string{"line1", "line2", "city", "region", "postcode", "country"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"line1", "city", "postcode", "country"}, required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
}
