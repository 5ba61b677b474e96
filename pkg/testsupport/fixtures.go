package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/goliatone/go-instructform/pkg/address"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/signature"
)

// Address returns a complete UK address with the given first line.
func Address(line1 string) address.Address {
	return address.Address{
		Line1:    line1,
		City:     "Leeds",
		Region:   "West Yorkshire",
		Postcode: "LS1 4AP",
		Country:  "United Kingdom",
	}
}

// CompleteDraft returns a draft that passes validation once a signature is
// added.
func CompleteDraft() form.Draft {
	return form.Draft{
		Client: form.Client{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.co.uk",
			Phone:     "0113 496 0000",
			Address:   Address("1 Client Street"),
		},
		Property: form.Property{
			SiteAddress:   Address("12 Site Road"),
			Type:          "residential",
			OccupantCount: "3",
			RequiredDate:  "2026-11-02",
		},
		Authority: form.Authority{Role: "owner"},
		Invoicing: form.Invoicing{SameAsClient: true},
		Terms:     form.Terms{Accepted: true},
		Notes:     "Gate code 4512",
	}
}

// Strokes is a short two-stroke signature used across tests.
func Strokes() [][]signature.Point {
	return [][]signature.Point{
		{{X: 20, Y: 120}, {X: 60, Y: 60}, {X: 100, Y: 130}, {X: 140, Y: 70}},
		{{X: 180, Y: 100}, {X: 260, Y: 100}},
	}
}

// SignatureArtifact draws Strokes on a default surface and returns the data
// URL.
func SignatureArtifact(t *testing.T) string {
	t.Helper()

	var artifact string
	surface := signature.NewSurface(signature.DefaultConfig(), func(v string) { artifact = v })
	if err := surface.Replay(Strokes()); err != nil {
		t.Fatalf("draw signature: %v", err)
	}
	if artifact == "" {
		t.Fatalf("draw signature: surface bound an empty artifact")
	}
	return artifact
}

// CompleteForm returns a form that validates cleanly, signature included.
func CompleteForm(t *testing.T) *form.State {
	t.Helper()

	state := UnsignedForm(t)
	if err := state.SetSignature(SignatureArtifact(t)); err != nil {
		t.Fatalf("set signature: %v", err)
	}
	return state
}

// UnsignedForm returns a complete form with no signature drawn.
func UnsignedForm(t *testing.T) *form.State {
	t.Helper()

	state, err := form.FromDraft(CompleteDraft(), signature.DefaultConfig())
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	return state
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput runs a render that both returns and streams markup,
// and returns the two copies.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
