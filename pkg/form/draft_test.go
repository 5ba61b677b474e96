package form_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/testsupport"
)

func TestDraft_RoundTrip(t *testing.T) {
	state := testsupport.CompleteForm(t)
	if _, err := state.ConfirmLocation(testLocation); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	data, err := form.MarshalDraft(state.Draft())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := form.ParseDraft(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	restored, err := form.FromDraft(parsed, signature.DefaultConfig())
	if err != nil {
		t.Fatalf("from draft: %v", err)
	}

	if diff := cmp.Diff(state.Snapshot(), restored.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDraft_ReplaysStrokes(t *testing.T) {
	d := testsupport.CompleteDraft()
	d.Signature = &form.DraftSignature{Strokes: testsupport.Strokes()}

	state, err := form.FromDraft(d, signature.DefaultConfig())
	if err != nil {
		t.Fatalf("from draft: %v", err)
	}
	if !strings.HasPrefix(state.Signature(), signature.DataURLPrefix) {
		t.Fatalf("expected replayed strokes to produce an artifact")
	}
}

func TestLoadDraft_ResolvesAttachmentPaths(t *testing.T) {
	dir := t.TempDir()
	doc := `
client:
  firstName: Ada
  lastName: Lovelace
attachments:
  - photos/front.jpg
location:
  lat: 51.5
  lng: -0.1
`
	path := filepath.Join(dir, "draft.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := form.LoadDraft(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{filepath.Join(dir, "photos", "front.jpg")}
	if diff := cmp.Diff(want, d.Attachments); diff != "" {
		t.Fatalf("attachments mismatch (-want +got):\n%s", diff)
	}

	state, err := form.FromDraft(d, signature.DefaultConfig())
	if err != nil {
		t.Fatalf("from draft: %v", err)
	}
	if got := state.Attachments().Names(); len(got) != 1 || got[0] != "front.jpg" {
		t.Fatalf("unexpected attachment names %v", got)
	}
	if loc, ok := state.Location(); !ok || loc.MapsLink == "" {
		t.Fatalf("expected confirmed location, got %+v", loc)
	}
}

func TestDraft_RejectsBadLocation(t *testing.T) {
	d := testsupport.CompleteDraft()
	d.Location = &badLocation
	if _, err := form.FromDraft(d, signature.DefaultConfig()); err == nil {
		t.Fatalf("expected an error for out of range location")
	}
}
