package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/prompt"
	"github.com/goliatone/go-instructform/pkg/submission"
	"github.com/goliatone/go-instructform/pkg/testsupport"
	"github.com/goliatone/go-instructform/pkg/validation"
)

func writeDraft(t *testing.T, signed bool) string {
	t.Helper()
	d := testsupport.CompleteDraft()
	if signed {
		d.Signature = &form.DraftSignature{DataURL: testsupport.SignatureArtifact(t)}
	}
	data, err := form.MarshalDraft(d)
	if err != nil {
		t.Fatalf("marshal draft: %v", err)
	}
	path := filepath.Join(t.TempDir(), "instruction.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write draft: %v", err)
	}
	return path
}

func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	t.Setenv("INSTRUCT_LOG_LEVEL", "error")
	buf := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestValidate_CompleteDraft(t *testing.T) {
	out, err := execute(t, &RootOptions{}, "validate", writeDraft(t, true))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "✓") || !strings.Contains(out, "ready to submit") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidate_MissingSignature(t *testing.T) {
	out, err := execute(t, &RootOptions{}, "--format", "json", "validate", writeDraft(t, false))
	if ExitCode(err) != ExitFailure {
		t.Fatalf("exit code = %d (%v), want %d", ExitCode(err), err, ExitFailure)
	}
	var resp Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := Response{Status: "error", Errors: map[string]string{"signatureDataUrl": "Signature is required"}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Errors(t *testing.T) {
	_, err := execute(t, &RootOptions{}, "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	if ExitCode(err) != ExitCommandError {
		t.Fatalf("exit code = %d (%v), want %d", ExitCode(err), err, ExitCommandError)
	}
	_, err = execute(t, &RootOptions{}, "--format", "xml", "validate", "x.yaml")
	if ExitCode(err) != ExitCommandError {
		t.Fatalf("bad format exit code = %d, want %d", ExitCode(err), ExitCommandError)
	}
}

func TestSubmit_DryRunPrintsPayload(t *testing.T) {
	out, err := execute(t, &RootOptions{}, "submit", "--dry-run", writeDraft(t, true))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	var p submission.Payload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode payload %q: %v", out, err)
	}
	if p.ClientName != "Ada Lovelace" || p.SubmissionID == "" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestSubmit_UsesSubmitter(t *testing.T) {
	var calls int
	opts := &RootOptions{submitter: submission.SubmitterFunc(func(_ context.Context, p submission.Payload) error {
		calls++
		return nil
	})}
	out, err := execute(t, opts, "submit", writeDraft(t, true))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if calls != 1 || !strings.Contains(out, "submitted") {
		t.Fatalf("calls = %d, output %q", calls, out)
	}
}

func TestSubmit_ReportsRejection(t *testing.T) {
	opts := &RootOptions{submitter: submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		return &submission.SubmissionRejected{
			Message: "Postcode not covered",
			Status:  422,
			Fields:  validation.Errors{"siteAddress.postcode": "We do not operate in this area"},
		}
	})}
	out, err := execute(t, opts, "submit", writeDraft(t, true))
	if ExitCode(err) != ExitFailure {
		t.Fatalf("exit code = %d (%v)", ExitCode(err), err)
	}
	for _, fragment := range []string{"✗ Postcode not covered", "siteAddress.postcode: We do not operate in this area"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("expected %q in %q", fragment, out)
		}
	}
}

func TestSubmit_BlocksInvalidDraft(t *testing.T) {
	opts := &RootOptions{submitter: submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		t.Fatal("submitter must not be called")
		return nil
	})}
	out, err := execute(t, opts, "submit", writeDraft(t, false))
	if ExitCode(err) != ExitFailure {
		t.Fatalf("exit code = %d (%v)", ExitCode(err), err)
	}
	if !strings.Contains(out, "signatureDataUrl") {
		t.Fatalf("expected signature error in %q", out)
	}
}

// defaultsDriver accepts every offered default.
type defaultsDriver struct{ abort bool }

func (d defaultsDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	if d.abort {
		return "", prompt.ErrAborted
	}
	return cfg.Default, nil
}

func (d defaultsDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	return cfg.Default, nil
}

func (d defaultsDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	return cfg.DefaultIndex, nil
}

func (d defaultsDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	return cfg.Default, nil
}

func (d defaultsDriver) Info(context.Context, string) error { return nil }

func TestFill_SavesDraft(t *testing.T) {
	in := writeDraft(t, true)
	outPath := filepath.Join(t.TempDir(), "out", "reviewed.yaml")
	opts := &RootOptions{newDriver: func(io.Writer) prompt.Driver { return defaultsDriver{} }}

	if _, err := execute(t, opts, "fill", "--section", "client", "--out", outPath, in); err != nil {
		t.Fatalf("fill: %v", err)
	}
	d, err := form.LoadDraft(outPath)
	if err != nil {
		t.Fatalf("load saved draft: %v", err)
	}
	if diff := cmp.Diff(testsupport.CompleteDraft().Client, d.Client); diff != "" {
		t.Fatalf("client mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_AbortKeepsProgress(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "partial.yaml")
	opts := &RootOptions{newDriver: func(io.Writer) prompt.Driver { return defaultsDriver{abort: true} }}

	_, err := execute(t, opts, "fill", "--out", outPath)
	if ExitCode(err) != ExitFailure {
		t.Fatalf("exit code = %d (%v)", ExitCode(err), err)
	}
	if _, statErr := os.Stat(outPath); statErr != nil {
		t.Fatalf("expected partial draft: %v", statErr)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !strings.Contains(exitErr.Message, "progress saved") {
		t.Fatalf("error = %v", err)
	}
}

func TestRender_WritesForm(t *testing.T) {
	out, err := execute(t, &RootOptions{}, "render", "--csrf", "tok", writeDraft(t, true))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{`action="/api/instructions"`, `name="_csrf" value="tok"`, `value="Ada"`} {
		if !strings.Contains(out, fragment) {
			t.Errorf("expected %q in output", fragment)
		}
	}
}
