// Package instructform exposes the eviction-services instruction form: the
// in-memory form state, its conditional rules and validation, the payload
// builder and the submitters that deliver it.
package instructform

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/render/html"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/submission"
	"github.com/goliatone/go-instructform/pkg/submission/httpsubmit"
)

type (
	State           = form.State
	Draft           = form.Draft
	Registry        = model.Registry
	Payload         = submission.Payload
	Submitter       = submission.Submitter
	SubmitterFunc   = submission.SubmitterFunc
	Orchestrator    = submission.Orchestrator
	Option          = submission.Option
	RenderRequest   = html.Request
	RenderOption    = html.Option
	SubmitterOption = httpsubmit.Option
)

// NewForm returns an empty form.
func NewForm() *State {
	return form.New()
}

// LoadDraft reads a saved draft and restores it into a new form. The
// signature artifact is replayed onto a default-sized pad.
func LoadDraft(path string) (*State, error) {
	d, err := form.LoadDraft(path)
	if err != nil {
		return nil, err
	}
	return form.FromDraft(d, signature.DefaultConfig())
}

// DefaultRegistry returns the built-in field registry.
func DefaultRegistry() (*Registry, error) {
	return registry.Default()
}

// NewOrchestrator wires a form to a submitter.
func NewOrchestrator(state *State, submitter Submitter, opts ...Option) (*Orchestrator, error) {
	return submission.New(state, submitter, opts...)
}

// NewHTTPSubmitter returns a submitter that posts multipart requests to
// endpoint.
func NewHTTPSubmitter(endpoint string, opts ...SubmitterOption) Submitter {
	return httpsubmit.New(endpoint, opts...)
}

// Submit validates state and sends it in one call.
func Submit(ctx context.Context, state *State, submitter Submitter, opts ...Option) (Payload, error) {
	orch, err := NewOrchestrator(state, submitter, opts...)
	if err != nil {
		return Payload{}, err
	}
	return orch.Submit(ctx)
}

// RenderHTML renders the form markup for state.
func RenderHTML(state *State, req RenderRequest, opts ...RenderOption) (string, error) {
	r, err := html.New(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(state, req)
}

// SchemaFS exposes the embedded field registry document.
func SchemaFS() fs.FS {
	return registry.EmbeddedFS()
}

// TemplatesFS exposes the built-in HTML templates so callers can extend them.
func TemplatesFS() fs.FS {
	return html.Templates()
}

// ContractDocument returns the OpenAPI document describing the payload.
func ContractDocument() []byte {
	return submission.ContractDocument()
}
