package submission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/geo"
	"github.com/goliatone/go-instructform/pkg/submission"
	"github.com/goliatone/go-instructform/pkg/testsupport"
	"github.com/goliatone/go-instructform/pkg/validation"
)

var fixedTime = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newOrchestrator(t *testing.T, state *form.State, submitter submission.Submitter, opts ...submission.Option) *submission.Orchestrator {
	t.Helper()
	opts = append([]submission.Option{
		submission.WithClock(func() time.Time { return fixedTime }),
		submission.WithIDGenerator(func() string { return "5f0c6a52-8a8e-4b7a-9d43-6c1f0f6f7f10" }),
	}, opts...)
	o, err := submission.New(state, submitter, opts...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestSubmit_MissingSignatureBlocksCallback(t *testing.T) {
	var calls int32
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	state := testsupport.UnsignedForm(t)
	o := newOrchestrator(t, state, submitter)

	_, err := o.Submit(context.Background())

	var verr *submission.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := validation.Errors{"signatureDataUrl": "Signature is required"}
	if diff := cmp.Diff(want, verr.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, state.Errors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("callback must not run while errors exist")
	}
	if o.Status() != submission.StatusIdle {
		t.Fatalf("expected idle after validation failure, got %s", o.Status())
	}
}

func TestSubmit_CompleteFormCallsOnce(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []submission.Payload
	)
	submitter := submission.SubmitterFunc(func(_ context.Context, p submission.Payload) error {
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		return nil
	})

	state := testsupport.CompleteForm(t)
	client := state.Client()
	contract, err := submission.DefaultContract()
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	o := newOrchestrator(t, state, submitter, submission.WithContract(contract))

	payload, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("expected exactly one callback, got %d", len(payloads))
	}
	if got, want := payloads[0].ClientName, client.FirstName+" "+client.LastName; got != want {
		t.Fatalf("client_name = %q, want %q", got, want)
	}
	if payload.PropertyAddress != "12 Site Road, Leeds, West Yorkshire, LS1 4AP, United Kingdom" {
		t.Fatalf("property_address = %q", payload.PropertyAddress)
	}

	values, err := payload.Values()
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	for _, key := range contract.RequiredKeys() {
		if _, ok := values[key]; !ok {
			t.Fatalf("payload missing required key %q", key)
		}
	}

	if o.Status() != submission.StatusSuccess {
		t.Fatalf("expected success, got %s", o.Status())
	}
	if !state.Disabled() || state.Signature() != "" {
		t.Fatalf("form must be cleared and disabled after success")
	}
	if _, err := o.Submit(context.Background()); !errors.Is(err, submission.ErrClosed) {
		t.Fatalf("expected ErrClosed on resubmit, got %v", err)
	}
}

func TestSubmit_RemovingAttachmentInFlightKeepsPayload(t *testing.T) {
	state := testsupport.CompleteForm(t)
	if err := state.AppendAttachments(
		&attachments.MemoryFile{FileName: "a.txt", Data: []byte("a")},
		&attachments.MemoryFile{FileName: "b.txt", Data: []byte("b")},
	); err != nil {
		t.Fatalf("append: %v", err)
	}

	var sent []string
	submitter := submission.SubmitterFunc(func(_ context.Context, p submission.Payload) error {
		if err := state.RemoveAttachment(0); err != nil {
			return err
		}
		for _, f := range p.Attachments {
			if f == nil {
				sent = append(sent, "<nil>")
				continue
			}
			sent = append(sent, f.Name())
		}
		return nil
	})

	payload, err := newOrchestrator(t, state, submitter).Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := []string{"a.txt", "b.txt"}
	if diff := cmp.Diff(want, sent); diff != "" {
		t.Fatalf("attachments seen by submitter (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, payload.AttachmentNames); diff != "" {
		t.Fatalf("attachment names (-want +got):\n%s", diff)
	}
}

func TestSubmit_DoubleSubmitInvokesOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	entered := make(chan struct{})
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
		}
		<-release
		return nil
	})
	o := newOrchestrator(t, testsupport.CompleteForm(t), submitter)

	var g errgroup.Group
	g.Go(func() error {
		_, err := o.Submit(context.Background())
		return err
	})

	<-entered
	if o.Status() != submission.StatusSubmitting {
		t.Fatalf("expected submitting, got %s", o.Status())
	}
	var dupes errgroup.Group
	for i := 0; i < 5; i++ {
		dupes.Go(func() error {
			_, err := o.Submit(context.Background())
			if !errors.Is(err, submission.ErrInFlight) {
				return errors.New("duplicate submit was not ignored: " + errString(err))
			}
			return nil
		})
	}
	dupErr := dupes.Wait()
	close(release)
	if dupErr != nil {
		t.Fatalf("%v", dupErr)
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one callback invocation, got %d", got)
	}
}

func TestSubmit_RejectionPreservesInput(t *testing.T) {
	attempts := 0
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		attempts++
		if attempts == 1 {
			return &submission.SubmissionRejected{
				Message: "Site is outside our coverage area",
				Status:  422,
				Fields:  validation.Errors{"siteAddress.postcode": "Unknown postcode"},
			}
		}
		return nil
	})
	state := testsupport.CompleteForm(t)
	before := state.Snapshot()
	o := newOrchestrator(t, state, submitter)

	_, err := o.Submit(context.Background())
	var rejected *submission.SubmissionRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected SubmissionRejected, got %v", err)
	}
	if o.Status() != submission.StatusFailed {
		t.Fatalf("expected failed, got %s", o.Status())
	}
	if diff := cmp.Diff([]string{"Site is outside our coverage area"}, state.Alerts()); diff != "" {
		t.Fatalf("alerts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, state.Snapshot()); diff != "" {
		t.Fatalf("input must be preserved (-want +got):\n%s", diff)
	}
	if state.Errors()["siteAddress.postcode"] != "Unknown postcode" {
		t.Fatalf("backend field errors must be attached, got %v", state.Errors())
	}

	if _, err := o.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected a manual retry to reach the submitter, got %d calls", attempts)
	}
}

func TestSubmit_PlainErrorBecomesRejection(t *testing.T) {
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		return errors.New("connection refused")
	})
	o := newOrchestrator(t, testsupport.CompleteForm(t), submitter)

	_, err := o.Submit(context.Background())
	var rejected *submission.SubmissionRejected
	if !errors.As(err, &rejected) || rejected.Message != "connection refused" {
		t.Fatalf("expected wrapped rejection, got %v", err)
	}
	if !errors.Is(o.Err(), err) {
		t.Fatalf("Err() should report the last failure")
	}
}

func TestSubmit_DetachedFromCancellation(t *testing.T) {
	var ctxErr error
	submitter := submission.SubmitterFunc(func(ctx context.Context, _ submission.Payload) error {
		ctxErr = ctx.Err()
		return nil
	})
	o := newOrchestrator(t, testsupport.CompleteForm(t), submitter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ctxErr != nil {
		t.Fatalf("submitter context must not be cancelled, got %v", ctxErr)
	}
}

func TestSubmit_AttachmentPolicy(t *testing.T) {
	var calls int
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error {
		calls++
		return nil
	})
	state := testsupport.CompleteForm(t)
	o := newOrchestrator(t, state, submitter, submission.WithAttachmentPolicy(attachments.Policy{MinCount: 1}))

	_, err := o.Submit(context.Background())
	var incomplete *attachments.IncompleteAttachmentError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteAttachmentError, got %v", err)
	}
	if calls != 0 || o.Status() != submission.StatusIdle {
		t.Fatalf("attachment alert must block submission")
	}
	if len(state.Alerts()) != 1 {
		t.Fatalf("expected a blocking alert, got %v", state.Alerts())
	}

	photo := &attachments.MemoryFile{FileName: "front.jpg", Data: []byte{0xff, 0xd8, 0xff}}
	if err := state.AppendAttachments(photo); err != nil {
		t.Fatalf("append: %v", err)
	}
	payload, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(payload.Attachments) != 1 || payload.Attachments[0] != attachments.FileHandle(photo) {
		t.Fatalf("attachments must be passed by reference")
	}
	if diff := cmp.Diff([]string{"front.jpg"}, payload.AttachmentNames); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_RevalidatesAfterFirstAttempt(t *testing.T) {
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error { return nil })
	state := testsupport.UnsignedForm(t)
	o := newOrchestrator(t, state, submitter)

	_ = state.SetNotes("before any attempt")
	if len(state.Errors()) != 0 {
		t.Fatalf("no errors should appear before the first submit")
	}

	if _, err := o.Submit(context.Background()); err == nil {
		t.Fatalf("expected validation failure")
	}
	if err := state.SetSignature(testsupport.SignatureArtifact(t)); err != nil {
		t.Fatalf("set signature: %v", err)
	}
	if errs := state.Errors(); len(errs) != 0 {
		t.Fatalf("errors should clear once fixed, got %v", errs)
	}
}

func TestSubmit_StatusTransitions(t *testing.T) {
	var seen []submission.Status
	submitter := submission.SubmitterFunc(func(context.Context, submission.Payload) error { return nil })
	o := newOrchestrator(t, testsupport.CompleteForm(t), submitter, submission.WithStatusHook(func(s submission.Status) {
		seen = append(seen, s)
	}))

	if _, err := o.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := []submission.Status{submission.StatusValidating, submission.StatusSubmitting, submission.StatusSuccess}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestDenormalize_Representative(t *testing.T) {
	var got submission.Payload
	submitter := submission.SubmitterFunc(func(_ context.Context, p submission.Payload) error {
		got = p
		return nil
	})
	state := testsupport.CompleteForm(t)
	_ = state.UpdateAuthority(func(a *form.Authority) {
		a.Role = "managing_agent"
		a.HasLease = true
		a.HasManagementContract = true
	})
	_ = state.UpdateProperty(func(p *form.Property) { p.VehicleCount = "2" })
	_ = state.SetNotes("<script>alert(1)</script>Back gate is <b>locked</b>")
	if _, err := state.ConfirmLocation(geo.Point{Lat: 53.8, Lng: -1.55}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	o := newOrchestrator(t, state, submitter)

	if _, err := o.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]string{"lease", "management_contract"}, got.SupportingDocuments); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
	if got.Notes != "Back gate is locked" {
		t.Fatalf("notes not sanitised: %q", got.Notes)
	}
	if got.Vehicles == nil || *got.Vehicles != 2 || got.Occupants == nil || *got.Occupants != 3 {
		t.Fatalf("counts not parsed: %v %v", got.Vehicles, got.Occupants)
	}
	if got.Latitude == nil || *got.Latitude != 53.8 || got.MapsLink == "" {
		t.Fatalf("location not denormalised: %+v", got)
	}
	if got.InvoicingAddress != got.ClientAddress || got.InvoiceEmail != got.ClientEmail {
		t.Fatalf("invoicing should fall back to client details")
	}
	if got.SubmissionID == "" || !got.SubmittedAt.Equal(fixedTime) {
		t.Fatalf("metadata not set: %q %v", got.SubmissionID, got.SubmittedAt)
	}
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
