package submission

import "context"

// Submitter delivers a payload to the intake backend. Implementations own
// their timeout policy; the orchestrator never cancels a call it started.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) error
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, payload Payload) error

// Submit calls fn.
func (fn SubmitterFunc) Submit(ctx context.Context, payload Payload) error {
	return fn(ctx, payload)
}
