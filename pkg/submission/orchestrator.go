package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/conditional"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/validation"
)

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry overrides the embedded field registry.
func WithRegistry(reg *model.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = reg
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAttachmentPolicy enforces policy at submit time.
func WithAttachmentPolicy(policy attachments.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithContract checks every payload against c before it is submitted.
func WithContract(c *Contract) Option {
	return func(o *Orchestrator) {
		o.contract = c
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.denormalizer.now = now
		}
	}
}

// WithIDGenerator overrides the submission id source.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.denormalizer.newID = newID
		}
	}
}

// WithSanitizer replaces the policy applied to free text. Pass nil to keep
// text as entered.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(o *Orchestrator) {
		o.denormalizer.sanitizer = policy
	}
}

// WithStatusHook registers fn to observe status transitions.
func WithStatusHook(fn func(Status)) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.hooks = append(o.hooks, fn)
		}
	}
}

// Orchestrator drives the submit action for one form.
type Orchestrator struct {
	mu        sync.Mutex
	status    Status
	attempted bool
	lastErr   error

	form         *form.State
	submitter    Submitter
	registry     *model.Registry
	controller   *conditional.Controller
	policy       attachments.Policy
	contract     *Contract
	denormalizer Denormalizer
	logger       *zap.Logger
	hooks        []func(Status)
	unsubscribe  func()
}

// New wires an orchestrator to state and submitter.
func New(state *form.State, submitter Submitter, opts ...Option) (*Orchestrator, error) {
	if state == nil {
		return nil, errors.New("submission: form state is required")
	}
	if submitter == nil {
		return nil, errors.New("submission: submitter is required")
	}
	o := &Orchestrator{
		form:      state,
		submitter: submitter,
		logger:    zap.NewNop(),
		denormalizer: NewDenormalizer(nil, nil, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.registry == nil {
		reg, err := registry.Default()
		if err != nil {
			return nil, fmt.Errorf("submission: load registry: %w", err)
		}
		o.registry = reg
	}
	o.controller = conditional.New(o.registry)
	o.unsubscribe = state.Subscribe(o.onChange)
	return o, nil
}

// Status returns the current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Err returns the error of the last submit attempt, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Evaluate returns the conditional state for the current form values.
func (o *Orchestrator) Evaluate() (conditional.Result, error) {
	return o.controller.Evaluate(o.form.Snapshot(), nil)
}

// Validate checks the form and attaches the resulting errors to it.
func (o *Orchestrator) Validate() (validation.Errors, error) {
	values := o.form.Snapshot()
	state, err := o.controller.Evaluate(values, nil)
	if err != nil {
		return nil, fmt.Errorf("submission: evaluate rules: %w", err)
	}
	errs := validation.Validate(o.registry, values, state)
	o.form.SetErrors(errs)
	return errs, nil
}

// Submit validates, denormalises and submits the form. A call made while
// another is running returns ErrInFlight without side effects. The
// submitter runs on a context that ignores cancellation of ctx.
func (o *Orchestrator) Submit(ctx context.Context) (Payload, error) {
	o.mu.Lock()
	switch {
	case o.status.busy():
		o.mu.Unlock()
		o.logger.Debug("submit ignored, already in flight")
		return Payload{}, ErrInFlight
	case o.status == StatusSuccess:
		o.mu.Unlock()
		return Payload{}, ErrClosed
	}
	o.attempted = true
	o.lastErr = nil
	o.status = StatusValidating
	o.mu.Unlock()
	o.notify(StatusValidating)

	errs, err := o.Validate()
	if err != nil {
		return Payload{}, o.finish(StatusIdle, err)
	}
	if !errs.OK() {
		o.logger.Info("submission blocked by validation", zap.Strings("fields", errs.Keys()))
		return Payload{}, o.finish(StatusIdle, &ValidationError{Errors: errs})
	}

	if err := o.policy.Check(o.form.Attachments()); err != nil {
		o.form.SetAlerts(alertText(err))
		o.logger.Info("submission blocked by attachments", zap.Error(err))
		return Payload{}, o.finish(StatusIdle, err)
	}

	payload, err := o.denormalizer.Denormalize(o.form)
	if err != nil {
		return Payload{}, o.finish(StatusIdle, err)
	}
	if o.contract != nil {
		if err := o.contract.CheckPayload(payload); err != nil {
			o.form.SetAlerts(err.Error())
			o.logger.Error("payload does not satisfy contract", zap.Error(err))
			return Payload{}, o.finish(StatusIdle, err)
		}
	}
	o.form.SetAlerts()

	o.setStatus(StatusSubmitting)
	logger := o.logger.With(zap.String("submission_id", payload.SubmissionID))
	logger.Info("submitting instruction", zap.Int("attachments", len(payload.Attachments)))

	started := time.Now()
	if err := o.submitter.Submit(context.WithoutCancel(ctx), payload); err != nil {
		rejected := Reject(err)
		alert := rejected.Message
		if alert == "" {
			alert = err.Error()
		}
		o.form.SetAlerts(alert)
		if len(rejected.Fields) > 0 {
			o.form.SetErrors(rejected.Fields)
		}
		logger.Warn("submission rejected", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return Payload{}, o.finish(StatusFailed, rejected)
	}

	logger.Info("submission accepted", zap.Duration("elapsed", time.Since(started)))
	o.form.Close()
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	return payload, o.finish(StatusSuccess, nil)
}

// onChange revalidates after the first submit attempt so errors clear as
// the user fixes them.
func (o *Orchestrator) onChange() {
	o.mu.Lock()
	revalidate := o.attempted && !o.status.busy() && o.status != StatusSuccess
	o.mu.Unlock()
	if !revalidate {
		return
	}
	if _, err := o.Validate(); err != nil {
		o.logger.Warn("revalidation failed", zap.Error(err))
	}
}

func (o *Orchestrator) finish(status Status, err error) error {
	o.mu.Lock()
	o.lastErr = err
	o.status = status
	o.mu.Unlock()
	o.notify(status)
	return err
}

func (o *Orchestrator) setStatus(status Status) {
	o.mu.Lock()
	o.status = status
	o.mu.Unlock()
	o.notify(status)
}

// notify runs the status hooks outside the lock.
func (o *Orchestrator) notify(status Status) {
	for _, hook := range o.hooks {
		hook(status)
	}
}

func alertText(err error) string {
	var incomplete *attachments.IncompleteAttachmentError
	if errors.As(err, &incomplete) {
		return fmt.Sprintf("Please attach at least %d file(s) before submitting.", incomplete.Required)
	}
	return err.Error()
}
