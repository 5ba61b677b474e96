package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/geo"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/validation"
)

// ErrDisabled is returned by every setter once the form has been closed.
var ErrDisabled = errors.New("form: disabled")

// Listener is notified after every successful mutation.
type Listener func()

// State is the single source of truth for one instruction form. It is safe
// for concurrent use; listeners are invoked outside the lock.
type State struct {
	mu sync.RWMutex

	client    Client
	property  Property
	authority Authority
	invoicing Invoicing
	terms     Terms
	notes     string

	signature   string
	attachments *attachments.List
	location    *geo.GeoPoint

	errors   validation.Errors
	alerts   []string
	disabled bool

	listeners []Listener
}

// New returns an empty, enabled form.
func New() *State {
	return &State{attachments: attachments.NewList()}
}

// Subscribe registers fn to run after each change and returns a function
// that removes it.
func (s *State) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
		s.mu.Unlock()
	}
}

func (s *State) mutate(fn func() error) error {
	s.mu.Lock()
	if s.disabled {
		s.mu.Unlock()
		return ErrDisabled
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		if l != nil {
			l()
		}
	}
	return nil
}

// Client returns a copy of the client section.
func (s *State) Client() Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// UpdateClient applies fn to the client section.
func (s *State) UpdateClient(fn func(*Client)) error {
	return s.mutate(func() error {
		fn(&s.client)
		return nil
	})
}

// Property returns a copy of the property section.
func (s *State) Property() Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.property
}

// UpdateProperty applies fn to the property section.
func (s *State) UpdateProperty(fn func(*Property)) error {
	return s.mutate(func() error {
		fn(&s.property)
		return nil
	})
}

// Authority returns a copy of the authority section.
func (s *State) Authority() Authority {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authority
}

// UpdateAuthority applies fn to the authority section.
func (s *State) UpdateAuthority(fn func(*Authority)) error {
	return s.mutate(func() error {
		fn(&s.authority)
		return nil
	})
}

// Invoicing returns a copy of the invoicing section.
func (s *State) Invoicing() Invoicing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invoicing
}

// UpdateInvoicing applies fn to the invoicing section.
func (s *State) UpdateInvoicing(fn func(*Invoicing)) error {
	return s.mutate(func() error {
		fn(&s.invoicing)
		return nil
	})
}

// Terms returns the declaration.
func (s *State) Terms() Terms {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms
}

// SetTermsAccepted sets the acceptTerms checkbox.
func (s *State) SetTermsAccepted(accepted bool) error {
	return s.mutate(func() error {
		s.terms.Accepted = accepted
		return nil
	})
}

// Notes returns the free text notes as entered.
func (s *State) Notes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes
}

// SetNotes replaces the notes.
func (s *State) SetNotes(notes string) error {
	return s.mutate(func() error {
		s.notes = notes
		return nil
	})
}

// Signature returns the current artifact, "" when unset.
func (s *State) Signature() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signature
}

// SetSignature stores a complete artifact or clears it with "".
func (s *State) SetSignature(artifact string) error {
	return s.mutate(func() error {
		s.signature = artifact
		return nil
	})
}

// SignatureBinder returns a binder that writes into this form. Writes after
// the form is disabled are dropped.
func (s *State) SignatureBinder() signature.Binder {
	return func(artifact string) {
		_ = s.SetSignature(artifact)
	}
}

// NewSignatureSurface creates a capture surface bound to this form.
func (s *State) NewSignatureSurface(cfg signature.Config) *signature.Surface {
	return signature.NewSurface(cfg, s.SignatureBinder())
}

// Attachments returns the attachment list. It is shared with the form and
// handed to the payload by reference.
func (s *State) Attachments() *attachments.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attachments
}

// AppendAttachments adds files to the end of the list.
func (s *State) AppendAttachments(files ...attachments.FileHandle) error {
	return s.mutate(func() error {
		if s.attachments == nil {
			s.attachments = attachments.NewList()
		}
		s.attachments.Append(files...)
		return nil
	})
}

// RemoveAttachment removes the file at index.
func (s *State) RemoveAttachment(index int) error {
	return s.mutate(func() error {
		return s.attachments.RemoveAt(index)
	})
}

// Location returns the confirmed site location, if any.
func (s *State) Location() (geo.GeoPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.location == nil {
		return geo.GeoPoint{}, false
	}
	return *s.location, true
}

// ConfirmLocation validates p and writes lat, lng and the map link together.
// Nothing is written when p is out of range.
func (s *State) ConfirmLocation(p geo.Point) (geo.GeoPoint, error) {
	point, err := geo.Confirm(p)
	if err != nil {
		return geo.GeoPoint{}, err
	}
	err = s.mutate(func() error {
		s.location = &point
		return nil
	})
	if err != nil {
		return geo.GeoPoint{}, err
	}
	return point, nil
}

// PickLocation asks picker for a point and confirms it.
func (s *State) PickLocation(ctx context.Context, picker geo.Picker) (geo.GeoPoint, error) {
	if picker == nil {
		return geo.GeoPoint{}, errors.New("form: location picker is required")
	}
	p, err := picker.Pick(ctx)
	if err != nil {
		return geo.GeoPoint{}, fmt.Errorf("form: pick location: %w", err)
	}
	return s.ConfirmLocation(p)
}

// ClearLocation removes the site location.
func (s *State) ClearLocation() error {
	return s.mutate(func() error {
		s.location = nil
		return nil
	})
}

// Errors returns a copy of the current field errors.
func (s *State) Errors() validation.Errors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors.Clone()
}

// SetErrors replaces the field errors. It is allowed on a disabled form so
// the final state can still be reported.
func (s *State) SetErrors(errs validation.Errors) {
	s.mu.Lock()
	s.errors = errs.Clone()
	s.mu.Unlock()
}

// Alerts returns the form level messages.
func (s *State) Alerts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.alerts...)
}

// SetAlerts replaces the form level messages.
func (s *State) SetAlerts(alerts ...string) {
	s.mu.Lock()
	s.alerts = append([]string(nil), alerts...)
	s.mu.Unlock()
}

// Disabled reports whether the form accepts changes.
func (s *State) Disabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled
}

// Reset clears every value, error and alert. The enabled flag is kept.
func (s *State) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

// Cancel discards the user's input and leaves the form usable.
func (s *State) Cancel() error {
	return s.mutate(func() error {
		s.reset()
		return nil
	})
}

// Close resets the form and disables it. It is the terminal state after a
// successful submission.
func (s *State) Close() {
	s.mu.Lock()
	s.reset()
	s.disabled = true
	s.mu.Unlock()
}

func (s *State) reset() {
	s.client = Client{}
	s.property = Property{}
	s.authority = Authority{}
	s.invoicing = Invoicing{}
	s.terms = Terms{}
	s.notes = ""
	s.signature = ""
	s.attachments = attachments.NewList()
	s.location = nil
	s.errors = nil
	s.alerts = nil
}
