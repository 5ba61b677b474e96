package submission

import (
	"errors"
	"strings"

	"github.com/goliatone/go-instructform/pkg/validation"
)

var (
	// ErrInFlight is returned when submit is invoked while another submit is
	// still running. The call is a no-op.
	ErrInFlight = errors.New("submission: already in flight")
	// ErrClosed is returned once the form has been submitted successfully.
	ErrClosed = errors.New("submission: form already submitted")
)

// ValidationError carries the field errors that blocked a submission.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return "submission: " + e.Errors.Error()
}

// Unwrap exposes the underlying validation.Errors.
func (e *ValidationError) Unwrap() error {
	return e.Errors
}

// SubmissionRejected reports that the submitter refused the payload. Message
// is shown to the user verbatim; Fields holds any per-field errors the
// backend returned, keyed by registry path.
type SubmissionRejected struct {
	Message string
	Status  int
	Fields  validation.Errors
	Err     error
}

func (e *SubmissionRejected) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "rejected"
	}
	return "submission: " + msg
}

func (e *SubmissionRejected) Unwrap() error {
	return e.Err
}

// Reject wraps err as a SubmissionRejected, keeping an existing one intact.
func Reject(err error) *SubmissionRejected {
	if err == nil {
		return nil
	}
	var rejected *SubmissionRejected
	if errors.As(err, &rejected) {
		return rejected
	}
	return &SubmissionRejected{Message: err.Error(), Err: err}
}
