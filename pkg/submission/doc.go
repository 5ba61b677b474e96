// Package submission turns a validated form into the denormalised payload
// expected by the intake backend and guards the submit action so that at
// most one submission is in flight per form.
//
// The orchestrator moves through idle, validating, submitting and then
// success or failed. Validation failures go back to idle with the errors
// attached to the form; rejections from the submitter leave the input intact
// so the user can retry; success closes the form.
package submission
