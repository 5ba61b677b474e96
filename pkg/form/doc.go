// Package form owns the FormState aggregate of an instruction: typed section
// records, the signature artifact, the attachment list, the optional site
// location and the current validation errors.
//
// State is mutated only through the per-section Update functions and the
// dedicated setters. Snapshot exposes the values keyed by registry path for
// the conditional controller and the validator.
package form
