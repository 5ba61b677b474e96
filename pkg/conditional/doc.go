// Package conditional computes which fields of a registry are visible and
// required for a given set of form values. The computation is a pure function
// of the current values: it never looks at the history of edits, so callers
// simply recompute after every change.
package conditional
