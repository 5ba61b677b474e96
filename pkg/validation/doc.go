// Package validation checks form values against a field registry. Validate
// is pure and total: every visible field is checked in a single pass and all
// failures are reported together, keyed by dotted field path.
package validation
