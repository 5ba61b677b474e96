// Package prompt fills an instruction form interactively in a terminal. It
// walks the registry section by section, asks only for fields that are
// currently visible and re-asks until each answer passes validation.
//
// Prompts go through a Driver so the flow can be scripted in tests; the
// default driver uses survey.
package prompt
