// Package registry loads field registries from JSON or YAML documents and
// expands shared templates (the address sub-model) into nested fields. Every
// rule expression is compiled at load time so syntax errors surface before a
// form is ever rendered. Default returns the embedded instruction registry.
package registry
