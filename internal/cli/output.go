package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // validation failed or the backend refused
	ExitCommandError = 2 // bad arguments, unreadable files, unreachable config
)

// ExitError carries the exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func failure(message string, err error) *ExitError {
	return &ExitError{Code: ExitFailure, Message: message, Err: err}
}

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// ExitCode extracts the exit code from err. Unknown errors map to
// ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope written in json format.
type Response struct {
	Status string            `json:"status"` // "ok" or "error"
	Data   any               `json:"data,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
	Alert  string            `json:"alert,omitempty"`
}

// printer writes results in text or json.
type printer struct {
	format string
	out    io.Writer
}

func (p printer) ok(text string, data any) error {
	if p.format == "json" {
		return p.json(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintf(p.out, "✓ %s\n", text)
	return err
}

func (p printer) fail(alert string, fields map[string]string) error {
	if p.format == "json" {
		return p.json(Response{Status: "error", Alert: alert, Errors: fields})
	}
	if alert != "" {
		if _, err := fmt.Fprintf(p.out, "✗ %s\n", alert); err != nil {
			return err
		}
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := fmt.Fprintf(p.out, "  %s: %s\n", key, fields[key]); err != nil {
			return err
		}
	}
	return nil
}

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
