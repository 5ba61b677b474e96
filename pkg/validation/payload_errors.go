package validation

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-instructform/pkg/model"
)

// ErrorMapping splits a backend error payload into field-level messages keyed
// by registry paths and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// FieldErrors flattens the field messages into Errors, keeping the first
// message per path.
func (m ErrorMapping) FieldErrors() Errors {
	if len(m.Fields) == 0 {
		return nil
	}
	out := make(Errors, len(m.Fields))
	for path, messages := range m.Fields {
		if len(messages) > 0 {
			out[path] = messages[0]
		}
	}
	return out
}

// MapErrorPayload normalises backend error paths (JSON pointers, bracketed
// indices, snake_case payload keys, wrapper segments such as "body") onto
// the registry's dotted paths. Unknown paths become form-level messages so
// nothing is lost.
func MapErrorPayload(reg *model.Registry, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]string)
	for _, path := range reg.Paths() {
		known[canonical(path)] = path
	}

	for rawPath, messages := range payload {
		clean := normalizeMessages(messages)
		if len(clean) == 0 {
			continue
		}
		path, ok := matchPath(rawPath, known)
		if !ok {
			mapping.Form = append(mapping.Form, clean...)
			continue
		}
		mapping.Fields[path] = append(mapping.Fields[path], clean...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func matchPath(raw string, known map[string]string) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := dropWrappers(parseSegments(raw))
	for end := len(segments); end > 0; end-- {
		candidate := canonical(strings.Join(segments[:end], "."))
		if path, ok := known[candidate]; ok {
			return path, true
		}
	}
	return "", false
}

// canonical lowercases and strips separators so `site_address.postcode`
// matches `siteAddress.postcode`.
func canonical(path string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(path))
}

func parseSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$./")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err == nil {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func dropWrappers(segments []string) []string {
	for len(segments) > 0 {
		switch strings.ToLower(segments[0]) {
		case "body", "request", "payload", "data", "attributes":
			segments = segments[1:]
			continue
		}
		break
	}
	return segments
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}
