package issue

import (
	"sort"
	"strings"
)

// CodeCustom is assigned to issues built from plain message payloads, which
// carry no machine-readable reason.
const CodeCustom = "custom"

// FromFieldMessages converts a go-errors style payload (path → messages) into a
// report so services that do not speak FieldIssue can still feed the overlay.
// Paths may use JSON pointer, dotted or bracketed notation and may be wrapped
// in request envelopes ("body", "request", "payload", "data", "attributes"),
// which are dropped. Form-level keys ("", "form", "__all__",
// "non_field_errors", ...) produce issues with an empty path.
//
// Messages are trimmed and de-duplicated per path; paths are emitted in sorted
// order so the result is deterministic.
func FromFieldMessages(payload map[string][]string) Report {
	if len(payload) == 0 {
		return Report{}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var issues []FieldIssue
	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}

		path := Path{}
		if !isFormLevelKey(rawPath) {
			path = PointerPath(dropWrapperSegments(parsePathSegments(rawPath)))
		}
		for _, message := range messages {
			issues = append(issues, FieldIssue{
				Path:    path,
				Code:    CodeCustom,
				Message: message,
			})
		}
	}
	return Report{FormErrors: issues}
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
		if _, exists := seen[trimmed]; exists {
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

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
	}

	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
