package wizard

import (
	"sort"
	"strconv"
	"strings"
)

// ErrorMapping splits a field-keyed error payload returned by a submit
// collaborator into messages for known fields and general messages.
type ErrorMapping struct {
	Fields  map[string][]string
	General []string
}

// MergeMessages concatenates message lists, trimming whitespace and dropping
// blanks and duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload resolves payload keys (dotted names, JSON pointers such as
// "/body/email" or bracketed paths like "data[0].email") onto the field names
// declared by steps. Keys that match no field become general messages so
// nothing reported by the backend is lost.
func MapErrorPayload(steps []Step, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{})
	for _, step := range steps {
		for _, spec := range step.Fields {
			if spec.Kind.Stores() && spec.Name != "" {
				known[spec.Name] = struct{}{}
			}
		}
	}

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := resolveErrorKey(key, known)
		if !ok {
			mapping.General = append(mapping.General, messages...)
			continue
		}
		mapping.Fields[name] = append(mapping.Fields[name], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.General = normalizeMessages(mapping.General)
	return mapping
}

func resolveErrorKey(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isGeneralKey(trimmed) {
		return "", false
	}
	if _, ok := known[trimmed]; ok {
		return trimmed, true
	}

	segments := splitErrorPath(trimmed)
	if len(segments) == 0 {
		return "", false
	}

	candidates := [][]string{
		segments,
		dropWrappers(segments),
		dropIndices(segments),
		dropIndices(dropWrappers(segments)),
	}
	for _, candidate := range candidates {
		for end := len(candidate); end > 0; end-- {
			name := strings.Join(candidate[:end], ".")
			if _, ok := known[name]; ok {
				return name, true
			}
		}
	}
	last := segments[len(segments)-1]
	if _, ok := known[last]; ok {
		return last, true
	}
	return "", false
}

func splitErrorPath(path string) []string {
	clean := strings.TrimLeft(path, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropIndices(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isGeneralKey(key string) bool {
	switch strings.ToLower(key) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
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

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
