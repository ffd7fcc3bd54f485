package field

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Zero returns the empty default for a kind: "" for scalar inputs, false for
// checkboxes, an empty slice for checkbox-group/file-multi and nil for file
// and heading.
func Zero(kind Kind) any {
	switch kind {
	case KindCheckbox:
		return false
	case KindCheckboxGroup:
		return []string{}
	case KindFileMulti:
		return []File{}
	case KindFile, KindHeading:
		return nil
	default:
		return ""
	}
}

// IsEmpty reports whether value counts as "not provided": nil, blank strings,
// false, empty slices and maps, and nil file pointers.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case bool:
		return !typed
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	case []File:
		return len(typed) == 0
	case *PendingFile:
		return typed == nil
	case *ExistingFile:
		return typed == nil
	case ExistingFile:
		return strings.TrimSpace(typed.URL) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Equal compares two stored values. It is strict about types, so "true" and
// true differ, but tolerates non-comparable values such as slices.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Clone copies slices and maps so stored values never alias caller data.
func Clone(value any) any {
	switch typed := value.(type) {
	case []string:
		return append([]string{}, typed...)
	case []File:
		return append([]File{}, typed...)
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = Clone(v)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = Clone(v)
		}
		return out
	default:
		return typed
	}
}

// Strings coerces checkbox-group style values into a string slice.
func Strings(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, v := range typed {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	default:
		return nil
	}
}

// Coerce maps decoded JSON or YAML onto the value shape spec's kind stores.
// File kinds accept URLs (or {"url": ...} objects) of already uploaded
// assets; typed File values pass through.
func Coerce(spec Spec, raw any) any {
	switch spec.Kind {
	case KindCheckbox:
		if b, ok := raw.(bool); ok {
			return b
		}
		return strings.EqualFold(fmt.Sprint(raw), "true")
	case KindCheckboxGroup:
		return Strings(raw)
	case KindFile:
		if raw == nil {
			return nil
		}
		if f, ok := raw.(File); ok {
			return f
		}
		if f, ok := existingFile(raw); ok {
			return f
		}
		if s, ok := raw.(string); ok && s == "" {
			return nil
		}
		return raw
	case KindFileMulti:
		files := []File{}
		switch typed := raw.(type) {
		case []File:
			files = append(files, typed...)
		case []string:
			for _, u := range typed {
				files = append(files, ExistingFile{URL: u})
			}
		case []any:
			for _, item := range typed {
				if f, ok := item.(File); ok {
					files = append(files, f)
				} else if f, ok := existingFile(item); ok {
					files = append(files, f)
				}
			}
		}
		return files
	default:
		switch typed := raw.(type) {
		case nil:
			return ""
		case string:
			return typed
		case json.Number:
			return typed.String()
		default:
			return fmt.Sprint(typed)
		}
	}
}

func existingFile(raw any) (ExistingFile, bool) {
	switch typed := raw.(type) {
	case string:
		if typed != "" {
			return ExistingFile{URL: typed}, true
		}
	case map[string]any:
		if u, ok := typed["url"].(string); ok && u != "" {
			return ExistingFile{URL: u}, true
		}
	}
	return ExistingFile{}, false
}
