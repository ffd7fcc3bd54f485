package openapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const extensionNamespace = "x-wizard"

// Issue is one problem reported by Lint.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	return i.Location + " -> " + i.Message
}

// Operations lists the ids of operations whose request body can become a
// wizard, sorted.
func Operations(ctx context.Context, raw []byte) ([]string, error) {
	doc, err := loadDocument(ctx, raw)
	if err != nil {
		return nil, err
	}
	var ids []string
	walkOperations(doc, func(_, _ string, op *openapi3.Operation) {
		if body := requestSchema(op.RequestBody); body != nil && len(body.Properties) > 0 && op.OperationID != "" {
			ids = append(ids, op.OperationID)
		}
	})
	sort.Strings(ids)
	return ids, nil
}

// Lint checks the x-wizard-* extensions on request body properties: unknown
// keys, wrong value types and visibility conditions on missing properties.
func Lint(ctx context.Context, raw []byte) ([]Issue, error) {
	doc, err := loadDocument(ctx, raw)
	if err != nil {
		return nil, err
	}
	var issues []Issue
	walkOperations(doc, func(method, path string, op *openapi3.Operation) {
		body := requestSchema(op.RequestBody)
		if body == nil {
			return
		}
		base := []string{"operation", firstNonEmpty(op.OperationID, method+" "+path), "requestBody"}
		names := make([]string, 0, len(body.Properties))
		for name := range body.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := body.Properties[name]
			if ref == nil || ref.Value == nil {
				continue
			}
			location := strings.Join(append(append([]string(nil), base...), "properties", name), " > ")
			issues = append(issues, lintProperty(location, ref.Value.Extensions, body.Properties)...)
		}
	})
	return issues, nil
}

func lintProperty(location string, ext map[string]any, siblings openapi3.Schemas) []Issue {
	keys := make([]string, 0, len(ext))
	for key := range ext {
		if strings.HasPrefix(key, extensionNamespace) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var issues []Issue
	report := func(format string, args ...any) {
		issues = append(issues, Issue{Location: location, Message: fmt.Sprintf(format, args...)})
	}
	for _, key := range keys {
		value := ext[key]
		switch key {
		case ExtensionStep, ExtensionFormat:
			if _, ok := value.(string); !ok {
				report("%s must be a string, found %T", key, value)
			}
		case ExtensionOrder:
			if _, ok := extensionNumber(ext, key); !ok {
				report("%s must be a number, found %T", key, value)
			}
		case ExtensionVisibleWhen:
			cond, err := conditional(value)
			if err != nil {
				report("%v", err)
				continue
			}
			if cond == nil {
				report("%s must be an object", key)
				continue
			}
			if _, ok := siblings[cond.DependsOn]; !ok {
				report("%s.field %q is not a property of the request body", key, cond.DependsOn)
			}
		default:
			report("unsupported extension %q (supported: %s)", key,
				strings.Join([]string{ExtensionFormat, ExtensionOrder, ExtensionStep, ExtensionVisibleWhen}, ", "))
		}
	}
	return issues
}

// walkOperations visits operations in path order, then method order.
func walkOperations(doc *openapi3.T, visit func(method, path string, op *openapi3.Operation)) {
	if doc == nil || doc.Paths == nil {
		return
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			if op := ops[m]; op != nil {
				visit(strings.ToUpper(m), path, op)
			}
		}
	}
}
