package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

// Extension keys read from request body properties.
const (
	ExtensionStep        = "x-wizard-step"
	ExtensionOrder       = "x-wizard-order"
	ExtensionVisibleWhen = "x-wizard-visible-when"
	ExtensionFormat      = "x-wizard-format"
)

var errOperationNotFound = errors.New("openapi: operation not found")

// FromOperation loads an OpenAPI document (JSON or YAML) and converts the
// request body of operationID into a wizard definition.
func FromOperation(ctx context.Context, raw []byte, operationID string) (schema.Definition, error) {
	doc, err := loadDocument(ctx, raw)
	if err != nil {
		return schema.Definition{}, err
	}

	method, path, op := findOperation(doc, operationID)
	if op == nil {
		return schema.Definition{}, fmt.Errorf("%w: %q", errOperationNotFound, operationID)
	}

	body := requestSchema(op.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return schema.Definition{}, fmt.Errorf("openapi: operation %q has no request body properties", operationID)
	}

	title := strings.TrimSpace(op.Summary)
	if title == "" {
		title = operationID
	}
	def := schema.Definition{
		ID:     operationID,
		Source: "openapi",
		Title:  title,
		Endpoint: schema.EndpointConfig{
			URL:    path,
			Method: method,
		},
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	stepIndex := make(map[string]int)
	for _, prop := range orderedProperties(body.Properties) {
		fc, err := convertProperty(prop.name, prop.schema, required[prop.name])
		if err != nil {
			return schema.Definition{}, fmt.Errorf("openapi: %s.%s: %w", operationID, prop.name, err)
		}
		stepTitle := extensionString(prop.schema.Extensions, ExtensionStep)
		if stepTitle == "" {
			stepTitle = title
		}
		idx, ok := stepIndex[stepTitle]
		if !ok {
			idx = len(def.Steps)
			stepIndex[stepTitle] = idx
			def.Steps = append(def.Steps, schema.StepConfig{Title: stepTitle})
		}
		def.Steps[idx].Fields = append(def.Steps[idx].Fields, fc)
	}
	return def, nil
}

func loadDocument(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return doc, nil
}

func findOperation(doc *openapi3.T, operationID string) (string, string, *openapi3.Operation) {
	var (
		foundMethod, foundPath string
		found                  *openapi3.Operation
	)
	walkOperations(doc, func(method, path string, op *openapi3.Operation) {
		if found == nil && op.OperationID == operationID {
			foundMethod, foundPath, found = method, path, op
		}
	})
	return foundMethod, foundPath, found
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type property struct {
	name   string
	schema *openapi3.Schema
	order  float64
}

// orderedProperties sorts by x-wizard-order, then name. Properties without
// an order go last.
func orderedProperties(props openapi3.Schemas) []property {
	out := make([]property, 0, len(props))
	for name, ref := range props {
		if ref == nil || ref.Value == nil {
			continue
		}
		order, ok := extensionNumber(ref.Value.Extensions, ExtensionOrder)
		if !ok {
			order = 1 << 30
		}
		out = append(out, property{name: name, schema: ref.Value, order: order})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].order != out[j].order {
			return out[i].order < out[j].order
		}
		return out[i].name < out[j].name
	})
	return out
}

func convertProperty(name string, s *openapi3.Schema, required bool) (schema.FieldConfig, error) {
	fc := schema.FieldConfig{
		Name:     name,
		Label:    firstNonEmpty(s.Title, s.Description, name),
		Required: required,
		Default:  s.Default,
	}

	typ := firstType(s.Type)
	switch {
	case typ == "boolean":
		fc.Kind = string(field.KindCheckbox)
	case typ == "integer" || typ == "number":
		fc.Kind = string(field.KindNumber)
	case typ == "array":
		item := itemSchema(s)
		switch {
		case item != nil && isBinary(item):
			fc.Kind = string(field.KindFileMulti)
		case item != nil && len(item.Enum) > 0:
			fc.Kind = string(field.KindCheckboxGroup)
			fc.Options = enumOptions(item.Enum)
		default:
			return fc, fmt.Errorf("unsupported array items")
		}
	case typ == "string" || typ == "":
		switch {
		case isBinary(s):
			fc.Kind = string(field.KindFile)
		case len(s.Enum) > 0:
			fc.Kind = string(field.KindSelect)
			fc.Options = enumOptions(s.Enum)
		case s.Format == "email":
			fc.Kind = string(field.KindEmail)
		case s.Format == "password":
			fc.Kind = string(field.KindPassword)
		case s.Format == "date" || s.Format == "date-time":
			fc.Kind = string(field.KindDate)
		default:
			fc.Kind = string(field.KindText)
		}
	default:
		return fc, fmt.Errorf("unsupported type %q", typ)
	}

	fc.Rules = rulesFor(s)
	if format := extensionString(s.Extensions, ExtensionFormat); format != "" {
		for _, name := range strings.Split(format, ",") {
			if name = strings.TrimSpace(name); name != "" {
				fc.Format = append(fc.Format, name)
			}
		}
	}
	cond, err := conditional(s.Extensions[ExtensionVisibleWhen])
	if err != nil {
		return fc, err
	}
	fc.Conditional = cond
	return fc, nil
}

func rulesFor(s *openapi3.Schema) []schema.RuleConfig {
	var rules []schema.RuleConfig
	param := func(v string) map[string]string { return map[string]string{"value": v} }
	if s.MinLength > 0 {
		rules = append(rules, schema.RuleConfig{Kind: field.RuleMinLength, Params: param(strconv.FormatUint(s.MinLength, 10))})
	}
	if s.MaxLength != nil {
		rules = append(rules, schema.RuleConfig{Kind: field.RuleMaxLength, Params: param(strconv.FormatUint(*s.MaxLength, 10))})
	}
	if s.Min != nil {
		rules = append(rules, schema.RuleConfig{Kind: field.RuleMin, Params: param(strconv.FormatFloat(*s.Min, 'f', -1, 64))})
	}
	if s.Max != nil {
		rules = append(rules, schema.RuleConfig{Kind: field.RuleMax, Params: param(strconv.FormatFloat(*s.Max, 'f', -1, 64))})
	}
	if s.Pattern != "" {
		rules = append(rules, schema.RuleConfig{Kind: field.RulePattern, Params: map[string]string{"pattern": s.Pattern}})
	}
	return rules
}

func conditional(raw any) (*field.Conditional, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", ExtensionVisibleWhen)
	}
	dep, _ := m["field"].(string)
	if strings.TrimSpace(dep) == "" {
		return nil, fmt.Errorf("%s.field is required", ExtensionVisibleWhen)
	}
	clearOnHide, _ := m["clearOnHide"].(bool)
	return &field.Conditional{
		DependsOn:   dep,
		Equals:      m["equals"],
		ClearOnHide: clearOnHide,
	}, nil
}

func itemSchema(s *openapi3.Schema) *openapi3.Schema {
	if s.Items == nil {
		return nil
	}
	return s.Items.Value
}

func isBinary(s *openapi3.Schema) bool {
	return s.Format == "binary"
}

func enumOptions(values []any) []field.Option {
	out := make([]field.Option, 0, len(values))
	for _, v := range values {
		s := fmt.Sprint(v)
		out = append(out, field.Option{Value: s, Label: s})
	}
	return out
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func extensionString(ext map[string]any, key string) string {
	if v, ok := ext[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func extensionNumber(ext map[string]any, key string) (float64, bool) {
	switch v := ext[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
