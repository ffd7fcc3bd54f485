package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Build resolves the definition into wizard steps. A nil registry uses the
// built-ins.
func (d Definition) Build(reg *Registry) ([]wizard.Step, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	steps := make([]wizard.Step, 0, len(d.Steps))
	for i, sc := range d.Steps {
		step := wizard.Step{Title: sc.Title}
		for _, fc := range sc.Fields {
			spec, err := buildField(fc, reg)
			if err != nil {
				return nil, fmt.Errorf("schema: %s step %d field %q: %w", d.ID, i, fc.Name, err)
			}
			step.Fields = append(step.Fields, spec)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Validate builds the definition and checks the wizard invariants (unique
// names, resolvable conditionals, initial values for declared fields).
func (d Definition) Validate(reg *Registry) error {
	steps, err := d.Build(reg)
	if err != nil {
		return err
	}
	store, err := wizard.NewStore(steps, nil)
	if err != nil {
		return fmt.Errorf("schema: %s: %w", d.ID, err)
	}
	for name := range d.Initial {
		if err := store.SetValue(name, d.Initial[name]); err != nil {
			return fmt.Errorf("schema: %s initial values: %w", d.ID, err)
		}
	}
	return nil
}

func buildField(fc FieldConfig, reg *Registry) (field.Spec, error) {
	kind, ok := field.ParseKind(fc.Kind)
	if !ok {
		return field.Spec{}, fmt.Errorf("unknown kind %q", fc.Kind)
	}
	spec := field.Spec{
		Name:        strings.TrimSpace(fc.Name),
		Label:       fc.Label,
		Kind:        kind,
		Required:    fc.Required,
		Options:     append([]field.Option(nil), fc.Options...),
		Conditional: fc.Conditional,
		Default:     normalizeDefault(kind, fc.Default),
		Container:   fc.Container,
	}
	if kind == field.KindHeading {
		return spec, nil
	}
	if kind == field.KindEmail && !hasRule(fc.Rules, field.RuleEmail) {
		fc.Rules = append([]RuleConfig{{Kind: field.RuleEmail}}, fc.Rules...)
	}

	validate, checksEmpty, err := reg.validator(fc.Rules)
	if err != nil {
		return field.Spec{}, err
	}
	spec.Validate = validate
	spec.ValidateEmpty = checksEmpty

	formatter, err := reg.formatter(fc.Format)
	if err != nil {
		return field.Spec{}, err
	}
	spec.Formatter = formatter
	return spec, nil
}

// normalizeDefault coerces decoded JSON/YAML defaults into the value shapes
// the store uses.
func normalizeDefault(kind field.Kind, raw any) any {
	if raw == nil {
		return nil
	}
	switch kind {
	case field.KindCheckboxGroup:
		return append([]string{}, field.Strings(raw)...)
	case field.KindCheckbox:
		if b, ok := raw.(bool); ok {
			return b
		}
		return strings.EqualFold(fmt.Sprint(raw), "true")
	case field.KindFile, field.KindFileMulti:
		return nil
	default:
		if s, ok := raw.(string); ok {
			return s
		}
		return fmt.Sprint(raw)
	}
}

func hasRule(rules []RuleConfig, kind string) bool {
	for _, r := range rules {
		if r.Kind == kind {
			return true
		}
	}
	return false
}
