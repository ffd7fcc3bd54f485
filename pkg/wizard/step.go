package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/field"
)

var (
	errNoSteps        = errors.New("wizard: at least one step is required")
	errEmptyFieldName = errors.New("wizard: field name is required")
)

// Step is an ordered group of fields and the unit of navigation.
type Step struct {
	Title  string
	Fields []field.Spec
}

// fieldIndex maps a field name to its spec and owning step.
type fieldIndex struct {
	specs map[string]field.Spec
	steps map[string]int
	order []string
}

func indexSteps(steps []Step) (fieldIndex, error) {
	idx := fieldIndex{
		specs: make(map[string]field.Spec),
		steps: make(map[string]int),
	}
	if len(steps) == 0 {
		return idx, errNoSteps
	}
	for i, step := range steps {
		for _, spec := range step.Fields {
			if spec.Kind == field.KindHeading {
				continue
			}
			name := strings.TrimSpace(spec.Name)
			if name == "" {
				return idx, fmt.Errorf("%w (step %d %q)", errEmptyFieldName, i, step.Title)
			}
			if prev, exists := idx.steps[name]; exists {
				return idx, fmt.Errorf("wizard: duplicate field %q in steps %d and %d", name, prev, i)
			}
			idx.specs[name] = spec
			idx.steps[name] = i
			idx.order = append(idx.order, name)
		}
	}
	for _, name := range idx.order {
		cond := idx.specs[name].Conditional
		if cond == nil {
			continue
		}
		if _, ok := idx.specs[cond.DependsOn]; !ok {
			return idx, fmt.Errorf("wizard: field %q depends on unknown field %q", name, cond.DependsOn)
		}
	}
	return idx, nil
}

func (idx fieldIndex) spec(name string) (field.Spec, bool) {
	spec, ok := idx.specs[name]
	return spec, ok
}

// dependents returns the fields whose conditional watches name.
func (idx fieldIndex) dependents(name string) []field.Spec {
	var out []field.Spec
	for _, candidate := range idx.order {
		spec := idx.specs[candidate]
		if spec.Conditional != nil && spec.Conditional.DependsOn == name {
			out = append(out, spec)
		}
	}
	return out
}

// CoerceValues merges layers, later layers winning, and runs the values of
// declared fields through field.Coerce. Unknown names are kept as-is so the
// store reports them.
func CoerceValues(steps []Step, layers ...map[string]any) map[string]any {
	specs := make(map[string]field.Spec)
	for _, step := range steps {
		for _, spec := range step.Fields {
			if spec.Kind.Stores() {
				specs[spec.Name] = spec
			}
		}
	}
	out := make(map[string]any)
	for _, layer := range layers {
		for name, value := range layer {
			if spec, ok := specs[name]; ok {
				value = field.Coerce(spec, value)
			}
			out[name] = value
		}
	}
	return out
}
