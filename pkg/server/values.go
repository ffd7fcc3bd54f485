package server

import (
	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func specsByName(steps []wizard.Step) map[string]field.Spec {
	out := make(map[string]field.Spec)
	for _, step := range steps {
		for _, spec := range step.Fields {
			if spec.Kind.Stores() {
				out[spec.Name] = spec
			}
		}
	}
	return out
}

// orderedNames returns the keys of changes in declaration order so a
// controlling field is applied before its dependents. Unknown names come
// last and surface as errors from the controller.
func orderedNames(steps []wizard.Step, changes map[string]any) []string {
	out := make([]string, 0, len(changes))
	seen := make(map[string]struct{}, len(changes))
	for _, step := range steps {
		for _, spec := range step.Fields {
			if _, ok := changes[spec.Name]; ok {
				if _, dup := seen[spec.Name]; !dup {
					out = append(out, spec.Name)
					seen[spec.Name] = struct{}{}
				}
			}
		}
	}
	for name := range changes {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
