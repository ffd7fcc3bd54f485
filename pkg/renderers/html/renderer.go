// Package html renders a wizard.Snapshot as an HTML form fragment using
// pongo2 templates. The renderer is stateless; hosts re-render after every
// controller call.
package html

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const defaultTemplate = "wizard.tmpl"

// Labels are the button captions.
type Labels struct {
	Next   string
	Submit string
	Back   string
	Clear  string
	Cancel string
	Busy   string
}

// DefaultLabels returns English captions.
func DefaultLabels() Labels {
	return Labels{
		Next:   "Next",
		Submit: "Submit",
		Back:   "Back",
		Clear:  "Clear step",
		Cancel: "Cancel",
		Busy:   "Sending…",
	}
}

// Option configures the renderer.
type Option func(*config)

type config struct {
	templates fs.FS
	name      string
	labels    Labels
}

// WithTemplatesFS loads templates from files instead of the embedded bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// WithTemplateName selects the entry template inside the bundle.
func WithTemplateName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithLabels replaces the button captions.
func WithLabels(labels Labels) Option {
	return func(cfg *config) {
		cfg.labels = labels
	}
}

// Renderer turns snapshots into HTML.
type Renderer struct {
	tmpl   *pongo2.Template
	labels Labels
}

// New parses the entry template once.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{
		templates: TemplatesFS(),
		name:      defaultTemplate,
		labels:    DefaultLabels(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	set := pongo2.NewSet("formwizard", pongo2.NewFSLoader(cfg.templates))
	tmpl, err := set.FromFile(cfg.name)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", cfg.name, err)
	}
	return &Renderer{tmpl: tmpl, labels: cfg.labels}, nil
}

// Render produces the fragment for the current step of snap. Hidden fields
// are omitted.
func (r *Renderer) Render(snap wizard.Snapshot, steps []wizard.Step) ([]byte, error) {
	if r == nil || r.tmpl == nil {
		return nil, errors.New("html: renderer is nil")
	}
	if snap.CurrentStepIndex < 0 || snap.CurrentStepIndex >= len(steps) {
		return nil, fmt.Errorf("html: step %d out of range", snap.CurrentStepIndex)
	}

	out, err := r.tmpl.ExecuteBytes(r.context(snap, steps))
	if err != nil {
		return nil, fmt.Errorf("html: execute template: %w", err)
	}
	return out, nil
}

func (r *Renderer) context(snap wizard.Snapshot, steps []wizard.Step) pongo2.Context {
	indicator := make([]map[string]any, 0, len(steps))
	for i, step := range steps {
		indicator = append(indicator, map[string]any{
			"number":  i + 1,
			"title":   step.Title,
			"current": i == snap.CurrentStepIndex,
			"done":    i < snap.CurrentStepIndex,
		})
	}

	current := steps[snap.CurrentStepIndex]
	fields := make([]map[string]any, 0, len(current.Fields))
	for _, spec := range current.Fields {
		if spec.Kind != field.KindHeading && snap.IsHidden(spec.Name) {
			continue
		}
		fields = append(fields, fieldView(spec, snap))
	}

	return pongo2.Context{
		"phase":         string(snap.Phase),
		"busy":          snap.IsLoading,
		"isFirst":       snap.IsFirstStep,
		"isLast":        snap.IsLastStep,
		"steps":         indicator,
		"fields":        fields,
		"generalErrors": snap.GeneralErrors,
		"success":       snap.SuccessMessage,
		"labels":        r.labels,
	}
}

func fieldView(spec field.Spec, snap wizard.Snapshot) map[string]any {
	view := map[string]any{
		"name":      spec.Name,
		"label":     spec.DisplayLabel(),
		"kind":      string(spec.Kind),
		"heading":   spec.Kind == field.KindHeading,
		"required":  spec.Required,
		"container": spec.Container,
		"error":     snap.FieldErrors[spec.Name],
		"inputType": inputType(spec.Kind),
		"multiple":  spec.Kind.Multi(),
	}
	value := snap.Values[spec.Name]

	switch spec.Kind {
	case field.KindCheckbox:
		checked, _ := value.(bool)
		view["checked"] = checked
	case field.KindSelect, field.KindCheckboxGroup:
		selected := make(map[string]struct{})
		for _, s := range field.Strings(value) {
			selected[s] = struct{}{}
		}
		options := make([]map[string]any, 0, len(spec.Options))
		for _, opt := range spec.Options {
			_, ok := selected[opt.Value]
			label := opt.Label
			if label == "" {
				label = opt.Value
			}
			options = append(options, map[string]any{"value": opt.Value, "label": label, "selected": ok})
		}
		view["options"] = options
	case field.KindFile, field.KindFileMulti:
		view["files"] = fileNames(value)
	default:
		if value != nil {
			view["value"] = fmt.Sprint(value)
		}
	}
	return view
}

func fileNames(value any) []string {
	var files []field.File
	switch typed := value.(type) {
	case field.File:
		files = []field.File{typed}
	case []field.File:
		files = typed
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if f != nil {
			names = append(names, f.DisplayName())
		}
	}
	return names
}

func inputType(kind field.Kind) string {
	switch kind {
	case field.KindNumber:
		return "number"
	case field.KindDate:
		return "date"
	case field.KindEmail:
		return "email"
	case field.KindPassword:
		return "password"
	default:
		return "text"
	}
}
