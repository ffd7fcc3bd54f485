package schema

import "github.com/goliatone/go-formwizard/pkg/field"

// Definition describes one wizard as declared in a definition file.
type Definition struct {
	ID       string            `json:"-" yaml:"-"`
	Source   string            `json:"-" yaml:"-"`
	Title    string            `json:"title" yaml:"title"`
	Endpoint EndpointConfig    `json:"endpoint" yaml:"endpoint"`
	Steps    []StepConfig      `json:"steps" yaml:"steps"`
	Initial  map[string]any    `json:"initial,omitempty" yaml:"initial,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// EndpointConfig tells the REST submit collaborator where values go.
type EndpointConfig struct {
	URL       string `json:"url" yaml:"url"`
	Method    string `json:"method,omitempty" yaml:"method,omitempty"`
	DeleteURL string `json:"deleteUrl,omitempty" yaml:"deleteUrl,omitempty"`
}

// StepConfig is one step of a definition.
type StepConfig struct {
	Title  string        `json:"title" yaml:"title"`
	Fields []FieldConfig `json:"fields" yaml:"fields"`
}

// FieldConfig is the serialisable form of field.Spec.
type FieldConfig struct {
	Name        string             `json:"name" yaml:"name"`
	Label       string             `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        string             `json:"kind,omitempty" yaml:"kind,omitempty"`
	Required    bool               `json:"required,omitempty" yaml:"required,omitempty"`
	Options     []field.Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Rules       []RuleConfig       `json:"rules,omitempty" yaml:"rules,omitempty"`
	Format      []string           `json:"format,omitempty" yaml:"format,omitempty"`
	Conditional *field.Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Default     any                `json:"default,omitempty" yaml:"default,omitempty"`
	Container   string             `json:"container,omitempty" yaml:"container,omitempty"`
}

// RuleConfig references a validator registered under Kind.
type RuleConfig struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
}
