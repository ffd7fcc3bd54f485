package field

import "strings"

// Kind enumerates the supported input kinds.
type Kind string

const (
	KindText          Kind = "text"
	KindNumber        Kind = "number"
	KindDate          Kind = "date"
	KindEmail         Kind = "email"
	KindPassword      Kind = "password"
	KindSelect        Kind = "select"
	KindCheckbox      Kind = "checkbox"
	KindCheckboxGroup Kind = "checkbox-group"
	KindFile          Kind = "file"
	KindFileMulti     Kind = "file-multi"
	KindHeading       Kind = "heading"
)

// ParseKind resolves a kind identifier, accepting a few aliases used in
// definition files. Unknown values report false.
func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "string", "textarea":
		return KindText, true
	case "number", "integer":
		return KindNumber, true
	case "date":
		return KindDate, true
	case "email":
		return KindEmail, true
	case "password":
		return KindPassword, true
	case "select":
		return KindSelect, true
	case "checkbox", "boolean":
		return KindCheckbox, true
	case "checkbox-group", "checkboxgroup":
		return KindCheckboxGroup, true
	case "file":
		return KindFile, true
	case "file-multi", "files":
		return KindFileMulti, true
	case "heading":
		return KindHeading, true
	default:
		return "", false
	}
}

// Stores reports whether fields of this kind hold a value.
func (k Kind) Stores() bool {
	return k != KindHeading
}

// Multi reports whether the kind stores a sequence.
func (k Kind) Multi() bool {
	return k == KindCheckboxGroup || k == KindFileMulti
}

// Values is the full value map handed to validators so cross-field checks
// such as password confirmation can be expressed.
type Values map[string]any

// Validator inspects a field value. A nil error means the value is accepted;
// otherwise the error text becomes the field message.
type Validator func(value any, all Values) error

// Formatter normalises raw input before it reaches the store.
type Formatter func(raw any) any

// Option is one selectable entry of a select or checkbox-group.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Conditional scopes a field to the value of another field. The field is
// visible only while all[DependsOn] equals Equals.
type Conditional struct {
	DependsOn   string `json:"dependsOn" yaml:"dependsOn"`
	Equals      any    `json:"equals" yaml:"equals"`
	ClearOnHide bool   `json:"clearOnHide,omitempty" yaml:"clearOnHide,omitempty"`
}

// Spec describes a single input.
type Spec struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Options  []Option

	// Validate runs for visible, non-empty values. Set ValidateEmpty when
	// the validator must also see empty input (confirmation fields).
	Validate      Validator
	ValidateEmpty bool

	Formatter   Formatter
	Conditional *Conditional

	// Default overrides the kind default used when a step is cleared.
	Default any

	// Container is layout metadata carried through for hosts.
	Container string
}

// DisplayLabel returns the label, falling back to the field name.
func (s Spec) DisplayLabel() string {
	if label := strings.TrimSpace(s.Label); label != "" {
		return label
	}
	return s.Name
}

// EmptyValue returns the declared default when present, otherwise the empty
// default for the field kind.
func (s Spec) EmptyValue() any {
	if s.Default != nil {
		return Clone(s.Default)
	}
	return Zero(s.Kind)
}

// HasOption reports whether value is one of the declared options.
func (s Spec) HasOption(value string) bool {
	for _, opt := range s.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
