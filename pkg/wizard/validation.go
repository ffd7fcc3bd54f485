package wizard

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/field"
)

// ValueReader is the read side of a Store used by validation.
type ValueReader interface {
	Value(name string) any
	Values() field.Values
}

// Messages produces the built-in error texts. Text is configuration; any
// non-empty message is acceptable to the engine.
type Messages struct {
	Required      func(spec field.Spec) string
	InvalidOption func(spec field.Spec, value string) string
}

// DefaultMessages returns English messages.
func DefaultMessages() Messages {
	return Messages{
		Required: func(spec field.Spec) string {
			return spec.DisplayLabel() + " is required"
		},
		InvalidOption: func(spec field.Spec, value string) string {
			return fmt.Sprintf("%q is not a valid option for %s", value, spec.DisplayLabel())
		},
	}
}

// Result is the outcome of validating a set of fields.
type Result struct {
	Valid  bool
	Errors map[string]string
	// Hidden lists the fields skipped because their conditional is false.
	Hidden []string
}

// Engine validates steps against a value source. The zero value uses
// DefaultMessages.
type Engine struct {
	messages Messages
}

// NewEngine builds an engine with custom messages; nil callbacks fall back
// to the defaults.
func NewEngine(messages Messages) Engine {
	defaults := DefaultMessages()
	if messages.Required == nil {
		messages.Required = defaults.Required
	}
	if messages.InvalidOption == nil {
		messages.InvalidOption = defaults.InvalidOption
	}
	return Engine{messages: messages}
}

// ValidateStep validates step with default messages.
func ValidateStep(step Step, src ValueReader) Result {
	return Engine{}.ValidateStep(step, src)
}

// Visible reports whether spec is shown for the current values.
func Visible(spec field.Spec, src ValueReader) bool {
	cond := spec.Conditional
	if cond == nil {
		return true
	}
	return field.Equal(src.Value(cond.DependsOn), cond.Equals)
}

// ValidateStep checks every visible field of step and reports all failures
// together. It never mutates src.
func (e Engine) ValidateStep(step Step, src ValueReader) Result {
	return e.validateFields(step.Fields, src)
}

// ValidateSteps validates several steps in one pass.
func (e Engine) ValidateSteps(steps []Step, src ValueReader) Result {
	var fields []field.Spec
	for _, step := range steps {
		fields = append(fields, step.Fields...)
	}
	return e.validateFields(fields, src)
}

func (e Engine) validateFields(fields []field.Spec, src ValueReader) Result {
	msgs := e.messages
	if msgs.Required == nil || msgs.InvalidOption == nil {
		msgs = NewEngine(msgs).messages
	}

	result := Result{Errors: make(map[string]string)}
	var all field.Values
	for _, spec := range fields {
		if !spec.Kind.Stores() {
			continue
		}
		if !Visible(spec, src) {
			result.Hidden = append(result.Hidden, spec.Name)
			continue
		}

		value := src.Value(spec.Name)
		empty := field.IsEmpty(value)
		if spec.Required && empty {
			result.Errors[spec.Name] = msgs.Required(spec)
			continue
		}
		if !empty {
			if bad, ok := invalidOption(spec, value); ok {
				result.Errors[spec.Name] = msgs.InvalidOption(spec, bad)
				continue
			}
		}
		if spec.Validate == nil || (empty && !spec.ValidateEmpty) {
			continue
		}
		if all == nil {
			all = src.Values()
		}
		if err := spec.Validate(value, all); err != nil {
			msg := strings.TrimSpace(err.Error())
			if msg == "" {
				msg = "invalid value"
			}
			result.Errors[spec.Name] = msg
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func invalidOption(spec field.Spec, value any) (string, bool) {
	if len(spec.Options) == 0 {
		return "", false
	}
	switch spec.Kind {
	case field.KindSelect:
		s, ok := value.(string)
		if ok && !spec.HasOption(s) {
			return s, true
		}
	case field.KindCheckboxGroup:
		for _, s := range field.Strings(value) {
			if !spec.HasOption(s) {
				return s, true
			}
		}
	}
	return "", false
}
