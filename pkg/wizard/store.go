package wizard

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formwizard/pkg/field"
)

// ErrUnknownField is returned when a value is written for a name no step
// declares.
var ErrUnknownField = errors.New("wizard: unknown field")

// Store holds the mutable state of one wizard instance. It applies
// formatters and defaults but carries no business rules: it never validates
// and never performs I/O. A Store is not safe for concurrent use; the
// Controller serialises access to it.
type Store struct {
	steps  []Step
	fields fieldIndex

	stepIndex     int
	values        map[string]any
	fieldErrors   map[string]string
	generalErrors []string
	success       string
	loading       bool
}

// NewStore builds a store for steps seeded with initial values. It fails on
// configuration errors such as duplicate field names.
func NewStore(steps []Step, initial map[string]any) (*Store, error) {
	idx, err := indexSteps(steps)
	if err != nil {
		return nil, err
	}
	s := &Store{
		steps:  steps,
		fields: idx,
	}
	s.Reset(initial)
	return s, nil
}

// Steps returns the configured steps.
func (s *Store) Steps() []Step {
	return s.steps
}

// Value returns the stored value or the empty default for the field kind.
func (s *Store) Value(name string) any {
	if v, ok := s.values[name]; ok {
		return v
	}
	if spec, ok := s.fields.spec(name); ok {
		return field.Zero(spec.Kind)
	}
	return nil
}

// Values returns a copy of every stored value, with kind defaults filled in
// for fields that were never set.
func (s *Store) Values() field.Values {
	out := make(field.Values, len(s.fields.order))
	for _, name := range s.fields.order {
		out[name] = field.Clone(s.Value(name))
	}
	for name, v := range s.values {
		if _, ok := out[name]; !ok {
			out[name] = field.Clone(v)
		}
	}
	return out
}

// SetValue formats and stores value, dropping any error recorded for name.
func (s *Store) SetValue(name string, value any) error {
	spec, ok := s.fields.spec(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	if spec.Formatter != nil {
		value = spec.Formatter(value)
	}
	s.values[name] = field.Clone(value)
	delete(s.fieldErrors, name)
	return nil
}

// ClearField resets name to its declared default and drops its error.
func (s *Store) ClearField(name string) {
	spec, ok := s.fields.spec(name)
	if !ok {
		return
	}
	s.values[name] = spec.EmptyValue()
	delete(s.fieldErrors, name)
}

// StepIndex returns the active step.
func (s *Store) StepIndex() int {
	return s.stepIndex
}

// SetStepIndex moves to step i. Out of range indices are ignored and report
// false.
func (s *Store) SetStepIndex(i int) bool {
	if i < 0 || i >= len(s.steps) {
		return false
	}
	s.stepIndex = i
	return true
}

// ClearStep resets every field of step i to its default.
func (s *Store) ClearStep(i int) {
	if i < 0 || i >= len(s.steps) {
		return
	}
	for _, spec := range s.steps[i].Fields {
		if !spec.Kind.Stores() {
			continue
		}
		s.ClearField(spec.Name)
	}
}

// Reset restores values to initial, clears every message and the loading
// flag, and returns to the first step.
func (s *Store) Reset(initial map[string]any) {
	s.values = make(map[string]any, len(initial))
	for k, v := range initial {
		s.values[k] = field.Clone(v)
	}
	s.fieldErrors = make(map[string]string)
	s.generalErrors = nil
	s.success = ""
	s.loading = false
	s.stepIndex = 0
}

// FieldError returns the message recorded for name.
func (s *Store) FieldError(name string) (string, bool) {
	msg, ok := s.fieldErrors[name]
	return msg, ok
}

// FieldErrors returns a copy of the field error map.
func (s *Store) FieldErrors() map[string]string {
	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

// SetFieldErrors merges errs into the field error map.
func (s *Store) SetFieldErrors(errs map[string]string) {
	for k, v := range errs {
		s.fieldErrors[k] = v
	}
}

// GeneralErrors returns the non-field messages.
func (s *Store) GeneralErrors() []string {
	return append([]string(nil), s.generalErrors...)
}

// SetGeneralErrors replaces the non-field messages.
func (s *Store) SetGeneralErrors(msgs []string) {
	s.generalErrors = append([]string(nil), msgs...)
}

// SuccessMessage returns the message of the last successful submit.
func (s *Store) SuccessMessage() string {
	return s.success
}

// SetSuccessMessage records a successful submit.
func (s *Store) SetSuccessMessage(msg string) {
	s.success = msg
}

// Loading reports whether a submit is in flight.
func (s *Store) Loading() bool {
	return s.loading
}

// SetLoading toggles the in-flight flag.
func (s *Store) SetLoading(v bool) {
	s.loading = v
}

// ClearMessages drops field errors, general errors and the success message.
func (s *Store) ClearMessages() {
	s.fieldErrors = make(map[string]string)
	s.generalErrors = nil
	s.success = ""
}

func (s *Store) clearFieldError(name string) {
	delete(s.fieldErrors, name)
}
