package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/field"
)

var (
	// ErrSubmitInFlight is returned by commands rejected while a submit is
	// outstanding.
	ErrSubmitInFlight = errors.New("wizard: submit in flight")
	// ErrDeleteUnsupported is returned by Delete when no DeleteFunc was
	// configured.
	ErrDeleteUnsupported = errors.New("wizard: delete not configured")

	errSubmitRequired = errors.New("wizard: submit function is required")
)

// Outcome summarises a Submit call.
type Outcome int

const (
	// OutcomeInvalid means validation blocked the submit.
	OutcomeInvalid Outcome = iota
	// OutcomeFailed means the SubmitFunc reported or returned an error.
	OutcomeFailed
	// OutcomeSubmitted means the SubmitFunc accepted the values.
	OutcomeSubmitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	case OutcomeSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Controller sequences the steps of one wizard instance and owns its Store.
// Commands are safe to call from multiple goroutines; at most one submit is
// in flight at a time.
type Controller struct {
	mu sync.Mutex

	store       *Store
	initial     map[string]any
	engine      Engine
	submit      SubmitFunc
	onCancel    func()
	onDelete    DeleteFunc
	validateAll bool
	logger      *slog.Logger
	phase       Phase
}

// New builds a controller for steps. Configuration errors (no steps,
// duplicate names, conditionals on unknown fields) are reported here.
func New(steps []Step, submit SubmitFunc, options ...Option) (*Controller, error) {
	if submit == nil {
		return nil, errSubmitRequired
	}
	c := &Controller{
		engine: NewEngine(Messages{}),
		submit: submit,
		logger: discardLogger(),
		phase:  PhaseEditing,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	store, err := NewStore(steps, c.initial)
	if err != nil {
		return nil, err
	}
	c.store = store
	return c, nil
}

// Steps returns the configured steps.
func (c *Controller) Steps() []Step {
	return c.store.Steps()
}

// HandleFieldChange stores a new value for name. It never validates; it
// clears the stale error for name and clears dependents that became hidden.
func (c *Controller) HandleFieldChange(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.SetValue(name, value); err != nil {
		return err
	}
	c.clearHiddenDependents(name, map[string]struct{}{name: {}})
	if c.phase == PhaseSubmitted {
		c.phase = PhaseEditing
	}
	return nil
}

// Advance validates the current step and moves forward when it passes. On
// the last step it behaves like Submit and reports whether the submit
// succeeded.
func (c *Controller) Advance(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Loading() {
		return false, ErrSubmitInFlight
	}
	if c.isLastStep() {
		outcome, err := c.submitLocked(ctx)
		return outcome == OutcomeSubmitted, err
	}

	from := c.store.StepIndex()
	step := c.store.Steps()[from]
	result := c.engine.ValidateStep(step, c.store)
	c.applyValidation(step.Fields, result)
	if !result.Valid {
		c.logger.Debug("wizard: step invalid", "step", from, "errors", len(result.Errors))
		return false, nil
	}
	c.store.SetStepIndex(from + 1)
	c.phase = PhaseEditing
	c.logger.Debug("wizard: advanced", "from", from, "to", from+1)
	return true, nil
}

// Retreat moves one step back without validating.
func (c *Controller) Retreat() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Loading() {
		return false, ErrSubmitInFlight
	}
	from := c.store.StepIndex()
	if !c.store.SetStepIndex(from - 1) {
		return false, nil
	}
	c.phase = PhaseEditing
	c.logger.Debug("wizard: retreated", "from", from, "to", from-1)
	return true, nil
}

// GoToStep jumps to index without validating the steps in between. Out of
// range indices are ignored.
func (c *Controller) GoToStep(index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Loading() {
		return false, ErrSubmitInFlight
	}
	from := c.store.StepIndex()
	if !c.store.SetStepIndex(index) {
		return false, nil
	}
	c.phase = PhaseEditing
	c.logger.Debug("wizard: jumped", "from", from, "to", index)
	return true, nil
}

// Submit validates the current step (or every step with
// WithValidateAllOnSubmit) and hands the full value set to the SubmitFunc.
// A second Submit while one is in flight returns ErrSubmitInFlight without
// touching state.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitLocked(ctx)
}

// submitLocked must be called with mu held. It releases mu only around the
// SubmitFunc call, with the loading flag set so other commands back off.
func (c *Controller) submitLocked(ctx context.Context) (Outcome, error) {
	if c.store.Loading() {
		return OutcomeInvalid, ErrSubmitInFlight
	}
	if !c.validateForSubmit() {
		return OutcomeInvalid, nil
	}

	c.store.ClearMessages()
	c.store.SetLoading(true)
	c.phase = PhaseSubmitting
	values := c.store.Values()
	step := c.store.StepIndex()

	c.mu.Unlock()
	c.logger.Info("wizard: submitting", "step", step, "fields", len(values))
	result, err := c.callSubmit(ctx, values)
	c.mu.Lock()

	c.store.SetLoading(false)
	if err != nil {
		c.store.SetGeneralErrors(MergeMessages(nil, err.Error()))
		c.phase = PhaseEditing
		c.logger.Warn("wizard: submit failed", "error", err)
		return OutcomeFailed, nil
	}
	if !result.Success {
		c.applySubmitFailure(result)
		c.phase = PhaseEditing
		c.logger.Warn("wizard: submit rejected", "errors", c.store.GeneralErrors())
		return OutcomeFailed, nil
	}

	if result.Reset {
		c.store.Reset(c.initial)
	}
	c.store.SetSuccessMessage(result.Message)
	c.phase = PhaseSubmitted
	c.logger.Info("wizard: submitted", "reset", result.Reset)
	return OutcomeSubmitted, nil
}

// callSubmit runs the SubmitFunc and turns a panic into an error so the
// loading flag is always released.
func (c *Controller) callSubmit(ctx context.Context, values field.Values) (result SubmitResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("wizard: submit panicked", "panic", r)
			result, err = SubmitResult{}, fmt.Errorf("submit failed: %v", r)
		}
	}()
	return c.submit(ctx, values)
}

// ValidateCurrentStep validates the current step in place, recording its
// errors without moving. Hosts use it for validate-on-blur style feedback.
func (c *Controller) ValidateCurrentStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.store.Steps()[c.store.StepIndex()]
	result := c.engine.ValidateStep(step, c.store)
	c.applyValidation(step.Fields, result)
	return result.Valid
}

// ClearCurrentStep resets the fields of the active step to their defaults.
func (c *Controller) ClearCurrentStep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.store.StepIndex()
	c.store.ClearStep(step)
	for _, spec := range c.store.Steps()[step].Fields {
		c.clearHiddenDependents(spec.Name, map[string]struct{}{spec.Name: {}})
	}
	c.logger.Debug("wizard: cleared step", "step", step)
}

// Cancel restores the initial values, clears every message, returns to the
// first step and then fires the cancel notification. It is rejected while a
// submit is in flight since the outstanding call cannot be aborted.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.store.Loading() {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	c.store.Reset(c.initial)
	c.phase = PhaseEditing
	onCancel := c.onCancel
	c.mu.Unlock()

	c.logger.Debug("wizard: cancelled")
	if onCancel != nil {
		onCancel()
	}
	return nil
}

// Reset restores the initial values without notifying anyone, for hosts
// that keep the wizard mounted after a submit.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Loading() {
		return ErrSubmitInFlight
	}
	c.store.Reset(c.initial)
	c.phase = PhaseEditing
	return nil
}

// Delete passes the current values to the configured DeleteFunc. It is not
// part of the step flow.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	if c.onDelete == nil {
		c.mu.Unlock()
		return ErrDeleteUnsupported
	}
	if c.store.Loading() {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	values := c.store.Values()
	onDelete := c.onDelete
	c.mu.Unlock()

	if err := onDelete(ctx, values); err != nil {
		return fmt.Errorf("wizard: delete: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := c.store.Steps()
	idx := c.store.StepIndex()
	snap := Snapshot{
		Phase:            c.phase,
		CurrentStepIndex: idx,
		TotalSteps:       len(steps),
		IsFirstStep:      idx == 0,
		IsLastStep:       idx == len(steps)-1,
		StepTitle:        steps[idx].Title,
		Values:           c.store.Values(),
		FieldErrors:      c.store.FieldErrors(),
		GeneralErrors:    c.store.GeneralErrors(),
		SuccessMessage:   c.store.SuccessMessage(),
		IsLoading:        c.store.Loading(),
	}
	for _, spec := range steps[idx].Fields {
		if spec.Kind.Stores() && !Visible(spec, c.store) {
			snap.Hidden = append(snap.Hidden, spec.Name)
		}
	}
	return snap
}

func (c *Controller) isLastStep() bool {
	return c.store.StepIndex() == len(c.store.Steps())-1
}

// validateForSubmit must be called with mu held.
func (c *Controller) validateForSubmit() bool {
	steps := c.store.Steps()
	if !c.validateAll {
		step := steps[c.store.StepIndex()]
		result := c.engine.ValidateStep(step, c.store)
		c.applyValidation(step.Fields, result)
		return result.Valid
	}

	result := c.engine.ValidateSteps(steps, c.store)
	var fields []field.Spec
	for _, step := range steps {
		fields = append(fields, step.Fields...)
	}
	c.applyValidation(fields, result)
	if result.Valid {
		return true
	}
	for i, step := range steps {
		for _, spec := range step.Fields {
			if _, failed := result.Errors[spec.Name]; failed {
				c.store.SetStepIndex(i)
				return false
			}
		}
	}
	return false
}

// applyValidation replaces the errors of fields with result and clears
// hidden fields flagged ClearOnHide.
func (c *Controller) applyValidation(fields []field.Spec, result Result) {
	for _, spec := range fields {
		if _, failed := result.Errors[spec.Name]; !failed {
			c.store.clearFieldError(spec.Name)
		}
	}
	c.store.SetFieldErrors(result.Errors)
	for _, name := range result.Hidden {
		if spec, ok := c.store.fields.spec(name); ok && spec.Conditional.ClearOnHide {
			c.store.ClearField(name)
		}
	}
}

func (c *Controller) applySubmitFailure(result SubmitResult) {
	mapping := MapErrorPayload(c.store.Steps(), result.FieldErrors)
	general := MergeMessages(result.Errors, mapping.General...)
	fieldErrs := make(map[string]string, len(mapping.Fields))
	for name, msgs := range mapping.Fields {
		fieldErrs[name] = msgs[0]
	}
	if len(general) == 0 && len(fieldErrs) == 0 {
		general = []string{"submission failed"}
	}
	c.store.SetGeneralErrors(general)
	c.store.SetFieldErrors(fieldErrs)
}

// clearHiddenDependents walks the fields whose conditional watches name and
// clears the ClearOnHide ones that are now hidden, following chains.
func (c *Controller) clearHiddenDependents(name string, seen map[string]struct{}) {
	for _, dep := range c.store.fields.dependents(name) {
		if _, done := seen[dep.Name]; done {
			continue
		}
		seen[dep.Name] = struct{}{}
		if !dep.Conditional.ClearOnHide || Visible(dep, c.store) {
			continue
		}
		c.store.ClearField(dep.Name)
		c.clearHiddenDependents(dep.Name, seen)
	}
}
