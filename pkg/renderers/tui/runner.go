package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type action int

const (
	actionNext action = iota
	actionBack
	actionClear
	actionCancel
)

// Runner walks a wizard.Controller in the terminal: it prompts the visible
// fields of the current step, then asks what to do next.
type Runner struct {
	driver   PromptDriver
	theme    Theme
	labels   Labels
	openFile FileOpener
	logger   *slog.Logger
}

// NewRunner constructs a runner with the survey driver unless overridden.
func NewRunner(options ...Option) *Runner {
	r := &Runner{
		labels:   DefaultLabels(),
		openFile: openLocalFile,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// Run drives c until a submission succeeds or the user cancels. The final
// snapshot is returned on success; cancellation yields ErrCancelled.
func (r *Runner) Run(ctx context.Context, c *wizard.Controller) (wizard.Snapshot, error) {
	if ctx == nil {
		return wizard.Snapshot{}, errors.New("tui: context is required")
	}
	if c == nil {
		return wizard.Snapshot{}, errors.New("tui: controller is nil")
	}

	steps := c.Steps()
	for {
		if err := ctx.Err(); err != nil {
			return c.Snapshot(), err
		}
		snap := c.Snapshot()
		step := steps[snap.CurrentStepIndex]

		if err := r.showStatus(ctx, snap); err != nil {
			return snap, err
		}
		if err := r.promptStep(ctx, c, step); err != nil {
			return c.Snapshot(), err
		}

		act, err := r.chooseAction(ctx, c.Snapshot())
		if err != nil {
			return c.Snapshot(), err
		}
		r.logger.Debug("tui: action", "step", snap.CurrentStepIndex, "action", act)

		switch act {
		case actionNext:
			if _, err := c.Advance(ctx); err != nil {
				return c.Snapshot(), err
			}
			if done := c.Snapshot(); done.Phase == wizard.PhaseSubmitted {
				if done.SuccessMessage != "" {
					if err := r.driver.Info(ctx, r.theme.SuccessPrefix+done.SuccessMessage); err != nil {
						return done, err
					}
				}
				return done, nil
			}
		case actionBack:
			if _, err := c.Retreat(); err != nil {
				return c.Snapshot(), err
			}
		case actionClear:
			c.ClearCurrentStep()
		case actionCancel:
			if err := c.Cancel(); err != nil {
				return c.Snapshot(), err
			}
			return c.Snapshot(), ErrCancelled
		}
	}
}

func (r *Runner) showStatus(ctx context.Context, snap wizard.Snapshot) error {
	header := fmt.Sprintf("%s[%d/%d] %s", r.theme.StepPrefix, snap.CurrentStepIndex+1, snap.TotalSteps, snap.StepTitle)
	if err := r.driver.Info(ctx, header); err != nil {
		return err
	}
	for _, msg := range snap.GeneralErrors {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return err
		}
	}
	return nil
}

// promptStep asks for every visible field of step. Visibility is re-read
// after each answer so a dependent appears as soon as its condition holds.
func (r *Runner) promptStep(ctx context.Context, c *wizard.Controller, step wizard.Step) error {
	for _, spec := range step.Fields {
		snap := c.Snapshot()
		if spec.Kind == field.KindHeading {
			if err := r.driver.Info(ctx, spec.DisplayLabel()); err != nil {
				return err
			}
			continue
		}
		if snap.IsHidden(spec.Name) {
			continue
		}
		if msg, ok := snap.FieldErrors[spec.Name]; ok {
			if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, spec.DisplayLabel(), msg)); err != nil {
				return err
			}
		}
		value, err := r.promptField(ctx, spec, snap.Values)
		if err != nil {
			return fmt.Errorf("tui: %s: %w", spec.Name, err)
		}
		if err := c.HandleFieldChange(spec.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) chooseAction(ctx context.Context, snap wizard.Snapshot) (action, error) {
	forward := r.labels.Next
	if snap.IsLastStep {
		forward = r.labels.Submit
	}
	options := []string{forward}
	actions := []action{actionNext}
	if !snap.IsFirstStep {
		options = append(options, r.labels.Back)
		actions = append(actions, actionBack)
	}
	options = append(options, r.labels.Clear, r.labels.Cancel)
	actions = append(actions, actionClear, actionCancel)

	idx, err := r.driver.Select(ctx, SelectConfig{Message: r.labels.Action, Options: options})
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(actions) {
		return 0, fmt.Errorf("tui: action index %d out of range", idx)
	}
	return actions[idx], nil
}

func (r *Runner) promptField(ctx context.Context, spec field.Spec, values field.Values) (any, error) {
	label := spec.DisplayLabel()
	if spec.Required {
		label += " *"
	}
	current := values[spec.Name]

	switch spec.Kind {
	case field.KindPassword:
		s, _ := current.(string)
		return r.driver.Password(ctx, InputConfig{Message: label, Default: s, Check: answerCheck(spec, values)})
	case field.KindCheckbox:
		b, _ := current.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: b})
	case field.KindSelect:
		return r.promptSelect(ctx, spec, label, current)
	case field.KindCheckboxGroup:
		return r.promptCheckboxGroup(ctx, spec, label, current)
	case field.KindFile:
		return r.promptFile(ctx, label, current)
	case field.KindFileMulti:
		return r.promptFiles(ctx, label, current)
	default:
		s, _ := current.(string)
		return r.driver.Input(ctx, InputConfig{Message: label, Default: s, Check: answerCheck(spec, values)})
	}
}

// answerCheck runs the field's formatter and validator on a typed answer so
// the prompt re-asks before the value reaches the controller. Requiredness
// is left to the controller so a blank answer can still go Back.
func answerCheck(spec field.Spec, values field.Values) func(string) error {
	if spec.Validate == nil {
		return nil
	}
	return func(answer string) error {
		var value any = answer
		if spec.Formatter != nil {
			value = spec.Formatter(value)
		}
		if field.IsEmpty(value) && !spec.ValidateEmpty {
			return nil
		}
		all := make(field.Values, len(values)+1)
		for name, v := range values {
			all[name] = v
		}
		all[spec.Name] = value
		return spec.Validate(value, all)
	}
}

func (r *Runner) promptSelect(ctx context.Context, spec field.Spec, label string, current any) (any, error) {
	labels, values := optionLists(spec.Options)
	cur, _ := current.(string)
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		Descriptions: optionDescriptions(labels, values),
		DefaultIndex: optionIndex(values, cur),
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(values) {
		return "", nil
	}
	return values[idx], nil
}

func (r *Runner) promptCheckboxGroup(ctx context.Context, spec field.Spec, label string, current any) (any, error) {
	labels, values := optionLists(spec.Options)
	picked, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		Descriptions: optionDescriptions(labels, values),
		Defaults:     optionIndices(values, field.Strings(current)),
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(values) {
			out = append(out, values[idx])
		}
	}
	return out, nil
}

// promptFile keeps the current file when the answer is blank.
func (r *Runner) promptFile(ctx context.Context, label string, current any) (any, error) {
	def := ""
	if f, ok := current.(field.File); ok && f != nil {
		def = f.DisplayName()
	}
	path, err := r.driver.Input(ctx, InputConfig{Message: label, Help: def})
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return current, nil
	}
	return r.pending(path), nil
}

// promptFiles appends comma separated paths to the files already attached.
func (r *Runner) promptFiles(ctx context.Context, label string, current any) (any, error) {
	existing, _ := current.([]field.File)
	names := make([]string, 0, len(existing))
	for _, f := range existing {
		names = append(names, f.DisplayName())
	}
	raw, err := r.driver.Input(ctx, InputConfig{Message: label, Help: strings.Join(names, ", ")})
	if err != nil {
		return nil, err
	}
	out := append([]field.File{}, existing...)
	for _, path := range strings.Split(raw, ",") {
		if path = strings.TrimSpace(path); path != "" {
			out = append(out, r.pending(path))
		}
	}
	return out, nil
}

func (r *Runner) pending(path string) field.PendingFile {
	open := r.openFile
	return field.PendingFile{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return open(path) },
	}
}

func optionLists(options []field.Option) (labels, values []string) {
	labels = make([]string, 0, len(options))
	values = make([]string, 0, len(options))
	for _, opt := range options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		values = append(values, opt.Value)
	}
	return labels, values
}

// optionDescriptions shows the stored value next to labels that differ
// from it; nil when every label is its value.
func optionDescriptions(labels, values []string) []string {
	out := make([]string, len(values))
	differs := false
	for i := range values {
		if labels[i] != values[i] {
			out[i] = values[i]
			differs = true
		}
	}
	if !differs {
		return nil
	}
	return out
}

func optionIndex(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}

func optionIndices(values, picked []string) []int {
	want := make(map[string]struct{}, len(picked))
	for _, v := range picked {
		want[v] = struct{}{}
	}
	var out []int
	for i, v := range values {
		if _, ok := want[v]; ok {
			out = append(out, i)
		}
	}
	return out
}
