package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a free-text question.
type InputConfig struct {
	Message string
	Default string
	Help    string
	// Check runs on every answer; a non-nil error re-asks the question
	// with the message shown inline.
	Check func(answer string) error
}

// ConfirmConfig describes a yes/no question.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a pick-one or pick-many question. Options are
// display labels; answers are indices into Options.
type SelectConfig struct {
	Message string
	Options []string
	// Descriptions are shown next to the option with the same index.
	Descriptions []string
	// DefaultIndex preselects one option; -1 or out of range leaves the
	// cursor on the first.
	DefaultIndex int
	// Defaults preselects options of a multi-select.
	Defaults []int
	Help     string
}

// PromptDriver is the terminal seen by the Runner. Tests script it; the
// survey driver is used interactively.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the interactive driver. Info lines go to out
// (stdout when nil).
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	prompt := &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	err := d.ask(ctx, prompt, &answer, checkOpts(cfg.Check)...)
	return answer, err
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	prompt := &survey.Password{Message: cfg.Message, Help: cfg.Help}
	if err := d.ask(ctx, prompt, &answer, checkOpts(cfg.Check)...); err != nil {
		return "", err
	}
	// A blank answer keeps the stored secret, which survey cannot prefill.
	if answer == "" {
		answer = cfg.Default
	}
	return answer, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	err := d.ask(ctx, prompt, &answer)
	return answer, err
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	prompt := &survey.Select{
		Message:     cfg.Message,
		Options:     cfg.Options,
		Help:        cfg.Help,
		Description: describe(cfg.Descriptions),
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.DefaultIndex
	}
	var index int
	if err := d.ask(ctx, prompt, &index); err != nil {
		return -1, err
	}
	return index, nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	prompt := &survey.MultiSelect{
		Message:     cfg.Message,
		Options:     cfg.Options,
		Help:        cfg.Help,
		Description: describe(cfg.Descriptions),
	}
	if len(cfg.Defaults) > 0 {
		prompt.Default = cfg.Defaults
	}
	var indices []int
	if err := d.ask(ctx, prompt, &indices); err != nil {
		return nil, err
	}
	return indices, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt, mapping Ctrl+C to ErrAborted.
func (d *surveyDriver) ask(ctx context.Context, prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func checkOpts(check func(string) error) []survey.AskOpt {
	if check == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans any) error {
		s, _ := ans.(string)
		return check(s)
	})}
}

func describe(descriptions []string) func(string, int) string {
	if len(descriptions) == 0 {
		return nil
	}
	return func(_ string, index int) string {
		if index < 0 || index >= len(descriptions) {
			return ""
		}
		return descriptions[index]
	}
}
