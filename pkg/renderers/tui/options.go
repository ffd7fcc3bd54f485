package tui

import (
	"io"
	"log/slog"
	"os"
)

// Theme captures optional formatting hints the driver applies when printing
// messages. Keep minimal to avoid coupling runner logic to ANSI specifics.
type Theme struct {
	StepPrefix    string
	ErrorPrefix   string
	SuccessPrefix string
}

// Labels are the action names offered after each step.
type Labels struct {
	Next   string
	Submit string
	Back   string
	Clear  string
	Cancel string
	Action string
}

// DefaultLabels returns English action labels.
func DefaultLabels() Labels {
	return Labels{
		Next:   "Next",
		Submit: "Submit",
		Back:   "Back",
		Clear:  "Clear step",
		Cancel: "Cancel",
		Action: "What next?",
	}
}

// FileOpener opens a local path for a pending upload.
type FileOpener func(path string) (io.ReadCloser, error)

// Option configures the Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithLabels replaces the action labels.
func WithLabels(labels Labels) Option {
	return func(r *Runner) {
		r.labels = labels
	}
}

// WithFileOpener changes how file paths typed by the user are opened.
func WithFileOpener(fn FileOpener) Option {
	return func(r *Runner) {
		if fn != nil {
			r.openFile = fn
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func openLocalFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
