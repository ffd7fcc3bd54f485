package wizard

import (
	"context"
	"io"
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/field"
)

// SubmitResult is what a SubmitFunc reports back. FieldErrors may use any
// path notation understood by MapErrorPayload.
type SubmitResult struct {
	Success     bool
	Message     string
	Errors      []string
	FieldErrors map[string][]string
	// Reset asks the controller to restore the initial values after a
	// successful submit.
	Reset bool
}

// SubmitFunc persists the collected values. A returned error is treated
// exactly like a failed result carrying err.Error().
type SubmitFunc func(ctx context.Context, values field.Values) (SubmitResult, error)

// DeleteFunc removes the record the wizard is editing.
type DeleteFunc func(ctx context.Context, values field.Values) error

// Option configures a Controller.
type Option func(*Controller)

// WithInitialValues seeds the store. Cancel and Reset return to these values.
func WithInitialValues(values map[string]any) Option {
	return func(c *Controller) {
		c.initial = make(map[string]any, len(values))
		for k, v := range values {
			c.initial[k] = field.Clone(v)
		}
	}
}

// WithOnCancel registers the notification fired after Cancel.
func WithOnCancel(fn func()) Option {
	return func(c *Controller) {
		c.onCancel = fn
	}
}

// WithOnDelete enables Delete.
func WithOnDelete(fn DeleteFunc) Option {
	return func(c *Controller) {
		c.onDelete = fn
	}
}

// WithMessages overrides the built-in validation messages.
func WithMessages(messages Messages) Option {
	return func(c *Controller) {
		c.engine = NewEngine(messages)
	}
}

// WithValidateAllOnSubmit makes Submit validate every step instead of only
// the current one, moving to the first step that fails.
func WithValidateAllOnSubmit() Option {
	return func(c *Controller) {
		c.validateAll = true
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
