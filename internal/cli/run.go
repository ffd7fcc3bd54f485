package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/logger"
	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type backendFlags struct {
	baseURL string
	token   string
	timeout time.Duration
}

func (b *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.baseURL, "base-url", "", "REST backend base URL; values are printed when empty")
	cmd.Flags().StringVar(&b.token, "token", "", "bearer token for the REST backend")
	cmd.Flags().DurationVar(&b.timeout, "timeout", 30*time.Second, "REST request timeout")
}

func newRunCommand(flags *globalFlags) *cobra.Command {
	backend := &backendFlags{}
	var validateAll bool
	cmd := &cobra.Command{
		Use:   "run <wizard>",
		Short: "Fill a wizard interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			log := logger.FromContext(cmd.Context())

			store, err := flags.definitions(cmd.Context())
			if err != nil {
				return err
			}
			def, err := lookupDefinition(store, args[0])
			if err != nil {
				return err
			}
			steps, err := def.Build(nil)
			if err != nil {
				return err
			}

			submitFn := printSubmit(cmd.OutOrStdout())
			opts := []wizard.Option{
				wizard.WithInitialValues(wizard.CoerceValues(steps, def.Initial)),
				wizard.WithLogger(log),
			}
			if backend.baseURL != "" {
				client := submit.New(backend.baseURL, def.Endpoint,
					submit.WithAuthToken(backend.token),
					submit.WithTimeout(backend.timeout),
					submit.WithLogger(log),
				)
				submitFn = client.SubmitFunc()
				opts = append(opts, wizard.WithOnDelete(client.DeleteFunc()))
			}
			if validateAll {
				opts = append(opts, wizard.WithValidateAllOnSubmit())
			}

			ctrl, err := wizard.New(steps, submitFn, opts...)
			if err != nil {
				return err
			}
			runner := tui.NewRunner(
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
				tui.WithTheme(tui.Theme{StepPrefix: "» ", ErrorPrefix: "✗ ", SuccessPrefix: "✓ "}),
				tui.WithLogger(log),
			)
			_, err = runner.Run(cmd.Context(), ctrl)
			if errors.Is(err, tui.ErrCancelled) || errors.Is(err, tui.ErrAborted) {
				log.Info("wizard cancelled", "wizard", def.ID)
				return nil
			}
			return err
		},
	}
	backend.register(cmd)
	cmd.Flags().BoolVar(&validateAll, "validate-all", false, "validate every step on submit")
	return cmd
}

// printSubmit writes the collected values as JSON instead of calling a
// backend.
func printSubmit(out io.Writer) wizard.SubmitFunc {
	return func(_ context.Context, values field.Values) (wizard.SubmitResult, error) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(values); err != nil {
			return wizard.SubmitResult{}, fmt.Errorf("encode values: %w", err)
		}
		return wizard.SubmitResult{Success: true}, nil
	}
}
