package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/renderers/html"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func newRenderCommand(flags *globalFlags) *cobra.Command {
	var (
		step       int
		valuesPath string
		output     string
		validate   bool
	)
	cmd := &cobra.Command{
		Use:   "render <wizard>",
		Short: "Render one wizard step as an HTML fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

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

			var extra map[string]any
			if valuesPath != "" {
				raw, err := os.ReadFile(valuesPath)
				if err != nil {
					return fmt.Errorf("read values: %w", err)
				}
				if err := yaml.Unmarshal(raw, &extra); err != nil {
					return fmt.Errorf("parse values %s: %w", valuesPath, err)
				}
			}
			initial := wizard.CoerceValues(steps, def.Initial, extra)

			ctrl, err := wizard.New(steps, noSubmit, wizard.WithInitialValues(initial))
			if err != nil {
				return err
			}
			if step < 0 || step >= len(steps) {
				return fmt.Errorf("step %d out of range (wizard has %d steps)", step, len(steps))
			}
			if _, err := ctrl.GoToStep(step); err != nil {
				return err
			}
			if validate {
				ctrl.ValidateCurrentStep()
			}

			renderer, err := html.New()
			if err != nil {
				return err
			}
			out, err := renderer.Render(ctrl.Snapshot(), steps)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(output, out, 0o644)
		},
	}
	cmd.Flags().IntVar(&step, "step", 0, "zero-based step index")
	cmd.Flags().StringVar(&valuesPath, "values", "", "YAML or JSON file with values to prefill")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&validate, "validate", false, "show validation errors for the rendered step")
	return cmd
}

func noSubmit(context.Context, field.Values) (wizard.SubmitResult, error) {
	return wizard.SubmitResult{}, fmt.Errorf("render: submit is not available")
}
