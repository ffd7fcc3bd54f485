// Package cli wires the formwizard cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/logger"
	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

const openapiFetchTimeout = 30 * time.Second

type globalFlags struct {
	defs      string
	openapi   string
	operation string
	debug     bool
	quiet     bool
	logFormat string
	logFile   string
}

// NewRootCommand builds the formwizard command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "formwizard",
		Short:         "Run, serve and lint multi-step form wizards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.defs, "defs", "d", "wizards", "directory of wizard definition files (.yaml/.json)")
	pf.StringVar(&flags.openapi, "openapi", "", "OpenAPI document to derive a wizard from instead of --defs")
	pf.StringVar(&flags.operation, "operation", "", "operation id used with --openapi")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress console logging")
	pf.StringVar(&flags.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&flags.logFile, "log-file", "", "also write logs to this file")

	root.AddCommand(
		newRunCommand(flags),
		newServeCommand(flags),
		newRenderCommand(flags),
		newLintCommand(flags),
	)
	return root
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// setup builds the logger, stores it in the command context for
// logger.FromContext and returns a closer for the log file, if any.
func (f *globalFlags) setup(cmd *cobra.Command) (func(), error) {
	opts := []logger.Option{logger.WithFormat(f.logFormat)}
	if f.debug {
		opts = append(opts, logger.WithDebug())
	}
	if f.quiet {
		opts = append(opts, logger.WithQuiet())
	}
	closer := func() {}
	if f.logFile != "" {
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		opts = append(opts, logger.WithWriter(file))
		closer = func() { _ = file.Close() }
	}
	cmd.SetContext(logger.WithLogger(cmd.Context(), logger.New(opts...)))
	return closer, nil
}

// definitions loads the wizard definitions selected by the flags.
func (f *globalFlags) definitions(ctx context.Context) (*schema.Store, error) {
	if strings.TrimSpace(f.openapi) == "" {
		store, err := schema.LoadFS(os.DirFS(f.defs))
		if err != nil {
			return nil, fmt.Errorf("load definitions from %s: %w", f.defs, err)
		}
		return store, nil
	}
	if strings.TrimSpace(f.operation) == "" {
		return nil, errors.New("--operation is required with --openapi")
	}
	raw, err := f.openapiDocument(ctx)
	if err != nil {
		return nil, err
	}
	def, err := openapi.FromOperation(ctx, raw, f.operation)
	if err != nil {
		return nil, err
	}
	def.Source = f.openapi
	store, _ := schema.LoadFS(nil)
	store.Add(def)
	return store, nil
}

// openapiDocument reads the --openapi file or URL.
func (f *globalFlags) openapiDocument(ctx context.Context) ([]byte, error) {
	src, err := openapi.ParseSource(f.openapi)
	if err != nil {
		return nil, err
	}
	raw, err := openapi.NewLoader(openapi.WithHTTPFallback(openapiFetchTimeout)).Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}
	return raw, nil
}

func lookupDefinition(store *schema.Store, id string) (schema.Definition, error) {
	def, ok := store.Definition(id)
	if !ok {
		return schema.Definition{}, fmt.Errorf("unknown wizard %q (available: %s)", id, strings.Join(store.IDs(), ", "))
	}
	return def, nil
}
