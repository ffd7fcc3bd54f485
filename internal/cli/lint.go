package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

type violation struct {
	source  string
	wizard  string
	message string
}

func newLintCommand(flags *globalFlags) *cobra.Command {
	var listRegistry bool
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Check wizard definitions for configuration errors",
		Long: `Load wizard definition files (or directories of them) and report every
definition that would fail at construction: unknown kinds, rules or
formatters, duplicate field names, conditionals on unknown fields and
initial values for undeclared fields. With --openapi the derived wizard
is checked instead; without --operation every operation with a request
body is derived and its x-wizard-* extensions are checked. Defaults to
the --defs directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			reg := schema.NewRegistry()
			if listRegistry {
				fmt.Fprintf(cmd.OutOrStdout(), "rules: %s\nformatters: %s\n",
					strings.Join(reg.Rules(), ", "), strings.Join(reg.Formatters(), ", "))
				return nil
			}

			defs, violations := collectDefinitions(cmd, flags, args)
			for _, def := range defs {
				if err := def.Validate(reg); err != nil {
					violations = append(violations, violation{source: def.Source, wizard: def.ID, message: err.Error()})
				}
				if strings.TrimSpace(def.Endpoint.URL) == "" {
					violations = append(violations, violation{source: def.Source, wizard: def.ID, message: "endpoint url is empty"})
				}
			}

			if len(violations) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d wizard(s)\n", len(defs))
				return nil
			}
			sort.Slice(violations, func(i, j int) bool {
				if violations[i].source == violations[j].source {
					if violations[i].wizard == violations[j].wizard {
						return violations[i].message < violations[j].message
					}
					return violations[i].wizard < violations[j].wizard
				}
				return violations[i].source < violations[j].source
			})
			for _, v := range violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", v.source, v.wizard, v.message)
			}
			return fmt.Errorf("lint: %d problem(s)", len(violations))
		},
	}
	cmd.Flags().BoolVar(&listRegistry, "list", false, "print the rule and formatter names definitions may reference")
	return cmd
}

func collectDefinitions(cmd *cobra.Command, flags *globalFlags, paths []string) ([]schema.Definition, []violation) {
	if flags.openapi != "" && flags.operation == "" {
		return lintOpenAPI(cmd.Context(), flags)
	}
	if flags.openapi != "" {
		store, err := flags.definitions(cmd.Context())
		if err != nil {
			return nil, []violation{{source: flags.openapi, wizard: flags.operation, message: err.Error()}}
		}
		return definitionsOf(store), nil
	}
	if len(paths) == 0 {
		paths = []string{flags.defs}
	}

	var (
		defs       []schema.Definition
		violations []violation
		seen       = make(map[string]string)
	)
	for _, path := range paths {
		loaded, err := loadPath(path)
		if err != nil {
			violations = append(violations, violation{source: path, wizard: "-", message: err.Error()})
			continue
		}
		for _, def := range loaded {
			if prev, dup := seen[def.ID]; dup {
				violations = append(violations, violation{source: def.Source, wizard: def.ID, message: "duplicate wizard id, first defined in " + prev})
				continue
			}
			seen[def.ID] = def.Source
			defs = append(defs, def)
		}
	}
	return defs, violations
}

// lintOpenAPI derives a wizard from every operation in the document and
// reports extension problems alongside derivation failures.
func lintOpenAPI(ctx context.Context, flags *globalFlags) ([]schema.Definition, []violation) {
	raw, err := flags.openapiDocument(ctx)
	if err != nil {
		return nil, []violation{{source: flags.openapi, wizard: "-", message: err.Error()}}
	}
	ids, err := openapi.Operations(ctx, raw)
	if err != nil {
		return nil, []violation{{source: flags.openapi, wizard: "-", message: err.Error()}}
	}
	issues, err := openapi.Lint(ctx, raw)
	if err != nil {
		return nil, []violation{{source: flags.openapi, wizard: "-", message: err.Error()}}
	}

	var (
		defs       []schema.Definition
		violations []violation
	)
	for _, issue := range issues {
		violations = append(violations, violation{source: flags.openapi, wizard: issue.Location, message: issue.Message})
	}
	for _, id := range ids {
		def, err := openapi.FromOperation(ctx, raw, id)
		if err != nil {
			violations = append(violations, violation{source: flags.openapi, wizard: id, message: err.Error()})
			continue
		}
		def.Source = flags.openapi
		defs = append(defs, def)
	}
	return defs, violations
}

func loadPath(path string) ([]schema.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		store, err := schema.LoadFS(os.DirFS(path))
		if err != nil {
			return nil, err
		}
		defs := definitionsOf(store)
		for i := range defs {
			defs[i].Source = strings.TrimSuffix(path, "/") + "/" + defs[i].Source
		}
		return defs, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := schema.Parse(raw, path)
	if err != nil {
		return nil, err
	}
	defs := make([]schema.Definition, 0, len(parsed))
	for _, def := range parsed {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func definitionsOf(store *schema.Store) []schema.Definition {
	ids := store.IDs()
	out := make([]schema.Definition, 0, len(ids))
	for _, id := range ids {
		def, _ := store.Definition(id)
		out = append(out, def)
	}
	return out
}
