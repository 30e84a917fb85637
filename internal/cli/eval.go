package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	params "github.com/goliatone/go-params"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Engine string
	Args   []string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the parameters",
		Long: `Evaluate an expression with every parameter in scope.

Keys that are valid identifiers are bound directly; all keys are reachable
through params["key"]. --arg values are parsed like put values and exposed
as args.

Examples:
  paramctl eval 'camera_offset * 2'
  paramctl eval --engine cel 'params["osm"] && speed_offset == 0'
  paramctl eval --arg limit=5 'speed_offset < args.limit'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleArgs, err := parseArgs(opts.Args)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}

			s, err := openSession(cmd.Context(), opts.RootOptions, sessionOptions{engine: opts.Engine})
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.store.EvaluateWith(cmd.Context(), params.RuleContext{Args: ruleArgs}, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "evaluate", err)
			}
			return newPrinter(opts.RootOptions, cmd.OutOrStdout()).result(resp.Value)
		},
	}
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "evaluator engine (expr|cel|js), overrides the configured engine")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "argument as name=value, repeatable")
	return cmd
}

func parseArgs(raw []string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --arg %q: want name=value", item)
		}
		out[name] = parseValue(value).Any()
	}
	return out, nil
}
