package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/schema/openapi"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <key>",
		Short: "Show where a parameter value came from",
		Long: `Show the live value of key next to the default that backs it.

The current layer reports its source: primary, legacy, default, generated
or put.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			value, trace := s.store.Trace(args[0])
			return newPrinter(rootOpts, cmd.OutOrStdout()).trace(value, trace)
		},
	}
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List every parameter path with its type and source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()
			return newPrinter(rootOpts, cmd.OutOrStdout()).descriptors(s.store.Describe())
		},
	}
}

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Kind   string
	Strict bool
	Title  string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate a schema document for the parameters",
		Long: `Generate a schema document describing the current parameters.

Kinds:
  descriptors  flat list of paths, types and defaults
  openapi      OpenAPI 3 document with a PUT operation for the file

The document is always printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var generator params.SchemaGenerator
			switch opts.Kind {
			case string(params.SchemaFormatDescriptors):
				generator = params.DefaultSchemaGenerator()
			case string(params.SchemaFormatOpenAPI):
				genOpts := []openapi.GeneratorOption{openapi.WithStrict(opts.Strict)}
				if opts.Title != "" {
					genOpts = append(genOpts, openapi.WithInfo(opts.Title, "1.0.0"))
				}
				generator = openapi.NewGenerator(genOpts...)
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown schema kind %q", opts.Kind))
			}

			s, err := openSession(cmd.Context(), opts.RootOptions, sessionOptions{
				extra: []params.Option{params.WithSchemaGenerator(generator)},
			})
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.store.Schema()
			if err != nil {
				return WrapExitError(ExitFailure, "generate schema", err)
			}
			return printer{format: "json", w: cmd.OutOrStdout()}.encodeJSON(doc)
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", string(params.SchemaFormatDescriptors), "schema kind (descriptors|openapi)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject unknown keys in the openapi schema")
	cmd.Flags().StringVar(&opts.Title, "title", "", "openapi document title")
	return cmd
}
