package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	params "github.com/goliatone/go-params"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Default string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one parameter",
		Long: `Print the value stored under key.

A missing key fails unless --default is given. The default is parsed as
JSON and falls back to a plain string.

Examples:
  paramctl get camera_offset
  paramctl get lane_hug_mod --default 1.2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			key := args[0]
			value, ok := s.store.Lookup(key)
			if !ok {
				if !cmd.Flags().Changed("default") {
					return NewExitError(ExitFailure, fmt.Sprintf("key %q not found", key))
				}
				value = parseValue(opts.Default)
			}
			return newPrinter(opts.RootOptions, cmd.OutOrStdout()).value(value)
		},
	}
	cmd.Flags().StringVar(&opts.Default, "default", "", "value printed when the key is missing")
	return cmd
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Store one parameter",
		Long: `Store value under key and write the parameter file.

The value is parsed as JSON; anything that is not valid JSON is stored as a
string, so 'paramctl put name alice' stores "alice".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			value := parseValue(args[1])
			if err := s.store.Put(cmd.Context(), args[0], value); err != nil {
				return WrapExitError(ExitCommandError, "write parameter file", err)
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).value(value)
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Remove one parameter",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.store.Delete(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitCommandError, "write parameter file", err)
			}
			return nil
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every parameter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()
			return newPrinter(rootOpts, cmd.OutOrStdout()).set(s.store.Snapshot())
		},
	}
}

// NewIDCommand creates the id command.
func NewIDCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the installation identifier",
		Long: `Print the identifier stored under "` + params.UniqueIDKey + `".

Opening the store assigns one when it is missing, so this always prints a
value; with I/O enabled the new identifier is also written to the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			value, ok := s.store.Lookup(params.UniqueIDKey)
			if !ok {
				return NewExitError(ExitFailure, "identifier not assigned")
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).value(value)
		},
	}
}

// parseValue reads raw as JSON and falls back to a string.
func parseValue(raw string) params.Value {
	var value params.Value
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return params.String(raw)
	}
	return value
}
