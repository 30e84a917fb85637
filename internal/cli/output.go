package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	params "github.com/goliatone/go-params"
)

// Exit codes for paramctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // evaluation failed, key missing
	ExitCommandError = 2 // bad config, unreadable input, write failed
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes command results in the selected format.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(opts *RootOptions, w io.Writer) printer {
	return printer{format: opts.Format, w: w}
}

func (p printer) encodeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// value prints one parameter value. Text mode prints strings bare.
func (p printer) value(v params.Value) error {
	if p.format == "json" {
		return p.encodeJSON(v)
	}
	if s, ok := v.AsString(); ok {
		_, err := fmt.Fprintln(p.w, s)
		return err
	}
	_, err := fmt.Fprintln(p.w, v.String())
	return err
}

func (p printer) set(set params.Set) error {
	if p.format == "json" {
		return p.encodeJSON(set)
	}
	for _, key := range set.Keys() {
		if _, err := fmt.Fprintf(p.w, "%s = %s\n", key, set[key].String()); err != nil {
			return err
		}
	}
	return nil
}

func (p printer) descriptors(fields []params.FieldDescriptor) error {
	if p.format == "json" {
		return p.encodeJSON(fields)
	}
	for _, field := range fields {
		line := fmt.Sprintf("%s\t%s\t%s", field.Path, field.Type, field.Source)
		if field.HasDefault {
			raw, _ := json.Marshal(field.Default)
			line += "\tdefault=" + string(raw)
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

func (p printer) trace(value params.Value, trace params.Trace) error {
	if p.format == "json" {
		return p.encodeJSON(map[string]any{"value": value, "trace": trace})
	}
	if _, err := fmt.Fprintf(p.w, "%s = %s\n", trace.Key, value.String()); err != nil {
		return err
	}
	for _, layer := range trace.Layers {
		status := "missing"
		if layer.Found {
			raw, _ := json.Marshal(layer.Value)
			status = string(raw)
		}
		parts := []string{"  " + layer.Layer, status}
		if layer.Source != "" {
			parts = append(parts, "source="+string(layer.Source))
		}
		if layer.ETag != "" {
			parts = append(parts, "etag="+layer.ETag)
		}
		if _, err := fmt.Fprintln(p.w, strings.Join(parts, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// result prints an arbitrary evaluation result.
func (p printer) result(v any) error {
	if p.format == "json" {
		return p.encodeJSON(v)
	}
	switch typed := v.(type) {
	case string:
		_, err := fmt.Fprintln(p.w, typed)
		return err
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			raw, _ := json.Marshal(typed[key])
			if _, err := fmt.Fprintf(p.w, "%s = %s\n", key, raw); err != nil {
				return err
			}
		}
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		_, err = fmt.Fprintln(p.w, v)
		return err
	}
	_, err = fmt.Fprintln(p.w, string(raw))
	return err
}
