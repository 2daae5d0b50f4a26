package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/deonto/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
	Strict bool // warnings fail validation
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                  `json:"valid"`
	Errors      []CLIError            `json:"errors,omitempty"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <diagram.bpmn>",
		Short: "Check a diagram without exporting rules",
		Long: `Check a BPMN diagram for problems without writing any export.

Fatal problems (no single start event, no end event, an unrecognized branch
label under the strict policy) fail validation. Cycles, unreachable nodes,
decisions without a declared branch order and labels without an actor are
reported as warnings; --strict turns them into failures.

Exit codes:
  0 - Diagram is valid
  1 - Validation failed
  2 - Command error (diagram unreadable, invalid config)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as failures")

	return cmd
}

func runValidate(ctx context.Context, opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadDiagram(path, opts.Config)
	if err != nil {
		return formatter.fail(err)
	}
	formatter.VerboseLog("Validating %s", loaded.Name())

	result := validateDiagram(ctx, loaded, slog.Default())
	if err := ctx.Err(); err != nil {
		return formatter.fail(err)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result, result.Errors[0].Code)
	}
	if opts.Strict && len(result.Diagnostics) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result, ErrCodeDiagnostics)
	}
	return outputValidateSuccess(formatter, result)
}

// validateDiagram runs the static checks and then a full compilation, so
// that synthesis-time findings (strict branch labels, condition conflicts)
// are reported too.
func validateDiagram(ctx context.Context, loaded *LoadedDiagram, logger *slog.Logger) ValidationResult {
	result := ValidationResult{Valid: true, Diagnostics: []compiler.Diagnostic{}}
	opts := loaded.CompilerOptions(logger)

	checks, err := compiler.Check(loaded.Diagram, opts)
	if err != nil {
		code, message := errorCode(err)
		result.Valid = false
		result.Errors = []CLIError{{Code: code, Message: message}}
		return result
	}
	result.Diagnostics = mergeDiagnostics(result.Diagnostics, checks)

	res, err := compiler.CompileDiagram(ctx, loaded.Diagram, opts)
	if err != nil {
		code, message := errorCode(err)
		result.Valid = false
		result.Errors = []CLIError{{Code: code, Message: message}}
		return result
	}
	result.Diagnostics = mergeDiagnostics(result.Diagnostics, res.Diagnostics)
	return result
}

// mergeDiagnostics appends the diagnostics of extra that dst does not
// already hold.
func mergeDiagnostics(dst, extra []compiler.Diagnostic) []compiler.Diagnostic {
	type key struct {
		code compiler.DiagnosticCode
		node string
		msg  string
	}
	seen := make(map[key]bool, len(dst))
	for _, d := range dst {
		seen[key{d.Code, d.NodeID, d.Message}] = true
	}
	for _, d := range extra {
		k := key{d.Code, d.NodeID, d.Message}
		if !seen[k] {
			seen[k] = true
			dst = append(dst, d)
		}
	}
	return dst
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "  %s\n", d)
	}
	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(w, "✓ Diagram valid (%d warning(s))\n", len(result.Diagnostics))
		return nil
	}
	fmt.Fprintln(w, "✓ Diagram valid")
	return nil
}

// outputValidationErrors reports a failed validation. Validation failures
// exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult, code string) error {
	message := fmt.Sprintf("%d warning(s) with --strict", len(result.Diagnostics))
	if len(result.Errors) > 0 {
		message = result.Errors[0].Message
	}

	if formatter.IsJSON() {
		if err := formatter.Fail(code, message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", message))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "  %s\n", d)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", message))
}
