package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rubigo-ui/rubigo/internal/compiler"
)

// ValidationResult holds validation results for one document.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Machine     string                     `json:"machine,omitempty"`
	Fingerprint string                     `json:"fingerprint,omitempty"`
	States      []string                   `json:"states,omitempty"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Validate a machine document",
		Long: `Validate a component machine document without instantiating it.

Runs the full compile pipeline: structural schema check, referential
validation, and guard/action expression compilation. All errors are
collected and reported together.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(compiler.ErrDocUnreadable, fmt.Sprintf("read document: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("read document %s", path))
	}

	formatter.VerboseLog("validating %s (%d bytes)", path, len(data))

	spec, verrs := compiler.Compile(data)
	if len(verrs) > 0 {
		result := ValidationResult{Valid: false, Errors: verrs}
		if opts.Format == "json" {
			formatter.Success(result)
		} else {
			fmt.Fprintf(formatter.Writer, "%s: %d error(s)\n", path, len(verrs))
			for _, e := range verrs {
				fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(verrs)))
	}

	result := ValidationResult{
		Valid:       true,
		Machine:     spec.ID(),
		Fingerprint: spec.Fingerprint(),
		States:      spec.States(),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s: valid\n", path)
	fmt.Fprintf(formatter.Writer, "  machine:     %s\n", result.Machine)
	fmt.Fprintf(formatter.Writer, "  states:      %v\n", result.States)
	fmt.Fprintf(formatter.Writer, "  fingerprint: %s\n", result.Fingerprint)
	return nil
}
