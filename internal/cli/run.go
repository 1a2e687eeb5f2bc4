package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubigo-ui/rubigo/internal/compiler"
	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// RunStep is the per-event output of the run command.
type RunStep struct {
	Seq     int    `json:"seq"`
	Event   string `json:"event"`
	Handled bool   `json:"handled"`
	State   string `json:"state"`
	Context string `json:"context"` // canonical JSON
}

// RunOutput is the run command's result payload.
type RunOutput struct {
	Machine string    `json:"machine"`
	Backend string    `json:"backend"`
	Steps   []RunStep `json:"steps"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var backendName string

	cmd := &cobra.Command{
		Use:   "run <document.json> <event>...",
		Short: "Replay events against a document",
		Long: `Compile a machine document and dispatch a sequence of events,
printing the observable outcome after each one.

Events are given as NAME or NAME=value; values parse as booleans,
numbers, or fall back to strings. Example:

  rubigo run checkbox.json TOGGLE TOGGLE
  rubigo run slider.json SET=75 INCREMENT`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, backendName, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&backendName, "backend", "compiled", "execution backend (interpreted|compiled)")
	return cmd
}

func runRun(opts *RootOptions, backendName, path string, events []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	backend, ok := machine.ParseBackend(backendName)
	if !ok {
		formatter.Error(compiler.ErrDocUnreadable, fmt.Sprintf("unknown backend %q", backendName), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown backend %q", backendName))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(compiler.ErrDocUnreadable, fmt.Sprintf("read document: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("read document %s", path))
	}

	spec, verrs := compiler.Compile(data)
	if len(verrs) > 0 {
		formatter.Error(verrs[0].Code, "document failed validation", verrs)
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(verrs)))
	}

	inst := machine.NewInstance(spec, backend)
	out := RunOutput{Machine: spec.ID(), Backend: backend.String()}

	for seq, arg := range events {
		ev, err := parseEventArg(arg)
		if err != nil {
			formatter.Error(compiler.ErrDocUnreadable, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}

		handled, err := inst.Send(ev)
		if err != nil {
			formatter.Error("EVAL", fmt.Sprintf("dispatch %s: %v", ev.Name, err), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("dispatch %s", ev.Name))
		}

		contextJSON, err := ir.MarshalCanonical(inst.Context())
		if err != nil {
			return WrapExitError(ExitFailure, "serialize context", err)
		}
		out.Steps = append(out.Steps, RunStep{
			Seq:     seq,
			Event:   ev.Name,
			Handled: handled,
			State:   inst.State(),
			Context: string(contextJSON),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "machine %s (%s backend)\n", out.Machine, out.Backend)
	for _, step := range out.Steps {
		mark := " "
		if step.Handled {
			mark = "*"
		}
		fmt.Fprintf(formatter.Writer, "%s %2d %-24s state=%s context=%s\n",
			mark, step.Seq, step.Event, step.State, step.Context)
	}
	return nil
}

// parseEventArg splits NAME or NAME=value into a machine event.
// Values parse as bool, then number, then fall back to string.
func parseEventArg(arg string) (machine.Event, error) {
	name, raw, found := strings.Cut(arg, "=")
	if name == "" {
		return machine.Event{}, fmt.Errorf("empty event name in %q", arg)
	}
	ev := machine.Event{Name: name}
	if !found {
		return ev, nil
	}

	switch raw {
	case "true":
		ev.Value = ir.Bool(true)
	case "false":
		ev.Value = ir.Bool(false)
	default:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			ev.Value = ir.Number(n)
		} else {
			ev.Value = ir.String(raw)
		}
	}
	return ev, nil
}
