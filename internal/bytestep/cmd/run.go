package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bytestep/internal/config"
	"bytestep/internal/debugger"
	"bytestep/internal/logging"
	"bytestep/internal/snapshot"
	"bytestep/internal/ui/colorize"
)

// runOptions are the flags of the run command.
type runOptions struct {
	breaks       []int
	breakLines   []int
	steps        int
	limit        int
	once         bool
	jsonOutput   bool
	snapshotPath string
	quiet        bool
}

var runCmd = &cobra.Command{
	Use:   "run [listing]",
	Short: "Simulate a listing without the TUI",
	Long: `Run simulates a listing non-interactively and prints every trace.
Without --steps it runs from breakpoint to breakpoint until the program ends.`,
	Example: `
# Run to completion and show the program output
bytestep run Hello.txt

# Stop at offset 5 and at every instruction of source line 7
bytestep run --break 5 --break-line 7 Hello.txt

# Single-step three instructions and dump the state as JSON
bytestep run --steps 3 --json Hello.txt
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		var opts runOptions
		opts.breaks, _ = cmd.Flags().GetIntSlice("break")
		opts.breakLines, _ = cmd.Flags().GetIntSlice("break-line")
		opts.steps, _ = cmd.Flags().GetInt("steps")
		opts.limit, _ = cmd.Flags().GetInt("limit")
		opts.once, _ = cmd.Flags().GetBool("once")
		opts.jsonOutput, _ = cmd.Flags().GetBool("json")
		opts.snapshotPath, _ = cmd.Flags().GetString("snapshot")
		opts.quiet, _ = cmd.Flags().GetBool("quiet")
		if !cmd.Flags().Changed("limit") {
			opts.limit = cfg.InstructionLimit
		}
		if opts.limit < 0 {
			return fmt.Errorf("--limit must not be negative, got %d", opts.limit)
		}

		listing, name, err := readListing(cmd, args)
		if err != nil {
			return err
		}

		if !isTerminal(cmd.OutOrStdout()) {
			os.Setenv("BYTESTEP_NO_COLOR", "1")
		}

		slog.Info("Running listing", "file", name, "steps", opts.steps, "breakpoints", len(opts.breaks))
		return runListing(cmd.OutOrStdout(), listing, cfg, opts)
	},
}

func init() {
	runCmd.Flags().IntSliceP("break", "b", nil, "Breakpoint offset (repeatable)")
	runCmd.Flags().IntSlice("break-line", nil, "Break on every instruction of a source line (repeatable)")
	runCmd.Flags().Int("steps", 0, "Single-step this many instructions instead of running")
	runCmd.Flags().Int("limit", 0, "Pause a run after this many instructions (0 disables)")
	runCmd.Flags().Bool("once", false, "Stop at the first breakpoint instead of running to the end")
	runCmd.Flags().BoolP("json", "j", false, "Print the final session state as JSON")
	runCmd.Flags().String("snapshot", "", "Write the final session state to a CBOR file")
	runCmd.Flags().BoolP("quiet", "q", false, "Only print program output")
}

// runListing drives a fresh session over listing and writes traces, the
// program output and the requested snapshots.
func runListing(w io.Writer, listing string, cfg *config.Config, opts runOptions) error {
	lg := logging.NewLoggerWithWriter(os.Stderr)
	if cfg.Debug {
		lg.SetLevel(logging.ParseLevel("debug"))
	}

	dbg := debugger.NewDebugger(
		debugger.WithVariables(cfg.Seed()),
		debugger.WithLogger(lg.Logger),
	)
	s := dbg.Load(listing)

	bps := s.Breakpoints()
	for _, off := range opts.breaks {
		bps.Add(off)
	}
	for _, line := range opts.breakLines {
		if n := bps.AddLine(line, s.LineMap(), s.Instructions()); n == 0 {
			slog.Warn("No instructions on source line", "line", line)
		}
	}

	emit := func(trace string) {
		if opts.quiet || opts.jsonOutput {
			return
		}
		fmt.Fprintln(w, colorize.ColorizeTrace(trace))
	}

	if opts.steps > 0 {
		for i := 0; i < opts.steps; i++ {
			trace, err := dbg.Step()
			emit(trace)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			if s.State() == debugger.Stopped {
				break
			}
		}
	} else {
		for {
			trace, err := s.RunToNextBreakpointLimit(opts.limit)
			emit(trace)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			if s.State() == debugger.Stopped || opts.once {
				break
			}
		}
	}

	if opts.jsonOutput {
		data, err := json.MarshalIndent(snapshot.Capture(s), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else if out := s.OutputText(); out != "" {
		if !opts.quiet {
			fmt.Fprintln(w, "Program output:")
		}
		fmt.Fprint(w, out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(w)
		}
	}

	if opts.snapshotPath != "" {
		data, err := snapshot.Marshal(snapshot.Capture(s))
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		if err := os.WriteFile(opts.snapshotPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		slog.Info("Snapshot written", "path", opts.snapshotPath)
	}
	return nil
}
