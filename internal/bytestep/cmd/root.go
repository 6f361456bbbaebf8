package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"bytestep/internal/bytestep/log"
	"bytestep/internal/bytestep/styles"
	"bytestep/internal/config"
	"bytestep/internal/debugger"
	"bytestep/internal/logging"
	"bytestep/internal/ui/colorize"
)

// errNoListing is returned when neither a file nor piped input was given.
var errNoListing = errors.New("usage: bytestep <listing> (or pipe a listing on stdin)")

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./bytestep.toml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable highlighting")
	rootCmd.PersistentFlags().String("theme", "", "Chroma style for highlighting")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print a summary and the listing without the TUI")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(runCmd)
}

var rootCmd = &cobra.Command{
	Use:   "bytestep [listing]",
	Short: "Step through a JVM bytecode listing",
	Long: `Bytestep simulates a textual bytecode listing, such as the output of
"javap -c -l -verbose", one instruction at a time. It keeps an operand stack,
a small variable table and the program's printed output, and lets you step,
set breakpoints on offsets and run between them.`,
	Example: `
# Debug a listing interactively
javap -c -l -verbose Hello.class > Hello.txt
bytestep Hello.txt

# Read the listing from stdin and print a summary
javap -c -l -verbose Hello.class | bytestep -n
  `,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		listing, name, err := readListing(cmd, args)
		if err != nil {
			return err
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		if !isTerminal(cmd.OutOrStdout()) {
			noTUI = true
			os.Setenv("BYTESTEP_NO_COLOR", "1")
		}

		// the alt screen owns the terminal, so logs go to a file or nowhere
		lg := logging.NewLogger()
		if !noTUI {
			lg = logging.NewScreenLogger(os.TempDir(), cfg.Debug || logging.IsDebug())
			log.SetOutput(lg.Writer())
			defer log.SetOutput(os.Stderr)
		}
		defer lg.Close()
		if cfg.Debug {
			lg.SetLevel(logging.ParseLevel("debug"))
		}

		dbg := debugger.NewDebugger(
			debugger.WithVariables(cfg.Seed()),
			debugger.WithLogger(lg.Logger),
		)
		session := dbg.Load(listing)

		if noTUI {
			return printSummary(cmd.OutOrStdout(), name, session, cfg)
		}

		program := tea.NewProgram(
			newDebugModel(name, session, cfg),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

// setup resolves the working directory, loads the config, applies flag
// overrides and installs logging.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cwd)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("debug") {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.NoColor = true
	}
	if theme, _ := cmd.Flags().GetString("theme"); theme != "" {
		cfg.Theme = theme
	}
	if cfg.NoColor {
		os.Setenv("BYTESTEP_NO_COLOR", "1")
	}

	log.Setup("", cfg.Debug || logging.IsDebug())
	if cfg.Path != "" {
		slog.Debug("Loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

// readListing reads the listing named by args, or stdin when there is no
// argument (or it is "-") and stdin is not a terminal.
func readListing(cmd *cobra.Command, args []string) (text string, name string, err error) {
	if len(args) > 0 && args[0] != "-" {
		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve path: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			if os.IsNotExist(err) {
				return "", "", fmt.Errorf("file not found: %s", args[0])
			}
			return "", "", fmt.Errorf("cannot read listing: %w", err)
		}
		return string(data), absPath, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		return "", "", errNoListing
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", "", fmt.Errorf("cannot read stdin: %w", err)
	}
	return string(data), "<stdin>", nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// printSummary writes the non-interactive overview: counts, constants and
// the parsed listing.
func printSummary(w io.Writer, name string, s *debugger.Session, cfg *config.Config) error {
	stream := s.Instructions()
	pool := s.Pool()

	var md strings.Builder
	md.WriteString("# bytestep\n\n```\n")
	fmt.Fprintf(&md, "; %s\n", name)
	fmt.Fprintf(&md, "; %d instructions, %d source lines, %d string constants\n", len(stream), len(s.LineMap()), pool.Len())
	md.WriteString("```\n")

	if colorize.Disabled() {
		fmt.Fprintln(w, md.String())
	} else {
		fmt.Fprintln(w, styles.RenderMarkdown(md.String(), 80))
	}

	if pool.Len() > 0 {
		fmt.Fprintln(w, "Constants:")
		for _, idx := range sortedKeys(pool.Strings) {
			fmt.Fprintf(w, "  #%-4d %s\n", idx, pool.Strings[idx])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Listing:")
	for _, in := range stream {
		line := "    "
		if n, ok := in.SourceLine(); ok {
			line = fmt.Sprintf("%4d", n)
		}
		row := colorize.ColorizeInstructionLine(in.Text(), cfg.Theme)
		fmt.Fprintf(w, "%s  %s\n", line, row)
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}

func Execute() {
	// Check if --no-tui is present, or if output is being piped, to
	// bypass fang's markdown rendering
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "run" {
			noTUI = true
			break
		}
	}

	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		// Use cobra directly to avoid fang's automatic markdown rendering
		if err := rootCmd.Execute(); err != nil {
			slog.Error("Command failed", "error", err)
			fmt.Fprintln(os.Stderr, "Error:", err)
			log.Close()
			os.Exit(1)
		}
	} else {
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			log.Close()
			os.Exit(1)
		}
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
