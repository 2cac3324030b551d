package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpumuk/thrift-rewrite/internal/config"
	"github.com/kpumuk/thrift-rewrite/internal/logging"
	"github.com/kpumuk/thrift-rewrite/internal/thrift"
)

const (
	exitOK       = 0
	exitCheck    = 1
	exitUnsafe   = 2
	exitInternal = 3
)

// errChangesNeeded signals --check failures; it carries no message of its own.
var errChangesNeeded = errors.New("changes needed")

type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app holds the streams and the resolved settings shared by the subcommands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	info   buildInfo

	configPath string
	logLevel   string
	color      string
	debug      bool

	cfg *config.Config
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		info:   buildInfo{Version: version, Commit: commit, Date: date},
	}
	cmd := a.newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return a.exitCode(cmd.ExecuteContext(ctx))
}

func (a *app) exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errChangesNeeded):
		return exitCheck
	case thrift.IsErrUnsafeToRewrite(err):
		writef(a.stderr, "thriftrewrite: %v\n", err)
		return exitUnsafe
	default:
		writef(a.stderr, "thriftrewrite: %v\n", err)
		return exitInternal
	}
}

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "thriftrewrite",
		Short: "Apply scripted edits to Thrift IDL files without reformatting them",
		Long: `thriftrewrite applies edit scripts to Thrift IDL files.

Only the regions touched by an edit change. Everything else, including
comments, blank lines and the author's spacing, is kept byte for byte.
Inserted code is laid out to match its neighbours.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to config file (default: nearest .thriftrewrite.yaml or .thriftrewrite.toml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging")
	pf.StringVar(&a.color, "color", "", "colorize diffs: auto, always, never")

	root.AddCommand(a.newApplyCommand())
	root.AddCommand(a.newEditsCommand())
	root.AddCommand(a.newVersionCommand())
	return root
}

// setup resolves the configuration, applies flag overrides and attaches the
// logger to the command context.
func (a *app) setup(cmd *cobra.Command) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.Resolve(a.configPath, wd)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	if a.color != "" {
		cfg.Color = a.color
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger := logging.NewWriter(a.stderr, cfg.LogLevel)
	if cfg.Path != "" {
		logger.Debug("config loaded", logging.FieldPath, cfg.Path)
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

func writeOutputFile(path string, data []byte) error {
	mode := os.FileMode(0o600)
	//nolint:gosec // CLI reads metadata for a user-specified output path.
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
		if mode == 0 {
			mode = 0o600
		}
	}
	//nolint:gosec // CLI writes rewritten output to a user-specified path.
	return os.WriteFile(path, data, mode)
}

func writef(w io.Writer, format string, args ...any) {
	//nolint:gosec // Terminal output helper; format strings are internal callsite constants.
	_, _ = io.WriteString(w, fmt.Sprintf(format, args...))
}
