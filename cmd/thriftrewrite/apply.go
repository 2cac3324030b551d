package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kpumuk/thrift-rewrite/internal/diffview"
	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/logging"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/script"
	"github.com/kpumuk/thrift-rewrite/internal/syntax/treesitter"
	"github.com/kpumuk/thrift-rewrite/internal/thrift"
)

type applyFlags struct {
	script         string
	write          bool
	check          bool
	diff           bool
	inputEdits     bool
	stdin          bool
	assumeFilename string
}

const applyLongDescription = `Apply an edit script to one or more Thrift files.

Files are rewritten concurrently. By default the single rewritten file is
printed to stdout.

Examples:
  thriftrewrite apply -s edits.yaml user.thrift            # Print the result
  thriftrewrite apply -s edits.yaml -w idl/*.thrift        # Rewrite in place
  thriftrewrite apply -s edits.yaml --check idl/*.thrift   # Exit 1 if anything would change
  thriftrewrite apply -s edits.yaml --diff user.thrift     # Show a unified diff
  thriftrewrite apply -s edits.yaml --input-edits a.thrift # Emit tree-sitter input edits as JSON`

func (a *app) newApplyCommand() *cobra.Command {
	f := &applyFlags{}
	cmd := &cobra.Command{
		Use:   "apply --script edits.yaml [flags] path/to/file.thrift...",
		Short: "Apply an edit script to Thrift files",
		Long:  applyLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.Context(), f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.script, "script", "s", "", "edit script (YAML)")
	flags.BoolVarP(&f.write, "write", "w", false, "write results in place")
	flags.BoolVar(&f.check, "check", false, "exit non-zero if any file would change")
	flags.BoolVar(&f.diff, "diff", false, "print unified diffs instead of the rewritten files")
	flags.BoolVar(&f.inputEdits, "input-edits", false, "print tree-sitter input edits as JSON")
	flags.BoolVar(&f.stdin, "stdin", false, "read input from stdin")
	flags.StringVar(&f.assumeFilename, "assume-filename", "", "filename used for diagnostics and diffs of stdin input")

	_ = cmd.MarkFlagRequired("script")
	cmd.MarkFlagsMutuallyExclusive("write", "check", "diff", "input-edits")
	cmd.MarkFlagsMutuallyExclusive("write", "stdin")
	return cmd
}

type fileInput struct {
	path string
	// src is set for stdin input; files are read by the worker.
	src []byte
}

type fileResult struct {
	path   string
	before []byte
	after  []byte
	edits  []treesitter.Edit
}

func (r fileResult) changed() bool { return !bytes.Equal(r.before, r.after) }

func (a *app) runApply(ctx context.Context, f *applyFlags, args []string) error {
	inputs, err := a.applyInputs(f, args)
	if err != nil {
		return err
	}
	sc, err := script.Load(f.script)
	if err != nil {
		return err
	}
	opts, err := a.cfg.SessionOptions()
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	logger.Debug("applying edit script", logging.FieldScript, f.script, logging.FieldFiles, len(inputs))

	results := make([]fileResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range inputs {
		g.Go(func() error {
			res, err := rewriteFile(gctx, sc, in, opts, f.inputEdits)
			if err != nil {
				return fmt.Errorf("%s: %w", in.path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return a.report(ctx, f, results)
}

func (a *app) applyInputs(f *applyFlags, args []string) ([]fileInput, error) {
	switch {
	case f.stdin && len(args) > 0:
		return nil, errors.New("positional file paths are not allowed with --stdin")
	case !f.stdin && len(args) == 0:
		return nil, errors.New("at least one input file path is required (or use --stdin)")
	case len(args) > 1 && !f.write && !f.check && !f.diff && !f.inputEdits:
		return nil, errors.New("printing several rewritten files is not supported; use --write, --check or --diff")
	}
	if f.stdin {
		src, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		path := f.assumeFilename
		if path == "" {
			path = "stdin.thrift"
		}
		if src == nil {
			src = []byte{}
		}
		return []fileInput{{path: path, src: src}}, nil
	}
	inputs := make([]fileInput, 0, len(args))
	for _, p := range args {
		inputs = append(inputs, fileInput{path: p})
	}
	return inputs, nil
}

// prepare parses src and records the script in a new session.
func prepare(ctx context.Context, sc *script.Script, path string, src []byte, opts []rewrite.SessionOption) (*rewrite.Session, []*edit.Group, error) {
	tree, err := thrift.Parse(ctx, src, thrift.ParseOptions{URI: path})
	if err != nil {
		return nil, nil, err
	}
	sess, err := thrift.NewSession(tree, opts...)
	if err != nil {
		return nil, nil, err
	}
	groups, err := sc.Record(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, groups, nil
}

func rewriteFile(ctx context.Context, sc *script.Script, in fileInput, opts []rewrite.SessionOption, wantInputEdits bool) (fileResult, error) {
	src := in.src
	if src == nil {
		var err error
		//nolint:gosec // CLI intentionally reads user-provided file paths.
		if src, err = os.ReadFile(in.path); err != nil {
			return fileResult{}, fmt.Errorf("read: %w", err)
		}
	}

	sess, _, err := prepare(ctx, sc, in.path, src, opts)
	if err != nil {
		return fileResult{}, err
	}
	root, err := sess.Rewrite(ctx)
	if err != nil {
		return fileResult{}, err
	}
	applied, err := edit.Apply(sess.Tree().Source, root)
	if err != nil {
		return fileResult{}, err
	}

	res := fileResult{path: in.path, before: src, after: applied.Output}
	if wantInputEdits {
		flat, err := edit.Flatten(sess.Tree().Source, root)
		if err != nil {
			return fileResult{}, err
		}
		ie, err := treesitter.InputEdits(sess.Tree().Source, flat)
		if err != nil {
			return fileResult{}, err
		}
		res.edits = treesitter.Records(ie)
	}

	logging.FromContext(ctx).Debug("file rewritten",
		logging.FieldPath, in.path,
		logging.FieldEdits, root.Count(),
		logging.FieldChanged, res.changed(),
	)
	return res, nil
}

type fileEdits struct {
	Path  string            `json:"path"`
	Edits []treesitter.Edit `json:"edits"`
}

func (a *app) report(ctx context.Context, f *applyFlags, results []fileResult) error {
	logger := logging.FromContext(ctx)
	switch {
	case f.check:
		changed := false
		for _, r := range results {
			if r.changed() {
				changed = true
				writef(a.stderr, "%s: would rewrite\n", r.path)
			}
		}
		if changed {
			return errChangesNeeded
		}
		return nil
	case f.write:
		for _, r := range results {
			if !r.changed() {
				continue
			}
			if err := writeOutputFile(r.path, r.after); err != nil {
				return fmt.Errorf("write %s: %w", r.path, err)
			}
			logger.Info("rewritten", logging.FieldPath, r.path, logging.FieldBytes, len(r.after))
		}
		return nil
	case f.diff:
		styles := diffview.NewStyles(diffview.ColorEnabled(a.cfg.Color, a.stdout))
		for _, r := range results {
			if err := diffview.Write(a.stdout, styles, r.path, r.before, r.after); err != nil {
				return err
			}
		}
		return nil
	case f.inputEdits:
		out := make([]fileEdits, 0, len(results))
		for _, r := range results {
			out = append(out, fileEdits{Path: r.path, Edits: r.edits})
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		_, err := a.stdout.Write(results[0].after)
		return err
	}
}
