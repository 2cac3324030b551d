package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/script"
)

func (a *app) newEditsCommand() *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "edits --script edits.yaml path/to/file.thrift",
		Short: "Print the edit tree an edit script produces",
		Long: `Print the edit tree an edit script produces for one file, followed by
the edit groups and the number of edits each one recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			sc, err := script.Load(scriptPath)
			if err != nil {
				return err
			}
			opts, err := a.cfg.SessionOptions()
			if err != nil {
				return err
			}
			//nolint:gosec // CLI intentionally reads user-provided file paths.
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			sess, groups, err := prepare(ctx, sc, path, src, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			root, err := sess.Rewrite(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			writef(a.stdout, "%s", edit.Dump(root))
			writef(a.stdout, "groups:\n")
			for _, g := range groups {
				writef(a.stdout, "  %s: %d\n", g.Name(), len(g.Edits()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "edit script (YAML)")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}
