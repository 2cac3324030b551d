package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kpumuk/thrift-rewrite/internal/logging"
)

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of thriftrewrite.`,
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			logger := log.NewWithOptions(a.stdout, log.Options{
				ReportTimestamp: false,
				ReportCaller:    false,
			})
			logger.SetLevel(log.InfoLevel)

			logger.Info("thriftrewrite",
				logging.FieldVersion, a.info.Version,
				logging.FieldCommit, a.info.Commit,
				logging.FieldBuilt, a.info.Date,
			)
		},
	}
}
