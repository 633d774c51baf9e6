package cmd

import (
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var cron bool

	c := &cobra.Command{
		Use:   "run",
		Args:  cobra.NoArgs,
		Short: "Advance the key rollovers of all managed zones (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAll(cmd, cron)
		},
	}

	c.Flags().BoolVar(&cron, "cron", false, "mail a summary of warnings and errors")

	return c
}

func runAll(cmd *cobra.Command, cron bool) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	r.Metrics().SetBuildInfo(version, buildTime)

	return r.Run(cmd.Context(), cron)
}
