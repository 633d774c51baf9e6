package cmd

import (
	"github.com/spf13/cobra"
)

// NewTestDSSubmissionCommand creates new command instance
func NewTestDSSubmissionCommand() *cobra.Command {
	var dryRun bool

	c := &cobra.Command{
		Use:   "test-ds-submission",
		Args:  cobra.NoArgs,
		Short: "Submit the DS of all zones again without changing their state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return testDS(cmd, dryRun)
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "only log the DS")

	return c
}

func testDS(cmd *cobra.Command, dryRun bool) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	return r.TestDSSubmission(cmd.Context(), dryRun)
}
