package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStopSigningCommand creates new command instance
func NewStopSigningCommand() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "stop-signing <zone>",
		Args:  cobra.ExactArgs(1),
		Short: "Retract the DS of a zone and remove its keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return stopSigning(cmd, args[0], force)
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "remove all keys at once")

	return c
}

func stopSigning(cmd *cobra.Command, zone string, force bool) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	code, err := r.StopSigning(cmd.Context(), zone, force, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if code != 0 {
		return fmt.Errorf("can't stop signing of %s", zone)
	}

	return nil
}
