package cmd

import (
	"github.com/spf13/cobra"
)

// NewRegistrarCommand creates new command instance
func NewRegistrarCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "registrar",
		Short: "Inspect the jobs of the registrars",
	}

	c.AddCommand(&cobra.Command{
		Use:   "status",
		Args:  cobra.NoArgs,
		Short: "Print the job list of all registrars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showRegistrarStatus(cmd)
		},
	}, &cobra.Command{
		Use:   "query <tracking id>",
		Args:  cobra.ExactArgs(1),
		Short: "Print the job with the tracking id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryRegistrarStatus(cmd, args[0])
		},
	}, &cobra.Command{
		Use:   "purge",
		Args:  cobra.NoArgs,
		Short: "Remove the completion info of all jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return purgeRegistrar(cmd)
		},
	})

	return c
}

func showRegistrarStatus(cmd *cobra.Command) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	return r.RegistrarStatus(cmd.Context(), cmd.OutOrStdout())
}

func queryRegistrarStatus(cmd *cobra.Command, trackingID string) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	return r.QueryStatus(cmd.Context(), trackingID, cmd.OutOrStdout())
}

func purgeRegistrar(cmd *cobra.Command) error {
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	return r.Purge(cmd.Context())
}
