package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dskm-project/dskm/log"
)

// NewValidateCommand creates new command instance
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Args:  cobra.NoArgs,
		Short: "Validates the configuration",
		// the configuration must exist, so it isn't loaded before
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              validateConfiguration,
	}
}

func validateConfiguration(cmd *cobra.Command, _ []string) error {
	log.Log().Infof("Validating configuration file: %s", configPath)

	_, err := os.Stat(configPath)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return errors.New("configuration path does not exist")
	}

	err = initConfig(cmd)
	if err != nil {
		return err
	}

	cfg.LogConfig(log.PrefixedLog("config"))
	log.Log().Info("Configuration is valid")

	return nil
}
