package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/runner"
)

//nolint:gochecknoglobals
var (
	version    = "undefined"
	buildTime  = "undefined"
	configPath string
	cfg        *config.Config

	// newRunner is replaced in tests
	newRunner = func(cfg *config.Config) (*runner.Runner, error) {
		return runner.New(cfg)
	}
)

const (
	defaultConfigPath = "./config.yml"
	configPathEnv     = "DSKM_CONFIG_FILE"
)

// NewRootCommand creates new root command. Without sub command all managed zones are processed,
// the flags of the former command line are mapped to the sub commands.
func NewRootCommand() *cobra.Command {
	var (
		cron              bool
		force             bool
		dryRun            bool
		stopSigningOfZone string
		registrarStatus   bool
		queryStatus       string
		purge             bool
		testDSSubmission  bool
	)

	c := &cobra.Command{
		Use:   "dskm",
		Short: "dskm maintains the DNSSEC keys of zones",
		Long: `DNSSEC key maintenance: rolls KSK and ZSK of all zones below the key root
and keeps the DS records at the parent or registrar in sync.

Run it periodically (e.g. hourly) from cron with --cron.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfigPreRun(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case stopSigningOfZone != "":
				return stopSigning(cmd, stopSigningOfZone, force)
			case registrarStatus:
				return showRegistrarStatus(cmd)
			case queryStatus != "":
				return queryRegistrarStatus(cmd, queryStatus)
			case purge:
				return purgeRegistrar(cmd)
			case testDSSubmission:
				return testDS(cmd, dryRun)
			}

			return runAll(cmd, cron)
		},
	}

	c.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file or folder")

	c.Flags().BoolVar(&cron, "cron", false, "mail a summary of warnings and errors")
	c.Flags().BoolVarP(&force, "force", "f", false, "remove all keys at once when stopping signing")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "only log the DS of --test-registrar-ds-submission")
	c.Flags().StringVar(&stopSigningOfZone, "stop-signing-of-zone", "", "stop signing of the zone")
	c.Flags().BoolVar(&registrarStatus, "registrar-status", false, "print the job list of the registrars")
	c.Flags().StringVar(&queryStatus, "query-status", "", "print the job with the tracking id")
	c.Flags().BoolVar(&purge, "purge-all-registrar-completion-info", false,
		"remove the completion info of all registrar jobs")
	c.Flags().BoolVar(&testDSSubmission, "test-registrar-ds-submission", false,
		"submit the DS of all zones again without changing their state")

	c.AddCommand(
		newRunCommand(),
		NewStopSigningCommand(),
		NewRegistrarCommand(),
		NewTestDSSubmissionCommand(),
		NewValidateCommand(),
		NewVersionCommand(),
	)

	return c
}

func initConfigPreRun(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}

	return initConfig(cmd)
}

func initConfig(cmd *cobra.Command) error {
	mandatory := cmd.Flags().Changed("config")

	if configPath == defaultConfigPath {
		if path, ok := os.LookupEnv(configPathEnv); ok {
			configPath = path
			mandatory = true
		}
	}

	var err error

	cfg, err = config.LoadConfig(configPath, mandatory)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	log.ConfigureLogger(&cfg.Log)

	return nil
}

// Execute starts the command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
