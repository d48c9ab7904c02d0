package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hfi/secure-mask/internal/config"
	"github.com/hfi/secure-mask/internal/logging"
)

// app holds state shared by all subcommands after PersistentPreRunE
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "securemask",
		Short:         "Secure Mask - anonymize source code before sharing it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newMaskCmd(a),
		newLanguagesCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		cmd.PrintErrf("%sfailed to load configuration: %v\n", errorPrefix, err)
		return err
	}

	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}

	a.logger, err = logging.New(a.cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		cmd.PrintErrf("%s%v\n", errorPrefix, err)
		return err
	}

	return nil
}
