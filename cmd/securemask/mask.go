package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hfi/secure-mask/internal/masking"
	"github.com/hfi/secure-mask/internal/server"
	"github.com/hfi/secure-mask/internal/service"
)

const errorPrefix = server.ErrorPrefix

func newMaskCmd(a *app) *cobra.Command {
	var (
		language  string
		typeNames bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "mask [file]",
		Short: "Mask a source file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd, args)
			if err != nil {
				cmd.PrintErrf("%s%v\n", errorPrefix, err)
				a.logger.Error().Err(err).Msg("failed to read input")
				return err
			}

			engine, err := masking.New(masking.Options{
				TypeNames:      typeNames || a.cfg.Masking.TypeNames,
				DisabledPasses: a.cfg.Masking.DisabledPasses,
			})
			if err != nil {
				cmd.PrintErrf("%s%v\n", errorPrefix, err)
				a.logger.Error().Err(err).Msg("failed to build masking engine")
				return err
			}

			svc := service.New(engine,
				service.WithLogger(a.logger),
				service.WithDefaultLanguage(a.cfg.Masking.DefaultLanguage),
			)

			resp, err := svc.Process(cmd.Context(), service.Request{
				Source:   source,
				Language: language,
			})
			if err != nil {
				cmd.PrintErrf("%s%v\n", errorPrefix, err)
				a.logger.Error().Err(err).Str("language", language).Msg("mask failed")
				return err
			}

			return writeOutput(cmd, output, resp.Masked)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "Source language (default from config)")
	cmd.Flags().BoolVar(&typeNames, "type-names", false, "Also mask every capitalized type name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write masked code to a file instead of stdout")

	return cmd
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0]) //#nosec G304 -- user supplied input file
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func writeOutput(cmd *cobra.Command, path, masked string) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), masked)
		return err
	}

	if err := os.WriteFile(path, []byte(masked+"\n"), 0o600); err != nil {
		cmd.PrintErrf("%sfailed to write %s: %v\n", errorPrefix, path, err)
		return err
	}
	return nil
}
