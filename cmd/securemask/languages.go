package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hfi/secure-mask/internal/masking"
)

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported source languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, lang := range masking.SupportedLanguages() {
				if lang == a.cfg.Masking.DefaultLanguage {
					fmt.Fprintf(out, "%s (default)\n", lang)
					continue
				}
				fmt.Fprintln(out, lang)
			}
		},
	}
}
