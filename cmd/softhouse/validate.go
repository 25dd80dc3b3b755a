package main

import (
	"fmt"

	"github.com/germanamz/softhouse/pkg/config"
	"github.com/spf13/cobra"
)

func newValidateCommand(a *app) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the active provider has a credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if provider != "" {
				a.cfg.Provider = config.Normalize(provider)
			}

			if err := a.cfg.Validate(); err != nil {
				a.log.ErrorContext(cmd.Context(), "configuration error", "error", err)
				return err
			}

			p := a.cfg.ActiveProvider()
			_, err := fmt.Fprintf(a.stdout, "configuration ok: provider %s, model %s, output %s\n",
				p, a.cfg.Model(p), a.cfg.OutputPath)
			return err
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "provider to check, overrides $"+config.ProviderVar)

	return cmd
}
