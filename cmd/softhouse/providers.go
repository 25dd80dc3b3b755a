package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/germanamz/softhouse/pkg/config"
	"github.com/spf13/cobra"
)

func newProvidersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the supported LLM providers",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.stdout, providersTable(a.cfg))
			return err
		},
	}
}

// providersTable renders one row per known provider: its key variable, the
// model in use and whether a key is set. The active provider is marked.
func providersTable(cfg *config.Config) string {
	t := table.New().Headers("", "PROVIDER", "KEY VAR", "MODEL", "KEY SET")

	for _, p := range config.Providers() {
		active := ""
		if p == cfg.ActiveProvider() {
			active = "*"
		}

		set := "no"
		if cfg.APIKey(p) != "" {
			set = "yes"
		}

		t.Row(active, string(p), config.KeyVar(p), cfg.Model(p), set)
	}

	return t.String()
}
