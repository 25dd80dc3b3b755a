package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/softhouse/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// initAnswers are the settings the init command writes to the env file.
type initAnswers struct {
	Provider string
	APIKey   string
	Model    string
	Output   string
}

func newInitCommand(a *app) *cobra.Command {
	var ans initAnswers

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .env file selecting a provider, its API key and model",
		Long: "Write a .env file selecting a provider, its API key and model.\n" +
			"Without --provider and --api-key an interactive form asks for them.\n" +
			"Existing variables in the file are kept unless they are replaced.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if ans.Provider == "" || ans.APIKey == "" {
				if err := runInitForm(&ans); err != nil {
					return err
				}
			}

			if err := writeEnvFile(a.envFile, ans); err != nil {
				return err
			}

			_, err := fmt.Fprintf(a.stdout, "Wrote %s (provider %s)\n", a.envFile, config.Normalize(ans.Provider))
			return err
		},
	}

	cmd.Flags().StringVar(&ans.Provider, "provider", "", "provider to select")
	cmd.Flags().StringVar(&ans.APIKey, "api-key", "", "API key for the provider")
	cmd.Flags().StringVar(&ans.Model, "model", "", "model name (default: the provider's default model)")
	cmd.Flags().StringVar(&ans.Output, "output", "", "project output path")

	return cmd
}

func runInitForm(ans *initAnswers) error {
	opts := make([]huh.Option[string], 0, len(config.Providers()))
	for _, p := range config.Providers() {
		opts = append(opts, huh.NewOption(string(p), string(p)))
	}
	if ans.Provider == "" {
		ans.Provider = string(config.DefaultProvider)
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("LLM provider").
			Options(opts...).
			Value(&ans.Provider),
	)).Run(); err != nil {
		return err
	}

	p := config.Normalize(ans.Provider)
	if ans.Model == "" {
		ans.Model = config.DefaultModel(p)
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(config.KeyVar(p)).
			EchoMode(huh.EchoModePassword).
			Value(&ans.APIKey).
			Validate(requireNonBlank),
		huh.NewInput().Title("Model").Value(&ans.Model),
		huh.NewInput().Title("Project output path (empty = ./output)").Value(&ans.Output),
	)).Run()
}

func requireNonBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

// envValues merges ans into existing and returns the variables to write.
func envValues(existing map[string]string, ans initAnswers) (map[string]string, error) {
	p := config.Normalize(ans.Provider)
	if !config.Known(p) {
		return nil, &config.Error{Provider: p, Msg: "unknown provider (supported: " + config.ProviderNames() + ")"}
	}
	if strings.TrimSpace(ans.APIKey) == "" {
		return nil, &config.Error{Provider: p, Var: config.KeyVar(p), Msg: "API key is required"}
	}

	vals := make(map[string]string, len(existing)+4)
	for k, v := range existing {
		vals[k] = v
	}

	vals[config.ProviderVar] = string(p)
	vals[config.KeyVar(p)] = strings.TrimSpace(ans.APIKey)
	if m := strings.TrimSpace(ans.Model); m != "" {
		vals[config.ModelVar(p)] = m
	}
	if out := strings.TrimSpace(ans.Output); out != "" {
		vals["PROJECT_OUTPUT_PATH"] = out
	}

	return vals, nil
}

// writeEnvFile merges ans into the dotenv file at path, creating it when
// missing.
func writeEnvFile(path string, ans initAnswers) error {
	existing, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	vals, err := envValues(existing, ans)
	if err != nil {
		return err
	}

	if err := godotenv.Write(vals, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
