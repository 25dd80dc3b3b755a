package main

import (
	"io"
	"log/slog"

	"github.com/germanamz/softhouse/pkg/config"
	"github.com/spf13/cobra"
)

// app holds state shared by every command: the flags of the root command,
// the loaded configuration and the logger built from both.
type app struct {
	envFile  string
	logLevel string
	logFile  string

	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	log      *slog.Logger
	runID    string
	closeLog func() error
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, closeLog: func() error { return nil }}

	cmd := &cobra.Command{
		Use:           "softhouse",
		Short:         "Turn a feature request into a project with a crew of LLM agents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.closeLog()
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&a.envFile, "env", ".env", "path to .env file (ignored if missing)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (default $SOFTHOUSE_LOG_LEVEL or info)")
	cmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to a rotating file instead of stderr (default $SOFTHOUSE_LOG_FILE)")

	cmd.AddCommand(
		newRunCommand(a),
		newValidateCommand(a),
		newProvidersCommand(a),
		newInitCommand(a),
		newMCPCommand(a),
	)

	return cmd
}

// setup loads the configuration and builds the logger. Flags win over the
// environment.
func (a *app) setup() error {
	cfg, err := config.Load(config.WithEnvFile(a.envFile))
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	file := a.logFile
	if file == "" {
		file = cfg.LogFile
	}

	log, closeLog, runID, err := newLogger(a.stderr, level, file)
	if err != nil {
		return err
	}

	a.log, a.closeLog, a.runID = log, closeLog, runID

	return nil
}
