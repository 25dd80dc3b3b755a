package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/germanamz/softhouse/pkg/codingtoolbox/filesystem"
	"github.com/germanamz/softhouse/pkg/config"
	"github.com/germanamz/softhouse/pkg/crew"
	"github.com/germanamz/softhouse/pkg/llm"
	"github.com/germanamz/softhouse/pkg/softhouse"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type runOptions struct {
	requestFile string
	crewFile    string
	provider    string
	output      string
	plain       bool
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Run the software house crew on a request",
		Long: "Run the product manager, architect, tech lead, backend developer and QA engineer\n" +
			"on a feature request. Without a request the built-in ToDo API example is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.requestFile, "request-file", "", "read the request from a file")
	cmd.Flags().StringVar(&opts.crewFile, "crew", "", "crew definition YAML (default: built-in software house crew)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider, overrides $"+config.ProviderVar)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "project output path (default $PROJECT_OUTPUT_PATH or ./output)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print progress as log lines and the report without styling")

	return cmd
}

func (a *app) run(ctx context.Context, args []string, opts runOptions) error {
	if opts.provider != "" {
		a.cfg.Provider = config.Normalize(opts.provider)
	}
	if opts.output != "" {
		a.cfg.OutputPath = opts.output
	}

	if err := a.cfg.Validate(); err != nil {
		a.log.ErrorContext(ctx, "configuration error", "error", err)
		return err
	}

	request, err := readRequest(args, opts.requestFile)
	if err != nil {
		return err
	}

	def, err := softhouse.LoadDefinition(opts.crewFile)
	if err != nil {
		return err
	}

	toolboxes, closeMCP, err := softhouse.ConnectMCPServers(ctx, def, a.log)
	defer func() { _ = closeMCP() }()
	if err != nil {
		return err
	}
	toolboxes[filesystem.ToolBoxName] = filesystem.New("").Tools()

	interactive := !opts.plain && isTerminal(os.Stdout) && isTerminal(os.Stderr)

	// The progress view owns the terminal: console logs are dropped while it
	// runs unless they go to a file.
	log := a.log
	if interactive && a.logFile == "" && a.cfg.LogFile == "" {
		log = slog.New(slog.DiscardHandler)
	}

	feed := crew.NewFeed()
	c, err := softhouse.Build(def,
		softhouse.Params{Request: request, OutputPath: a.cfg.OutputPath},
		llm.Factory(a.cfg),
		softhouse.BuildOptions{
			Toolboxes: toolboxes,
			Observer:  feed,
			Logger:    log,
		},
	)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "Enterprise AI Team is starting...",
		"provider", a.cfg.ActiveProvider(),
		"model", a.cfg.Model(a.cfg.ActiveProvider()),
		"output", a.cfg.OutputPath,
		"tasks", len(c.Tasks),
	)

	var res crew.Result
	if interactive {
		res, err = runWithProgress(ctx, c, feed, a.stderr)
		if n := feed.Dropped(); n > 0 {
			log.DebugContext(ctx, "progress view skipped events", "count", n)
		}
	} else {
		res, err = runPlain(ctx, c, a.stderr)
	}
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "Project Completed!", "tokens", res.Usage.String())

	width := 0
	if interactive {
		width = terminalWidth(os.Stdout)
	}

	_, err = fmt.Fprintln(a.stdout, renderReport(res, !interactive, width))
	return err
}

// readRequest picks the request from the command line, a file, or the
// built-in example, in that order.
func readRequest(args []string, file string) (string, error) {
	if len(args) > 0 && file != "" {
		return "", errors.New("give the request either as an argument or with --request-file, not both")
	}

	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // path is given by the user
		if err != nil {
			return "", fmt.Errorf("read request: %w", err)
		}
		req := strings.TrimSpace(string(data))
		if req == "" {
			return "", fmt.Errorf("read request: %s is empty", file)
		}
		return req, nil
	}

	if req := strings.TrimSpace(strings.Join(args, " ")); req != "" {
		return req, nil
	}

	return softhouse.DefaultRequest, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

func terminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	if err != nil {
		return 0
	}
	return w
}
