package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/germanamz/softhouse/pkg/crew"
)

const defaultReportWidth = 100

// reportMarkdown builds the end-of-run report: the final task's output
// followed by a per-task summary table.
func reportMarkdown(res crew.Result) string {
	var b strings.Builder

	b.WriteString("# Project Completed!\n\n")

	if res.Final != "" {
		b.WriteString(res.Final)
		b.WriteString("\n\n")
	}

	b.WriteString("## Tasks\n\n")
	b.WriteString("| task | agent | duration | turns | tool calls | tokens |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, o := range res.Outputs {
		calls := fmt.Sprintf("%d", o.Activity.ToolCalls)
		if o.Activity.ToolErrors > 0 {
			calls = fmt.Sprintf("%d (%d failed)", o.Activity.ToolCalls, o.Activity.ToolErrors)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s |\n",
			o.Task, o.Agent, fmtDuration(o.Duration), o.Activity.Turns, calls, fmtTokens(o.Usage.Total()))
	}

	fmt.Fprintf(&b, "\nTotal tokens: %s\n", res.Usage.String())

	return b.String()
}

// renderReport returns the report as raw markdown when plain is set, and
// styled for the terminal otherwise. Rendering errors fall back to the raw
// markdown.
func renderReport(res crew.Result, plain bool, width int) string {
	md := reportMarkdown(res)
	if plain {
		return md
	}

	if width <= 0 || width > defaultReportWidth {
		width = defaultReportWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}

	return strings.TrimRight(out, "\n")
}

// fmtTokens formats a token count for display, using k/M suffixes.
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
