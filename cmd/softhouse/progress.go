package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/softhouse/pkg/crew"
	"github.com/mattn/go-runewidth"
)

var (
	colorAccent = lipgloss.Color("5")
	colorOK     = lipgloss.Color("2")
	colorError  = lipgloss.Color("1")
	colorMuted  = lipgloss.Color("8")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	spinnerStyle = lipgloss.NewStyle().Foreground(colorAccent)
	doneStyle    = lipgloss.NewStyle().Foreground(colorOK)
	failStyle    = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

const (
	defaultViewWidth = 80
	agentColumnWidth = 20
)

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskDone
	taskFailed
)

type taskRow struct {
	name     string
	agent    string
	state    taskState
	started  time.Time
	duration time.Duration
}

// crewEventMsg carries a crew event into the bubbletea loop.
type crewEventMsg struct{ event crew.Event }

// crewDoneMsg is sent once Kickoff returns and every event has been
// delivered.
type crewDoneMsg struct{ err error }

// progressModel shows one line per task with a spinner on the running one.
type progressModel struct {
	rows    []taskRow
	spinner spinner.Model
	width   int
	cancel  context.CancelFunc
	done    bool
	err     error
	now     func() time.Time
}

func newProgressModel(c *crew.Crew, cancel context.CancelFunc) progressModel {
	rows := make([]taskRow, len(c.Tasks))
	for i, t := range c.Tasks {
		rows[i] = taskRow{name: t.Name, agent: t.Agent.Name()}
	}

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(spinnerStyle))

	return progressModel{rows: rows, spinner: sp, width: defaultViewWidth, cancel: cancel, now: time.Now}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// Kickoff returns with the context error; crewDoneMsg quits.
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil

	case crewEventMsg:
		m.apply(msg.event)
		return m, nil

	case crewDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *progressModel) apply(e crew.Event) {
	if e.Index < 0 || e.Index >= len(m.rows) {
		return
	}

	row := &m.rows[e.Index]
	switch e.Kind {
	case crew.EventTaskStarted:
		row.state = taskRunning
		row.started = m.now()
	case crew.EventTaskFinished:
		row.state = taskDone
		row.duration = e.Duration
	case crew.EventTaskFailed:
		row.state = taskFailed
		if !row.started.IsZero() {
			row.duration = m.now().Sub(row.started)
		}
	}
}

func (m progressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("softhouse"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d tasks", m.finished(), len(m.rows))))
	b.WriteString("\n\n")

	nameWidth := max(m.width-agentColumnWidth-16, 10)

	for _, r := range m.rows {
		var icon string
		switch r.state {
		case taskPending:
			icon = mutedStyle.Render("·")
		case taskRunning:
			icon = m.spinner.View()
		case taskDone:
			icon = doneStyle.Render("✓")
		case taskFailed:
			icon = failStyle.Render("✗")
		}

		name := runewidth.FillRight(runewidth.Truncate(r.name, nameWidth, "…"), nameWidth)
		agent := runewidth.FillRight(runewidth.Truncate(r.agent, agentColumnWidth, "…"), agentColumnWidth)

		line := fmt.Sprintf("%s %s %s", icon, name, mutedStyle.Render(agent))
		if r.state == taskDone || r.state == taskFailed {
			line += " " + mutedStyle.Render(fmtDuration(r.duration))
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.done && m.err != nil {
		b.WriteString("\n")
		b.WriteString(failStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m progressModel) finished() int {
	n := 0
	for _, r := range m.rows {
		if r.state == taskDone {
			n++
		}
	}
	return n
}

// runWithProgress kicks off c while a bubbletea program renders its events
// to out. The program quits once the crew has finished.
func runWithProgress(ctx context.Context, c *crew.Crew, feed *crew.Feed, out io.Writer) (crew.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(c, cancel), tea.WithOutput(out))

	type outcome struct {
		res crew.Result
		err error
	}
	done := make(chan outcome, 1)

	events, stop := feed.Subscribe(64)

	var wg sync.WaitGroup
	wg.Go(func() {
		for ev := range events {
			p.Send(crewEventMsg{event: ev})
		}
	})

	go func() {
		res, err := c.Kickoff(ctx)
		stop()
		wg.Wait()
		done <- outcome{res: res, err: err}
		p.Send(crewDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
	}

	o := <-done
	return o.res, o.err
}

// runPlain kicks off c and writes one line per task event to out.
func runPlain(ctx context.Context, c *crew.Crew, out io.Writer) (crew.Result, error) {
	printer := crew.ObserverFunc(func(e crew.Event) {
		_, _ = fmt.Fprintln(out, formatEvent(e))
	})
	c.Observer = crew.Observers(c.Observer, printer)

	return c.Kickoff(ctx)
}

// formatEvent renders e as a single plain-text line.
func formatEvent(e crew.Event) string {
	step := e.Step()

	switch e.Kind {
	case crew.EventTaskStarted:
		return fmt.Sprintf("%s %s started (%s)", step, e.Task, e.Agent)
	case crew.EventTaskFinished:
		return fmt.Sprintf("%s %s finished in %s", step, e.Task, fmtDuration(e.Duration))
	case crew.EventTaskFailed:
		return fmt.Sprintf("%s %s failed: %v", step, e.Task, e.Err)
	default:
		return fmt.Sprintf("%s %s %s", step, e.Task, e.Kind)
	}
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, sec)
}
