package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/crew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct{ name string }

func (a stubAgent) Name() string { return a.name }

func (a stubAgent) Run(_ context.Context, _ string) (message.Message, error) {
	return message.NewText(a.name, role.Assistant, "ok"), nil
}

func testCrew() *crew.Crew {
	return &crew.Crew{Tasks: []*crew.Task{
		{Name: "pm", Agent: stubAgent{"product_manager"}},
		{Name: "architect", Agent: stubAgent{"architect"}},
	}}
}

func update(t *testing.T, m progressModel, msg tea.Msg) (progressModel, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	pm, ok := next.(progressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModel_Events(t *testing.T) {
	m := newProgressModel(testCrew(), nil)
	assert.Contains(t, m.View(), "0/2 tasks")

	m, _ = update(t, m, crewEventMsg{event: crew.Event{Kind: crew.EventTaskStarted, Task: "pm", Index: 0, Total: 2}})
	assert.Equal(t, taskRunning, m.rows[0].state)
	assert.Equal(t, taskPending, m.rows[1].state)

	m, _ = update(t, m, crewEventMsg{event: crew.Event{Kind: crew.EventTaskFinished, Task: "pm", Index: 0, Total: 2, Duration: 1500 * time.Millisecond}})
	assert.Equal(t, taskDone, m.rows[0].state)

	view := m.View()
	assert.Contains(t, view, "1/2 tasks")
	assert.Contains(t, view, "✓")
	assert.Contains(t, view, "1.5s")
	assert.Contains(t, view, "product_manager")
}

func TestProgressModel_Failure(t *testing.T) {
	m := newProgressModel(testCrew(), nil)

	m, _ = update(t, m, crewEventMsg{event: crew.Event{Kind: crew.EventTaskStarted, Index: 1}})
	m, _ = update(t, m, crewEventMsg{event: crew.Event{Kind: crew.EventTaskFailed, Index: 1}})
	assert.Equal(t, taskFailed, m.rows[1].state)

	m, cmd := update(t, m, crewDoneMsg{err: errors.New("boom")})
	assert.True(t, m.done)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "error: boom")
}

func TestProgressModel_IgnoresOutOfRangeEvents(t *testing.T) {
	m := newProgressModel(testCrew(), nil)

	m, _ = update(t, m, crewEventMsg{event: crew.Event{Kind: crew.EventTaskStarted, Index: 7}})
	for _, r := range m.rows {
		assert.Equal(t, taskPending, r.state)
	}
}

func TestProgressModel_CtrlCCancels(t *testing.T) {
	cancelled := false
	m := newProgressModel(testCrew(), func() { cancelled = true })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled)
	assert.Nil(t, cmd)
	assert.False(t, m.done, "the view waits for the crew to stop")
}

func TestProgressModel_TruncatesNames(t *testing.T) {
	c := &crew.Crew{Tasks: []*crew.Task{
		{Name: strings.Repeat("n", 200), Agent: stubAgent{"a"}},
	}}
	m := newProgressModel(c, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	for _, line := range strings.Split(m.View(), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 60)
	}
	assert.Contains(t, m.View(), "…")
}

func TestRunPlain(t *testing.T) {
	var out strings.Builder
	feed := crew.NewFeed()
	c := testCrew()
	c.Observer = feed

	events, stop := feed.Subscribe(16)
	res, err := runPlain(context.Background(), c, &out)
	require.NoError(t, err)
	stop()

	assert.Equal(t, "ok", res.Final)
	assert.Contains(t, out.String(), "[1/2] pm started (product_manager)\n")
	assert.Contains(t, out.String(), "[2/2] architect finished in ")

	var kinds []crew.EventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Len(t, kinds, 4, "the feed still receives events")
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "[2/5] architect failed: timeout",
		formatEvent(crew.Event{Kind: crew.EventTaskFailed, Task: "architect", Index: 1, Total: 5, Err: errors.New("timeout")}))
	assert.Equal(t, "[1/5] pm finished in 2m 5s",
		formatEvent(crew.Event{Kind: crew.EventTaskFinished, Task: "pm", Index: 0, Total: 5, Duration: 125 * time.Second}))
}
