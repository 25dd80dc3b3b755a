package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/germanamz/softhouse/pkg/agentctx"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/modeladapter/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answer(text string) Runner {
	return RunnerFunc(func(context.Context) (message.Message, error) {
		return message.NewText("architect", role.Assistant, text), nil
	})
}

func failing(err error) Runner {
	return RunnerFunc(func(context.Context) (message.Message, error) {
		return message.Message{}, err
	})
}

// meteredRunner records tokens on its tracker the way a completer would.
type meteredRunner struct {
	tracker usage.Tracker
	spend   usage.TokenCount
}

func (m *meteredRunner) UsageTracker() *usage.Tracker { return &m.tracker }
func (m *meteredRunner) ModelName() string            { return "gpt-4o" }

func (m *meteredRunner) Run(context.Context) (message.Message, error) {
	m.tracker.Add(m.spend)
	return message.NewText("", role.Assistant, "structure ready"), nil
}

func textLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDeadline(t *testing.T) {
	t.Run("fast run passes through", func(t *testing.T) {
		msg, err := Deadline(time.Second)(answer("done")).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "done", msg.TextContent())
	})

	t.Run("slow run is cut", func(t *testing.T) {
		slow := RunnerFunc(func(ctx context.Context) (message.Message, error) {
			<-ctx.Done()
			return message.Message{}, ctx.Err()
		})

		_, err := Deadline(10 * time.Millisecond)(slow).Run(context.Background())
		require.ErrorIs(t, err, ErrDeadline)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "after 10ms")
	})

	t.Run("zero disables", func(t *testing.T) {
		var hasDeadline bool
		probe := RunnerFunc(func(ctx context.Context) (message.Message, error) {
			_, hasDeadline = ctx.Deadline()
			return message.Message{}, nil
		})

		_, err := Deadline(0)(probe).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, hasDeadline)
	})

	t.Run("other errors are untouched", func(t *testing.T) {
		boom := errors.New("provider down")
		_, err := Deadline(time.Second)(failing(boom)).Run(context.Background())
		assert.Equal(t, boom, err)
	})
}

func TestRecover(t *testing.T) {
	msg, err := Recover("qa_engineer")(answer("fine")).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fine", msg.TextContent())

	exploding := RunnerFunc(func(context.Context) (message.Message, error) {
		panic("index out of range")
	})

	msg, err = Recover("qa_engineer")(exploding).Run(context.Background())
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), `"qa_engineer"`)
	assert.Contains(t, err.Error(), "index out of range")
	assert.Equal(t, message.Message{}, msg)
}

func TestTrace(t *testing.T) {
	t.Run("success with usage", func(t *testing.T) {
		var buf bytes.Buffer
		m := &meteredRunner{spend: usage.TokenCount{InputTokens: 120, OutputTokens: 30}}
		m.tracker.Add(usage.TokenCount{InputTokens: 1000, OutputTokens: 1000})

		ctx := agentctx.WithTask(context.Background(), "architect_task")
		_, err := Trace(textLogger(&buf), "architect", m)(m).Run(ctx)
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, `msg="agent started"`)
		assert.Contains(t, out, `msg="agent finished"`)
		assert.Contains(t, out, "agent=architect")
		assert.Contains(t, out, "task=architect_task")
		assert.Contains(t, out, "model=gpt-4o")
		assert.Contains(t, out, "tokens_in=120", "only the run's own tokens are reported")
		assert.Contains(t, out, "tokens_out=30")
		assert.Contains(t, out, "answer_bytes=15")
	})

	t.Run("failure without meter", func(t *testing.T) {
		var buf bytes.Buffer

		_, err := Trace(textLogger(&buf), "backend_developer", nil)(failing(errors.New("boom"))).Run(context.Background())
		require.Error(t, err)

		out := buf.String()
		assert.Contains(t, out, "level=ERROR")
		assert.Contains(t, out, `msg="agent failed"`)
		assert.Contains(t, out, "error=boom")
		assert.NotContains(t, out, "tokens_in")
		assert.NotContains(t, out, "task=")
	})
}

func TestGuard(t *testing.T) {
	tooShort := func(m message.Message) error {
		if len(m.TextContent()) < 10 {
			return errors.New("answer too short")
		}
		return nil
	}
	noTodo := func(m message.Message) error {
		if strings.Contains(m.TextContent(), "TODO") {
			return errors.New("answer has placeholders")
		}
		return nil
	}

	tests := []struct {
		name    string
		inner   Runner
		wantErr []string
		wantMsg string
	}{
		{name: "accepted", inner: answer("A complete PRD document."), wantMsg: "A complete PRD document."},
		{name: "one check fails", inner: answer("TODO: write the PRD"), wantErr: []string{"answer has placeholders"}},
		{name: "all failures joined", inner: answer("TODO"), wantErr: []string{"answer too short", "answer has placeholders"}},
		{name: "run error skips checks", inner: failing(errors.New("provider down")), wantErr: []string{"provider down"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Guard(tooShort, noTodo)(tt.inner).Run(context.Background())
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMsg, msg.TextContent())
				return
			}

			require.Error(t, err)
			for _, w := range tt.wantErr {
				assert.Contains(t, err.Error(), w)
			}
			assert.Equal(t, message.Message{}, msg)
		})
	}
}

func TestRequireText(t *testing.T) {
	assert.NoError(t, RequireText(message.NewText("", role.Assistant, "answer")))
	assert.ErrorIs(t, RequireText(message.NewText("", role.Assistant, " \n\t")), ErrEmptyAnswer)
	assert.ErrorIs(t, RequireText(message.New("", role.Assistant)), ErrEmptyAnswer)
}

func TestMiddlewareOrder(t *testing.T) {
	var trail []string
	mark := func(name string) Middleware {
		return func(next Runner) Runner {
			return RunnerFunc(func(ctx context.Context) (message.Message, error) {
				trail = append(trail, "enter "+name)
				defer func() { trail = append(trail, "leave "+name) }()
				return next.Run(ctx)
			})
		}
	}

	a := New(Config{
		Role: "dev",
		Completer: completerFunc(func(context.Context) (message.Message, error) {
			trail = append(trail, "complete")
			return message.NewText("", role.Assistant, "ok"), nil
		}),
		Options: Options{Middleware: []Middleware{mark("outer"), mark("inner")}},
	})

	_, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"enter outer", "enter inner", "complete", "leave inner", "leave outer"}, trail)
}
