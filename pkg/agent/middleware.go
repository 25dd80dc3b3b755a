package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/germanamz/softhouse/pkg/agentctx"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/modeladapter/usage"
)

// Runner executes agent logic and returns the final message.
type Runner interface {
	Run(ctx context.Context) (message.Message, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context) (message.Message, error)

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) (message.Message, error) {
	return f(ctx)
}

// Middleware wraps a Runner. The first middleware in Options.Middleware is the
// outermost.
type Middleware func(next Runner) Runner

var (
	// ErrPanic wraps a panic raised while an agent worked on a task.
	ErrPanic = errors.New("agent: panic")

	// ErrDeadline is returned when a run outlives its Deadline.
	ErrDeadline = errors.New("agent: deadline exceeded")

	// ErrEmptyAnswer is returned by RequireText when the final message has no text.
	ErrEmptyAnswer = errors.New("agent: empty final answer")
)

// Deadline bounds a whole run, tool calls included. A non-positive d leaves
// the runner untouched.
func Deadline(d time.Duration) Middleware {
	return func(next Runner) Runner {
		if d <= 0 {
			return next
		}

		return RunnerFunc(func(ctx context.Context) (message.Message, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			msg, err := next.Run(ctx)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return msg, fmt.Errorf("%w after %s: %w", ErrDeadline, d, err)
			}
			return msg, err
		})
	}
}

// Recover turns a panic inside the run into an error wrapping ErrPanic, so one
// misbehaving agent fails its task instead of the process.
func Recover(name string) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (msg message.Message, err error) {
			defer func() {
				if r := recover(); r != nil {
					msg = message.Message{}
					err = fmt.Errorf("%w: agent %q: %v", ErrPanic, name, r)
				}
			}()

			return next.Run(ctx)
		})
	}
}

// Trace logs the start and end of each run. When meter is not nil the tokens
// spent by the run are added to the end record.
func Trace(log *slog.Logger, name string, meter modeladapter.UsageReporter) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (message.Message, error) {
			l := log.With("agent", name)
			if task := agentctx.From(ctx).Task; task != "" {
				l = l.With("task", task)
			}

			var before usage.TokenCount
			if meter != nil {
				before = meter.UsageTracker().Total()
				l = l.With("model", meter.ModelName())
			}

			l.InfoContext(ctx, "agent started")
			start := time.Now()

			msg, err := next.Run(ctx)

			attrs := []any{"duration", time.Since(start).Round(time.Millisecond)}
			if meter != nil {
				spent := meter.UsageTracker().Total().Since(before)
				attrs = append(attrs, "tokens_in", spent.InputTokens, "tokens_out", spent.OutputTokens)
			}

			if err != nil {
				l.ErrorContext(ctx, "agent failed", append(attrs, "error", err)...)
				return msg, err
			}

			l.InfoContext(ctx, "agent finished", append(attrs, "answer_bytes", len(msg.TextContent()))...)
			return msg, nil
		})
	}
}

// Check inspects a final answer.
type Check func(message.Message) error

// Guard runs every check against a successful answer. All failures are joined
// and the answer is dropped.
func Guard(checks ...Check) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (message.Message, error) {
			msg, err := next.Run(ctx)
			if err != nil {
				return msg, err
			}

			var errs []error
			for _, check := range checks {
				if cerr := check(msg); cerr != nil {
					errs = append(errs, cerr)
				}
			}
			if len(errs) > 0 {
				return message.Message{}, errors.Join(errs...)
			}

			return msg, nil
		})
	}
}

// RequireText rejects answers that carry no text.
func RequireText(m message.Message) error {
	if strings.TrimSpace(m.TextContent()) == "" {
		return ErrEmptyAnswer
	}
	return nil
}
