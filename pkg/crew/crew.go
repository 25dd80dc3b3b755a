// Package crew runs an ordered list of tasks, each assigned to an agent, one
// after another. A task may name earlier tasks as context; their outputs are
// appended to its prompt. There is no delegation, memory or planning: the
// process is strictly sequential.
package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/germanamz/softhouse/pkg/agentctx"
	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/modeladapter/usage"
)

// ErrInvalid is wrapped by every validation error returned by Validate and
// Kickoff.
var ErrInvalid = errors.New("crew: invalid definition")

// contextDivider separates context outputs in a task prompt.
const contextDivider = "\n\n----------\n\n"

// Agent performs a task prompt. *agent.Agent satisfies it.
type Agent interface {
	Name() string
	Run(ctx context.Context, prompt string) (message.Message, error)
}

// Task is a unit of work assigned to an agent.
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          Agent
	Context        []*Task // Earlier tasks whose outputs this task reads.
}

// TaskOutput is the result of one finished task.
type TaskOutput struct {
	Task     string
	Agent    string
	Output   string
	Duration time.Duration
	Usage    usage.TokenCount
	Activity chat.Stats // Zero when the agent does not expose its conversation.
}

// Result is the outcome of a crew run.
type Result struct {
	Outputs []TaskOutput
	Final   string // Output of the last task.
	Usage   usage.TokenCount
}

// Output returns the output of the named task.
func (r Result) Output(task string) (TaskOutput, bool) {
	for _, o := range r.Outputs {
		if o.Task == task {
			return o, true
		}
	}
	return TaskOutput{}, false
}

// Crew is an ordered set of tasks.
type Crew struct {
	Tasks    []*Task
	Observer Observer     // Receives task events; may be nil.
	Logger   *slog.Logger // May be nil.
}

// Validate checks that every task has a unique name and an agent, and that
// context references point to earlier tasks of the same crew.
func (c *Crew) Validate() error {
	if len(c.Tasks) == 0 {
		return fmt.Errorf("%w: no tasks", ErrInvalid)
	}

	seen := make(map[*Task]bool, len(c.Tasks))
	names := make(map[string]bool, len(c.Tasks))

	for i, t := range c.Tasks {
		if t == nil {
			return fmt.Errorf("%w: task %d is nil", ErrInvalid, i)
		}
		if t.Name == "" {
			return fmt.Errorf("%w: task %d has no name", ErrInvalid, i)
		}
		if names[t.Name] {
			return fmt.Errorf("%w: duplicate task name %q", ErrInvalid, t.Name)
		}
		if t.Agent == nil {
			return fmt.Errorf("%w: task %q has no agent", ErrInvalid, t.Name)
		}

		for _, dep := range t.Context {
			switch {
			case dep == nil:
				return fmt.Errorf("%w: task %q has a nil context entry", ErrInvalid, t.Name)
			case dep == t:
				return fmt.Errorf("%w: task %q lists itself as context", ErrInvalid, t.Name)
			case !seen[dep]:
				return fmt.Errorf("%w: task %q uses %q as context, which does not run before it", ErrInvalid, t.Name, dep.Name)
			}
		}

		seen[t] = true
		names[t.Name] = true
	}

	return nil
}

// Kickoff validates the crew and runs its tasks in order. The first failing
// task aborts the run; the returned Result holds the outputs of the tasks that
// finished before it.
func (c *Crew) Kickoff(ctx context.Context) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}

	log := c.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var res Result
	outputs := make(map[*Task]string, len(c.Tasks))
	total := len(c.Tasks)

	for i, t := range c.Tasks {
		ev := Event{Task: t.Name, Agent: t.Agent.Name(), Index: i, Total: total}

		if err := ctx.Err(); err != nil {
			return res, c.fail(ctx, log, ev, err)
		}

		c.emit(ev.with(EventTaskStarted))
		log.InfoContext(ctx, "task started", "task", t.Name, "agent", ev.Agent, "step", fmt.Sprintf("%d/%d", i+1, total))

		before := agentUsage(t.Agent)
		start := time.Now()

		reply, err := t.Agent.Run(agentctx.WithTask(ctx, t.Name), Prompt(t, outputs))
		if err != nil {
			return res, c.fail(ctx, log, ev, err)
		}

		out := TaskOutput{
			Task:     t.Name,
			Agent:    ev.Agent,
			Output:   strings.TrimSpace(reply.TextContent()),
			Duration: time.Since(start),
			Usage:    usageSince(t.Agent, before),
			Activity: activity(t.Agent),
		}

		outputs[t] = out.Output
		res.Outputs = append(res.Outputs, out)
		res.Final = out.Output
		res.Usage = res.Usage.Plus(out.Usage)

		ev.Output = out.Output
		ev.Duration = out.Duration
		c.emit(ev.with(EventTaskFinished))
		log.InfoContext(ctx, "task finished", "task", t.Name, "agent", ev.Agent, "duration", out.Duration, "tokens", out.Usage.String(), "tool_calls", out.Activity.ToolCalls)
	}

	return res, nil
}

func (c *Crew) fail(ctx context.Context, log *slog.Logger, ev Event, err error) error {
	ev.Err = err
	c.emit(ev.with(EventTaskFailed))
	log.ErrorContext(ctx, "task failed", "task", ev.Task, "agent", ev.Agent, "error", err)

	return fmt.Errorf("crew: task %q: %w", ev.Task, err)
}

func (c *Crew) emit(e Event) {
	if c.Observer != nil {
		c.Observer.OnEvent(e)
	}
}

// Prompt renders the prompt for t given the outputs of tasks already run.
func Prompt(t *Task, outputs map[*Task]string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(t.Description))

	if exp := strings.TrimSpace(t.ExpectedOutput); exp != "" {
		b.WriteString("\n\nThis is the expected criteria for your final answer: ")
		b.WriteString(exp)
		b.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	}

	var ctxOutputs []string
	for _, dep := range t.Context {
		if out, ok := outputs[dep]; ok {
			ctxOutputs = append(ctxOutputs, out)
		}
	}

	if len(ctxOutputs) > 0 {
		b.WriteString("\n\nThis is the context you're working with:\n")
		b.WriteString(strings.Join(ctxOutputs, contextDivider))
	}

	return b.String()
}

// agentUsage returns the accumulated usage of a's completer, when it reports
// one.
func agentUsage(a Agent) usage.TokenCount {
	cp, ok := a.(interface{ Completer() modeladapter.Completer })
	if !ok {
		return usage.TokenCount{}
	}

	r, ok := cp.Completer().(modeladapter.UsageReporter)
	if !ok {
		return usage.TokenCount{}
	}

	return r.UsageTracker().Total()
}

// activity returns the conversation stats of a's latest run.
func activity(a Agent) chat.Stats {
	cp, ok := a.(interface{ Chat() *chat.Chat })
	if !ok || cp.Chat() == nil {
		return chat.Stats{}
	}
	return cp.Chat().Stats()
}

func usageSince(a Agent, before usage.TokenCount) usage.TokenCount {
	return agentUsage(a).Since(before)
}
