// Package agent provides a role-playing agent bound to a language model. An
// agent has a role, a goal and a backstory; given a task prompt it runs a
// tool-calling loop until the model answers without requesting tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/germanamz/softhouse/pkg/agentctx"
	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// ErrMaxIterations is returned when the loop exceeds MaxIterations without
// the model producing a final answer.
var ErrMaxIterations = errors.New("agent: max iterations reached")

// Options configures an Agent.
type Options struct {
	MaxIterations int          // Loop limit (0 = unlimited).
	Middleware    []Middleware // Applied around each Run.
	Logger        *slog.Logger // Receives tool call logs; nil discards them.
}

// Config describes an agent's persona and the model it talks to.
type Config struct {
	Name      string // Identifier used in logs and events; defaults to Role.
	Role      string
	Goal      string
	Backstory string
	Completer modeladapter.Completer
	Options   Options
}

// Agent runs task prompts against its completer. Each Run starts from a fresh
// conversation; agents carry no memory between tasks.
type Agent struct {
	cfg       Config
	toolboxes []*toolbox.ToolBox
	last      *chat.Chat
}

// New creates an Agent with the given configuration.
func New(cfg Config) *Agent {
	if cfg.Name == "" {
		cfg.Name = cfg.Role
	}

	return &Agent{cfg: cfg}
}

// Name returns the agent's identifier.
func (a *Agent) Name() string { return a.cfg.Name }

// Role returns the agent's role.
func (a *Agent) Role() string { return a.cfg.Role }

// Goal returns the agent's goal.
func (a *Agent) Goal() string { return a.cfg.Goal }

// Backstory returns the agent's backstory.
func (a *Agent) Backstory() string { return a.cfg.Backstory }

// Completer returns the agent's completer.
func (a *Agent) Completer() modeladapter.Completer { return a.cfg.Completer }

// Chat returns the conversation of the most recent Run, or nil before the
// first Run.
func (a *Agent) Chat() *chat.Chat { return a.last }

// AddToolBoxes makes the tools in tbs available to the agent.
func (a *Agent) AddToolBoxes(tbs ...*toolbox.ToolBox) {
	a.toolboxes = append(a.toolboxes, tbs...)
}

// Tools returns the declarations of every tool available to the agent.
func (a *Agent) Tools() []toolbox.Tool {
	var tools []toolbox.Tool
	for _, tb := range a.toolboxes {
		tools = append(tools, tb.Tools()...)
	}
	return tools
}

// Run executes prompt with middleware applied and returns the model's final
// answer.
func (a *Agent) Run(ctx context.Context, prompt string) (message.Message, error) {
	if a.cfg.Completer == nil {
		return message.Message{}, fmt.Errorf("agent %q: no completer", a.cfg.Name)
	}

	var runner Runner = RunnerFunc(func(ctx context.Context) (message.Message, error) {
		return a.run(ctx, prompt)
	})

	// Apply middleware in reverse order so the first middleware is outermost.
	for i := len(a.cfg.Options.Middleware) - 1; i >= 0; i-- {
		runner = a.cfg.Options.Middleware[i](runner)
	}

	return runner.Run(ctx)
}

// run is the internal tool-calling loop.
func (a *Agent) run(ctx context.Context, prompt string) (message.Message, error) {
	ctx = agentctx.WithAgent(ctx, a.cfg.Name)

	c := chat.New(
		message.NewText(a.cfg.Name, role.System, a.SystemPrompt()),
		message.NewText("user", role.User, prompt),
	)
	a.last = c

	tools := a.Tools()

	for i := 0; a.cfg.Options.MaxIterations == 0 || i < a.cfg.Options.MaxIterations; i++ {
		reply, err := a.cfg.Completer.Complete(ctx, c, tools)
		if err != nil {
			return message.Message{}, err
		}

		reply.Sender = a.cfg.Name
		c.Append(reply)

		calls := reply.ToolCalls()
		if len(calls) == 0 {
			return reply, nil
		}

		// All results of one turn travel in a single message so adapters that
		// require alternating roles see one tool turn.
		results := make([]content.Part, 0, len(calls))
		for _, tc := range calls {
			results = append(results, a.callTool(ctx, tc))
		}
		c.Append(message.New(a.cfg.Name, role.Tool, results...))
	}

	return message.Message{}, ErrMaxIterations
}

// SystemPrompt builds the persona prompt from role, backstory and goal.
func (a *Agent) SystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.", a.cfg.Role)
	if a.cfg.Backstory != "" {
		fmt.Fprintf(&b, " %s", strings.TrimSpace(a.cfg.Backstory))
	}
	b.WriteString("\n")

	if a.cfg.Goal != "" {
		fmt.Fprintf(&b, "Your personal goal is: %s\n", strings.TrimSpace(a.cfg.Goal))
	}

	if tools := a.Tools(); len(tools) > 0 {
		b.WriteString("\n## Tools\n\nYou can call these tools. Call them whenever the task needs a change on disk.\n\n")
		for _, t := range tools {
			fmt.Fprintf(&b, "- **%s**: %s\n", t.Name, t.Description)
		}
	}

	b.WriteString("\nWhen you have completed the task, reply with your complete final answer and no tool calls.\n")

	return b.String()
}
