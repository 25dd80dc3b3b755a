package softhouse

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/germanamz/softhouse/pkg/agent"
	"github.com/germanamz/softhouse/pkg/crew"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// DefaultMaxIterations bounds each agent's tool-calling loop when the
// definition does not set max_iterations.
const DefaultMaxIterations = 25

// Params are the values task templates are rendered with.
type Params struct {
	Request    string
	OutputPath string
}

// CompleterFactory returns a fresh completer for the named provider. An empty
// name selects the active provider.
type CompleterFactory func(provider string) (modeladapter.Completer, error)

// BuildOptions configures Build.
type BuildOptions struct {
	Toolboxes map[string]*toolbox.ToolBox // Toolboxes agents may reference by name.
	Observer  crew.Observer
	Logger    *slog.Logger
}

// Build renders def with p and returns a crew ready to kick off. Every agent
// gets its own completer from newCompleter.
func Build(def Definition, p Params, newCompleter CompleterFactory, opts BuildOptions) (*crew.Crew, error) {
	if err := def.Validate(builtinToolboxes(def, opts.Toolboxes)...); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	agents := make(map[string]*agent.Agent, len(def.Agents))
	for _, ad := range def.Agents {
		a, err := buildAgent(ad, newCompleter, opts.Toolboxes, log)
		if err != nil {
			return nil, err
		}
		agents[ad.Name] = a
	}

	tasks := make(map[string]*crew.Task, len(def.Tasks))
	c := &crew.Crew{Observer: opts.Observer, Logger: log}

	for _, td := range def.Tasks {
		desc, err := render(td.Name+".description", td.Description, p)
		if err != nil {
			return nil, err
		}
		expected, err := render(td.Name+".expected_output", td.ExpectedOutput, p)
		if err != nil {
			return nil, err
		}

		t := &crew.Task{
			Name:           td.Name,
			Description:    desc,
			ExpectedOutput: expected,
			Agent:          agents[td.Agent],
		}
		for _, name := range td.Context {
			t.Context = append(t.Context, tasks[name])
		}

		tasks[td.Name] = t
		c.Tasks = append(c.Tasks, t)
	}

	return c, nil
}

func buildAgent(ad AgentDef, newCompleter CompleterFactory, toolboxes map[string]*toolbox.ToolBox, log *slog.Logger) (*agent.Agent, error) {
	completer, err := newCompleter(ad.Provider)
	if err != nil {
		return nil, fmt.Errorf("softhouse: agent %q: %w", ad.Name, err)
	}

	maxIter := ad.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}

	meter, _ := completer.(modeladapter.UsageReporter)

	a := agent.New(agent.Config{
		Name:      ad.Name,
		Role:      strings.TrimSpace(ad.Role),
		Goal:      strings.TrimSpace(ad.Goal),
		Backstory: strings.TrimSpace(ad.Backstory),
		Completer: completer,
		Options: agent.Options{
			MaxIterations: maxIter,
			Logger:        log,
			Middleware: []agent.Middleware{
				agent.Recover(ad.Name),
				agent.Trace(log, ad.Name, meter),
				agent.Deadline(ad.Timeout),
				agent.Guard(agent.RequireText),
			},
		},
	})

	for _, name := range ad.Toolboxes {
		tb, ok := toolboxes[name]
		if !ok || tb == nil {
			return nil, fmt.Errorf("softhouse: agent %q: toolbox %q is not available", ad.Name, name)
		}
		a.AddToolBoxes(tb)
	}

	return a, nil
}

// render executes a task template. Unknown fields are an error so a typo in a
// crew file does not silently drop the request.
func render(name, text string, p Params) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("softhouse: template %s: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("softhouse: template %s: %w", name, err)
	}

	return strings.TrimSpace(b.String()), nil
}

// builtinToolboxes returns the names in m that are not MCP servers declared
// by def.
func builtinToolboxes(def Definition, m map[string]*toolbox.ToolBox) []string {
	mcp := make(map[string]struct{}, len(def.MCPServers))
	for _, s := range def.MCPServers {
		mcp[s.Name] = struct{}{}
	}

	names := make([]string, 0, len(m))
	for name := range m {
		if _, ok := mcp[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}
