// Package softhouse defines the software house crew: a product manager, an
// architect, a tech lead, a backend developer and a QA engineer turning a
// customer request into a project on disk. The crew is described by a YAML
// file; the default one is embedded in the binary.
package softhouse

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/germanamz/softhouse/pkg/tools/mcpclient"
	"gopkg.in/yaml.v3"
)

//go:embed crew.yaml
var defaultCrew []byte

// ErrDefinition is wrapped by every error returned by Definition.Validate.
var ErrDefinition = errors.New("softhouse: invalid crew definition")

// Definition is a crew described in YAML.
type Definition struct {
	MCPServers []MCPServerDef `yaml:"mcp_servers"`
	Agents     []AgentDef     `yaml:"agents"`
	Tasks      []TaskDef      `yaml:"tasks"`
}

// MCPServerDef declares an external MCP server whose tools agents can use by
// listing its name in toolboxes.
type MCPServerDef struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`
}

func (m MCPServerDef) server() mcpclient.Server {
	return mcpclient.Server{Name: m.Name, Command: m.Command, Args: m.Args, URL: m.URL}
}

// AgentDef describes one crew member.
type AgentDef struct {
	Name          string        `yaml:"name"`
	Role          string        `yaml:"role"`
	Goal          string        `yaml:"goal"`
	Backstory     string        `yaml:"backstory"`
	Provider      string        `yaml:"provider"` // Empty uses the active provider.
	Toolboxes     []string      `yaml:"toolboxes"`
	MaxIterations int           `yaml:"max_iterations"`
	Timeout       time.Duration `yaml:"timeout"` // Bounds one task, e.g. "15m". Zero means no limit.
}

// TaskDef describes one task. Description and ExpectedOutput are Go templates
// rendered with Params.
type TaskDef struct {
	Name           string   `yaml:"name"`
	Agent          string   `yaml:"agent"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	Context        []string `yaml:"context"`
}

// Default returns the embedded crew definition.
func Default() (Definition, error) {
	return parse(defaultCrew)
}

// LoadDefinition reads a crew definition from path. An empty path returns the
// embedded definition. Environment variables referenced as ${VAR} or $VAR are
// expanded before parsing.
func LoadDefinition(path string) (Definition, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration
	if err != nil {
		return Definition{}, fmt.Errorf("softhouse: load crew: %w", err)
	}

	return parse(data)
}

func parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &def); err != nil {
		return Definition{}, fmt.Errorf("softhouse: parse crew: %w", err)
	}

	return def, nil
}

// Agent returns the agent definition with the given name.
func (d Definition) Agent(name string) (AgentDef, bool) {
	for _, a := range d.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentDef{}, false
}

// Validate checks names are unique, tasks reference known agents, context
// only points to earlier tasks and every toolbox is one of known or a declared
// MCP server.
func (d Definition) Validate(known ...string) error {
	if len(d.Agents) == 0 {
		return fmt.Errorf("%w: at least one agent is required", ErrDefinition)
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("%w: at least one task is required", ErrDefinition)
	}

	knownTB := make(map[string]struct{}, len(known)+len(d.MCPServers))
	for _, k := range known {
		knownTB[k] = struct{}{}
	}

	for _, m := range d.MCPServers {
		if err := m.server().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrDefinition, err)
		}
		if _, dup := knownTB[m.Name]; dup {
			return fmt.Errorf("%w: mcp server %q clashes with another toolbox", ErrDefinition, m.Name)
		}
		knownTB[m.Name] = struct{}{}
	}

	agents := make(map[string]struct{}, len(d.Agents))
	for _, a := range d.Agents {
		if a.Name == "" {
			return fmt.Errorf("%w: agent name is required", ErrDefinition)
		}
		if _, dup := agents[a.Name]; dup {
			return fmt.Errorf("%w: duplicate agent name %q", ErrDefinition, a.Name)
		}
		agents[a.Name] = struct{}{}

		if a.Role == "" {
			return fmt.Errorf("%w: agent %q: role is required", ErrDefinition, a.Name)
		}
		if a.MaxIterations < 0 {
			return fmt.Errorf("%w: agent %q: max_iterations must not be negative", ErrDefinition, a.Name)
		}
		if a.Timeout < 0 {
			return fmt.Errorf("%w: agent %q: timeout must not be negative", ErrDefinition, a.Name)
		}

		for _, tb := range a.Toolboxes {
			if _, ok := knownTB[tb]; !ok {
				return fmt.Errorf("%w: agent %q: unknown toolbox %q", ErrDefinition, a.Name, tb)
			}
		}
	}

	tasks := make(map[string]struct{}, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.Name == "" {
			return fmt.Errorf("%w: task name is required", ErrDefinition)
		}
		if _, dup := tasks[t.Name]; dup {
			return fmt.Errorf("%w: duplicate task name %q", ErrDefinition, t.Name)
		}
		if _, ok := agents[t.Agent]; !ok {
			return fmt.Errorf("%w: task %q: unknown agent %q", ErrDefinition, t.Name, t.Agent)
		}
		if t.Description == "" {
			return fmt.Errorf("%w: task %q: description is required", ErrDefinition, t.Name)
		}

		for _, c := range t.Context {
			if _, ok := tasks[c]; !ok {
				return fmt.Errorf("%w: task %q: context %q is not an earlier task", ErrDefinition, t.Name, c)
			}
		}

		tasks[t.Name] = struct{}{}
	}

	return nil
}
