// Package agentctx carries agent and task identity through a context so
// tool handlers, loggers and adapters can attribute their work without
// importing the agent or crew packages.
package agentctx

import "context"

// Identity says which agent is working and on which crew task. Either field
// may be empty.
type Identity struct {
	Agent string
	Task  string
}

type identityKey struct{}

// From returns the identity stored in ctx, or the zero Identity.
func From(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// WithAgent sets the agent name and keeps any task already in ctx.
func WithAgent(ctx context.Context, name string) context.Context {
	id := From(ctx)
	id.Agent = name
	return context.WithValue(ctx, identityKey{}, id)
}

// WithTask sets the task name and keeps any agent already in ctx.
func WithTask(ctx context.Context, name string) context.Context {
	id := From(ctx)
	id.Task = name
	return context.WithValue(ctx, identityKey{}, id)
}

// LogAttrs returns the set fields as slog key/value pairs.
func (id Identity) LogAttrs() []any {
	var attrs []any
	if id.Agent != "" {
		attrs = append(attrs, "agent", id.Agent)
	}
	if id.Task != "" {
		attrs = append(attrs, "task", id.Task)
	}
	return attrs
}
