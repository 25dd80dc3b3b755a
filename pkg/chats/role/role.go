// Package role names who speaks in a conversation.
package role

// Role is the speaker of a message. Adapters map it onto each vendor's own
// role names.
type Role string

// The four speakers a conversation knows about.
const (
	System    Role = "system"    // Persona and instructions.
	User      Role = "user"      // The task prompt.
	Assistant Role = "assistant" // The model.
	Tool      Role = "tool"      // Tool results fed back to the model.
)

func (r Role) String() string { return string(r) }
