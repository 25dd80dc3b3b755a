// Package chats provides a provider-agnostic data model for LLM chat interactions.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/softhouse/pkg/chats/role]: conversation roles (system, user, assistant, tool)
//   - [github.com/germanamz/softhouse/pkg/chats/content]: content parts (text, tool call, tool result)
//   - [github.com/germanamz/softhouse/pkg/chats/message]: messages composed of a role, sender, and content parts
//   - [github.com/germanamz/softhouse/pkg/chats/chat]: mutable conversation container
//
// Provider adapters translate these types to and from each vendor's wire format.
package chats
