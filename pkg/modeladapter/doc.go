// Package modeladapter defines the interface and shared state for LLM
// completion adapters.
//
// It contains:
//   - [Completer], the client handle every provider returns
//   - [ModelAdapter], an embeddable base carrying model name, sampling
//     temperature, token limit, endpoint, HTTP client and usage tracking
//   - [github.com/germanamz/softhouse/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete adapters live in
// pkg/providers and embed ModelAdapter.
package modeladapter
