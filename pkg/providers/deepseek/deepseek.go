// Package deepseek provides a Completer for DeepSeek's chat API. DeepSeek
// speaks the OpenAI Chat Completions protocol, so the adapter is the OpenAI
// one pointed at a different endpoint.
package deepseek

import (
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/providers/openai"
)

// DefaultBaseURL is DeepSeek's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.deepseek.com"

var _ modeladapter.Completer = (*openai.Adapter)(nil)

// New creates an adapter for DeepSeek. An empty baseURL uses DefaultBaseURL.
func New(baseURL, apiKey, model string) *openai.Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := openai.New(baseURL, apiKey, model)
	a.Label = "deepseek"

	return a
}
