// Package providers groups the Completer implementations for hosted LLM APIs.
//
// Each sub-package wraps one vendor SDK and embeds
// [github.com/germanamz/softhouse/pkg/modeladapter.ModelAdapter]:
//   - [github.com/germanamz/softhouse/pkg/providers/openai]: OpenAI Chat Completions
//   - [github.com/germanamz/softhouse/pkg/providers/deepseek]: DeepSeek, through its OpenAI-compatible endpoint
//   - [github.com/germanamz/softhouse/pkg/providers/anthropic]: Anthropic Messages API
//   - [github.com/germanamz/softhouse/pkg/providers/gemini]: Google Gemini through the genai SDK
//
// This package contains no code. Selecting an adapter from configuration is
// the job of [github.com/germanamz/softhouse/pkg/llm].
package providers
