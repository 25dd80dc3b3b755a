// Package llm selects and builds the language-model client for a provider.
//
// The registry is a fixed map from provider identifier to constructor. Every
// call to [Create] builds a fresh adapter; handles share no mutable state.
package llm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/germanamz/softhouse/pkg/config"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/providers/anthropic"
	"github.com/germanamz/softhouse/pkg/providers/deepseek"
	"github.com/germanamz/softhouse/pkg/providers/gemini"
	"github.com/germanamz/softhouse/pkg/providers/openai"
)

// Constructor builds a Completer from configuration.
type Constructor func(cfg *config.Config) (modeladapter.Completer, error)

var constructors = map[config.Provider]Constructor{
	config.Gemini:   newGemini,
	config.OpenAI:   newOpenAI,
	config.Claude:   newClaude,
	config.DeepSeek: newDeepSeek,
}

// Known returns the supported provider identifiers in sorted order.
func Known() []string {
	names := make([]string, 0, len(constructors))
	for p := range constructors {
		names = append(names, string(p))
	}
	slices.Sort(names)

	return names
}

// Create returns a client for the named provider. An empty name selects the
// configured active provider. Matching is case-insensitive.
func Create(cfg *config.Config, name string) (modeladapter.Completer, error) {
	p := config.Normalize(name)
	if p == "" {
		p = cfg.ActiveProvider()
	}

	ctor, ok := constructors[p]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q (known: %s)", p, strings.Join(Known(), ", "))
	}

	if err := cfg.RequireCredential(p); err != nil {
		return nil, fmt.Errorf("llm: %s: %w", p, err)
	}

	c, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: %s: %w", p, err)
	}

	return c, nil
}

// Factory binds cfg to Create. Each call builds a fresh client, so agents
// never share a usage tracker.
func Factory(cfg *config.Config) func(provider string) (modeladapter.Completer, error) {
	return func(provider string) (modeladapter.Completer, error) {
		return Create(cfg, provider)
	}
}

func newGemini(cfg *config.Config) (modeladapter.Completer, error) {
	a := gemini.New(cfg.BaseURL(config.Gemini), cfg.APIKey(config.Gemini), cfg.Model(config.Gemini))
	a.Temperature = cfg.Temperature()

	return a, nil
}

func newOpenAI(cfg *config.Config) (modeladapter.Completer, error) {
	a := openai.New(cfg.BaseURL(config.OpenAI), cfg.APIKey(config.OpenAI), cfg.Model(config.OpenAI))
	a.Temperature = cfg.Temperature()

	return a, nil
}

func newClaude(cfg *config.Config) (modeladapter.Completer, error) {
	a := anthropic.New(cfg.BaseURL(config.Claude), cfg.APIKey(config.Claude), cfg.Model(config.Claude))
	a.Temperature = cfg.Temperature()

	return a, nil
}

func newDeepSeek(cfg *config.Config) (modeladapter.Completer, error) {
	a := deepseek.New(cfg.BaseURL(config.DeepSeek), cfg.APIKey(config.DeepSeek), cfg.Model(config.DeepSeek))
	a.Temperature = cfg.Temperature()

	return a, nil
}
