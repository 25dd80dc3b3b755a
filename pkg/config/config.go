// Package config reads the process environment into an explicit Config value
// and validates that the selected LLM provider has a credential. It is built
// once at startup and passed by pointer to whatever needs it; nothing else in
// the module reads provider settings from the environment.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Provider identifies a hosted language-model API.
type Provider string

const (
	Gemini   Provider = "gemini"
	OpenAI   Provider = "openai"
	Claude   Provider = "claude"
	DeepSeek Provider = "deepseek"
)

// DefaultProvider is used when DEFAULT_LLM_PROVIDER is unset or blank.
const DefaultProvider = Gemini

// Temperature is the sampling temperature every provider is configured with.
const Temperature = 0.5

// ProviderVar is the environment variable selecting the active provider.
const ProviderVar = "DEFAULT_LLM_PROVIDER"

// providerVars describes the environment variables and defaults of one provider.
type providerVars struct {
	KeyVar       string
	ModelVar     string
	BaseURLVar   string
	DefaultModel string
}

var providers = map[Provider]providerVars{
	Gemini:   {KeyVar: "GOOGLE_API_KEY", ModelVar: "GEMINI_MODEL_NAME", BaseURLVar: "GEMINI_BASE_URL", DefaultModel: "gemini-1.5-flash"},
	OpenAI:   {KeyVar: "OPENAI_API_KEY", ModelVar: "OPENAI_MODEL_NAME", BaseURLVar: "OPENAI_BASE_URL", DefaultModel: "gpt-4o"},
	Claude:   {KeyVar: "ANTHROPIC_API_KEY", ModelVar: "CLAUDE_MODEL_NAME", BaseURLVar: "ANTHROPIC_BASE_URL", DefaultModel: "claude-3-5-sonnet-20240620"},
	DeepSeek: {KeyVar: "DEEPSEEK_API_KEY", ModelVar: "DEEPSEEK_MODEL_NAME", BaseURLVar: "DEEPSEEK_BASE_URL", DefaultModel: "deepseek-chat"},
}

// Config is the process configuration. Field tags name the environment
// variables each value is read from.
type Config struct {
	Provider   Provider `env:"DEFAULT_LLM_PROVIDER" envDefault:"gemini"`
	OutputPath string   `env:"PROJECT_OUTPUT_PATH" envDefault:"./output"`
	LogLevel   string   `env:"SOFTHOUSE_LOG_LEVEL" envDefault:"info"`
	LogFile    string   `env:"SOFTHOUSE_LOG_FILE"`

	GoogleAPIKey  string `env:"GOOGLE_API_KEY"` //nolint:gosec // configuration field, not a hardcoded secret
	GeminiModel   string `env:"GEMINI_MODEL_NAME" envDefault:"gemini-1.5-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"` //nolint:gosec // configuration field, not a hardcoded secret
	OpenAIModel   string `env:"OPENAI_MODEL_NAME" envDefault:"gpt-4o"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"` //nolint:gosec // configuration field, not a hardcoded secret
	ClaudeModel      string `env:"CLAUDE_MODEL_NAME" envDefault:"claude-3-5-sonnet-20240620"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`

	DeepSeekAPIKey  string `env:"DEEPSEEK_API_KEY"` //nolint:gosec // configuration field, not a hardcoded secret
	DeepSeekModel   string `env:"DEEPSEEK_MODEL_NAME" envDefault:"deepseek-chat"`
	DeepSeekBaseURL string `env:"DEEPSEEK_BASE_URL"`
}

type options struct {
	envFile     string
	environment map[string]string
}

// Option customises Load.
type Option func(*options)

// WithEnvFile loads variables from a dotenv file before reading the
// environment. A missing file is ignored. Variables already present in the
// environment take precedence over the file.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithEnvironment reads from the given map instead of the process
// environment. Load never mutates the map.
func WithEnvironment(environ map[string]string) Option {
	return func(o *options) { o.environment = maps.Clone(environ) }
}

// Load builds a Config from the environment.
func Load(opts ...Option) (*Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := loadEnvFile(o.envFile, o.environment); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: o.environment}); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

// loadEnvFile merges a dotenv file into environ, or into the process
// environment when environ is nil.
func loadEnvFile(path string, environ map[string]string) error {
	if environ == nil {
		err := godotenv.Load(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
		return nil
	}

	vals, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}

	for k, v := range vals {
		if _, ok := environ[k]; !ok {
			environ[k] = v
		}
	}

	return nil
}

// applyDefaults normalises the provider name and restores defaults for
// variables that were set but blank.
func (c *Config) applyDefaults() {
	c.Provider = Normalize(string(c.Provider))
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}

	if strings.TrimSpace(c.OutputPath) == "" {
		c.OutputPath = "./output"
	}

	for p, s := range providers {
		if model := c.field(p, fieldModel); model != nil && strings.TrimSpace(*model) == "" {
			*model = s.DefaultModel
		}
	}
}

// Normalize trims and lower-cases a provider name so "OpenAI" and " openai "
// resolve to the same provider.
func Normalize(name string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(name)))
}

// Providers returns the known provider identifiers in sorted order.
func Providers() []Provider {
	return slices.Sorted(maps.Keys(providers))
}

// Known reports whether p is a supported provider.
func Known(p Provider) bool {
	_, ok := providers[Normalize(string(p))]
	return ok
}

// ProviderNames returns the known provider identifiers as a comma separated
// list, for error messages.
func ProviderNames() string {
	names := make([]string, 0, len(providers))
	for _, p := range Providers() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// ActiveProvider returns the provider selected for this process.
func (c *Config) ActiveProvider() Provider {
	return c.Provider
}

// KeyVar returns the environment variable holding p's credential, or "" for
// an unknown provider.
func KeyVar(p Provider) string {
	return providers[Normalize(string(p))].KeyVar
}

// ModelVar returns the environment variable overriding p's model name.
func ModelVar(p Provider) string {
	return providers[Normalize(string(p))].ModelVar
}

// DefaultModel returns the model used for p when no override is set.
func DefaultModel(p Provider) string {
	return providers[Normalize(string(p))].DefaultModel
}

// APIKey returns the trimmed credential for p.
func (c *Config) APIKey(p Provider) string {
	return c.value(p, fieldKey)
}

// Model returns the model name configured for p.
func (c *Config) Model(p Provider) string {
	return c.value(p, fieldModel)
}

// BaseURL returns the endpoint override for p, or "" for the vendor default.
func (c *Config) BaseURL(p Provider) string {
	return c.value(p, fieldBaseURL)
}

type fieldKind int

const (
	fieldKey fieldKind = iota
	fieldModel
	fieldBaseURL
)

func (c *Config) value(p Provider, kind fieldKind) string {
	f := c.field(Normalize(string(p)), kind)
	if f == nil {
		return ""
	}
	return strings.TrimSpace(*f)
}

func (c *Config) field(p Provider, kind fieldKind) *string {
	var fields [3]*string
	switch p {
	case Gemini:
		fields = [3]*string{&c.GoogleAPIKey, &c.GeminiModel, &c.GeminiBaseURL}
	case OpenAI:
		fields = [3]*string{&c.OpenAIAPIKey, &c.OpenAIModel, &c.OpenAIBaseURL}
	case Claude:
		fields = [3]*string{&c.AnthropicAPIKey, &c.ClaudeModel, &c.AnthropicBaseURL}
	case DeepSeek:
		fields = [3]*string{&c.DeepSeekAPIKey, &c.DeepSeekModel, &c.DeepSeekBaseURL}
	default:
		return nil
	}
	return fields[kind]
}

// Validate checks that the active provider is known and that its credential
// is present and non-blank. Credentials of other providers are not checked.
func (c *Config) Validate() error {
	return c.RequireCredential(c.ActiveProvider())
}

// RequireCredential checks that p is known and has a non-blank credential.
func (c *Config) RequireCredential(p Provider) error {
	p = Normalize(string(p))

	s, ok := providers[p]
	if !ok {
		return &Error{
			Provider: p,
			Var:      ProviderVar,
			Msg:      fmt.Sprintf("unknown %s %q (supported: %s)", ProviderVar, p, ProviderNames()),
		}
	}

	if c.APIKey(p) == "" {
		return &Error{
			Provider: p,
			Var:      s.KeyVar,
			Msg:      fmt.Sprintf("provider %q requires %s, but it is missing or empty", p, s.KeyVar),
		}
	}

	return nil
}

// Temperature returns the sampling temperature adapters are built with.
func (c *Config) Temperature() float64 {
	return Temperature
}
