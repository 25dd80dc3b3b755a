package llm_test

import (
	"testing"

	"github.com/germanamz/softhouse/pkg/config"
	"github.com/germanamz/softhouse/pkg/llm"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/providers/anthropic"
	"github.com/germanamz/softhouse/pkg/providers/deepseek"
	"github.com/germanamz/softhouse/pkg/providers/gemini"
	"github.com/germanamz/softhouse/pkg/providers/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allKeys(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()

	environ := map[string]string{
		"GOOGLE_API_KEY":    "AIza-test",
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
		"DEEPSEEK_API_KEY":  "sk-deep",
	}
	for k, v := range extra {
		environ[k] = v
	}

	cfg, err := config.Load(config.WithEnvironment(environ))
	require.NoError(t, err)

	return cfg
}

func TestCreate_AllProviders(t *testing.T) {
	cfg := allKeys(t, nil)

	for _, name := range llm.Known() {
		t.Run(name, func(t *testing.T) {
			c, err := llm.Create(cfg, name)
			require.NoError(t, err)
			require.NotNil(t, c)

			reporter, ok := c.(modeladapter.UsageReporter)
			require.True(t, ok)
			assert.Equal(t, config.DefaultModel(config.Provider(name)), reporter.ModelName())
		})
	}
}

func TestCreate_AdapterTypes(t *testing.T) {
	cfg := allKeys(t, nil)

	c, err := llm.Create(cfg, "gemini")
	require.NoError(t, err)
	g, ok := c.(*gemini.Adapter)
	require.True(t, ok)
	assert.InDelta(t, 0.5, g.Temperature, 0.0001)
	assert.Equal(t, "AIza-test", g.APIKey)

	c, err = llm.Create(cfg, "openai")
	require.NoError(t, err)
	assert.IsType(t, &openai.Adapter{}, c)

	c, err = llm.Create(cfg, "claude")
	require.NoError(t, err)
	a, ok := c.(*anthropic.Adapter)
	require.True(t, ok)
	assert.Equal(t, "claude-3-5-sonnet-20240620", a.Name)

	c, err = llm.Create(cfg, "deepseek")
	require.NoError(t, err)
	d, ok := c.(*openai.Adapter)
	require.True(t, ok)
	assert.Equal(t, deepseek.DefaultBaseURL, d.BaseURL)
	assert.Equal(t, "deepseek", d.Label)
}

func TestCreate_CaseInsensitive(t *testing.T) {
	cfg := allKeys(t, nil)

	c, err := llm.Create(cfg, "OpenAI")
	require.NoError(t, err)
	assert.IsType(t, &openai.Adapter{}, c)
}

func TestCreate_EmptyNameUsesActiveProvider(t *testing.T) {
	cfg := allKeys(t, map[string]string{"DEFAULT_LLM_PROVIDER": "claude"})

	c, err := llm.Create(cfg, "")
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Adapter{}, c)
}

func TestCreate_UnknownProvider(t *testing.T) {
	cfg := allKeys(t, nil)

	c, err := llm.Create(cfg, "mistral")
	require.Error(t, err)
	assert.Nil(t, c)
	assert.EqualError(t, err, `llm: unknown provider "mistral" (known: claude, deepseek, gemini, openai)`)
}

func TestCreate_MissingCredential(t *testing.T) {
	cfg, err := config.Load(config.WithEnvironment(map[string]string{"GOOGLE_API_KEY": "AIza-test"}))
	require.NoError(t, err)

	_, err = llm.Create(cfg, "openai")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfig)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestCreate_FreshHandles(t *testing.T) {
	cfg := allKeys(t, nil)

	first, err := llm.Create(cfg, "gemini")
	require.NoError(t, err)
	second, err := llm.Create(cfg, "gemini")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

func TestCreate_BaseURLOverride(t *testing.T) {
	cfg := allKeys(t, map[string]string{"OPENAI_BASE_URL": "http://localhost:8080/v1/"})

	c, err := llm.Create(cfg, "openai")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1", c.(*openai.Adapter).BaseURL)
}

func TestFactory(t *testing.T) {
	cfg := allKeys(t, nil)

	newCompleter := llm.Factory(cfg)

	first, err := newCompleter("claude")
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Adapter{}, first)

	second, err := newCompleter("claude")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	active, err := newCompleter("")
	require.NoError(t, err)
	assert.Equal(t, cfg.Model(cfg.ActiveProvider()), active.(modeladapter.UsageReporter).ModelName())

	_, err = newCompleter("mistral")
	assert.ErrorContains(t, err, `unknown provider "mistral"`)
}

func TestKnown(t *testing.T) {
	assert.Equal(t, []string{"claude", "deepseek", "gemini", "openai"}, llm.Known())
}
