package modeladapter

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/modeladapter/usage"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// DefaultTimeout bounds one completion request made through the fallback
// HTTP client.
const DefaultTimeout = 10 * time.Minute

// Completer produces the next assistant message for a conversation. tools
// lists what the model may call in its reply.
type Completer interface {
	Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error)
}

// UsageReporter is implemented by completers that meter tokens. Every
// provider embedding ModelAdapter satisfies it.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
	ModelName() string
}

// ModelAdapter is the state every provider shares. Providers embed it and
// add their own Complete.
type ModelAdapter struct {
	Name        string
	Temperature float64
	MaxTokens   int
	APIKey      string
	// BaseURL overrides the vendor endpoint. It never ends in a slash.
	BaseURL string
	// Client is used for requests when set.
	Client *http.Client
	Usage  usage.Tracker

	fallbackOnce sync.Once
	fallback     *http.Client
}

// Init fills the connection settings. An empty baseURL keeps the vendor
// default.
func (a *ModelAdapter) Init(baseURL, apiKey, model string, maxTokens int) {
	a.BaseURL = strings.TrimRight(baseURL, "/")
	a.APIKey = apiKey
	a.Name = model
	a.MaxTokens = maxTokens
}

// Record adds the tokens one response reported.
func (a *ModelAdapter) Record(in, out int64) {
	a.Usage.Add(usage.TokenCount{InputTokens: int(in), OutputTokens: int(out)})
}

func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

func (a *ModelAdapter) ModelName() string { return a.Name }

// HTTPClient returns Client, or a shared client limited to DefaultTimeout.
func (a *ModelAdapter) HTTPClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	a.fallbackOnce.Do(func() {
		a.fallback = &http.Client{Timeout: DefaultTimeout}
	})
	return a.fallback
}
