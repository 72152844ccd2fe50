/*
Package assistant is the text-generation collaborator offered next to the
payout tool.

PURPOSE:
  Agency staff draft messages and scripts with a hosted generative model. The
  collaborator shares no state with the payout engine; it only turns a chat
  history into a reply.

BEHAVIOR:
  - No API key configured     -> offline placeholder, labeled OFFLINE MODE
  - Upstream failure          -> offline placeholder plus a short error note
  - Reply never returns an error; Generate does, for callers that care

MODEL DISCOVERY:
  GET {base}/v1beta/models lists models; candidates support generateContent.
  The first candidate matching the preference list (skipping "exp" variants)
  wins, otherwise the first candidate. The choice is cached for ModelTTL per
  API key and concurrent lookups share one request.

RATE LIMITS:
  A 429 waits RetryDelays[i] before the next attempt. When every attempt was
  rate limited the call fails with ErrQuotaExhausted.

SEE ALSO:
  - api/handlers.go: POST /api/assistant/reply
*/
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// =============================================================================
// TYPES
// =============================================================================

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reply is what the caller shows to the user.
type Reply struct {
	Text    string `json:"reply"`
	Offline bool   `json:"offline"`
	Model   string `json:"model,omitempty"`
}

// Reply outcomes reported to the Observer.
const (
	OutcomeOK      = "ok"
	OutcomeOffline = "offline"
	OutcomeQuota   = "quota"
	OutcomeError   = "error"
)

// Observer receives counters; metrics.Metrics implements it.
type Observer interface {
	AssistantReply(outcome string)
	ModelCacheLookup(hit bool)
}

var (
	// ErrNoAPIKey is returned by Generate when the client is offline.
	ErrNoAPIKey = errors.New("assistant: no API key configured")
	// ErrNoModel is returned when the key has no model supporting generateContent.
	ErrNoModel = errors.New("assistant: no model available for this key")
	// ErrQuotaExhausted is returned when every attempt was rate limited.
	ErrQuotaExhausted = errors.New("assistant: quota exhausted (429), try again in a few minutes")
)

// UpstreamError is a non-2xx, non-429 response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("assistant: upstream returned %d: %s", e.StatusCode, e.Body)
}

// =============================================================================
// OPTIONS
// =============================================================================

const (
	DefaultBaseURL  = "https://generativelanguage.googleapis.com"
	DefaultTimeout  = 60 * time.Second
	DefaultModelTTL = time.Hour
)

// DefaultRetryDelays are the waits after each rate-limited attempt.
var DefaultRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// DefaultModelPreference is tried in order against the discovered models.
var DefaultModelPreference = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-2.0-flash"}

// GenerationConfig tunes sampling.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig matches the tone the agency reviewed.
var DefaultGenerationConfig = GenerationConfig{Temperature: 0.6, TopP: 0.9, MaxOutputTokens: 900}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	APIKey           string
	BaseURL          string
	Timeout          time.Duration
	RetryDelays      []time.Duration
	ModelTTL         time.Duration
	ModelPreference  []string
	GenerationConfig GenerationConfig
	HTTPClient       *http.Client
	Logger           zerolog.Logger
	Observer         Observer
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the generative API.
type Client struct {
	opts   Options
	http   *http.Client
	models *cache.Cache
	group  singleflight.Group
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a client. It never fails: a missing key yields an offline client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryDelays == nil {
		opts.RetryDelays = DefaultRetryDelays
	}
	if opts.ModelTTL <= 0 {
		opts.ModelTTL = DefaultModelTTL
	}
	if len(opts.ModelPreference) == 0 {
		opts.ModelPreference = DefaultModelPreference
	}
	if opts.GenerationConfig == (GenerationConfig{}) {
		opts.GenerationConfig = DefaultGenerationConfig
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		opts: opts,
		http: httpClient,
		// No janitor goroutine; expired entries are ignored on Get.
		models: cache.New(opts.ModelTTL, 0),
		sleep:  sleepContext,
	}

	opts.Logger.Info().
		Str("base_url", opts.BaseURL).
		Bool("api_key_configured", opts.APIKey != "").
		Dur("model_ttl", opts.ModelTTL).
		Msg("assistant client initialized")

	return c
}

// Online reports whether an API key is configured.
func (c *Client) Online() bool {
	return c.opts.APIKey != ""
}

// Reply answers the history. It falls back to the offline placeholder on any
// failure and never returns an error.
func (c *Client) Reply(ctx context.Context, history []Message) Reply {
	last := lastUserMessage(history)

	if !c.Online() {
		c.observe(OutcomeOffline)
		return Reply{Text: OfflineReply(last), Offline: true}
	}

	text, model, err := c.generate(ctx, history)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, ErrQuotaExhausted) {
			outcome = OutcomeQuota
		}
		c.observe(outcome)
		c.opts.Logger.Warn().Err(err).Msg("assistant unavailable, answering offline")
		return Reply{Text: OfflineReply(last) + fmt.Sprintf("\n\n(Assistant error: %v)", err), Offline: true}
	}

	c.observe(OutcomeOK)
	return Reply{Text: text, Model: model}
}

// Generate calls the model and returns its text.
func (c *Client) Generate(ctx context.Context, history []Message) (string, error) {
	text, _, err := c.generate(ctx, history)
	return text, err
}

func (c *Client) observe(outcome string) {
	if c.opts.Observer != nil {
		c.opts.Observer.AssistantReply(outcome)
	}
}

func lastUserMessage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
