package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// =============================================================================
// MODEL DISCOVERY
// =============================================================================

// PickModel returns the model used for generation, from cache when fresh.
func (c *Client) PickModel(ctx context.Context) (string, error) {
	if !c.Online() {
		return "", ErrNoAPIKey
	}

	key := c.opts.APIKey
	if v, ok := c.models.Get(key); ok {
		c.cacheLookup(true)
		return v.(string), nil
	}
	c.cacheLookup(false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have filled the cache while we waited.
		if v, ok := c.models.Get(key); ok {
			return v, nil
		}
		model, err := c.discoverModel(ctx)
		if err != nil {
			return "", err
		}
		c.models.SetDefault(key, model)
		c.opts.Logger.Info().Str("model", model).Msg("assistant model selected")
		return model, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) cacheLookup(hit bool) {
	if c.opts.Observer != nil {
		c.opts.Observer.ModelCacheLookup(hit)
	}
}

func (c *Client) discoverModel(ctx context.Context) (string, error) {
	endpoint := c.opts.BaseURL + "/v1beta/models?key=" + url.QueryEscape(c.opts.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("assistant: build model list request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant: list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError(resp)
	}

	var list listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", fmt.Errorf("assistant: decode model list: %w", err)
	}

	var candidates []string
	for _, m := range list.Models {
		if !strings.HasPrefix(m.Name, "models/") || !supports(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		candidates = append(candidates, strings.TrimPrefix(m.Name, "models/"))
	}

	model := chooseModel(candidates, c.opts.ModelPreference)
	if model == "" {
		return "", ErrNoModel
	}
	return model, nil
}

func supports(methods []string, want string) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}

// chooseModel applies the preference list, skipping experimental variants,
// then falls back to the first candidate.
func chooseModel(candidates, preference []string) string {
	for _, p := range preference {
		for _, c := range candidates {
			if strings.HasPrefix(c, p) && !strings.Contains(c, "exp") {
				return c
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// =============================================================================
// GENERATION
// =============================================================================

func (c *Client) generate(ctx context.Context, history []Message) (string, string, error) {
	if !c.Online() {
		return "", "", ErrNoAPIKey
	}

	model, err := c.PickModel(ctx)
	if err != nil {
		return "", "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents:         toContents(history),
		GenerationConfig: c.opts.GenerationConfig,
	})
	if err != nil {
		return "", model, fmt.Errorf("assistant: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.opts.BaseURL, url.PathEscape(model), url.QueryEscape(c.opts.APIKey))

	attempts := len(c.opts.RetryDelays)
	if attempts == 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		text, retry, err := c.generateOnce(ctx, endpoint, body)
		if !retry {
			return text, model, err
		}

		c.opts.Logger.Debug().Int("attempt", i+1).Msg("assistant rate limited")
		if i < len(c.opts.RetryDelays) {
			if err := c.sleep(ctx, c.opts.RetryDelays[i]); err != nil {
				return "", model, err
			}
		}
	}
	return "", model, ErrQuotaExhausted
}

// generateOnce performs one POST. retry is true on 429.
func (c *Client) generateOnce(ctx context.Context, endpoint string, body []byte) (text string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("assistant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("assistant: generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, upstreamError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("assistant: read response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", false, fmt.Errorf("assistant: decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		// Safety blocks and similar come back without candidates; show them as-is.
		return string(raw), false, nil
	}
	return out.Candidates[0].Content.Parts[0].Text, false, nil
}

// toContents maps chat roles onto the two roles the API accepts.
func toContents(history []Message) []content {
	out := make([]content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	return out
}

func upstreamError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// IsUpstream reports whether err is an UpstreamError with the given status.
func IsUpstream(err error, status int) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == status
}
