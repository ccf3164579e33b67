package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
	"video-factcheck-go/internal/ports"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini calls the Gemini API, rotating through API keys when one is rate
// limited.
type Gemini struct {
	keys    []string
	model   string
	timeout time.Duration
	baseURL string
	log     *logrus.Entry

	mu         sync.Mutex
	currentKey int
	clients    map[string]*genai.Client
}

var _ ports.ModelService = (*Gemini)(nil)

func NewGemini(keys []string, model string, timeout time.Duration, log *logrus.Entry) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Gemini{
		keys:    keys,
		model:   model,
		timeout: timeout,
		log:     log.WithField("provider", ProviderGemini),
		clients: map[string]*genai.Client{},
	}
}

// Invoke tries each key at most once. When every key is rate limited the
// returned error is a *RateLimitError.
func (g *Gemini) Invoke(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for range len(g.keys) {
		idx, key := g.key()

		client, err := g.client(ctx, key)
		if err != nil {
			return "", fmt.Errorf("gemini: create client: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		result, err := client.Models.GenerateContent(callCtx, g.model, genai.Text(prompt), nil)
		cancel()
		if err != nil {
			if isQuotaError(err) {
				g.log.WithField("key_index", idx+1).Warn("key rate limited, rotating")
				g.rotate(idx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("gemini: generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var b strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part != nil && part.Text != "" {
					b.WriteString(part.Text)
				}
			}
			if b.Len() > 0 {
				return b.String(), nil
			}
		}
		return "", fmt.Errorf("gemini: empty response")
	}
	return "", &RateLimitError{Provider: "gemini", Err: lastErr}
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func (g *Gemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.keys[g.currentKey]
}

// rotate moves past idx unless another caller already did.
func (g *Gemini) rotate(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == idx {
		g.currentKey = (g.currentKey + 1) % len(g.keys)
	}
}

func (g *Gemini) client(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[key]; ok {
		return c, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	g.clients[key] = c
	return c, nil
}
