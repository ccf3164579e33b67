package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/ports"
)

// Gateway talks to an OpenAI-compatible chat completions endpoint.
type Gateway struct {
	url     string
	key     string
	model   string
	timeout time.Duration
	client  *http.Client
	log     *logrus.Entry
}

var _ ports.ModelService = (*Gateway)(nil)

func NewGateway(url, key, model string, timeout time.Duration, log *logrus.Entry) *Gateway {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Gateway{
		url:     url,
		key:     key,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: 5 * time.Minute},
		log:     log.WithField("provider", ProviderGateway),
	}
}

func (g *Gateway) Invoke(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("llm gateway timeout after %s (model=%s)", g.timeout, g.model)
		}
		return "", err
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm gateway status %d and read body failed: %v", resp.StatusCode, err)
	}
	g.log.WithField("http_status", resp.StatusCode).Debug("llm gateway replied")

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: "gateway", Err: errors.New(truncate(redactSecrets(string(rb), g.key), 400))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm gateway status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), g.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rb, &raw); err != nil {
		return "", fmt.Errorf("llm gateway: decode reply: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("llm gateway: no choices in reply")
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("llm gateway: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("llm gateway: unexpected content type %T", v)
	}
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
