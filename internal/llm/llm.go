// Package llm holds the ModelService adapters: Gemini, an OpenAI-compatible
// gateway, and a deterministic mock.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/ports"
)

const (
	ProviderGemini  = "gemini"
	ProviderGateway = "gateway"
	ProviderMock    = "mock"
)

type Config struct {
	Provider   string
	Model      string
	APIKeys    []string
	GatewayURL string
	Timeout    time.Duration
}

// New returns the adapter selected by cfg.Provider.
func New(cfg Config, log *logrus.Entry) (ports.ModelService, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderMock:
		log.Info("mock LLM mode ON - returning deterministic replies")
		return NewMock(), nil
	case ProviderGateway:
		if cfg.GatewayURL == "" || len(cfg.APIKeys) == 0 {
			return nil, fmt.Errorf("llm gateway not configured")
		}
		return NewGateway(cfg.GatewayURL, cfg.APIKeys[0], cfg.Model, cfg.Timeout, log), nil
	case ProviderGemini, "":
		if len(cfg.APIKeys) == 0 {
			return nil, fmt.Errorf("gemini: no API key configured")
		}
		return NewGemini(cfg.APIKeys, cfg.Model, cfg.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// RateLimitError reports that the provider refused the call for quota
// reasons. Its message always contains "rate limit".
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return e.Provider + ": rate limit exceeded"
	}
	return fmt.Sprintf("%s: rate limit exceeded: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
