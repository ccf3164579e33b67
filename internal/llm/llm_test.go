package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"video-factcheck-go/internal/logger"
	"video-factcheck-go/internal/retry"
)

func TestGateway_Invoke(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		want          string
		wantErr       bool
		wantRateLimit bool
	}{
		{
			name:   "string content",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"content":"{\"results\":[]}"}}]}`,
			want:   `{"results":[]}`,
		},
		{
			name:   "content parts",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}]}}]}`,
			want:   "hello world",
		},
		{
			name:          "rate limited",
			status:        http.StatusTooManyRequests,
			body:          `{"error":"slow down"}`,
			wantErr:       true,
			wantRateLimit: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `upstream failed for Authorization: Bearer sk-secret`,
			wantErr: true,
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer sk-secret" {
					t.Errorf("missing bearer token")
				}
				var req struct {
					Model    string `json:"model"`
					Messages []struct {
						Content string `json:"content"`
					} `json:"messages"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
					t.Errorf("bad request body: %v", err)
				}
				if req.Model != "test-model" || req.Messages[0].Content != "prompt" {
					t.Errorf("unexpected request: %+v", req)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGateway(srv.URL, "sk-secret", "test-model", 0, logger.NewNop().Entry)
			got, err := g.Invoke(context.Background(), "prompt")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if retry.IsRateLimit(err) != tt.wantRateLimit {
					t.Fatalf("rate limit classification = %v for %v", !tt.wantRateLimit, err)
				}
				if strings.Contains(err.Error(), "sk-secret") {
					t.Fatalf("secret leaked in error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitError(t *testing.T) {
	inner := errors.New("quota")
	err := error(&RateLimitError{Provider: "gemini", Err: inner})
	if !retry.IsRateLimit(err) {
		t.Fatalf("RateLimitError must classify as rate limit: %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Fatalf("RateLimitError must unwrap")
	}
}

func TestGemini_RotatesKeysOnQuota(t *testing.T) {
	var first, second atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-goog-api-key")
		if key == "" {
			key = r.URL.Query().Get("key")
		}
		w.Header().Set("Content-Type", "application/json")
		if key == "key-1" {
			first.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		second.Add(1)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":"},{"text":"true}"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini([]string{"key-1", "key-2"}, "", 0, logger.NewNop().Entry)
	g.baseURL = srv.URL

	got, err := g.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"ok":true}` {
		t.Fatalf("got %q", got)
	}
	if first.Load() == 0 || second.Load() != 1 {
		t.Fatalf("expected key-1 then key-2, got %d/%d calls", first.Load(), second.Load())
	}

	// the working key sticks for the next call
	before := first.Load()
	if _, err := g.Invoke(context.Background(), "prompt"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.Load() != before || second.Load() != 2 {
		t.Fatalf("expected the rotated key to be reused, got %d/%d calls", first.Load(), second.Load())
	}
}

func TestGemini_AllKeysExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g := NewGemini([]string{"a", "b"}, "", 0, logger.NewNop().Entry)
	g.baseURL = srv.URL

	_, err := g.Invoke(context.Background(), "prompt")
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestMock(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	fact, _ := m.Invoke(ctx, `respond with {"results": []}`+"\n\nCHUNK 1 [00:00 - 00:05]:\n[00:00-00:02] The sky is blue\n")
	var env struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal([]byte(fact), &env); err != nil {
		t.Fatalf("fact-check reply not JSON: %v", err)
	}
	if len(env.Results) != 1 || env.Results[0]["timestamp"] != "00:00" || env.Results[0]["timestamp_range"] != "00:00-00:02" {
		t.Fatalf("unexpected mock verdicts: %+v", env.Results)
	}

	answer, _ := m.Invoke(ctx, "what colour is the sky?")
	if !strings.HasPrefix(answer, "Mock answer") {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestNew(t *testing.T) {
	log := logger.NewNop().Entry
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "mock", cfg: Config{Provider: ProviderMock}},
		{name: "gemini", cfg: Config{Provider: ProviderGemini, APIKeys: []string{"k"}}},
		{name: "gemini without key", cfg: Config{Provider: ProviderGemini}, wantErr: true},
		{name: "gateway", cfg: Config{Provider: ProviderGateway, APIKeys: []string{"k"}, GatewayURL: "http://x"}},
		{name: "gateway without url", cfg: Config{Provider: ProviderGateway, APIKeys: []string{"k"}}, wantErr: true},
		{name: "unknown", cfg: Config{Provider: "openai"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
