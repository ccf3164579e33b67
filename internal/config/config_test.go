package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "gemini with key",
			config: Config{LLM: LLMConfig{GeminiKeys: []string{"k"}}},
		},
		{
			name:    "gemini without key",
			config:  Config{},
			wantErr: true,
		},
		{
			name:   "gateway",
			config: Config{LLM: LLMConfig{Provider: "gateway", GatewayURL: "http://gw", GatewayKey: "k"}},
		},
		{
			name:    "gateway without url",
			config:  Config{LLM: LLMConfig{Provider: "gateway", GatewayKey: "k"}},
			wantErr: true,
		},
		{
			name:   "mock",
			config: Config{LLM: LLMConfig{Provider: "mock"}},
		},
		{
			name:    "unknown provider",
			config:  Config{LLM: LLMConfig{Provider: "openai"}},
			wantErr: true,
		},
		{
			name:    "negative workers",
			config:  Config{LLM: LLMConfig{Provider: "mock"}, Pool: PoolConfig{Workers: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	c := Config{LLM: LLMConfig{Provider: "mock"}}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Pool.Workers != 3 || c.Retry.MaxAttempts != 3 || c.Retry.BaseDelay != 5*time.Second {
		t.Errorf("unexpected defaults: %+v %+v", c.Pool, c.Retry)
	}
	if c.Analysis.ChunkSeconds != 120 || c.Server.Address != ":8080" || c.Store.DSN != "video_analysis.db" {
		t.Errorf("unexpected defaults: %+v %+v %+v", c.Analysis, c.Server, c.Store)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                "9090",
		"USE_MOCK_LLM":        "true",
		"GEMINI_API_KEYS":     "a, b,,c",
		"USE_MOCK_TRANSCRIBE": "true",
		"DATABASE_URL":        "postgres://u:p@localhost/db",
		"WORKERS":             "5",
		"RETRY_BASE_DELAY":    "2.5",
		"CHUNK_SECONDS":       "60",
	}
	var c Config
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if c.Server.Address != ":9090" || c.LLM.Provider != "mock" || !c.Transcript.Mock {
		t.Errorf("unexpected config %+v", c)
	}
	if len(c.LLM.GeminiKeys) != 3 || c.LLM.GeminiKeys[1] != "b" {
		t.Errorf("keys = %v", c.LLM.GeminiKeys)
	}
	if c.Store.DSN != "postgres://u:p@localhost/db" || c.Pool.Workers != 5 {
		t.Errorf("unexpected config %+v", c)
	}
	if c.Retry.BaseDelay != 2500*time.Millisecond || c.Analysis.ChunkSeconds != 60 {
		t.Errorf("unexpected retry/chunk %+v %+v", c.Retry, c.Analysis)
	}

	bad := Config{}
	if err := bad.applyEnv(func(k string) string {
		if k == "WORKERS" {
			return "many"
		}
		return ""
	}); err == nil {
		t.Errorf("expected error for non-numeric WORKERS")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":7000"
llm:
  provider: mock
retry:
  max_attempts: 4
  base_delay: 1s
pool:
  workers: 2
store:
  dsn: none
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"PORT", "LLM_PROVIDER", "USE_MOCK_LLM", "WORKERS", "DATABASE_URL", "DB_PATH", "RETRY_MAX_ATTEMPTS", "RETRY_BASE_DELAY"} {
		t.Setenv(k, "")
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Address != ":7000" || c.LLM.Provider != "mock" {
		t.Errorf("unexpected config %+v", c)
	}
	if c.Retry.MaxAttempts != 4 || c.Retry.BaseDelay != time.Second || c.Pool.Workers != 2 {
		t.Errorf("unexpected retry/pool %+v %+v", c.Retry, c.Pool)
	}
	if c.PersistenceEnabled() {
		t.Errorf("dsn none should disable persistence")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for explicit missing file")
	}
}
