package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"video-factcheck-go/internal/config"
	"video-factcheck-go/internal/logger"
)

func mockConfig(t *testing.T, dsn string) config.Config {
	t.Helper()
	c := config.Config{
		LLM:        config.LLMConfig{Provider: "mock"},
		Transcript: config.TranscriptConfig{Mock: true},
		Store:      config.StoreConfig{DSN: dsn},
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNew_MockPipeline(t *testing.T) {
	cfg := mockConfig(t, filepath.Join(t.TempDir(), "a.db"))
	a, err := New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	res, err := a.Coordinator.Transcript(ctx, "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(res.Transcript) != 2 || len(res.FactChecks.Results) != 1 {
		t.Fatalf("unexpected mock transcript result %+v", res)
	}

	recs, err := a.Coordinator.History(ctx, 10)
	if err != nil || len(recs) != 0 {
		t.Fatalf("history: %v %v", recs, err)
	}
}

func TestNew_PersistenceDisabled(t *testing.T) {
	cfg := mockConfig(t, "none")
	a, err := New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.store != nil {
		t.Fatalf("store should not be opened")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestLLMConfig(t *testing.T) {
	gw := llmConfig(config.LLMConfig{Provider: "gateway", GatewayKey: "g", GeminiKeys: []string{"x"}})
	if len(gw.APIKeys) != 1 || gw.APIKeys[0] != "g" {
		t.Fatalf("gateway keys = %v", gw.APIKeys)
	}
	gem := llmConfig(config.LLMConfig{Provider: "gemini", GeminiKeys: []string{"a", "b"}})
	if len(gem.APIKeys) != 2 {
		t.Fatalf("gemini keys = %v", gem.APIKeys)
	}
}

func TestNew_TagsComponents(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	log := &logger.Logger{Entry: logrus.NewEntry(base)}

	cfg := mockConfig(t, filepath.Join(t.TempDir(), "a.db"))
	a, err := New(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Coordinator.Transcript(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("transcript: %v", err)
	}
	for _, c := range []string{"store", "analysis"} {
		if !strings.Contains(buf.String(), `"component":"`+c+`"`) {
			t.Errorf("no log line tagged component=%s in:\n%s", c, buf.String())
		}
	}
}
