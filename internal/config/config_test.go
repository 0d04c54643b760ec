package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
graph:
  threshold: 0.75
layout:
  width: 800
  damping: 0.8
  fps: 30
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("addr = %s", cfg.Server.Addr())
	}
	if cfg.Graph.Threshold != 0.75 {
		t.Errorf("threshold = %g, want 0.75", cfg.Graph.Threshold)
	}
	if cfg.Layout.Width != 800 || cfg.Layout.Height != 600 {
		t.Errorf("layout size = %gx%g, want 800x600", cfg.Layout.Width, cfg.Layout.Height)
	}
	if cfg.Layout.Damping != 0.8 {
		t.Errorf("damping = %g, want 0.8", cfg.Layout.Damping)
	}
	if cfg.Layout.FrameInterval() != time.Second/30 {
		t.Errorf("frame interval = %s", cfg.Layout.FrameInterval())
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
inbox:
  directories: ["./notes/inbox"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Inbox.Directories) != 1 {
		t.Fatalf("inbox directories: got %d", len(cfg.Inbox.Directories))
	}
	want := filepath.Join(filepath.Dir(path), "notes", "inbox")
	if cfg.Inbox.Directories[0] != want {
		t.Errorf("inbox directory = %s, want %s", cfg.Inbox.Directories[0], want)
	}
	if !cfg.Inbox.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown provider", "embedding:\n  provider: local\n"},
		{"negative threshold", "graph:\n  threshold: -1\n"},
		{"margin too wide", "layout:\n  width: 60\n  margin: 40\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Embedding.Provider != ProviderOpenAI || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("default api key env: got %s", cfg.Embedding.APIKeyEnv)
	}
	if cfg.Graph.Threshold != DefaultThreshold {
		t.Errorf("default threshold: got %g", cfg.Graph.Threshold)
	}
	if cfg.Layout.Radius != 150 || cfg.Layout.Margin != 40 || cfg.Layout.Repulsion != 500 {
		t.Errorf("layout defaults: %+v", cfg.Layout)
	}
	if cfg.Layout.FPS != 60 {
		t.Errorf("default fps: got %d", cfg.Layout.FPS)
	}
	if len(cfg.Inbox.Extensions) != 5 || cfg.Inbox.Extensions[0] != ".txt" {
		t.Errorf("inbox extensions: got %v", cfg.Inbox.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestInboxConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &InboxConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &InboxConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestEmbeddingConfig_APIKey(t *testing.T) {
	t.Setenv("WAYGRAPH_TEST_KEY", "sk-test")
	e := EmbeddingConfig{APIKeyEnv: "WAYGRAPH_TEST_KEY"}
	if e.APIKey() != "sk-test" {
		t.Errorf("APIKey() = %q", e.APIKey())
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Layout.Width = 1024
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Layout.Width != 1024 {
		t.Errorf("loaded width: got %g", loaded.Layout.Width)
	}
}
