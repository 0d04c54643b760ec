package config

import (
	"time"

	"github.com/hyperjump/waygraph/internal/layout"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// DefaultThreshold is the link distance used when the config leaves it unset.
const DefaultThreshold = 0.5

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	// A zero threshold would never link anything, so it is treated as unset.
	if cfg.Graph.Threshold == 0 {
		cfg.Graph.Threshold = DefaultThreshold
	}
	applyLayoutDefaults(&cfg.Layout)
	if cfg.Inbox.Extensions == nil {
		cfg.Inbox.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
	if len(cfg.Inbox.Directories) > 0 && cfg.Inbox.Recursive == nil {
		t := true
		cfg.Inbox.Recursive = &t
	}
}

func applyLayoutDefaults(l *LayoutConfig) {
	d := layout.DefaultParams()
	if l.Width == 0 {
		l.Width = d.Width
	}
	if l.Height == 0 {
		l.Height = d.Height
	}
	if l.Radius == 0 {
		l.Radius = d.Radius
	}
	if l.Margin == 0 {
		l.Margin = d.Margin
	}
	if l.CenterForce == 0 {
		l.CenterForce = d.CenterForce
	}
	if l.Repulsion == 0 {
		l.Repulsion = d.Repulsion
	}
	if l.Spring == 0 {
		l.Spring = d.Spring
	}
	if l.RestLength == 0 {
		l.RestLength = d.RestLength
	}
	if l.Damping == 0 {
		l.Damping = d.Damping
	}
	if l.LabelLength == 0 {
		l.LabelLength = d.LabelLength
	}
	if l.FPS <= 0 {
		l.FPS = 60
	}
}
