package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieve.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Retrieve.ChunkSize)
	}
	if cfg.Retrieve.ChunkOverlap != 100 {
		t.Errorf("expected ChunkOverlap=100, got %d", cfg.Retrieve.ChunkOverlap)
	}
	if cfg.Retrieve.MaxCitations != 3 {
		t.Errorf("expected MaxCitations=3, got %d", cfg.Retrieve.MaxCitations)
	}
	if cfg.Generator.Provider != "mock" {
		t.Errorf("expected Provider=mock, got %s", cfg.Generator.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "groundqa.yaml")

	content := `
retrieve:
  top_k: 4
  chunk_size: 500
  text_cache_ttl: 30s
generator:
  provider: openai
  model: gpt-4o-mini
  retryable_status: [429, 503]
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.ChunkSize != 500 {
		t.Errorf("expected ChunkSize=500, got %d", cfg.Retrieve.ChunkSize)
	}
	if cfg.Retrieve.TextCacheTTL != 30*time.Second {
		t.Errorf("expected TextCacheTTL=30s, got %s", cfg.Retrieve.TextCacheTTL)
	}
	if cfg.Retrieve.ChunkOverlap != 100 {
		t.Errorf("expected default ChunkOverlap=100, got %d", cfg.Retrieve.ChunkOverlap)
	}
	if cfg.Generator.Model != "gpt-4o-mini" {
		t.Errorf("expected Model=gpt-4o-mini, got %s", cfg.Generator.Model)
	}
	if len(cfg.Generator.RetryableStatus) != 2 {
		t.Errorf("expected 2 retryable statuses, got %v", cfg.Generator.RetryableStatus)
	}
}

func TestLoad_ClampsRequestDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "groundqa.yaml")

	content := `
retrieve:
  top_k: 50
  doc_limit: 0
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retrieve.TopK != MaxTopK {
		t.Errorf("expected TopK clamped to %d, got %d", MaxTopK, cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.DocLimit != MinDocLimit {
		t.Errorf("expected DocLimit clamped to %d, got %d", MinDocLimit, cfg.Retrieve.DocLimit)
	}
}

func TestLoad_InvalidProvider(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "groundqa.yaml")

	if err := os.WriteFile(configPath, []byte("generator:\n  provider: carrier-pigeon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".groundqa", "config.yaml")

	content := `
retrieve:
  max_citations: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.MaxCitations != 5 {
		t.Errorf("expected MaxCitations=5, got %d", cfg.Retrieve.MaxCitations)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "groundqa.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.DocLimit = 7
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Retrieve.DocLimit != 7 {
		t.Errorf("expected DocLimit=7, got %d", loaded.Retrieve.DocLimit)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, topK, docLimit int
	}{
		{-3, 1, 1},
		{0, 1, 1},
		{5, 5, 5},
		{10, 10, 10},
		{11, 10, 11},
		{100, 10, 25},
	}
	for _, tt := range tests {
		if got := ClampTopK(tt.in); got != tt.topK {
			t.Errorf("ClampTopK(%d) = %d, want %d", tt.in, got, tt.topK)
		}
		if got := ClampDocLimit(tt.in); got != tt.docLimit {
			t.Errorf("ClampDocLimit(%d) = %d, want %d", tt.in, got, tt.docLimit)
		}
	}
}

func TestStoreDBPath(t *testing.T) {
	path := StoreDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".groundqa", "store.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
