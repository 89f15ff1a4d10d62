package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[credentials.youtube]
client_id = "cid"
client_secret = "secret"
redirect_uri = "http://localhost:9000/callback"
token_path = "tok.json"

[upload]
workers = 3
chunk_size_mib = 4
rate_limit = 1.5
privacy = "unlisted"
category_id = "27"
ledger_path = "custom-ledger.json"
caption_lang = "de"

[database]
path = "runs.db"
max_open_conns = 10
max_idle_conns = 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Credentials.YouTube.ClientID != "cid" {
		t.Errorf("ClientID = %q, want 'cid'", cfg.Credentials.YouTube.ClientID)
	}
	if cfg.Upload.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Upload.Workers)
	}
	if cfg.Upload.ChunkSizeMiB != 4 {
		t.Errorf("ChunkSizeMiB = %d, want 4", cfg.Upload.ChunkSizeMiB)
	}
	if cfg.Upload.Privacy != "unlisted" {
		t.Errorf("Privacy = %q, want 'unlisted'", cfg.Upload.Privacy)
	}
	if cfg.Database.Path != "runs.db" {
		t.Errorf("Database.Path = %q, want 'runs.db'", cfg.Database.Path)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadConfig() should fail for a missing file")
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[upload\nworkers ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() should fail for malformed TOML")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Upload.Workers != 2 {
		t.Errorf("default Workers = %d, want 2", cfg.Upload.Workers)
	}
	if cfg.Upload.ChunkSizeMiB != 1 {
		t.Errorf("default ChunkSizeMiB = %d, want 1", cfg.Upload.ChunkSizeMiB)
	}
	if cfg.Upload.Privacy != "private" {
		t.Errorf("default Privacy = %q, want 'private'", cfg.Upload.Privacy)
	}
	if cfg.Upload.CategoryID != "22" {
		t.Errorf("default CategoryID = %q, want '22'", cfg.Upload.CategoryID)
	}
	if cfg.Upload.CaptionLang != "en" {
		t.Errorf("default CaptionLang = %q, want 'en'", cfg.Upload.CaptionLang)
	}
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config should load: %v", err)
	}
	if cfg.Upload.Workers != 2 {
		t.Errorf("created config Workers = %d, want 2", cfg.Upload.Workers)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("CreateConfigFile() should refuse to overwrite an existing file")
	}
}
