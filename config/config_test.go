package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "./balius.db" {
		t.Fatalf("got %q", cfg.Store.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("got %q", cfg.Logging.Level)
	}
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baliusd.yaml")
	yaml := `
store:
  path: /data/balius.db
capabilities:
  kv:
    backend: pogreb
    path: /data/kv.db
workers:
  - id: w1
    url: file:///modules/w1.wasm
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "/data/balius.db" {
		t.Fatalf("got %q", cfg.Store.Path)
	}
	if cfg.Capabilities.KV.Backend != "pogreb" {
		t.Fatalf("got %q", cfg.Capabilities.KV.Backend)
	}
	if len(cfg.Workers) != 1 || cfg.Workers[0].ID != "w1" {
		t.Fatalf("got %+v", cfg.Workers)
	}
}
