package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nnamespace: team-a\nkubeconfig: /k\ncontext: dev\nstore: memory\nlog_level: debug\npoll_interval: 2s\nwait_timeout: 30m\ndelete_timeout: 90s\ncors_origins: [\"http://localhost:3000\"]\nmax_body_bytes: 2048\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Namespace != "team-a" || cfg.Kubeconfig != "/k" || cfg.Context != "dev" || cfg.Store != "memory" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.PollInterval.D() != 2*time.Second || cfg.WaitTimeout.D() != 30*time.Minute || cfg.DeleteTimeout.D() != 90*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected http settings: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","namespace":"ml","poll_interval":"500ms","max_body_bytes":42}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Namespace != "ml" || cfg.PollInterval.D() != 500*time.Millisecond || cfg.MaxBodyBytes != 42 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nnamespace=\"x\"\nwait_timeout=\"5m\"\ncors_origins=[\"*\"]\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.Namespace != "x" || cfg.WaitTimeout.D() != 5*time.Minute || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	p = writeTempFile(t, d, "dur.yaml", "poll_interval: soon\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{Namespace: "mine"}.WithDefaults()
	if cfg.Namespace != "mine" {
		t.Fatalf("set fields must survive defaults: %+v", cfg)
	}
	if cfg.Addr != DefaultAddr || cfg.Store != StoreKube || cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PollInterval.D() != DefaultPollInterval || cfg.WaitTimeout.D() != DefaultWaitTimeout || cfg.DeleteTimeout.D() != DefaultDeleteTimeout {
		t.Fatalf("unexpected duration defaults: %+v", cfg)
	}
	if cfg.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("max body = %d", cfg.MaxBodyBytes)
	}
}
