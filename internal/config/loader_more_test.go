package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "addr": ":8080", "namespace": }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "addr=:8080\nnamespace\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_Precedence(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "namespace: from-file\nlog_level: warn\n")
	getenv := env(map[string]string{
		EnvNamespace:  "from-env",
		EnvAddr:       ":9000",
		EnvLogLevel:   "debug",
		EnvKubeconfig: "/env/kubeconfig",
	})

	cfg, err := Resolve(p, getenv, Config{LogLevel: "error"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Namespace != "from-file" {
		t.Fatalf("file should beat env, got namespace %q", cfg.Namespace)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("overrides should beat file, got log level %q", cfg.LogLevel)
	}
	if cfg.Addr != ":9000" || cfg.Kubeconfig != "/env/kubeconfig" {
		t.Fatalf("env should fill unset fields: %+v", cfg)
	}
	if cfg.Store != StoreKube {
		t.Fatalf("defaults should apply last: %+v", cfg)
	}
}

func TestResolve_NoFile(t *testing.T) {
	cfg, err := Resolve("", env(nil), Config{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Namespace != DefaultNamespace || cfg.Addr != DefaultAddr {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := Resolve("/nope/cfg.yaml", env(nil), Config{}); err == nil {
		t.Fatalf("expected missing file error")
	}
	if _, err := Resolve("", env(nil), Config{Store: "etcd"}); err == nil {
		t.Fatalf("expected unsupported store error")
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.WriteFile(filepath.Join(home, "mpijob.yaml"), []byte("namespace: ml\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load("~/mpijob.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Namespace != "ml" {
		t.Fatalf("namespace=%q", cfg.Namespace)
	}
}

func TestLoad_Directory(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for a directory")
	}
}
