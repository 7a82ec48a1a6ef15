package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mpijobctl/internal/common/fsutil"
)

// Environment variables read by FromEnv.
const (
	EnvAddr       = "MPIJOB_ADDR"
	EnvNamespace  = "MPIJOB_NAMESPACE"
	EnvLogLevel   = "MPIJOB_LOG_LEVEL"
	EnvKubeconfig = "KUBECONFIG"
)

// Store backends.
const (
	StoreKube   = "kube"
	StoreMemory = "memory"
)

// Defaults applied by WithDefaults when the corresponding field is unset.
const (
	DefaultAddr          = ":8080"
	DefaultNamespace     = "default"
	DefaultLogLevel      = "info"
	DefaultPollInterval  = 10 * time.Second
	DefaultWaitTimeout   = time.Hour
	DefaultDeleteTimeout = 60 * time.Second
	DefaultMaxBodyBytes  = int64(1 << 20)
)

// Duration is a time.Duration written as "10s" or "1h30m" in config files.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// Config holds runtime parameters for the CLI and the API server.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	// Addr is the API server listen address.
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// Kubeconfig path; empty tries default rules, then in-cluster.
	Kubeconfig string `json:"kubeconfig" yaml:"kubeconfig" toml:"kubeconfig"`
	// Context overrides the kubeconfig current-context.
	Context string `json:"context" yaml:"context" toml:"context"`
	// Namespace used when a command or request names none.
	Namespace string `json:"namespace" yaml:"namespace" toml:"namespace"`
	// Store selects the backend: "kube" or "memory".
	Store    string `json:"store" yaml:"store" toml:"store"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	PollInterval  Duration `json:"poll_interval" yaml:"poll_interval" toml:"poll_interval"`
	WaitTimeout   Duration `json:"wait_timeout" yaml:"wait_timeout" toml:"wait_timeout"`
	DeleteTimeout Duration `json:"delete_timeout" yaml:"delete_timeout" toml:"delete_timeout"`

	// CORSOrigins enables CORS on the API server for these origins.
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// FromEnv reads the environment overrides through getenv (os.Getenv in
// production).
func FromEnv(getenv func(string) string) Config {
	return Config{
		Addr:       getenv(EnvAddr),
		Namespace:  getenv(EnvNamespace),
		LogLevel:   getenv(EnvLogLevel),
		Kubeconfig: getenv(EnvKubeconfig),
	}
}

// Merge returns base with every non-zero field of over applied on top.
func Merge(base, over Config) Config {
	out := base
	if over.Addr != "" {
		out.Addr = over.Addr
	}
	if over.Kubeconfig != "" {
		out.Kubeconfig = over.Kubeconfig
	}
	if over.Context != "" {
		out.Context = over.Context
	}
	if over.Namespace != "" {
		out.Namespace = over.Namespace
	}
	if over.Store != "" {
		out.Store = over.Store
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	if over.PollInterval > 0 {
		out.PollInterval = over.PollInterval
	}
	if over.WaitTimeout > 0 {
		out.WaitTimeout = over.WaitTimeout
	}
	if over.DeleteTimeout > 0 {
		out.DeleteTimeout = over.DeleteTimeout
	}
	if len(over.CORSOrigins) > 0 {
		out.CORSOrigins = over.CORSOrigins
	}
	if over.MaxBodyBytes > 0 {
		out.MaxBodyBytes = over.MaxBodyBytes
	}
	return out
}

// WithDefaults fills unset fields with package defaults.
func (c Config) WithDefaults() Config {
	return Merge(Config{
		Addr:          DefaultAddr,
		Namespace:     DefaultNamespace,
		Store:         StoreKube,
		LogLevel:      DefaultLogLevel,
		PollInterval:  Duration(DefaultPollInterval),
		WaitTimeout:   Duration(DefaultWaitTimeout),
		DeleteTimeout: Duration(DefaultDeleteTimeout),
		MaxBodyBytes:  DefaultMaxBodyBytes,
	}, c)
}

// Validate rejects values no component can use.
func (c Config) Validate() error {
	switch c.Store {
	case "", StoreKube, StoreMemory:
	default:
		return fmt.Errorf("unsupported store %q (want %s or %s)", c.Store, StoreKube, StoreMemory)
	}
	return nil
}

// Resolve layers the environment, then the config file at path (when set),
// then overrides, and applies defaults last.
func Resolve(path string, getenv func(string) string, overrides Config) (Config, error) {
	cfg := FromEnv(getenv)
	if path != "" {
		file, err := Load(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg = Merge(cfg, file)
	}
	cfg = Merge(cfg, overrides).WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
