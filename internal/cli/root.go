package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"mpijobctl/internal/config"
	"mpijobctl/internal/mpijob"
	"mpijobctl/internal/store"
)

// Deps are the process-level collaborators of the command tree. Tests
// replace them with buffers and an in-memory store.
type Deps struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Getenv func(string) string
	// OpenStore builds the store for a resolved configuration.
	OpenStore func(cfg config.Config) (store.Store, error)
	Clock     clock.Clock
}

// DefaultDeps wires the real process streams and the configured store.
func DefaultDeps() Deps {
	return Deps{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		Getenv: os.Getenv,
		OpenStore: func(cfg config.Config) (store.Store, error) {
			return store.Open(cfg.Store, cfg.Kubeconfig, cfg.Context)
		},
		Clock: clock.RealClock{},
	}
}

// rootOptions holds the persistent flags and the state resolved from them.
type rootOptions struct {
	deps Deps

	configPath string
	kubeconfig string
	context    string
	namespace  string
	logLevel   string
	storeKind  string

	cfg    config.Config
	log    zerolog.Logger
	client *mpijob.Client
}

// NewRootCmd builds the mpijobctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	o := &rootOptions{deps: deps}
	root := &cobra.Command{
		Use:           "mpijobctl",
		Short:         "Create, inspect and manage MPIJobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.complete()
		},
	}
	root.SetIn(deps.In)
	root.SetOut(deps.Out)
	root.SetErr(deps.ErrOut)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	pf.StringVar(&o.kubeconfig, "kubeconfig", "", "Path to the kubeconfig file (defaults KUBECONFIG, then ~/.kube/config, then in-cluster)")
	pf.StringVar(&o.context, "context", "", "Kubeconfig context to use")
	pf.StringVarP(&o.namespace, "namespace", "n", "", "Namespace (defaults MPIJOB_NAMESPACE or default)")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults MPIJOB_LOG_LEVEL or warn)")
	pf.StringVar(&o.storeKind, "store", "", "Store backend: kube|memory")

	root.AddCommand(
		newCreateCmd(o),
		newListCmd(o),
		newDescribeCmd(o),
		newDeleteCmd(o),
		newLogsCmd(o),
		newWaitCmd(o),
		newCompletionCmd(root),
	)
	return root
}

// complete resolves flags, config file and environment into o.cfg and
// builds the logger. The store is opened lazily by clientFor.
func (o *rootOptions) complete() error {
	// the CLI stays quiet unless a level is asked for somewhere
	getenv := func(k string) string {
		v := o.deps.Getenv(k)
		if v == "" && k == config.EnvLogLevel {
			return "warn"
		}
		return v
	}
	cfg, err := config.Resolve(o.configPath, getenv, config.Config{
		Kubeconfig: o.kubeconfig,
		Context:    o.context,
		Namespace:  o.namespace,
		LogLevel:   o.logLevel,
		Store:      o.storeKind,
	})
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = newLogger(o.deps.ErrOut, cfg.LogLevel)
	return nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).With().Timestamp().Logger()
}

// clientFor opens the store on first use and returns the shared client.
func (o *rootOptions) clientFor() (*mpijob.Client, error) {
	if o.client != nil {
		return o.client, nil
	}
	st, err := o.deps.OpenStore(o.cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	o.client = mpijob.NewWithConfig(mpijob.ClientConfig{
		Store:     st,
		Namespace: o.cfg.Namespace,
		Logger:    &o.log,
		Clock:     o.deps.Clock,
	})
	return o.client, nil
}
