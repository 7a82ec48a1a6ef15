package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mpijobctl/internal/config"
	"mpijobctl/internal/httpapi"
	"mpijobctl/internal/mpijob"
	"mpijobctl/internal/store"
)

type serverFlags struct {
	configPath  string
	addr        string
	kubeconfig  string
	kubeContext string
	namespace   string
	storeKind   string
	logLevel    string
	corsOrigins string
}

func main() {
	if err := newServerCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	var f serverFlags
	cmd := &cobra.Command{
		Use:           "mpijobd",
		Short:         "Serve the MPIJob REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	fl.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8080 (defaults MPIJOB_ADDR or :8080)")
	fl.StringVar(&f.kubeconfig, "kubeconfig", "", "Path to the kubeconfig file")
	fl.StringVar(&f.kubeContext, "context", "", "Kubeconfig context to use")
	fl.StringVarP(&f.namespace, "namespace", "n", "", "Namespace used when a request names none")
	fl.StringVar(&f.storeKind, "store", "", "Store backend: kube|memory")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults MPIJOB_LOG_LEVEL or info)")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated origins allowed by CORS (empty disables CORS)")
	return cmd
}

func serve(f serverFlags) error {
	cfg, err := config.Resolve(f.configPath, os.Getenv, config.Config{
		Addr:        f.addr,
		Kubeconfig:  f.kubeconfig,
		Context:     f.kubeContext,
		Namespace:   f.namespace,
		Store:       f.storeKind,
		LogLevel:    f.logLevel,
		CORSOrigins: splitCSV(f.corsOrigins),
	})
	if err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Str("component", "mpijobd").Logger()

	st, err := store.Open(cfg.Store, cfg.Kubeconfig, cfg.Context)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	client := mpijob.NewWithConfig(mpijob.ClientConfig{
		Store:     st,
		Namespace: cfg.Namespace,
		Logger:    &logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(logger)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetPollInterval(cfg.PollInterval.D())
	httpapi.SetDeleteTimeout(cfg.DeleteTimeout.D())
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)
	httpapi.SetReadyCheck(func(ctx context.Context) error {
		// a list with a bogus selector still proves the store answers
		_, err := st.List(ctx, cfg.Namespace, "mpijobd.readyz=probe")
		return err
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(client),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("store", cfg.Store).
			Str("namespace", cfg.Namespace).
			Msg("mpijobd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Graceful shutdown (Ctrl+C / SIGTERM, or a failed listener)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown error")
			return err
		}
		logger.Info().Msg("mpijobd stopped")
		return nil
	})
	return g.Wait()
}

// splitCSV splits a comma-separated flag value, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
