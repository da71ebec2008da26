// Package cli is the credsearch command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"credsearch/internal/platform/config"
	"credsearch/internal/platform/logger"
	"credsearch/internal/search/metrics"
	"credsearch/internal/search/resolver"
)

const flagEnvFile = "env-file"

// Option adjusts how the command tree builds its components.
type Option func(*settings)

type settings struct {
	store    Store
	provider resolver.ExternalProvider
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	logOut   io.Writer
}

// WithStore replaces the configured local store.
func WithStore(s Store) Option {
	return func(st *settings) {
		st.store = s
	}
}

// WithProvider replaces the configured external provider.
func WithProvider(p resolver.ExternalProvider) Option {
	return func(st *settings) {
		st.provider = p
	}
}

// WithRegistry registers metrics on reg and serves them from it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(st *settings) {
		st.registry = reg
		st.gatherer = reg
	}
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(st *settings) {
		st.logOut = w
	}
}

// New builds the root command.
func New(opts ...Option) *cobra.Command {
	st := &settings{
		registry: prometheus.DefaultRegisterer,
		gatherer: prometheus.DefaultGatherer,
		logOut:   os.Stderr,
	}
	for _, opt := range opts {
		opt(st)
	}

	cmd := &cobra.Command{
		Use:               "credsearch {command}",
		Short:             "Resolve free-text queries into credential records",
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}
	cmd.PersistentFlags().String(flagEnvFile, ".env", "dotenv file read before the environment")

	cmd.AddCommand(
		newServeCommand(st),
		newSearchCommand(st),
		newNormalizeCommand(),
		newCacheCommand(st),
	)
	return cmd
}

// Execute runs the root command with os.Args.
func Execute() {
	if err := New().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadApp reads configuration and wires the components. The caller owns
// the returned App and must Close it.
func (st *settings) loadApp(cmd *cobra.Command) (*App, error) {
	envFile, err := cmd.Flags().GetString(flagEnvFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(st.logOut, cfg.LogLevel, cfg.LogFormat)

	app, err := buildApp(cmd.Context(), cfg, log, metrics.NewWithRegistry(st.registry), buildOptions{
		store:    st.store,
		provider: st.provider,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Name(), err)
	}
	return app, nil
}
