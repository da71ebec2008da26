package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"credsearch/internal/platform/httpserver"
	httpmetrics "credsearch/internal/platform/metrics"
	"credsearch/internal/platform/middleware"
	"credsearch/internal/search/handler"
)

const (
	flagAddr                = "addr"
	flagMaintenanceInterval = "maintenance-interval"
)

func newServeCommand(st *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long: `Serve the search API over HTTP.

The cache snapshot is loaded on start, swept and persisted on every
maintenance tick, and saved once more on shutdown. In-flight searches are
cancelled when the process receives SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return st.serve(cmd)
		},
	}
	cmd.Flags().String(flagAddr, "", "listen address, overrides CREDSEARCH_ADDR")
	cmd.Flags().Duration(flagMaintenanceInterval, time.Hour, "interval between cache sweeps")
	return cmd
}

func (st *settings) serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	app, err := st.loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	addr, _ := cmd.Flags().GetString(flagAddr)
	if addr == "" {
		addr = app.Config.Addr
	}
	interval, _ := cmd.Flags().GetDuration(flagMaintenanceInterval)

	restored := app.Cache.Load(ctx)
	app.Logger.InfoContext(ctx, "starting credsearch", "config", app.Config.String(), "restored_keys", restored)

	go app.Cache.RunMaintenance(ctx, interval)

	router := st.router(app)
	err = httpserver.Run(ctx, httpserver.New(addr, router), app.Logger)

	cancelled := app.Sessions.CancelAll()
	if saveErr := app.Cache.Save(context.WithoutCancel(ctx)); saveErr != nil {
		app.Logger.ErrorContext(ctx, "final cache save failed", "error", saveErr)
	}
	app.Logger.InfoContext(ctx, "credsearch stopped", "cancelled_searches", cancelled)
	return err
}

func (st *settings) router(app *App) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(app.Logger, httpmetrics.NewWithRegistry(st.registry)))
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(st.gatherer, promhttp.HandlerOpts{}))

	handler.New(app.Resolver, app.Cache, app.Sessions, app.Store, app.Logger).Register(r)
	return r
}
