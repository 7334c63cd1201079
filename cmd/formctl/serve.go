package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/httpapi"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	addr    string
	watch   bool
	timeout time.Duration
	extras  []string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form registry over HTTP",
		Long: `serve exposes the form registry as a JSON API, renders instances as
HTML or JSON and publishes Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger

			var source schema.Source
			if opts.watch {
				if root.schemaDir == "" {
					return errors.New("--watch requires --schemas")
				}
				holder, err := schema.NewHolder(root.schemaDir,
					schema.WithHolderLogger(logger),
					schema.WithHolderCheckOptions(root.checkOptions()...),
				)
				if err != nil {
					return err
				}
				if err := holder.Watch(); err != nil {
					return err
				}
				defer holder.Stop()
				source = holder
			} else {
				catalog, err := root.loadCatalog()
				if err != nil {
					return err
				}
				source = schema.Static{Catalog: catalog}
			}

			extras, err := parseExtras(opts.extras)
			if err != nil {
				return err
			}

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			forms := registry.New(
				registry.WithLogger(logger),
				registry.WithMetrics(registry.NewMetrics(promReg)),
			)

			renderers, err := root.renderers()
			if err != nil {
				return err
			}
			server, err := httpapi.New(forms,
				httpapi.WithCatalog(source),
				httpapi.WithRenderers(renderers),
				httpapi.WithCheckOptions(root.checkOptions()...),
				httpapi.WithGatherer(promReg),
				httpapi.WithExtras(extras),
				httpapi.WithTimeout(opts.timeout),
				httpapi.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              opts.addr,
				Handler:           server,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info().
					Str("addr", srv.Addr).
					Int("forms", source.Get().Len()).
					Msg("starting form server")
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-shutdown:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")

				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					logger.Error().Err(err).Dur("timeout", shutdownTimeout).Msg("graceful shutdown did not complete")
					return srv.Close()
				}
				logger.Info().Msg("server stopped")
				return nil

			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", ":8080", "Listen address")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload schemas when files in --schemas change")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")
	cmd.Flags().StringArrayVar(&opts.extras, "extra", nil, "Condition extras as key=value (repeatable)")
	return cmd
}
