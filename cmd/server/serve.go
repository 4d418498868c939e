package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	stdio           bool
	httpAddr        string
	shutdownTimeout time.Duration
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.httpAddr == "" {
				opts.httpAddr = root.cfg.HTTPAddr
			}
			if !opts.stdio && opts.httpAddr == "" {
				return errors.New("no transport selected; use --stdio or --http <addr>")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = root.logger.WithContext(ctx)

			a, err := newApp(ctx, root.cfg, root.logger)
			if err != nil {
				return err
			}
			if opts.stdio {
				root.logger.Info().Msg("serving over stdio")
				if err := server.ServeStdio(a.server); err != nil {
					return fmt.Errorf("stdio transport: %w", err)
				}
				return nil
			}
			return a.serveHTTP(ctx, opts.httpAddr, opts.shutdownTimeout)
		},
	}
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "serve over stdio")
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "serve streamable HTTP on this address, e.g. :8080 (default $EDA_HTTP_ADDR)")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	return cmd
}

// handler mounts the MCP endpoint at /mcp and Prometheus metrics at /metrics.
func (a *app) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(a.server))
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (a *app) serveHTTP(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Str("addr", addr).Msg("serving streamable HTTP at /mcp, metrics at /metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http transport: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.logger.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
