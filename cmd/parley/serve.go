package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/parley/internal/cli"
	parleyhttp "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/adapters/ws"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [graph]",
	Short: "Serve the conversation over HTTP and websockets",
	Long: `Starts the HTTP server: POST /v1/turns, GET /v1/graph, GET /v1/events (SSE),
/v1/sessions/{id}, the /v1/ws websocket and /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("jwt-secret", cli.Env(cli.EnvSecret, ""), "HMAC secret; when set every /v1 route needs a bearer token")
	serveCmd.Flags().Bool("no-ws", false, "Do not mount the websocket transport")
	serveCmd.Flags().Bool("audit", false, "Log every state change and failed turn")
	addStoreFlags(serveCmd, cli.StoreMemory)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	app, def, err := buildApp(cmd, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}
	metrics.Instrument(app)
	if audit, _ := cmd.Flags().GetBool("audit"); audit {
		observability.Audit(app, logger)
	}
	exec := metrics.Wrap(app)

	stores, err := openStore(cmd)
	if err != nil {
		return err
	}
	opts := []parleyhttp.Option{parleyhttp.WithMetrics(reg), parleyhttp.WithLogger(logger)}
	var wsOpts []ws.Option
	wsOpts = append(wsOpts, ws.WithLogger(logger))
	if stores != nil {
		defer stores.Close()
		mgr := stores.Manager(logger)
		opts = append(opts, parleyhttp.WithSessions(mgr))
		wsOpts = append(wsOpts, ws.WithSessions(mgr))
	}

	if secret, _ := cmd.Flags().GetString("jwt-secret"); secret != "" {
		auth, err := parleyhttp.NewAuthenticator([]byte(secret))
		if err != nil {
			return err
		}
		opts = append(opts, parleyhttp.WithAuthenticator(auth))
		wsOpts = append(wsOpts, ws.WithApplicationID(func(r *http.Request) string {
			id, _ := parleyhttp.ApplicationID(r.Context())
			return id
		}))
	}
	if noWS, _ := cmd.Flags().GetBool("no-ws"); !noWS {
		opts = append(opts, parleyhttp.WithMount("/ws", ws.NewHandler(exec, wsOpts...)))
	}

	addr, _ := cmd.Flags().GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           parleyhttp.NewHandler(exec, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Stop()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("parley server listening", "address", addr, "graph", def.Name)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down", "signal", ctx.Signal())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		logger.Info("parley server stopped")
		return nil
	}
}
