package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/api"
	"github.com/iamgilwell/booster/internal/monitor"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and WebSocket stream",
	Long: `Runs the monitor and exposes the ranked view, termination, policy, boost,
cleanup and selection over HTTP. Every poll pushes the ranked view to /ws.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: api.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveListen
	if addr == "" {
		addr = a.cfg.API.Listen
	}

	ctx, cancel := interruptContext(func() { a.notifier.Info("Shutting down server...") })
	defer cancel()

	hub := api.NewHub()
	go hub.Run(ctx)

	h := api.NewHandler(a.booster, hub, a.cfg.Monitoring.TopLimit, a.notifier)
	r := mux.NewRouter()
	api.RegisterRoutes(r, h)

	mon := a.booster.Monitor()
	mon.OnUpdate(func([]monitor.Entry, *monitor.SystemMetrics) { h.PublishView() })
	mon.OnError(func(err error) { a.notifier.Warn(fmt.Sprintf("poll failed: %v", err)) })
	go mon.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.notifier.Info(fmt.Sprintf("Listening on http://%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
