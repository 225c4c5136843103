package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatd/internal/httpapi"
)

const (
	shutdownGrace        = 5 * time.Second
	memorySampleInterval = 30 * time.Second
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	var warmup bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat service",
		Example: "  chatd serve\n" +
			"  chatd serve --engine mock --addr :8090\n" +
			"  chatd serve --config /etc/chatd/config.yaml --warmup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			return runServe(a, warmup)
		},
	}
	cmd.Flags().BoolVar(&warmup, "warmup", false, "Initialize the model before accepting traffic")
	return cmd
}

// runServe blocks until SIGINT/SIGTERM or a listener failure, then drains
// in-flight requests and releases the model.
func runServe(a *app, warmup bool) error {
	baseCtx, stopBase := context.WithCancel(context.Background())
	defer stopBase()

	httpLog := a.log.With().Str("component", "http").Logger()
	httpapi.SetLogger(httpLog)
	httpapi.SetBaseContext(baseCtx)
	if len(a.cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, a.cfg.CORSOrigins, nil, nil)
	}
	a.tracker.StartSampler(baseCtx, memorySampleInterval)

	if warmup {
		if err := a.svc.Warmup(baseCtx); err != nil {
			// Degraded but servable: the first chat retries initialization.
			a.log.Warn().Err(err).Msg("warmup failed")
		}
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(a.svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", a.cfg.Addr).
			Str("engine", a.cfg.Engine).
			Str("model", a.cfg.Model).
			Msg("chatd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown incomplete")
	}
	// Cancel whatever outlived the grace period, then free the model.
	stopBase()
	a.mgr.Release()
	return nil
}
