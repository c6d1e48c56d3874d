package bridge

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/viant/agentcore"
)

const shutdownTimeout = 10 * time.Second

// Run parses args into agentcore.Options, starts the service and serves it until
// SIGINT or SIGTERM.
func Run(args []string) error {
	options := &agentcore.Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, options)
}

// Serve starts the service and serves HTTP until ctx is done.
func Serve(ctx context.Context, options *agentcore.Options) error {
	srv, err := agentcore.New(ctx, options)
	if err != nil {
		return err
	}
	handler := NewHandler(srv, WithMetricsHandler(srv.Metrics().Handler()), WithLogger(srv.Logger()))
	server := &http.Server{Addr: options.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		srv.Logger().Info("listening", "addr", options.Addr)
		errs <- server.ListenAndServe()
	}()
	select {
	case err = <-errs:
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	if closeErr := srv.Shutdown(shutdownCtx); closeErr != nil {
		srv.Logger().Warn("failed to close session", "error", closeErr)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
