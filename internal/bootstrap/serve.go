package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Serve runs the API until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config.Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      a.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	if a.Limiter != nil {
		go a.Limiter.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.Readiness.SetReady(true)

	select {
	case err, ok := <-errCh:
		a.Readiness.SetReady(false)
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Readiness.SetReady(false)
	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
