package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/weftworks/weft/internal/api"
	httpapi "github.com/weftworks/weft/internal/api/http"
	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/pkg/logger"
)

// Serve starts the HTTP server and blocks until ctx is cancelled
func Serve(ctx context.Context, cfg *config.Config, service *api.Service) error {
	mux := http.NewServeMux()
	handlers := httpapi.NewHandlers(service, logger.Default())
	handlers.Register(mux)

	srv := &http.Server{
		Addr:    cfg.Server.HTTP.Addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", cfg.Server.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
