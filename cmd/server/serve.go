package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leca/loqed-births/internal/config"
	"github.com/leca/loqed-births/internal/llm"
	"github.com/leca/loqed-births/internal/registry"
	"github.com/leca/loqed-births/internal/router"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			answerer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
			if cfg.LLMAPIKey == "" {
				slog.Warn("LOQED_LLM_API_KEY not set, /perguntar will fail")
			}
			reg := registry.New(a.db, a.images, answerer, registry.WithLogger(slog.Default()))
			srv := router.New(reg, a.images, cfg)

			httpServer := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           srv.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("starting server", "addr", cfg.ListenAddr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	return cmd
}
