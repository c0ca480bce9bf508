package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/config"
	chathttp "github.com/aretw0/chatflow/pkg/adapters/http"
	"github.com/aretw0/chatflow/pkg/adapters/webhook"
	"github.com/aretw0/chatflow/pkg/adapters/websocket"
	"github.com/aretw0/chatflow/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// NewHandler assembles the HTTP surface: REST and SSE, the websocket hub at /ws
// and the channel webhook at /webhook. When webhook.url is set, every message is
// also posted there.
func NewHandler(cfg *config.Config, eng *chatflow.Engine, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	hub := websocket.NewHub(eng,
		websocket.WithLogger(logger),
		websocket.WithAllowedOrigins(cfg.HTTP.CORSOrigins...),
		websocket.WithMaxInputSize(cfg.Input.MaxSize),
	)
	inbound := webhook.NewHandler(eng,
		webhook.WithPaths(cfg.Webhook.SessionPath, cfg.Webhook.TextPath),
		webhook.WithHandlerLogger(logger),
		webhook.WithMaxInputSize(cfg.Input.MaxSize),
	)
	if cfg.Webhook.URL != "" {
		eng.AddEmitter(webhook.NewEmitter(cfg.Webhook.URL,
			webhook.WithEmitterLogger(logger),
			webhook.WithTimeout(cfg.Webhook.Timeout),
		))
		logger.Info("webhook delivery enabled", "url", cfg.Webhook.URL)
	}

	opts := []chathttp.Option{
		chathttp.WithLogger(logger),
		chathttp.WithVersion(chatflow.Version),
		chathttp.WithCORSOrigins(cfg.HTTP.CORSOrigins...),
		chathttp.WithMaxInputSize(cfg.Input.MaxSize),
		chathttp.WithMount("/ws", hub),
		chathttp.WithMount("/webhook", inbound),
	}
	if metrics != nil {
		opts = append(opts, chathttp.WithMetrics(metrics.Handler()))
	}
	return chathttp.NewServer(eng, opts...).Handler()
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, cfg *config.Config, eng *chatflow.Engine, logger *slog.Logger, metrics *observability.Metrics) error {
	if cfg.Graph.Watch {
		if err := watchGraph(ctx, eng, logger); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           NewHandler(cfg, eng, logger, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("chatflow server listening", "addr", srv.Addr, "graph", cfg.Graph.Path, "store", cfg.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		eng.Wait()
		logger.Info("server stopped")
		return nil
	}
}
