// Package webhook bridges chatflow to messaging channels over plain HTTP callbacks.
//
// Outbound, an Emitter POSTs every message to the channel's endpoint.
// Inbound, a Handler accepts arbitrary JSON payloads and extracts the session id
// and text at configurable dot paths.
package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

var _ ports.Emitter = (*Emitter)(nil)

// Emitter delivers messages to a webhook URL.
type Emitter struct {
	url     string
	client  *resty.Client
	headers map[string]string
	logger  *slog.Logger
}

// EmitterOption configures the Emitter.
type EmitterOption func(*Emitter)

func WithEmitterLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// WithHeader adds a header to every delivery, e.g. an auth token.
func WithHeader(key, value string) EmitterOption {
	return func(e *Emitter) {
		e.headers[key] = value
	}
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		e.client.SetTimeout(d)
	}
}

// WithRetry sets how many times a failed delivery is retried and the initial wait.
func WithRetry(count int, wait time.Duration) EmitterOption {
	return func(e *Emitter) {
		e.client.SetRetryCount(count).SetRetryWaitTime(wait)
	}
}

// NewEmitter creates an emitter for url. Deliveries retry twice on transport
// errors and 5xx responses.
func NewEmitter(url string, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		url:     url,
		headers: map[string]string{},
		client: resty.New().
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(200*time.Millisecond).
			SetRetryMaxWaitTime(2*time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e
}

// Emit implements ports.Emitter.
func (e *Emitter) Emit(ctx context.Context, msg domain.Message) error {
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeaders(e.headers).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(e.url)
	if err != nil {
		return fmt.Errorf("webhook delivery to %s: %w", e.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook delivery to %s: status %d", e.url, resp.StatusCode())
	}
	e.logger.Debug("webhook delivered",
		"session_id", msg.SessionID,
		"node_id", msg.NodeID,
		"status", resp.StatusCode(),
		"attempts", resp.Request.Attempt,
	)
	return nil
}
