// Package events publishes completed query results to NATS with OpenTelemetry
// trace propagation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain/answer"
)

// DefaultSubject is the subject completed queries are published on.
const DefaultSubject = "carequery.query.completed"

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
}

// Publisher emits QueryCompleted events.
type Publisher struct {
	nc      conn
	subject string
}

// Connect dials NATS and returns a publisher for subject.
func Connect(url, subject string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("carequery"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, subject), nil
}

func newPublisher(nc conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{nc: nc, subject: subject}
}

// Publish serializes r and publishes it. Trace context from ctx is injected
// into the message headers.
func (p *Publisher) Publish(ctx context.Context, r answer.Result) error {
	data, err := json.Marshal(fromResult(r))
	if err != nil {
		return fmt.Errorf("marshal query event: %w", err)
	}
	msg := &nats.Msg{Subject: p.subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

// Noop discards events. Used when publishing is disabled.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, answer.Result) error { return nil }

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}
