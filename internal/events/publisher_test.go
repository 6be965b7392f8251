package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kailas-cloud/carequery/internal/domain/answer"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// --- Mocks ---

type fakeConn struct {
	msgs     []*nats.Msg
	err      error
	drained  bool
	drainErr error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return f.drainErr
}

func sampleResult() answer.Result {
	doc := document.Reconstruct("claims-001", "Claims must be filed within 90 days.",
		taxonomy.Claims, taxonomy.Internal, taxonomy.Restricted, "docs/claims.md", "ClaimsHub")
	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return answer.New("q-1", "When are claims due?", "Within 90 days [1].",
		[]result.Match{result.New(doc, 0.87)}, []taxonomy.Tag{taxonomy.Claims},
		1234*time.Millisecond, completed)
}

// --- Tests ---

func TestPublish_EncodesEvent(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")

	require.NoError(t, p.Publish(context.Background(), sampleResult()))
	require.Len(t, fc.msgs, 1)
	assert.Equal(t, DefaultSubject, fc.msgs[0].Subject)

	var ev QueryCompleted
	require.NoError(t, json.Unmarshal(fc.msgs[0].Data, &ev))
	assert.Equal(t, "q-1", ev.ID)
	assert.Equal(t, "When are claims due?", ev.Question)
	assert.Equal(t, "Within 90 days [1].", ev.Answer)
	assert.Equal(t, []string{"claims"}, ev.DomainsSearched)
	assert.InDelta(t, 1.234, ev.ElapsedSeconds, 1e-9)
	assert.True(t, ev.CompletedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	require.Len(t, ev.Sources, 1)
	assert.Equal(t, SourceEvent{
		DocID:          "claims-001",
		Domain:         "claims",
		SourceType:     "internal",
		Classification: "restricted",
		SourceSystem:   "ClaimsHub",
		Score:          0.87,
	}, ev.Sources[0])
}

func TestPublish_OmitsSourceText(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "custom.subject")

	require.NoError(t, p.Publish(context.Background(), sampleResult()))
	assert.Equal(t, "custom.subject", fc.msgs[0].Subject)
	assert.NotContains(t, string(fc.msgs[0].Data), "filed within 90 days")
}

func TestPublish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	fc := &fakeConn{}
	require.NoError(t, newPublisher(fc, "").Publish(ctx, sampleResult()))
	assert.Equal(t,
		"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		fc.msgs[0].Header.Get("traceparent"))
}

func TestPublish_ConnError(t *testing.T) {
	fc := &fakeConn{err: nats.ErrConnectionClosed}
	err := newPublisher(fc, "").Publish(context.Background(), sampleResult())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
}

func TestClose_Drains(t *testing.T) {
	fc := &fakeConn{}
	require.NoError(t, newPublisher(fc, "").Close())
	assert.True(t, fc.drained)

	fc = &fakeConn{drainErr: errors.New("boom")}
	assert.Error(t, newPublisher(fc, "").Close())
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), sampleResult()))
}

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*headerCarrier)(msg)

	assert.Empty(t, carrier.Get("missing"))
	assert.Nil(t, carrier.Keys())

	carrier.Set("traceparent", "00-abc-def-01")
	assert.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, carrier.Keys())
}
