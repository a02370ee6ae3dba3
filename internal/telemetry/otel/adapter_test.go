package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"auth-ms/internal/telemetry"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("noop Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &telemetry.Event{Type: "x"}); err != nil {
		t.Errorf("noop Emit(ctx, event): %v", err)
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	otellog.Logger
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func attrsOf(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	event := &telemetry.Event{
		Type:      telemetry.EventLoginFailure,
		UserID:    "user1",
		Email:     "ann@x.com",
		Source:    "credential_service",
		Metadata:  map[string]string{"reason": "invalid_credentials"},
		CreatedAt: at,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec

	if got := string(rec.Body().AsBytes()); got != `{"reason":"invalid_credentials"}` {
		t.Errorf("body = %q", got)
	}
	if !rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), at)
	}
	if rec.Severity() != otellog.SeverityWarn {
		t.Errorf("severity = %v, want warn", rec.Severity())
	}
	want := map[string]string{
		"event_type": telemetry.EventLoginFailure, "user_id": "user1",
		"email": "ann@x.com", "source": "credential_service",
	}
	attrs := attrsOf(rec)
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestEmit_EmptyMetadata_NoBodySet(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventUserRegistered}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !cap.rec.Body().Empty() {
		t.Error("body should be empty when metadata is nil")
	}
	attrs := attrsOf(cap.rec)
	if attrs["event_type"] != telemetry.EventUserRegistered {
		t.Errorf("attributes = %v", attrs)
	}
	if _, ok := attrs["user_id"]; ok {
		t.Error("empty user_id should not be set")
	}
	if cap.rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v, want info", cap.rec.Severity())
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), &telemetry.Event{Type: "test"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := cap.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, should be between %v and %v", ts, before, after)
	}
}

func TestEmit_InternalErrorSeverity(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	_ = em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventInternalError})
	if cap.rec.Severity() != otellog.SeverityError {
		t.Errorf("severity = %v, want error", cap.rec.Severity())
	}
}

func TestNewEventCounter_CountsByType(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	em, err := NewEventCounter(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewEventCounter: %v", err)
	}
	ctx := context.Background()
	_ = em.Emit(ctx, &telemetry.Event{Type: telemetry.EventLoginSuccess, Source: "s"})
	_ = em.Emit(ctx, &telemetry.Event{Type: telemetry.EventLoginSuccess, Source: "s"})
	_ = em.Emit(ctx, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "auth.events" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("auth.events data = %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("auth.events total = %d, want 2", total)
	}
}

func TestNewEventCounter_NilMeter(t *testing.T) {
	em, err := NewEventCounter(nil)
	if err != nil || em == nil {
		t.Fatalf("NewEventCounter(nil) = %v, %v", em, err)
	}
}
