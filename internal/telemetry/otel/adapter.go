package otel

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"auth-ms/internal/telemetry"
)

const instrumentationName = "auth-ms/telemetry"

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationName))
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger. Used by tests to capture records.
func NewEventEmitterWithLogger(logger otellog.Logger) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the event to an OTel log record and emits it. Metadata becomes the JSON body.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetSeverity(severityFor(event.Type))
	if len(event.Metadata) > 0 {
		body, err := json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
		rec.SetBody(otellog.BytesValue(body))
	}
	if event.Type != "" {
		rec.AddAttributes(otellog.String("event_type", event.Type))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		rec.AddAttributes(otellog.String("email", event.Email))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severityFor(eventType string) otellog.Severity {
	switch eventType {
	case telemetry.EventInternalError:
		return otellog.SeverityError
	case telemetry.EventLoginFailure, telemetry.EventTokenRejected, telemetry.EventRegisterConflict:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}

// NewEventCounter returns an EventEmitter that counts events by type on the auth.events counter.
// If meter is nil, returns a no-op emitter.
func NewEventCounter(meter metric.Meter) (telemetry.EventEmitter, error) {
	if meter == nil {
		return noopEmitter{}, nil
	}
	c, err := meter.Int64Counter("auth.events",
		metric.WithDescription("Auth events by type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	return &counterEmitter{counter: c}, nil
}

type counterEmitter struct {
	counter metric.Int64Counter
}

func (e *counterEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	e.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", event.Type),
		attribute.String("source", event.Source),
	))
	return nil
}
