package loki

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auth-ms/internal/telemetry"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Outcome classifies an auth event type for the outcome label. Failures are
// caller mistakes (bad password, duplicate email, bad token); errors are internal.
// Unknown types return "".
func Outcome(eventType string) string {
	switch eventType {
	case telemetry.EventUserRegistered, telemetry.EventLoginSuccess, telemetry.EventTokenRefreshed:
		return OutcomeSuccess
	case telemetry.EventRegisterConflict, telemetry.EventLoginFailure, telemetry.EventTokenRejected:
		return OutcomeFailure
	case telemetry.EventInternalError:
		return OutcomeError
	}
	return ""
}

// Forwarder pushes auth events read from Kafka to Loki.
type Forwarder struct {
	baseURL  string
	skip     map[string]bool
	attempts int
	backoff  time.Duration
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithTransportEvents forwards grpc_request and bus_request events, which are skipped by default.
func WithTransportEvents() ForwarderOption {
	return func(f *Forwarder) {
		delete(f.skip, telemetry.EventGRPCRequest)
		delete(f.skip, telemetry.EventBusRequest)
	}
}

// WithRetry sets how many times a push is attempted and the base delay, doubled per attempt.
func WithRetry(attempts int, backoff time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		if attempts > 0 {
			f.attempts = attempts
		}
		f.backoff = backoff
	}
}

// NewForwarder returns a Forwarder pushing to baseURL (e.g. http://localhost:3100).
func NewForwarder(baseURL string, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		baseURL: baseURL,
		skip: map[string]bool{
			telemetry.EventGRPCRequest: true,
			telemetry.EventBusRequest:  true,
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward pushes one event (a Kafka message value). It returns false without
// pushing when the event type is filtered out. A value that is not an event is
// pushed as a raw line at the current time with only the job label.
func (f *Forwarder) Forward(ctx context.Context, raw []byte) (bool, error) {
	ts, labels, eventType := parseEvent(raw)
	if f.skip[eventType] {
		return false, nil
	}
	var err error
	delay := f.backoff
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if err = PushEvent(ctx, f.baseURL, ts, string(raw), labels); err == nil || !retryable(err) {
			break
		}
		if attempt == f.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	if err != nil {
		return true, fmt.Errorf("loki: forward %s: %w", eventType, err)
	}
	return true, nil
}

// eventFields holds the parts of an auth event used for labels and timestamp.
// userId and email are not labels: they are unbounded and stay in the line.
type eventFields struct {
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

func parseEvent(raw []byte) (time.Time, map[string]string, string) {
	ts := time.Now().UTC()
	labels := map[string]string{}
	var ev eventFields
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ts, labels, ""
	}
	if ev.EventType != "" {
		labels["event_type"] = ev.EventType
		if o := Outcome(ev.EventType); o != "" {
			labels["outcome"] = o
		}
	}
	if ev.Source != "" {
		labels["source"] = ev.Source
	}
	if !ev.CreatedAt.IsZero() {
		ts = ev.CreatedAt
	}
	return ts, labels, ev.EventType
}
