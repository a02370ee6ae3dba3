// Package bus serves the credential operations as request/reply over Kafka.
// Requests arrive on one topic; each reply goes to the topic named by the request's reply-to header.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"auth-ms/internal/identity/domain"
	"auth-ms/internal/identity/service"
	"auth-ms/internal/telemetry"
)

const defaultTimeout = 10 * time.Second

// reader is the subset of *kafka.Reader used by Listener.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// writer is the subset of *kafka.Writer used by Listener.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Credentials is the credential service as seen by the bus.
type Credentials interface {
	Register(ctx context.Context, name, email, password string) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	VerifyAndRefresh(ctx context.Context, token string) (*domain.AuthResult, error)
}

var errMalformed = &service.Error{Status: service.StatusInternal, Message: "malformed request"}

// Listener consumes auth requests and writes replies.
type Listener struct {
	reader  reader
	writer  writer
	creds   Credentials
	emitter telemetry.EventEmitter
	timeout time.Duration
}

// Config configures a Kafka-backed Listener.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	// Timeout bounds the handling of one message; zero means 10s.
	Timeout time.Duration
	// Emitter receives a bus_request event per handled message. Optional.
	Emitter telemetry.EventEmitter
}

// NewKafkaListener returns a Listener reading cfg.Topic as consumer group cfg.GroupID.
// Returns nil when brokers or topic are empty so callers can treat the bus as disabled. Call Close when shutting down.
func NewKafkaListener(cfg Config, creds Credentials) *Listener {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  500 * time.Millisecond,
	})
	// No Topic on the writer: each reply sets its own from reply-to.
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newListener(r, w, creds, cfg.Timeout, cfg.Emitter)
}

func newListener(r reader, w writer, creds Credentials, timeout time.Duration, emitter telemetry.EventEmitter) *Listener {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Listener{reader: r, writer: w, creds: creds, emitter: emitter, timeout: timeout}
}

// Run fetches and handles messages until ctx is cancelled. Each message is committed after
// its reply is written (or dropped), so a crash mid-message redelivers it.
// Returns nil on cancellation and the reader's error if fetching fails otherwise.
func (l *Listener) Run(ctx context.Context) error {
	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bus: fetch: %w", err)
		}
		l.handleMessage(ctx, msg)
		if err := l.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("bus: commit offset %d failed: %v", msg.Offset, err)
		}
	}
}

func (l *Listener) handleMessage(ctx context.Context, msg kafka.Message) {
	msgCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	reply, pattern := l.Handle(msgCtx, msg.Value)
	l.emitRequest(pattern, reply, time.Since(start))

	replyTo := header(msg, ReplyToHeader)
	if replyTo == "" {
		log.Printf("bus: request %q (%s) has no %s header; reply dropped", reply.ID, pattern, ReplyToHeader)
		return
	}
	payload, err := json.Marshal(reply)
	if err != nil {
		log.Printf("bus: marshal reply %q: %v", reply.ID, err)
		return
	}
	if err := l.writer.WriteMessages(msgCtx, kafka.Message{
		Topic: replyTo,
		Key:   []byte(reply.ID),
		Value: payload,
	}); err != nil {
		log.Printf("bus: write reply %q to %s: %v", reply.ID, replyTo, err)
	}
}

// Handle decodes one request value, dispatches it by pattern, and returns the reply and the pattern.
func (l *Listener) Handle(ctx context.Context, value []byte) (Reply, string) {
	var req Request
	if err := json.Unmarshal(value, &req); err != nil {
		return errorReply("", errMalformed), ""
	}
	res, err := l.dispatch(ctx, req)
	if err != nil {
		return errorReply(req.ID, err), req.Pattern
	}
	return Reply{ID: req.ID, Response: res}, req.Pattern
}

func (l *Listener) dispatch(ctx context.Context, req Request) (*domain.AuthResult, error) {
	switch req.Pattern {
	case PatternRegister:
		var p registerPayload
		if err := decode(req.Data, &p); err != nil {
			return nil, err
		}
		return l.creds.Register(ctx, p.Name, p.Email, p.Password)
	case PatternLogin:
		var p loginPayload
		if err := decode(req.Data, &p); err != nil {
			return nil, err
		}
		return l.creds.Login(ctx, p.Email, p.Password)
	case PatternVerify:
		var p verifyPayload
		if err := decode(req.Data, &p); err != nil {
			return nil, err
		}
		return l.creds.VerifyAndRefresh(ctx, p.Token)
	default:
		return nil, &service.Error{Status: service.StatusNotFound, Message: "no handler for pattern " + req.Pattern}
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errMalformed
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errMalformed
	}
	return nil
}

func errorReply(id string, err error) Reply {
	e := service.AsError(err)
	return Reply{
		ID:         id,
		Err:        &ReplyError{Status: string(e.Status), Message: e.Message},
		IsDisposed: true,
	}
}

func (l *Listener) emitRequest(pattern string, reply Reply, elapsed time.Duration) {
	if l.emitter == nil {
		return
	}
	outcome := "ok"
	if reply.Err != nil {
		outcome = reply.Err.Status
	}
	telemetry.EmitAsync(l.emitter, &telemetry.Event{
		Type:   telemetry.EventBusRequest,
		Source: "bus_listener",
		Metadata: map[string]string{
			"pattern":     pattern,
			"request_id":  reply.ID,
			"outcome":     outcome,
			"duration_ms": fmt.Sprintf("%d", elapsed.Milliseconds()),
		},
	})
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close closes the reader and the writer.
func (l *Listener) Close() error {
	if l == nil {
		return nil
	}
	return errors.Join(l.reader.Close(), l.writer.Close())
}
