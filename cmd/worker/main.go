// Worker consumes auth events from Kafka and pushes them to Loki, labelled by
// event type and outcome. Transport events (grpc_request, bus_request) are skipped.
// Set KAFKA_BROKERS, AUTH_EVENTS_TOPIC, LOKI_GROUP_ID, and LOKI_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"auth-ms/internal/config"
	"auth-ms/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	topic := cfg.AuthEventsTopic
	if topic == "" {
		topic = "auth-events"
	}
	groupID := cfg.LokiGroupID
	if groupID == "" {
		groupID = "auth-events-loki"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  1 * time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	forwarder := loki.NewForwarder(cfg.LokiURL)
	log.Printf("worker: consuming from %s (group %s), pushing to %s", topic, groupID, cfg.LokiURL)

	var forwarded, skipped, dropped int
	defer func() {
		log.Printf("worker: stopped (forwarded=%d skipped=%d dropped=%d)", forwarded, skipped, dropped)
	}()
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker: kafka fetch error: %v", err)
			continue
		}

		pushCtx, pushCancel := context.WithTimeout(ctx, 30*time.Second)
		sent, err := forwarder.Forward(pushCtx, msg.Value)
		pushCancel()
		switch {
		case ctx.Err() != nil:
			// Not committed; redelivered on restart.
			return
		case err != nil:
			dropped++
			log.Printf("worker: dropping event at offset %d: %v", msg.Offset, err)
		case sent:
			forwarded++
		default:
			skipped++
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("worker: commit offset %d: %v", msg.Offset, err)
		}
	}
}
