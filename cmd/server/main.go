package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"auth-ms/internal/bus"
	"auth-ms/internal/config"
	"auth-ms/internal/db"
	"auth-ms/internal/db/migrate"
	healthhandler "auth-ms/internal/health/handler"
	"auth-ms/internal/identity/repository"
	"auth-ms/internal/identity/service"
	"auth-ms/internal/security"
	"auth-ms/internal/server"
	"auth-ms/internal/telemetry"
	telemetryotel "auth-ms/internal/telemetry/otel"
	"auth-ms/internal/telemetry/producer"
)

const serviceName = "auth-ms"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	secret, err := security.LoadSecret(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("JWT_SECRET: %v", err)
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if counter, err := telemetryotel.NewEventCounter(providers.Meter()); err != nil {
		log.Printf("otel: event counter disabled: %v", err)
	} else {
		emitters = append(emitters, counter)
	}
	var events producer.Producer
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic); kp != nil {
		events = kp
		emitters = append(emitters, kp)
		log.Printf("telemetry: producing auth events to %s", cfg.AuthEventsTopic)
	}
	emitter := telemetry.Multi(emitters...)

	var (
		users  repository.Repository
		pinger healthhandler.Pinger
	)
	if cfg.DatabaseURL != "" {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		users = repository.NewPostgresRepository(pool)
		pinger = pool
	} else {
		log.Println("DATABASE_URL not set; using in-memory user directory")
		users = repository.NewMemoryRepository()
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenIssuer(secret, cfg.TokenTTL(), security.WithIssuer(cfg.JWTIssuer))
	creds := service.NewCredentialService(users, hasher, tokens, service.WithEmitter(emitter))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := server.NewServer(server.Deps{
		Auth:           creds,
		HealthPinger:   pinger,
		Emitter:        emitter,
		RequestTimeout: cfg.RequestTimeoutDuration(),
	})

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	busCtx, stopBus := context.WithCancel(ctx)
	var busDone sync.WaitGroup
	listener := bus.NewKafkaListener(bus.Config{
		Brokers: cfg.KafkaBrokersList(),
		Topic:   cfg.AuthRequestTopic,
		GroupID: cfg.KafkaGroupID,
		Timeout: cfg.RequestTimeoutDuration(),
		Emitter: emitter,
	}, creds)
	if listener != nil {
		busDone.Add(1)
		go func() {
			defer busDone.Done()
			log.Printf("bus: consuming %s (group %s)", cfg.AuthRequestTopic, cfg.KafkaGroupID)
			if err := listener.Run(busCtx); err != nil {
				log.Printf("bus: stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopBus()
	busDone.Wait()
	if err := listener.Close(); err != nil {
		log.Printf("bus: close: %v", err)
	}
	s.GracefulStop()
	log.Println("gRPC server stopped")

	// Let in-flight async emits finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if events != nil {
		if err := events.Close(); err != nil {
			log.Printf("telemetry: producer close: %v", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("otel: shutdown: %v", err)
	}
}
