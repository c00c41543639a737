package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/jupiterclapton/cenackle/services/realtime-service/config"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/adapters/primary/events"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/adapters/primary/ws"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/adapters/secondary/security"
	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	initLogger(cfg)
	slog.Info("🚀 Starting Realtime Service", "config", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: Postgres (commentaires + lecture des posts)
	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		slog.Error("Unable to parse DB config", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	slog.Info("✅ Connected to Postgres")

	// 4. Infrastructure: Redis (sets de likes)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		slog.Warn("Redis tracing instrumentation failed", "error", err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("✅ Connected to Redis")

	// 5. Infrastructure: Neo4j (graphe social)
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		slog.Error("Failed to create neo4j driver", "error", err)
		os.Exit(1)
	}
	defer driver.Close(context.Background())

	verifyCtx, verifyCancel := context.WithTimeout(ctx, 5*time.Second)
	defer verifyCancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		slog.Error("Failed to connect to Neo4j", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Neo4j")

	// 6. Infrastructure: NATS (events in/out)
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 7. Adapters (Driven)
	pgRepo := repository.NewPostgresRepo(dbPool)
	likeRepo := repository.NewRedisLikeRepo(rdb)
	graphRepo := repository.NewNeo4jGraphRepo(driver)
	if err := graphRepo.EnsureSchema(context.Background()); err != nil {
		slog.Warn("Graph schema init failed (might be fine if already exists)", "error", err)
	}

	broker, err := eventbroker.NewNatsBroker(nc)
	if err != nil {
		slog.Error("Unable to init JetStream", "error", err)
		os.Exit(1)
	}

	publicKeyPEM, err := os.ReadFile(cfg.JWTPublicKey)
	if err != nil {
		slog.Error("Unable to read JWT public key", "path", cfg.JWTPublicKey, "error", err)
		os.Exit(1)
	}
	tokenValidator, err := security.NewJWTValidator(publicKeyPEM)
	if err != nil {
		slog.Error("Unable to init token validator", "error", err)
		os.Exit(1)
	}

	// 8. Core (Domain Logic). Le registre est créé ICI et injecté partout :
	// pas d'état global ambiant, son cycle de vie appartient au main.
	registry := services.NewConnectionRegistry()
	dispatcher := services.NewEventDispatcher(registry)
	interactions := services.NewInteractionService(pgRepo, pgRepo, likeRepo, graphRepo, dispatcher, broker, registry)

	// 9. Adapters (Driving)
	wsHandler := ws.NewHandler(registry, dispatcher, interactions, tokenValidator)

	eventHandler := events.NewEventHandler(dispatcher)
	if err := eventHandler.Subscribe(nc); err != nil {
		slog.Error("Unable to subscribe to NATS subjects", "error", err)
		os.Exit(1)
	}

	// 10. Serveur HTTP (websocket + health)
	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: otelhttp.NewHandler(mux, "realtime-service"),
	}

	slog.Info("📡 Realtime Service listening", "port", cfg.HTTPPort)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Fermer d'abord les websockets (trame de close propre), puis le serveur
	registry.Drain()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("👋 Server exited")
}

// --- Helpers (À déplacer un jour dans pkg/telemetry et pkg/logger) ---

func initLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("realtime-service"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
