package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/vigil/triage/internal/audit"
	"github.com/vigil/triage/internal/block"
	"github.com/vigil/triage/internal/classify"
	"github.com/vigil/triage/internal/console"
	"github.com/vigil/triage/internal/flag"
	"github.com/vigil/triage/internal/messaging"
	"github.com/vigil/triage/internal/metrics"
	"github.com/vigil/triage/internal/platform"
	"github.com/vigil/triage/internal/ratelimit"
	"github.com/vigil/triage/internal/report"
	"github.com/vigil/triage/internal/triage"
)

func main() {
	log.Println("Starting Vigil triage engine...")

	// Load .env if present; real environment wins.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env: %v", err)
	}

	// Redis setup.
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	// Postgres setup (optional: no DSN disables the audit trail).
	var auditStore *audit.Store
	var db *sql.DB
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		if err := audit.Migrate(envOr("MIGRATIONS_URL", "file://migrations"), dsn); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}

		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("failed to open Postgres: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		auditStore = audit.NewStore(db)
	} else {
		log.Printf("POSTGRES_DSN not set, disposition audit trail disabled")
	}

	// NATS setup.
	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// Classification service.
	classifyURL := os.Getenv("PERSPECTIVE_URL")
	classifyKey := os.Getenv("PERSPECTIVE_KEY")
	if classifyURL == "" || classifyKey == "" {
		log.Fatalf("PERSPECTIVE_URL and PERSPECTIVE_KEY are required")
	}
	evaluator := classify.NewClient(classifyURL, classifyKey)

	// Thresholds.
	config := triage.DefaultConfig()
	config.ToxicityThreshold = envFloat("TOXICITY_THRESHOLD", config.ToxicityThreshold)
	config.FlirtationThreshold = envFloat("FLIRTATION_THRESHOLD", config.FlirtationThreshold)

	coordinator := triage.NewCoordinator(config, triage.Deps{
		Sessions:  report.NewSessions(),
		Registry:  flag.NewRegistry(),
		Evaluator: evaluator,
		Resolver:  messaging.NewNATSResolver(natsClient),
		Notifier:  messaging.NewNATSNotifier(natsClient),
		Blocks:    block.NewStore(rdb),
		Audit:     auditStore,
		Limiter:   ratelimit.NewLimiter(rdb),
	})

	// Inbound platform events. Each handler runs on a NATS delivery goroutine;
	// the coordinator is safe for concurrent calls across keys.
	subscribe(natsClient.SubscribeDirectMessages, func(ctx context.Context, ev platform.DirectMessage) error {
		return coordinator.OnDirectMessage(ctx, ev)
	})
	subscribe(natsClient.SubscribeChannelMessages, func(ctx context.Context, ev platform.ChannelMessage) error {
		_, err := coordinator.OnChannelMessage(ctx, ev.Message)
		return err
	})
	subscribe(natsClient.SubscribeMessageEdits, func(ctx context.Context, ev platform.MessageEdit) error {
		_, err := coordinator.OnMessageEdit(ctx, ev.Message)
		return err
	})
	subscribe(natsClient.SubscribeReactions, func(ctx context.Context, ev platform.DispositionReaction) error {
		return coordinator.OnDispositionReaction(ctx, ev)
	})

	// Moderator console feed mirrors everything posted to the moderation
	// channel.
	feed := console.NewFeed()
	if err := natsClient.SubscribeModSummaries(feed.Broadcast); err != nil {
		log.Fatalf("failed to subscribe to moderation posts: %v", err)
	}

	// HTTP: metrics and the console feed.
	listenAddr := envOr("LISTEN_ADDR", ":8090")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/console/ws", feed.Handler())
	httpServer := &http.Server{Addr: listenAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	log.Printf("Vigil triage engine running")
	log.Printf("  nats_url:     %s", natsConfig.URL)
	log.Printf("  redis_addr:   %s", redisAddr)
	log.Printf("  listen_addr:  %s", listenAddr)
	log.Printf("  audit:        %v", auditStore != nil)
	log.Printf("  thresholds:   toxicity=%.2f flirtation=%.2f",
		config.ToxicityThreshold, config.FlirtationThreshold)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	feed.Close()
	natsClient.Close()
	rdb.Close()
	if db != nil {
		db.Close()
	}
}

// subscribe wires a typed NATS subscription to a coordinator method. Payloads
// that fail to decode are logged and dropped; handler errors are logged (the
// coordinator already degrades internally, an error here means the outbound
// publish failed).
func subscribe[E any](sub func(func([]byte)) error, handle func(context.Context, E) error) {
	err := sub(func(data []byte) {
		var ev E
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("[triage] drop undecodable event %T: %v", ev, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := handle(ctx, ev); err != nil {
			log.Printf("[triage] handle %T: %v", ev, err)
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s=%q: %v", key, v, err)
	}
	return f
}
