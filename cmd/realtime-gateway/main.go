// cmd/realtime-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"farmstand-realtime/internal/channels"
	"farmstand-realtime/internal/common/auth"
	"farmstand-realtime/internal/common/config"
	"farmstand-realtime/internal/common/database"
	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/models"
	"farmstand-realtime/internal/realtime"
	"farmstand-realtime/internal/realtime/ws"
	"farmstand-realtime/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting realtime notification gateway...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- External channel collaborators (email/SMS) ---
	var email channels.EmailSender
	if cfg.Channels.EmailEnabled {
		email, err = channels.NewSESEmailSender(ctx, cfg.Channels.AWSRegion, cfg.Channels.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
	}
	var sms channels.SMSSender
	if cfg.Channels.SMSEnabled {
		sms, err = channels.NewSNSSMSSender(ctx, cfg.Channels.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
	}
	dispatcher := channels.NewDispatcher(cfg.Channels, email, sms, log)

	// --- Core fan-out wiring ---
	registry := realtime.NewRegistry()
	queue := realtime.NewPendingQueue(cfg.Realtime.QueueCap)
	history := store.NewPostgresHistoryStore(pg.DB)
	directory := store.NewPostgresUserDirectory(pg.DB)
	engine := realtime.NewEngine(registry, queue, history, directory, dispatcher, log)

	resolver := auth.NewRedisResolver(rdb.Client)
	handler := ws.NewHandler(cfg.Realtime, resolver, engine, log)

	supervisor := realtime.NewSupervisor(engine,
		cfg.Realtime.Heartbeat(),
		cfg.Realtime.QueueFlush(),
		time.Duration(cfg.Realtime.ClientTimeout)*time.Second,
		log,
	)
	emitter := realtime.NewSeasonalEmitter(engine, cfg.Realtime.Seasonal(),
		models.UserRole(cfg.Realtime.SeasonalAudience), log)

	runCtx, stopBackground := context.WithCancel(ctx)
	go supervisor.Run(runCtx)
	go emitter.Run(runCtx)

	// --- HTTP server: websocket endpoint plus health/metrics ---
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WebSocketPath, handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"connections": registry.Len(),
			"time":        time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}
	go func() {
		zapLog.Info("Gateway listening",
			zap.String("addr", cfg.Server.Addr()),
			zap.String("path", cfg.Server.WebSocketPath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	registry.CloseAll("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown error", zap.Error(err))
	}

	zapLog.Info("Gateway stopped gracefully")
}
