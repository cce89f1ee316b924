package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"

	"hubchat/auth"
	"hubchat/broadcast"
	"hubchat/connect"
	"hubchat/membership"
	"hubchat/moderation"
	"hubchat/observability"
	"hubchat/repositories"
	"hubchat/runtime"
	"hubchat/runtime/workers"
	"hubchat/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Stores & core components
	users := repositories.NewUserRepository()
	store := repositories.NewConversationStore()
	registry := runtime.NewRegistry(log)
	hubs := membership.NewRegistry(users, log)
	tokens := auth.NewIssuer(config.TokenSecret, config.TokenTTL)

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	var censor broadcast.Censor
	if len(config.CensoredWords) > 0 {
		c, err := moderation.NewCensor(config.CensoredWords, []rune(config.CensorMask)[0])
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		censor = c
		log.Info(fmt.Sprintf("%d censored words loaded", len(config.CensoredWords)))
	}

	clk := clock.New()
	broadcaster := broadcast.NewBroadcaster(store, registry, censor, clk, log)
	gate := connect.NewGate(store, users, registry, clk, log)
	dispatcher := runtime.NewDispatcher(log, registry, users, broadcaster, gate,
		tokens, metrics, config.BufferSize)

	// 3. Supervision
	sup := workers.NewSupervisor(log)
	sup.Add(dispatcher)
	sup.Add(workers.NewTelemetryWorker(log, dispatcher.Telemetry(), []observability.Handler{
		observability.NewLatencyHandler(log, config.LatencyThreshold),
		observability.NewLanguageHandler(log),
	}))
	sup.Add(workers.NewStatsWorker(log, config.StatsInterval))

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 5. HTTP server
	server := transport.NewServer(log, users, hubs, tokens, dispatcher, registry,
		metrics, config.SessionBufferSize)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.Routes(promRegistry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Relay stopped cleanly")

	return nil
}
