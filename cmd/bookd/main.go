// Command bookd runs the matching engine daemon: one order book behind an
// HTTP/WebSocket API, with trades published to the configured backend and
// Prometheus metrics on a separate listener.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"matchbook/config"
	"matchbook/pkg/core"
	"matchbook/pkg/logging"
	"matchbook/pkg/messaging"
	"matchbook/pkg/messaging/kafka"
	"matchbook/pkg/messaging/redis"
	"matchbook/pkg/metrics"
	"matchbook/pkg/server"
	"matchbook/pkg/ticks"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	logging.Setup(logging.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogFormat == "pretty",
	})

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Server.LogFormat == "pretty" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	converter, err := ticks.NewConverter(cfg.Market.TickSize)
	if err != nil {
		logger.Fatal().Err(err).Str("tick_size", cfg.Market.TickSize).Msg("Invalid tick size")
	}

	sender, err := setupSender(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Messaging.Backend).Msg("Failed to setup trade publisher")
	}
	defer sender.Close()

	book := core.NewOrderBook(core.WithLogger(logger))
	defer book.Close()
	logger.Info().Str("symbol", cfg.Market.Symbol).Str("tick_size", cfg.Market.TickSize).Msg("Created order book")

	// Optional tape watcher: pretty prints trades as they land on Kafka.
	if cfg.Messaging.Backend == config.BackendKafka || cfg.Messaging.Backend == config.BackendSarama {
		consumer, err := kafka.SetupConsumer(ctx, []string{cfg.Kafka.BrokerAddr}, cfg.Kafka.Topic, logger)
		if err == nil && consumer != nil {
			defer consumer.Close()
		}
	}

	m := metrics.New()
	api := server.New(cfg.Market.Symbol, book, converter, sender, m, logger)

	httpServer := startHTTPServer(logger, cfg.Server.HTTPAddr, api.Handler())
	metricsServer := startMetricsServer(logger, cfg.Server.MetricsAddr, m.Handler())

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Metrics server shutdown error")
	}

	logger.Info().Msg("Servers shutdown complete")
}

// setupSender picks the trade publisher named by the configuration.
func setupSender(cfg *config.Config) (messaging.Sender, error) {
	switch cfg.Messaging.Backend {
	case config.BackendKafka:
		return kafka.NewSender(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
	case config.BackendSarama:
		return kafka.NewSyncSender([]string{cfg.Kafka.BrokerAddr}, cfg.Kafka.Topic)
	case config.BackendRedis:
		return redis.NewStreamSender(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Stream:   cfg.Redis.Stream,
		}), nil
	case config.BackendMock:
		return messaging.NewMockSender(), nil
	default:
		return nil, fmt.Errorf("unknown messaging backend %q", cfg.Messaging.Backend)
	}
}

// startHTTPServer starts the order entry API in a goroutine.
func startHTTPServer(logger zerolog.Logger, addr string, handler http.Handler) *http.Server {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to serve HTTP")
		}
	}()

	return httpServer
}

// startMetricsServer serves Prometheus scrapes on their own listener so
// operational traffic never contends with order flow.
func startMetricsServer(logger zerolog.Logger, addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	metricsServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to serve metrics")
		}
	}()

	return metricsServer
}
