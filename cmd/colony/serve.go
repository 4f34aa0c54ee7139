package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Colony/internal/api"
	"github.com/shaiso/Colony/internal/cli"
	"github.com/shaiso/Colony/internal/config"
	"github.com/shaiso/Colony/internal/events"
	"github.com/shaiso/Colony/internal/mq"
	"github.com/shaiso/Colony/internal/natsbus"
	"github.com/shaiso/Colony/internal/orchestrator"
	"github.com/shaiso/Colony/internal/repo"
	"github.com/shaiso/Colony/internal/telemetry"
)

var (
	startTime     = time.Now()
	healthzChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colony_healthz_requests_total",
		Help: "Total health check requests",
	})
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("starting colony", "version", version)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var sinks events.Multi

	// RabbitMQ
	if cfg.AMQP.URL != "" {
		conn, err := mq.NewConnection(cfg.AMQP.URL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events will not be published to AMQP", "error", err)
		} else {
			defer conn.Close()
			logger.Info("RabbitMQ connected")

			topo := mq.DefaultTopology(cfg.AMQP.Exchange)
			if err := mq.SetupTopology(ctx, conn, topo); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			go mq.KeepTopology(ctx, conn, topo, logger)

			sinks = append(sinks, mq.NewEventPublisher(conn, topo.Exchange, logger))
		}
	}

	// NATS
	natsURL := cfg.NATS.URL
	if cfg.NATS.Embedded {
		srv, err := natsbus.StartServer(cfg.NATS.Port)
		if err != nil {
			return fmt.Errorf("start embedded nats: %w", err)
		}
		defer srv.Close()
		natsURL = srv.ClientURL()
		logger.Info("embedded NATS started", "url", natsURL)
	}
	if natsURL != "" {
		client, err := natsbus.Connect(natsURL)
		if err != nil {
			logger.Warn("NATS not available, events will not be published to NATS", "error", err)
		} else {
			defer client.Close()
			sinks = append(sinks, natsbus.NewEventPublisher(client, logger))
		}
	}

	// PostgreSQL
	var journal orchestrator.Journal
	if cfg.Database.URL != "" {
		pool, err := repo.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		jr := repo.NewJournalRepo(pool)
		if err := jr.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		journal = jr
		logger.Info("database connected")
	}

	ocfg := cli.OrchestratorConfig(cfg, logger)
	if len(sinks) > 0 {
		ocfg.Notifier = sinks
	}
	ocfg.Journal = journal

	orch := orchestrator.New(ocfg)
	if err := orch.Start(ctx); err != nil {
		return err
	}
	defer orch.Stop()

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		healthzChecks.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())

	api.NewHandler(api.Config{Orchestrator: orch, Logger: logger}).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
	return nil
}
