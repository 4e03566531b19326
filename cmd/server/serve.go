package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"leadflow/internal/campaign/handler"
	"leadflow/internal/platform/httpserver"
	"leadflow/internal/platform/kafka"
	"leadflow/internal/retry"
	"leadflow/internal/worker"
	"leadflow/pkg/platform/audit/outbox"
	"leadflow/pkg/platform/httputil"
	"leadflow/pkg/platform/middleware/requestid"
	"leadflow/pkg/platform/middleware/requesttime"
)

func serveCmd(load loadFunc, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, the task worker and the audit relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting leadflow", "backends", describeBackends(a))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv := httpserver.New(a.cfg.Server.Addr, a.router())
		return httpserver.Serve(ctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)
	})

	if a.kafka != nil {
		if err := a.kafka.EnsureTopics(ctx, a.cfg.Kafka.Partitions, a.cfg.Kafka.Replication,
			a.cfg.Kafka.TaskTopic, a.cfg.Kafka.AuditTopic); err != nil {
			return err
		}
		consumer, err := kafka.New(a.cfg.Kafka,
			kafka.WithLogger(a.logger),
			kafka.WithConsumerGroup(a.cfg.Kafka.Group, a.cfg.Kafka.TaskTopic),
		)
		if err != nil {
			return err
		}
		defer consumer.Close()

		w := worker.New(a.orchestrator, a.producer,
			worker.WithLogger(a.logger),
			worker.WithConcurrency(a.cfg.Worker.Concurrency),
			worker.WithMetrics(a.metrics),
			worker.WithTaskPolicy(retry.TaskPolicy{
				MaxAttempts: a.cfg.Retry.Task.MaxAttempts,
				Base:        a.cfg.Retry.Task.Base,
			}),
		)
		g.Go(func() error { return w.Run(ctx, consumer.Consume) })

		if a.db != nil {
			relay := outbox.NewRelay(outbox.NewPostgresSource(a.db), a.kafka, a.cfg.Kafka.AuditTopic,
				outbox.WithBatchSize(a.cfg.Worker.OutboxBatchSize),
				outbox.WithInterval(a.cfg.Worker.OutboxInterval),
				outbox.WithLogger(a.logger),
				outbox.WithOnPublished(a.metrics.AddOutboxPublished),
			)
			g.Go(func() error { return relay.Run(ctx) })
		}
	} else {
		a.logger.WarnContext(ctx, "kafka not configured; task worker and audit relay disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("leadflow stopped")
	return nil
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(a.metrics.Middleware)

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	var enqueuer handler.Enqueuer
	if a.producer != nil {
		enqueuer = a.producer
	}
	handler.New(a.orchestrator, enqueuer, a.campaigns, a.logger).Register(r)
	return r
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{}
	for name, err := range a.health(r.Context()) {
		if err != nil {
			status = http.StatusServiceUnavailable
			body[name] = err.Error()
			continue
		}
		body[name] = "ok"
	}
	httputil.WriteJSON(w, status, body)
}
