package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	accountstore "leadflow/internal/account/store"
	"leadflow/internal/campaign/runstate"
	"leadflow/internal/campaign/service"
	campaignstore "leadflow/internal/campaign/store"
	"leadflow/internal/enrichment"
	"leadflow/internal/orchestrator"
	"leadflow/internal/outreach"
	"leadflow/internal/platform/config"
	"leadflow/internal/platform/kafka"
	"leadflow/internal/platform/logger"
	"leadflow/internal/platform/metrics"
	"leadflow/internal/platform/postgres"
	redisclient "leadflow/internal/platform/redis"
	"leadflow/internal/prospect/lifecycle"
	prospectstore "leadflow/internal/prospect/store"
	"leadflow/internal/providers"
	"leadflow/internal/providers/mailer"
	"leadflow/internal/providers/rocketreach"
	"leadflow/internal/retry"
	"leadflow/internal/scoring"
	"leadflow/internal/worker"
	audit "leadflow/pkg/platform/audit"
	"leadflow/pkg/platform/audit/publisher"
	auditmemory "leadflow/pkg/platform/audit/store/memory"
	auditpostgres "leadflow/pkg/platform/audit/store/postgres"
	"leadflow/pkg/platform/circuit"
	txcontext "leadflow/pkg/platform/tx"
)

type prospectStore interface {
	lifecycle.Store
	orchestrator.ProspectStore
	enrichment.ExistingProspects
}

type campaignStore interface {
	service.Store
	orchestrator.CampaignStore
}

// app holds every long-lived dependency. Postgres, Redis and Kafka are each
// optional; without them the process runs on in-memory stores and cannot
// queue work.
type app struct {
	cfg          config.Config
	accounts     *accountstore.PostgresStore
	logger       *slog.Logger
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	db           *sql.DB
	redis        *redisclient.Client
	kafka        *kafka.Client
	audit        *publisher.Publisher
	campaigns    *service.Service
	orchestrator *orchestrator.Orchestrator
	producer     *worker.Producer
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger.New(cfg.Log),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	// Without a database there is no creator directory and the
	// verification check is skipped.
	var (
		prospects prospectStore    = prospectstore.NewInMemory()
		campaigns campaignStore    = campaignstore.NewInMemory()
		auditSink audit.Store      = auditmemory.NewInMemoryStore()
		txRunner  txcontext.Runner = txcontext.NopRunner{}
		directory orchestrator.CreatorDirectory
	)
	if a.db != nil {
		prospects = prospectstore.NewPostgres(a.db)
		campaigns = campaignstore.NewPostgres(a.db)
		a.accounts = accountstore.NewPostgres(a.db)
		directory = a.accounts
		auditSink = auditpostgres.New(a.db)
		txRunner = txcontext.NewSQLRunner(a.db)
	}
	a.audit = publisher.NewPublisher(auditSink, publisher.WithLogger(a.logger))

	var (
		state orchestrator.StateStore = runstate.NewInMemory()
		lock  orchestrator.RunLock    = runstate.NewMemoryLock()
	)
	if a.redis != nil {
		state = runstate.NewRedis(a.redis.Client, cfg.Redis.StateTTL)
		lock = runstate.NewRedisLock(a.redis.Client, cfg.Redis.LockTTL)
	}

	callPolicy := retry.Policy{
		MaxAttempts: cfg.Retry.Call.MaxAttempts,
		Scale:       cfg.Retry.Call.Multiplier,
		Floor:       cfg.Retry.Call.Min,
		Ceiling:     cfg.Retry.Call.Max,
	}
	rr := rocketreach.New(rocketreach.Config{
		BaseURL: cfg.Providers.RocketReach.BaseURL,
		APIKey:  cfg.Providers.RocketReach.APIKey,
		Timeout: cfg.Providers.RocketReach.Timeout,
	},
		rocketreach.WithLogger(a.logger),
		rocketreach.WithExecutor(retry.NewExecutor(rocketreach.ProviderID, callPolicy,
			retry.WithLogger(a.logger),
			retry.WithOnRetry(a.metrics.IncrementProviderRetry),
		)),
	)
	breaker := circuit.New(rocketreach.ProviderID+".lookup",
		circuit.WithFailureThreshold(cfg.Providers.Breaker.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.Providers.Breaker.SuccessThreshold),
		circuit.WithCooldown(cfg.Providers.Breaker.Cooldown),
	)
	enricher := providers.NewGuardedEnricher(rr, breaker, a.logger)
	dispatcher := mailer.New(mailer.Config{
		BaseURL: cfg.Providers.Mailer.BaseURL,
		APIKey:  cfg.Providers.Mailer.APIKey,
		From:    cfg.Providers.Mailer.From,
		Timeout: cfg.Providers.Mailer.Timeout,
	}, mailer.WithLogger(a.logger))

	lc := lifecycle.New(prospects,
		lifecycle.WithLogger(a.logger),
		lifecycle.WithAuditPublisher(a.audit),
		lifecycle.WithTxRunner(txRunner),
	)
	a.campaigns = service.New(campaigns,
		service.WithLogger(a.logger),
		service.WithAuditPublisher(a.audit),
		service.WithTxRunner(txRunner),
		service.WithProspects(prospects),
	)

	var tracer trace.Tracer = noop.NewTracerProvider().Tracer(cfg.Tracing.ServiceName)
	if cfg.Tracing.Enabled {
		tracer = otel.Tracer(cfg.Tracing.ServiceName)
	}

	a.orchestrator = orchestrator.New(orchestrator.Deps{
		Campaigns: campaigns,
		Prospects: prospects,
		Lifecycle: lc,
		Coordinator: enrichment.NewCoordinator(prospects,
			enrichment.WithLogger(a.logger),
			enrichment.WithEnricher(enricher),
		),
		Scorer: scoring.NewEngine(scoring.Config{
			DefaultThreshold: cfg.Scoring.DefaultThreshold,
			NurtureFloor:     cfg.Scoring.NurtureFloor,
		}),
		Source:     rr,
		Generator:  outreach.NewGenerator(),
		Dispatcher: dispatcher,
		Creators:   directory,
	},
		orchestrator.WithLogger(a.logger),
		orchestrator.WithStateStore(state),
		orchestrator.WithRunLock(lock),
		orchestrator.WithAuditPublisher(a.audit),
		orchestrator.WithTxRunner(txRunner),
		orchestrator.WithMetrics(orchestrator.NewMetrics(a.registry)),
		orchestrator.WithTracer(tracer),
	)

	if a.kafka != nil {
		a.producer = worker.NewProducer(a.kafka, cfg.Kafka.TaskTopic, a.metrics)
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	if a.cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, a.cfg.Database)
		if err != nil {
			return err
		}
		a.db = db
	}
	rc, err := redisclient.New(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	a.redis = rc
	if len(a.cfg.Kafka.Brokers) > 0 {
		kc, err := kafka.New(a.cfg.Kafka, kafka.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.kafka = kc
	}
	return nil
}

// health pings every configured backend.
func (a *app) health(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext(ctx)
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health(ctx)
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka.Ping(ctx)
	}
	return checks
}

func (a *app) requireProducer() error {
	if a.producer == nil {
		return errors.New("kafka brokers are not configured (set kafka.brokers or --kafka-brokers)")
	}
	return nil
}

func (a *app) Close() {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", "error", err)
		}
	}
}

func describeBackends(a *app) string {
	return fmt.Sprintf("postgres=%t redis=%t kafka=%t", a.db != nil, a.redis != nil, a.kafka != nil)
}
