package providers

import (
	"context"
	"log/slog"

	"leadflow/internal/prospect/models"
	"leadflow/pkg/platform/circuit"
)

// GuardedEnricher short-circuits lookups while the provider keeps failing.
// Not-found results count as success; only call errors trip the breaker.
type GuardedEnricher struct {
	next    EnrichmentClient
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedEnricher(next EnrichmentClient, breaker *circuit.Breaker, logger *slog.Logger) *GuardedEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedEnricher{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedEnricher) Lookup(ctx context.Context, q LookupQuery) (*models.Record, error) {
	if !g.breaker.Allow() {
		return nil, NewProviderError(ErrorProviderOutage, g.breaker.Name(), "lookup skipped", ErrCircuitOpen)
	}
	rec, err := g.next.Lookup(ctx, q)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "enrichment circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return nil, err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "enrichment circuit closed", "breaker", g.breaker.Name())
	}
	return rec, nil
}
