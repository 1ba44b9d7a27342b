package reach

import (
	"context"
	"fmt"

	"github.com/pvpguard/combatcore/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/pvpguard/combatcore/internal/reach"

type metrics struct {
	validated metric.Int64Counter
	effective metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	validated, err := m.Int64Counter(
		"combat.attacks.validated",
		metric.WithDescription("Attacks validated, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating validated counter: %w", err)
	}

	effective, err := m.Float64Histogram(
		"combat.attacks.effective_distance",
		metric.WithDescription("Effective distance of attacks that passed the horizontal gate"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating effective distance histogram: %w", err)
	}

	return &metrics{validated: validated, effective: effective}, nil
}

func (m *metrics) record(ctx context.Context, tier core.Tier, res ValidationResult) {
	reason := res.Reason.String()
	if reason == "" {
		reason = "accepted"
	}
	attrs := metric.WithAttributes(
		attribute.String("tier", tier.String()),
		attribute.String("outcome", reason),
	)
	m.validated.Add(ctx, 1, attrs)
	if res.Reason != TooFarHorizontal {
		m.effective.Record(ctx, res.Effective, attrs)
	}
}
