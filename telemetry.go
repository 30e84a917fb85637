package params

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	throttledReads metric.Int64Counter
	refreshes      metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/goliatone/go-params")

	var err error
	throttledReads, err = meter.Int64Counter(
		"params.store.throttled_reads",
		metric.WithDescription("Number of reads served from memory because the re-read interval had not elapsed"),
	)
	if err != nil {
		log.Fatalf("failed to create store.throttled_reads counter: %v", err)
	}

	refreshes, err = meter.Int64Counter(
		"params.store.refreshes",
		metric.WithDescription("Number of times the primary file was re-read"),
	)
	if err != nil {
		log.Fatalf("failed to create store.refreshes counter: %v", err)
	}
}

func recordThrottled(ctx context.Context) {
	throttledReads.Add(orBackground(ctx), 1)
}

func recordRefresh(ctx context.Context, err error) {
	refreshes.Add(orBackground(ctx), 1, metric.WithAttributes(attribute.Bool("failed", err != nil)))
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
