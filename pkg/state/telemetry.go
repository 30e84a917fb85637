package state

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	diskReads       metric.Int64Counter
	diskReadErrors  metric.Int64Counter
	diskWrites      metric.Int64Counter
	diskWriteErrors metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/goliatone/go-params/pkg/state")

	var err error
	diskReads, err = meter.Int64Counter(
		"params.state.disk_reads",
		metric.WithDescription("Number of snapshot files read from disk"),
	)
	if err != nil {
		log.Fatalf("failed to create state.disk_reads counter: %v", err)
	}

	diskReadErrors, err = meter.Int64Counter(
		"params.state.disk_read_errors",
		metric.WithDescription("Number of snapshot files that could not be read or decoded"),
	)
	if err != nil {
		log.Fatalf("failed to create state.disk_read_errors counter: %v", err)
	}

	diskWrites, err = meter.Int64Counter(
		"params.state.disk_writes",
		metric.WithDescription("Number of snapshot files written to disk"),
	)
	if err != nil {
		log.Fatalf("failed to create state.disk_writes counter: %v", err)
	}

	diskWriteErrors, err = meter.Int64Counter(
		"params.state.disk_write_errors",
		metric.WithDescription("Number of failed snapshot writes"),
	)
	if err != nil {
		log.Fatalf("failed to create state.disk_write_errors counter: %v", err)
	}
}

func refAttrs(ref Ref) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("ref", ref.Label()))
}

func recordRead(ctx context.Context, ref Ref, err error) {
	diskReads.Add(ctx, 1, refAttrs(ref))
	if err != nil {
		diskReadErrors.Add(ctx, 1, refAttrs(ref))
	}
}

func recordWrite(ctx context.Context, ref Ref, err error) {
	diskWrites.Add(ctx, 1, refAttrs(ref))
	if err != nil {
		diskWriteErrors.Add(ctx, 1, refAttrs(ref))
	}
}
