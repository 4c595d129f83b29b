package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("pipeline-metrics")

// PipelineMetrics provides metrics collection for the conversational
// requirements pipeline.
type PipelineMetrics struct {
	turnsClassifiedCounter      metric.Int64Counter
	validatorCorrectionsCounter metric.Int64Counter
	generationsStartedCounter   metric.Int64Counter
	generationsCompletedCounter metric.Int64Counter
	generationsFailedCounter    metric.Int64Counter
	generationDurationHistogram metric.Float64Histogram
	sessionsActiveGauge         metric.Int64UpDownCounter
}

// NewPipelineMetrics creates a new pipeline metrics collector.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	turnsClassifiedCounter, err := meter.Int64Counter(
		"babyccino.turns.classified",
		metric.WithDescription("Total number of chat turns classified"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	validatorCorrectionsCounter, err := meter.Int64Counter(
		"babyccino.validator.corrections",
		metric.WithDescription("Total number of classifier verdicts corrected by the validator"),
		metric.WithUnit("{correction}"),
	)
	if err != nil {
		return nil, err
	}

	generationsStartedCounter, err := meter.Int64Counter(
		"babyccino.generations.started",
		metric.WithDescription("Total number of code-generation attempts started"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	generationsCompletedCounter, err := meter.Int64Counter(
		"babyccino.generations.completed",
		metric.WithDescription("Total number of code-generation attempts completed successfully"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	generationsFailedCounter, err := meter.Int64Counter(
		"babyccino.generations.failed",
		metric.WithDescription("Total number of code-generation attempts that failed"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	generationDurationHistogram, err := meter.Float64Histogram(
		"babyccino.generation.duration",
		metric.WithDescription("Duration of code-generation attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sessionsActiveGauge, err := meter.Int64UpDownCounter(
		"babyccino.sessions.active",
		metric.WithDescription("Number of currently live sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		turnsClassifiedCounter:      turnsClassifiedCounter,
		validatorCorrectionsCounter: validatorCorrectionsCounter,
		generationsStartedCounter:   generationsStartedCounter,
		generationsCompletedCounter: generationsCompletedCounter,
		generationsFailedCounter:    generationsFailedCounter,
		generationDurationHistogram: generationDurationHistogram,
		sessionsActiveGauge:         sessionsActiveGauge,
	}, nil
}

// RecordTurnClassified records one classified chat turn.
func (pm *PipelineMetrics) RecordTurnClassified(ctx context.Context, functionType, specStatus string) {
	pm.turnsClassifiedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("function.type", functionType),
			attribute.String("spec.status", specStatus),
		),
	)
}

// RecordCorrection records one validator correction.
func (pm *PipelineMetrics) RecordCorrection(ctx context.Context, direction string) {
	pm.validatorCorrectionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("correction.direction", direction),
		),
	)
}

// RecordGenerationStarted records a new code-generation attempt.
func (pm *PipelineMetrics) RecordGenerationStarted(ctx context.Context, functionName string) {
	pm.generationsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("function.name", functionName),
		),
	)
}

// RecordGenerationCompleted records a successful attempt.
func (pm *PipelineMetrics) RecordGenerationCompleted(ctx context.Context, functionName string, duration time.Duration) {
	pm.generationsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("function.name", functionName),
			attribute.String("status", "completed"),
		),
	)
	pm.generationDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("function.name", functionName),
			attribute.String("status", "completed"),
		),
	)
}

// RecordGenerationFailed records a failed attempt.
func (pm *PipelineMetrics) RecordGenerationFailed(ctx context.Context, functionName, errorType string, duration time.Duration) {
	pm.generationsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("function.name", functionName),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	pm.generationDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("function.name", functionName),
			attribute.String("status", "failed"),
		),
	)
}

// RecordSessionOpened increments the live session gauge.
func (pm *PipelineMetrics) RecordSessionOpened(ctx context.Context) {
	pm.sessionsActiveGauge.Add(ctx, 1)
}

// RecordSessionClosed decrements the live session gauge.
func (pm *PipelineMetrics) RecordSessionClosed(ctx context.Context) {
	pm.sessionsActiveGauge.Add(ctx, -1)
}
