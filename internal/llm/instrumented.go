package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"quizzer-backend/internal/observability"
)

// InstrumentedProvider records a span, a metrics sample and a debug log line
// for every single provider call.
type InstrumentedProvider struct {
	inner   Provider
	metrics *observability.Metrics
	tracer  trace.Tracer
	log     *zap.Logger
}

func WithInstrumentation(p Provider, metrics *observability.Metrics, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &InstrumentedProvider{
		inner:   p,
		metrics: metrics,
		tracer:  observability.Tracer(),
		log:     log.Named("llm"),
	}
}

func (p *InstrumentedProvider) Name() string    { return p.inner.Name() }
func (p *InstrumentedProvider) ModelID() string { return p.inner.ModelID() }

func (p *InstrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	ctx, span := p.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.provider", p.inner.Name()),
		attribute.String("llm.model", p.inner.ModelID()),
		attribute.String("llm.purpose", purpose),
		attribute.Bool("llm.structured", req.Schema != nil),
	))
	defer span.End()

	start := time.Now()
	resp, err := p.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	var usage Usage
	if resp != nil {
		usage = resp.Usage
	}
	p.metrics.ObserveLLM(p.inner.Name(), purpose, outcome(err), elapsed, usage.InputTokens, usage.OutputTokens)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("llm.input_tokens", usage.InputTokens),
		attribute.Int("llm.output_tokens", usage.OutputTokens),
		attribute.String("llm.stop_reason", resp.StopReason),
	)
	p.log.Debug("model call completed",
		zap.String("provider", p.inner.Name()),
		zap.String("model", resp.Model),
		zap.String("purpose", purpose),
		zap.Duration("latency", elapsed),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
	)
	return resp, nil
}
