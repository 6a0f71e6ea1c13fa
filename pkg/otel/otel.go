// Package otel wires OpenTelemetry tracing for the batch phases of the
// sentiment tool: corpus loading, training, feature selection and
// evaluation.
package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span this tool creates.
const TracerName = "github.com/fractal-lba/sentiment"

// Config holds OpenTelemetry configuration
type Config struct {
	ServiceName       string
	ServiceVersion    string
	CollectorEndpoint string // Empty disables tracing
	CollectorInsecure bool
	SamplingRate      float64 // 0.0 to 1.0 (1.0 = always sample)
}

// DefaultConfig returns a disabled configuration for serviceName.
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:       serviceName,
		ServiceVersion:    "0.1.0",
		CollectorInsecure: true,
		SamplingRate:      1.0,
	}
}

// InitTracer installs a global tracer provider exporting over OTLP gRPC.
// With no collector endpoint it returns a nil provider and leaves the global
// no-op tracer in place.
func InitTracer(ctx context.Context, config *Config) (*sdktrace.TracerProvider, error) {
	if config == nil || config.CollectorEndpoint == "" {
		return nil, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.CollectorEndpoint)}
	if config.CollectorInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := NewTracerProvider(sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(5*time.Second),
	), res, config.SamplingRate)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// NewTracerProvider builds a provider around processor. A nil resource uses
// the SDK default.
func NewTracerProvider(processor sdktrace.SpanProcessor, res *resource.Resource, samplingRate float64) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRate))),
	}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// Shutdown flushes and stops the tracer provider. A nil provider is a no-op.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return tp.Shutdown(ctx)
}

// StartSpan starts a span on the global provider with the given attributes.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// Phase runs fn inside a span named name and records its error, if any.
func Phase(ctx context.Context, name string, fn func(ctx context.Context, span trace.Span) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, name, attrs...)
	defer span.End()

	err := fn(ctx, span)
	if err != nil {
		RecordError(span, err, name+" failed")
	}
	return err
}

// RecordError records an error on a span with optional message
func RecordError(span trace.Span, err error, message string) {
	if span == nil || err == nil {
		return
	}

	if message != "" {
		span.RecordError(err, trace.WithAttributes(
			attribute.String("error.message", message),
		))
	} else {
		span.RecordError(err)
	}

	span.SetStatus(codes.Error, err.Error())
}

// Attribute keys for sentiment spans
const (
	AttrCorpusDir       = attribute.Key("corpus.dir")
	AttrCorpusPositive  = attribute.Key("corpus.positive")
	AttrCorpusNegative  = attribute.Key("corpus.negative")
	AttrModelName       = attribute.Key("model.name")
	AttrModelVocabulary = attribute.Key("model.vocabulary")
	AttrFeaturesK       = attribute.Key("features.k")
	AttrFeaturesMode    = attribute.Key("features.mode")
	AttrEvalSamples     = attribute.Key("eval.samples")
	AttrEvalAccuracy    = attribute.Key("eval.accuracy")
	AttrEvalF1          = attribute.Key("eval.f1")
)

func CorpusAttributes(dir string, positive, negative int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCorpusDir.String(dir),
		AttrCorpusPositive.Int(positive),
		AttrCorpusNegative.Int(negative),
	}
}

func ModelAttributes(name string, vocabulary int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrModelVocabulary.Int(vocabulary)}
	if name != "" {
		attrs = append(attrs, AttrModelName.String(name))
	}
	return attrs
}

func EvalAttributes(samples int, accuracy, f1 float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEvalSamples.Int(samples),
		AttrEvalAccuracy.Float64(accuracy),
		AttrEvalF1.Float64(f1),
	}
}
