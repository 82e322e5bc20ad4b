package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) enabled() bool {
	return c.GrpcEndpoint != "" || c.HttpEndpoint != ""
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

var active struct {
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
}

// Setup wires the global otel providers to OTLP exporters. A config
// with no endpoints leaves the no-op globals in place, spans and
// metrics then cost nearly nothing.
func Setup(ctx context.Context, serviceName string, config Config) error {
	if !config.Otlp.Traces.enabled() && !config.Otlp.Metrics.enabled() {
		slog.Debug("telemetry disabled, no otlp endpoints configured")
		return nil
	}

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	if config.Otlp.Traces.enabled() {
		tracerProvider, err := newTraceProvider(ctx, r, config)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tracerProvider)
		active.tracerProvider = tracerProvider
	}

	if config.Otlp.Metrics.enabled() {
		meterProvider, err := newMetricProvider(ctx, r, config)
		if err != nil {
			return err
		}
		otel.SetMeterProvider(meterProvider)
		active.meterProvider = meterProvider
	}

	return nil
}

// searches up the filesystem from the cwd to find a file called
// telemetry.json5, once found it is used as the config to set up
// telemetry. Running without one is fine, everything stays no-op.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if os.IsNotExist(err) {
		slog.Debug("no telemetry.json5 found, telemetry disabled")
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}

// Shutdown flushes and stops whatever providers Setup installed.
func Shutdown(ctx context.Context) error {
	var errlist []error
	if active.tracerProvider != nil {
		if err := active.tracerProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
		active.tracerProvider = nil
	}
	if active.meterProvider != nil {
		if err := active.meterProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
		active.meterProvider = nil
	}
	return errors.Join(errlist...)
}

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once
func SetupForTesting(serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		panic(err)
	}

	return func() {
		err := Shutdown(context.Background())
		if err != nil {
			panic(err)
		}
	}
}
