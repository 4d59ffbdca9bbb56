package metrics

import (
	"context"

	"go.opentelemetry.io/otel/exporters/prometheus"
	otelapi "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	metricsNamespace = "pdf-gateway"
)

var (
	meter otelapi.Meter
)

func init() {
	// instruments must be usable (as no-ops) before Setup is called
	meter = noop.NewMeterProvider().Meter(metricsNamespace)
	if err := setupInstruments(context.Background()); err != nil {
		panic(err)
	}
}

func Setup(ctx context.Context) error {
	for _, setup := range []func(context.Context) error{
		setupMeter, // must come first
		setupInstruments,
	} {
		if err := setup(ctx); err != nil {
			return err
		}
	}

	return nil
}

func setupMeter(ctx context.Context) error {
	res, err := resource.New(ctx)
	if err != nil {
		return err
	}

	exporter, err := prometheus.New(
		prometheus.WithNamespace(metricsNamespace),
		prometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return err
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	meter = provider.Meter(metricsNamespace)

	return nil
}

func setupInstruments(_ context.Context) error {
	var err error

	if CacheHitsCount, err = meter.Int64Counter("cache_hits_count",
		otelapi.WithDescription("count of cache lookups served by an existing entry"),
	); err != nil {
		return err
	}

	if CacheMissesCount, err = meter.Int64Counter("cache_misses_count",
		otelapi.WithDescription("count of cache lookups that created a new entry"),
	); err != nil {
		return err
	}

	if CacheEvictionsCount, err = meter.Int64Counter("cache_evictions_count",
		otelapi.WithDescription("count of cache entries removed by the expiry sweep"),
	); err != nil {
		return err
	}

	if CacheEntries, err = meter.Int64Gauge("cache_entries",
		otelapi.WithDescription("number of entries currently held by a cache"),
	); err != nil {
		return err
	}

	if ResourceLoadsCount, err = meter.Int64Counter("resource_loads_count",
		otelapi.WithDescription("count of resource loads requested by route handlers"),
	); err != nil {
		return err
	}

	if ResourceLoadFailureCount, err = meter.Int64Counter("resource_load_failures_count",
		otelapi.WithDescription("count of resource loads that ended with an error"),
	); err != nil {
		return err
	}

	if UpstreamFetchCount, err = meter.Int64Counter("upstream_fetch_count",
		otelapi.WithDescription("count of network fetches issued upstream"),
	); err != nil {
		return err
	}

	if UpstreamFetchBytes, err = meter.Int64Histogram("upstream_fetch_bytes",
		otelapi.WithDescription("size of materialized upstream responses"),
		otelapi.WithUnit("By"),
	); err != nil {
		return err
	}

	return nil
}
