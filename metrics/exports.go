package metrics

import (
	otelapi "go.opentelemetry.io/otel/metric"
)

var (
	CacheHitsCount      otelapi.Int64Counter
	CacheMissesCount    otelapi.Int64Counter
	CacheEvictionsCount otelapi.Int64Counter
	CacheEntries        otelapi.Int64Gauge

	ResourceLoadsCount       otelapi.Int64Counter
	ResourceLoadFailureCount otelapi.Int64Counter
	UpstreamFetchCount       otelapi.Int64Counter
	UpstreamFetchBytes       otelapi.Int64Histogram
)
