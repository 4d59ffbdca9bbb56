// Package fetcher loads remote resources through two futurecache tables:
// one for in-flight or settled responses and one for their materialized
// bytes.
package fetcher

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	otelapi "go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/flashbots/pdf-gateway/futurecache"
	"github.com/flashbots/pdf-gateway/logutils"
	"github.com/flashbots/pdf-gateway/metrics"
)

const (
	CacheResponses = "responses"
	CacheBuffers   = "buffers"
)

// Fetcher performs the network fetch of a resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// Response is an opaque handle to a fetched resource.
//
// Bytes must be safe to call more than once and from several goroutines;
// Close releases whatever Bytes did not consume.
type Response interface {
	Bytes(ctx context.Context) ([]byte, error)
	Close() error
}

type Coordinator struct {
	fetcher Fetcher

	responses *futurecache.Cache[Response]
	buffers   *futurecache.Cache[[]byte]
}

func New(
	fetcher Fetcher,
	responses *futurecache.Cache[Response],
	buffers *futurecache.Cache[[]byte],
) *Coordinator {
	return &Coordinator{
		fetcher:   fetcher,
		responses: responses,
		buffers:   buffers,
	}
}

// CloseEvicted is the eviction hook of the response table. It closes the
// evicted response once its fetch settles, so bodies that were never
// materialized (or stalled) do not hold on to upstream connections.
// Closing happens off the sweeping goroutine and never blocks the sweep.
func CloseEvicted(_ string, future *futurecache.Future[Response]) {
	go func() {
		<-future.Done()
		if res, err := future.Peek(); err == nil && res != nil {
			_ = res.Close()
		}
	}()
}

// Load returns the bytes of the resource at url, reusing any in-flight or
// settled fetch and materialization of the same url.
func (c *Coordinator) Load(ctx context.Context, url string) ([]byte, error) {
	l := logutils.LoggerFromContext(ctx)
	metrics.ResourceLoadsCount.Add(ctx, 1)

	data, err := c.load(ctx, url)
	if err != nil {
		metrics.ResourceLoadFailureCount.Add(ctx, 1, otelapi.WithAttributes(
			attribute.KeyValue{Key: "reason", Value: attribute.StringValue(failureReason(err))},
		))
		l.Debug("Failed to load resource",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, err
	}

	return data, nil
}

func (c *Coordinator) load(ctx context.Context, url string) ([]byte, error) {
	response, err := c.responses.GetOrCreate(url, func() *futurecache.Future[Response] {
		return futurecache.Go(ctx, func(ctx context.Context) (Response, error) {
			res, err := c.fetcher.Fetch(ctx, url)
			if err != nil {
				return nil, &FetchError{Err: err}
			}
			return res, nil
		})
	}).Wait(ctx)
	if err != nil {
		return nil, &ResourceLoadError{URL: url, Cause: err}
	}

	data, err := c.buffers.GetOrCreate(url, func() *futurecache.Future[[]byte] {
		return futurecache.Go(ctx, func(ctx context.Context) ([]byte, error) {
			data, err := response.Bytes(ctx)
			if err != nil {
				return nil, &MaterializeError{Err: err}
			}
			return data, nil
		})
	}).Wait(ctx)
	if err != nil {
		return nil, &ResourceLoadError{URL: url, Cause: err}
	}

	return data, nil
}

func failureReason(err error) string {
	var (
		fetchErr       *FetchError
		materializeErr *MaterializeError
	)
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &materializeErr):
		return "materialize"
	default:
		return "canceled"
	}
}
