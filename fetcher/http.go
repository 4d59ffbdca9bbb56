package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelapi "go.opentelemetry.io/otel/metric"

	"github.com/flashbots/pdf-gateway/metrics"
)

// maxErrorBody caps how much of a non-2xx body ends up in the error.
const maxErrorBody = 512

type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

type HTTPFetcherConfig struct {
	// Timeout covers the request and the body read. Zero disables it.
	Timeout   time.Duration
	UserAgent string
}

func NewHTTPFetcher(client *http.Client, cfg HTTPFetcherConfig) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		client:    client,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Response, error) {
	// the body outlives this call; Close cancels it
	var cancel context.CancelFunc
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("user-agent", f.userAgent)
	}

	res, err := f.client.Do(req)
	if err != nil {
		cancel()
		f.record("error")
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer cancel()
		defer res.Body.Close()
		f.record("status")

		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("%w '%d': %s",
			ErrUnexpectedStatus,
			res.StatusCode,
			string(body),
		)
	}

	f.record("ok")
	return &httpResponse{res: res, cancel: cancel}, nil
}

func (f *HTTPFetcher) record(outcome string) {
	metrics.UpstreamFetchCount.Add(context.Background(), 1, otelapi.WithAttributes(
		attribute.KeyValue{Key: "outcome", Value: attribute.StringValue(outcome)},
	))
}

// httpResponse reads its body at most once; later calls to Bytes see the
// result of the first read.
type httpResponse struct {
	res    *http.Response
	cancel context.CancelFunc

	once sync.Once
	data []byte
	err  error
}

func (r *httpResponse) Bytes(_ context.Context) ([]byte, error) {
	r.once.Do(func() {
		defer r.cancel()
		defer r.res.Body.Close()

		r.data, r.err = io.ReadAll(r.res.Body)
		if r.err == nil {
			metrics.UpstreamFetchBytes.Record(context.Background(), int64(len(r.data)))
		}
	})
	return r.data, r.err
}

// Close aborts a body read that is still in progress and releases the
// connection. Bytes returns ErrResponseClosed if it had not run yet.
func (r *httpResponse) Close() error {
	r.cancel()

	var err error
	r.once.Do(func() {
		r.err = ErrResponseClosed
		err = r.res.Body.Close()
	})
	return err
}
