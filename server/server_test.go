package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flashbots/pdf-gateway/config"
	"github.com/flashbots/pdf-gateway/document/documenttest"
	"github.com/flashbots/pdf-gateway/fetcher"
	"github.com/flashbots/pdf-gateway/futurecache"
)

type fixture struct {
	upstream *httptest.Server
	hits     int32
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{}
	pdf := documenttest.Build(
		documenttest.Info{Title: "Annual Report", Author: "ACME"},
		"First page text",
		"Second page text",
	)

	f.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		switch r.URL.Path {
		case "/a.pdf":
			time.Sleep(20 * time.Millisecond)
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(pdf)
		case "/garbage.pdf":
			_, _ = w.Write([]byte("not a pdf"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.upstream.Close)

	cfg := &config.Config{
		Cache:  config.Cache{TTL: 5 * time.Minute, SweepInterval: 5 * time.Minute},
		Render: config.Render{Concurrency: 2},
	}
	loader := fetcher.New(
		fetcher.NewHTTPFetcher(f.upstream.Client(), fetcher.HTTPFetcherConfig{}),
		futurecache.New(fetcher.CacheResponses, cfg.Cache.TTL, futurecache.WithOnEvict(fetcher.CloseEvicted)),
		futurecache.New[[]byte](fetcher.CacheBuffers, cfg.Cache.TTL),
	)
	f.handler = newServer(cfg, loader, zap.NewNop()).handler()

	return f
}

func (f *fixture) get(t *testing.T, path string, query url.Values) (int, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path+"?"+query.Encode(), nil))

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func (f *fixture) documentURL(name string) string {
	return f.upstream.URL + "/" + name
}

func TestCountPages(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/document/count-pages", url.Values{"url": {f.documentURL("a.pdf")}})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["result"])
}

func TestGetMetadata(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/document/get-metadata", url.Values{"url": {f.documentURL("a.pdf")}})
	require.Equal(t, http.StatusOK, status)

	md, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Annual Report", md["title"])
	assert.Equal(t, "ACME", md["author"])
}

func TestToMarkdown(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/document/to-markdown", url.Values{
		"url":         {f.documentURL("a.pdf")},
		"frontmatter": {"true"},
	})
	require.Equal(t, http.StatusOK, status)

	md, ok := body["md"].(string)
	require.True(t, ok)
	assert.Contains(t, md, "title: Annual Report")
	assert.Contains(t, md, "First page text")
	assert.Contains(t, md, "Second page text")
}

func TestPageText(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/document/page-text", url.Values{
		"url":  {f.documentURL("a.pdf")},
		"page": {"2"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["result"], "Second page text")

	for _, page := range []string{"0", "3", "x"} {
		status, body = f.get(t, "/document/page-text", url.Values{
			"url":  {f.documentURL("a.pdf")},
			"page": {page},
		})
		assert.Equal(t, http.StatusBadRequest, status, "page %s", page)
		assert.Equal(t, "Invalid page number", body["error"], "page %s", page)
	}
}

func TestURLRequired(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{
		"/document/get-metadata",
		"/document/count-pages",
		"/document/to-markdown",
		"/document/page-text",
	} {
		status, body := f.get(t, path, url.Values{"page": {"1"}})
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, "URL is required", body["error"], path)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.hits))
}

func TestLoadFailures(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"missing.pdf", "garbage.pdf"} {
		documentURL := f.documentURL(name)
		status, body := f.get(t, "/document/count-pages", url.Values{"url": {documentURL}})
		assert.Equal(t, http.StatusBadRequest, status, name)
		assert.Equal(t, "Failed to load document from URL: "+documentURL, body["error"], name)
		assert.NotContains(t, body["error"], "unexpected HTTP status", name)
		assert.NotContains(t, body["error"], "failed to parse", name)
	}
}

func TestStickyFailureIsNotRefetched(t *testing.T) {
	f := newFixture(t)
	query := url.Values{"url": {f.documentURL("missing.pdf")}}

	f.get(t, "/document/count-pages", query)
	f.get(t, "/document/get-metadata", query)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.hits))
}

func TestConcurrentRequestsShareOneFetch(t *testing.T) {
	f := newFixture(t)
	query := url.Values{"url": {f.documentURL("a.pdf")}}

	paths := []string{
		"/document/get-metadata",
		"/document/count-pages",
		"/document/to-markdown",
		"/document/count-pages",
		"/document/get-metadata",
	}

	var wg sync.WaitGroup
	statuses := make([]int, len(paths))
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path+"?"+query.Encode(), nil))
			statuses[i] = w.Code
		}(i, path)
	}
	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, paths[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.hits))
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/document/count-pages", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
