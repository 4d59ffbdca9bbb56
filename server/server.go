package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/flashbots/pdf-gateway/config"
	"github.com/flashbots/pdf-gateway/fetcher"
	"github.com/flashbots/pdf-gateway/futurecache"
	"github.com/flashbots/pdf-gateway/httplogger"
	"github.com/flashbots/pdf-gateway/janitor"
	"github.com/flashbots/pdf-gateway/logutils"
)

// Loader returns the bytes of the document at a URL.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

type Server struct {
	cfg *config.Config

	failure chan error

	logger *zap.Logger
	server *http.Server

	loader  Loader
	janitor *janitor.Janitor
	renders *semaphore.Weighted
}

// New is the composition root: it owns both caches, the coordinator on
// top of them, and the janitor that sweeps them.
func New(cfg *config.Config) (*Server, error) {
	responses := futurecache.New(fetcher.CacheResponses, cfg.Cache.TTL,
		futurecache.WithOnEvict(fetcher.CloseEvicted),
	)
	buffers := futurecache.New[[]byte](fetcher.CacheBuffers, cfg.Cache.TTL)

	upstream := fetcher.NewHTTPFetcher(&http.Client{}, fetcher.HTTPFetcherConfig{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
	})

	s := newServer(cfg, fetcher.New(upstream, responses, buffers), zap.L())
	s.janitor = janitor.New(cfg.Cache.SweepInterval, responses, buffers)

	return s, nil
}

func newServer(cfg *config.Config, loader Loader, logger *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		failure: make(chan error, 1),
		logger:  logger,
		loader:  loader,
		renders: semaphore.NewWeighted(int64(cfg.Render.Concurrency)),
	}

	s.server = &http.Server{
		Addr:              cfg.Server.ListenAddress,
		ErrorLog:          logutils.NewHttpServerErrorLogger(s.logger),
		Handler:           s.handler(),
		MaxHeaderBytes:    8 * 1024,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	return s
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /document/get-metadata", s.handleGetMetadata)
	mux.HandleFunc("GET /document/count-pages", s.handleCountPages)
	mux.HandleFunc("GET /document/to-markdown", s.handleToMarkdown)
	mux.HandleFunc("GET /document/page-text", s.handlePageText)
	mux.Handle("GET /metrics", promhttp.Handler())

	return httplogger.Middleware(s.logger, cors.AllowAll().Handler(mux))
}

func (s *Server) Run() error {
	l := s.logger
	ctx := logutils.ContextWithLogger(context.Background(), l)

	if s.janitor != nil {
		s.janitor.Start(ctx)
		l.Info("Cache janitor started",
			zap.Duration("sweep_interval", s.cfg.Cache.SweepInterval),
			zap.Duration("ttl", s.cfg.Cache.TTL),
		)
	}

	go func() { // run the server
		l.Info("PDF gateway server is going up...",
			zap.String("server_listen_address", s.cfg.Server.ListenAddress),
		)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.failure <- err
		}
		l.Info("PDF gateway server is down")
	}()

	errs := []error{}
	{ // wait until termination or internal failure
		terminator := make(chan os.Signal, 1)
		signal.Notify(terminator, os.Interrupt, syscall.SIGTERM)

		select {
		case stop := <-terminator:
			l.Info("Stop signal received; shutting down...",
				zap.String("signal", stop.String()),
			)
		case err := <-s.failure:
			l.Error("Internal failure; shutting down...",
				zap.Error(err),
			)
			errs = append(errs, err)
		exhaustErrors:
			for { // exhaust the errors
				select {
				case err := <-s.failure:
					l.Error("Extra internal failure",
						zap.Error(err),
					)
					errs = append(errs, err)
				default:
					break exhaustErrors
				}
			}
		}
	}

	{ // stop the server
		ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			l.Error("PDF gateway server shutdown failed",
				zap.Error(err),
			)
		}
	}

	if s.janitor != nil { // stop the janitor
		s.janitor.Stop()
		l.Info("Cache janitor stopped")
	}

	switch len(errs) {
	default:
		return errors.Join(errs...)
	case 1:
		return errs[0]
	case 0:
		return nil
	}
}
