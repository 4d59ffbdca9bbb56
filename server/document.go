package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/flashbots/pdf-gateway/document"
	"github.com/flashbots/pdf-gateway/logutils"
)

// Client-facing error messages.
const (
	msgURLRequired = "URL is required"
	msgInvalidPage = "Invalid page number"
	msgLoadFailed  = "Failed to load document from URL: %s"
	msgServerBusy  = "Server is busy, try again later"
)

var (
	errServerBusy    = errors.New("server is shutting down or the request was cancelled")
	errFailedToParse = errors.New("failed to parse document")
)

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	s.withDocument(w, r, func(doc *document.Document) (any, error) {
		return resultResponse{Result: doc.Metadata()}, nil
	})
}

func (s *Server) handleCountPages(w http.ResponseWriter, r *http.Request) {
	s.withDocument(w, r, func(doc *document.Document) (any, error) {
		return resultResponse{Result: doc.PageCount()}, nil
	})
}

func (s *Server) handleToMarkdown(w http.ResponseWriter, r *http.Request) {
	opts := document.MarkdownOptions{
		FrontMatter:    queryFlag(r, "frontmatter"),
		PageSeparators: queryFlag(r, "page_separators"),
	}

	s.withDocument(w, r, func(doc *document.Document) (any, error) {
		md, err := doc.Markdown(opts)
		if err != nil {
			return nil, err
		}
		return markdownResponse{Markdown: md}, nil
	})
}

func (s *Server) handlePageText(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, msgInvalidPage)
		return
	}

	s.withDocument(w, r, func(doc *document.Document) (any, error) {
		text, err := doc.PageText(page)
		if err != nil {
			return nil, err
		}
		return resultResponse{Result: text}, nil
	})
}

// withDocument loads and parses the document named by the url query
// parameter and writes whatever op returns as JSON.
func (s *Server) withDocument(
	w http.ResponseWriter,
	r *http.Request,
	op func(doc *document.Document) (any, error),
) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.writeError(w, r, http.StatusBadRequest, msgURLRequired)
		return
	}

	res, err := s.runOnDocument(r.Context(), url, op)
	if err != nil {
		switch {
		case errors.Is(err, document.ErrInvalidPage):
			s.writeError(w, r, http.StatusBadRequest, msgInvalidPage)
		case errors.Is(err, errServerBusy):
			s.writeError(w, r, http.StatusServiceUnavailable, msgServerBusy)
		default:
			logutils.LoggerFromRequest(r).Warn("Failed to process document",
				zap.Error(err),
			)
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf(msgLoadFailed, url))
		}
		return
	}

	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) runOnDocument(
	ctx context.Context,
	url string,
	op func(doc *document.Document) (any, error),
) (any, error) {
	data, err := s.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := s.renders.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", errServerBusy, err)
	}
	defer s.renders.Release(1)

	doc, err := document.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToParse, err)
	}

	return op(doc)
}

func queryFlag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
