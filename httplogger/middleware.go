package httplogger

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/flashbots/pdf-gateway/logutils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-Id"

func Middleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Generate request ID (`base64` to shorten its string representation)
		_uuid := [16]byte(uuid.New())
		httpRequestID := base64.RawURLEncoding.EncodeToString(_uuid[:])
		w.Header().Set(headerRequestID, httpRequestID)

		l := logger.With(
			zap.String("httpRequestID", httpRequestID),
			zap.String("logType", "activity"),
		)
		if documentURL := r.URL.Query().Get("url"); documentURL != "" {
			l = l.With(zap.String("documentURL", documentURL))
		}
		r = logutils.RequestWithLogger(r, l)

		start := time.Now()
		wrapped := wrapResponseWriter(w)

		// Handle panics
		defer func() {
			if msg := recover(); msg != nil {
				wrapped.WriteHeader(http.StatusInternalServerError)
				l.Error("HTTP request handler panicked",
					zap.Any("error", msg),
					zap.String("method", r.Method),
					zap.String("url", r.URL.EscapedPath()),
				)
			}

			// Passing request stats both in-message (for the human reader)
			// as well as inside the structured log (for the machine parser)
			logger.Info(fmt.Sprintf("%s %s %d", r.Method, r.URL.EscapedPath(), wrapped.Status()),
				zap.Int("durationMs", int(time.Since(start).Milliseconds())),
				zap.Int("status", wrapped.Status()),
				zap.String("httpRequestID", httpRequestID),
				zap.String("logType", "access"),
				zap.String("method", r.Method),
				zap.String("path", r.URL.EscapedPath()),
				zap.String("userAgent", r.Header.Get("user-agent")),
			)
		}()

		next.ServeHTTP(wrapped, r)
	})
}
