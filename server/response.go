package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/flashbots/pdf-gateway/logutils"
)

type resultResponse struct {
	Result any `json:"result"`
}

type markdownResponse struct {
	Markdown string `json:"md"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	l := logutils.LoggerFromRequest(r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Error("Failed to write the response body",
			zap.Error(err),
		)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorResponse{Error: msg})
}
