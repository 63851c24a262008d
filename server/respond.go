package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ahump20/espn-fantasy-proxy/observe"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body. Raw upstream payloads are
// written through unmodified so the proxy never re-encodes what the
// upstream already produced.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch body := v.(type) {
	case json.RawMessage:
		_, _ = w.Write(body)
	case []byte:
		_, _ = w.Write(body)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// upstreamError maps any failure from the upstream client to a 500 with
// the error text in the body, after logging it. Upstream failures are
// never cached; the cache layer only stores successful responses.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "upstream fetch failed",
		observe.Field{Key: "path", Value: r.URL.Path},
		observe.Field{Key: "error", Value: err.Error()},
	)
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

// pathInt reads an integer path segment, writing a 400 and returning
// false when it does not parse.
func (s *Server) pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.PathValue(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return v, true
}

// queryInt reads a required integer query parameter, writing a 400 and
// returning false when it is absent or malformed.
func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s query parameter is required", name))
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return v, true
}

// queryIntDefault reads an optional integer query parameter, falling
// back to def when absent. A malformed value is still a 400.
func (s *Server) queryIntDefault(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return v, true
}

// queryDate reads a required YYYYMMDD query parameter.
func (s *Server) queryDate(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s query parameter is required", name))
		return "", false
	}
	if !validDate(raw) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a YYYYMMDD date", name))
		return "", false
	}
	return raw, true
}

func validDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
