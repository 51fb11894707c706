package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
)

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := AuditLogEntry{
			Timestamp:   start,
			Method:      r.Method,
			Path:        r.URL.Path,
			Handler:     handlerName(r),
			ContainerID: mux.Vars(r)["id"],
		}

		if username, _, ok := r.BasicAuth(); ok {
			entry.User = username
		}

		if entry.ContainerID == "" && r.Body != nil && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			entry.ContainerID = peekContainerID(r)
		}

		wrw := newResponseWriterWrapper(w)

		next.ServeHTTP(wrw, r)

		entry.StatusCode = wrw.GetStatusCode()
		entry.Duration = time.Since(start)
		if entry.StatusCode >= http.StatusBadRequest {
			entry.Error = wrw.errorTitle()
		}

		metrics.HTTPRequestDuration.
			WithLabelValues(entry.Handler, strconv.Itoa(entry.StatusCode)).
			Observe(entry.Duration.Seconds())

		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

func handlerName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return "unknown"
}

type peekedBody struct {
	io.Reader
	io.Closer
}

// peekContainerID reads container_id from a JSON body of at most
// maxRequestBytes. The body is always restored in full for the next handler,
// including whatever was left unread past the limit.
func peekContainerID(r *http.Request) string {
	orig := r.Body
	body, err := io.ReadAll(io.LimitReader(orig, maxRequestBytes+1))
	r.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(body), orig), Closer: orig}
	if err != nil || len(body) > maxRequestBytes {
		return ""
	}

	var req containerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	return req.ContainerID
}
