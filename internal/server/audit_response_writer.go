package server

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// responseWriterWrapper records the status code and keeps the body of
// error responses so the audit entry can carry the error title.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	errBody     bytes.Buffer
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	w.wroteHeader = true
	if w.statusCode >= http.StatusBadRequest {
		w.errBody.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriterWrapper) GetStatusCode() int {
	return w.statusCode
}

func (w *responseWriterWrapper) errorTitle() string {
	var resp errorResponse
	if err := json.Unmarshal(w.errBody.Bytes(), &resp); err != nil {
		return ""
	}
	return resp.Error
}
