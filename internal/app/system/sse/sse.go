// Package sse writes Server-Sent Events frames. Each event carries one JSON
// document; clients re-render from the full payload, so there is no event id
// or resume protocol.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Prepare sets the SSE response headers and returns the flusher. An error
// means the underlying writer cannot stream.
func Prepare(w http.ResponseWriter) (http.Flusher, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return f, nil
}

// Send writes v as one data frame and flushes it.
func Send(w http.ResponseWriter, f http.Flusher, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	f.Flush()
	return nil
}
