package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hperssn/blastemst/internal/metrics"
)

// StreamState sends the full state snapshot as a server-sent event whenever
// any part of it changes.
func StreamState(state StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		metrics.SSEClientsConnected.Inc()
		defer metrics.SSEClientsConnected.Dec()

		snapshots := state.Watch(r.Context())
		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}

				data, err := json.Marshal(snap)
				if err != nil {
					slog.Error("Failed to encode state event", "error", err)
					continue
				}
				if _, err := w.Write([]byte("event: state\ndata: ")); err != nil {
					return
				}
				w.Write(data)
				w.Write([]byte("\n\n"))

				flusher.Flush()

			case <-r.Context().Done():
				return
			}
		}
	}
}
