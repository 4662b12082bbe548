package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vudy/otc-desk/internal/events"
	"github.com/vudy/otc-desk/internal/logger"
)

// heartbeatInterval is how often an SSE comment is written to keep
// intermediaries from closing an idle stream.
const heartbeatInterval = 15 * time.Second

// EventSubscriber registers dashboard sessions on the event bus.
type EventSubscriber interface {
	Subscribe(buffer int) *events.Subscription
}

// NewEventsHandler returns the Server-Sent-Events stream of trade events.
// Events are a cache-coherence convenience, not a source of truth: a client
// that misses events re-polls the transaction endpoints.
// @Summary Trade event stream
// @Description Long-lived SSE stream of lifecycle events for live dashboards. Pass the configured streamKey when one is set.
// @Tags events
// @Produce text/event-stream
// @Param streamKey query string false "Stream access key"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} handlers.TransactionErrorResponse "Invalid stream key"
// @Router /events [get]
func NewEventsHandler(bus EventSubscriber, streamKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if streamKey != "" && r.URL.Query().Get("streamKey") != streamKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid stream key"})
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Streaming unsupported"})
			return
		}

		sub := bus.Subscribe(16)
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return

			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()

			case ev, open := <-sub.C:
				if !open {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					logger.Log.Errorw("failed to marshal trade event", "event", ev.Event, "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
