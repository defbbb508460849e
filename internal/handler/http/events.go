package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Pratikmahatara/Shoe/internal/cart"
	"github.com/Pratikmahatara/Shoe/pkg/logger"
)

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 15 * time.Second

// EventsHandler streams cart changes as Server-Sent Events. Every event
// carries the full cart summary; clients never apply diffs.
type EventsHandler struct {
	registry  *cart.Registry
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewEventsHandler creates the stream handler.
func NewEventsHandler(registry *cart.Registry, heartbeat time.Duration, logger *slog.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &EventsHandler{registry: registry, heartbeat: heartbeat, logger: logger}
}

// Stream handles GET /api/v1/cart/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)
	store := h.registry.Store(cartIDFromRequest(r))

	sub := store.Subscribe()
	defer sub.Close()

	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	l := logger.FromContext(ctx)
	var seq int
	send := func() bool {
		summary, err := store.Summary(ctx)
		if err != nil {
			l.WarnContext(ctx, "cart stream read failed", slog.String("error", err.Error()))
			return ctx.Err() == nil
		}
		data, err := json.Marshal(summary)
		if err != nil {
			return false
		}
		seq++
		if _, err := fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", seq, data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.C():
			if !send() {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if rc.Flush() != nil {
				return
			}
		}
	}
}
