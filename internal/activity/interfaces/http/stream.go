package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"dnspulse/internal/activity/application"
	activity "dnspulse/internal/activity/domain"
	"dnspulse/internal/observability/metrics"
)

// SSEBroker fans refreshed graph snapshots out to connected clients.
type SSEBroker struct {
	mu      sync.Mutex
	cfg     activity.Config
	clients map[chan []byte]struct{}
}

// NewSSEBroker constructs a broker.
func NewSSEBroker(cfg activity.Config) *SSEBroker {
	return &SSEBroker{cfg: cfg, clients: make(map[chan []byte]struct{})}
}

// Notify implements application.SnapshotNotifier.
func (b *SSEBroker) Notify(_ context.Context, snapshot activity.Snapshot) {
	if b == nil {
		return
	}
	payload, err := json.Marshal(graphResponse(snapshot, b.cfg))
	if err != nil {
		return
	}
	b.broadcast(payload)
}

// Subscribe registers a new client channel.
func (b *SSEBroker) Subscribe() chan []byte {
	if b == nil {
		return nil
	}
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	metrics.IncStreamClients()
	return ch
}

// Unsubscribe removes a client channel. The channel is never closed: a
// broadcast may still hold a reference to it after the delete, and sending
// on a closed channel would panic. The handler exits through its request
// context instead, and the orphaned channel is garbage-collected.
func (b *SSEBroker) Unsubscribe(ch chan []byte) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	metrics.DecStreamClients()
}

func (b *SSEBroker) broadcast(payload []byte) {
	b.mu.Lock()
	clients := make([]chan []byte, 0, len(b.clients))
	for ch := range b.clients {
		clients = append(clients, ch)
	}
	b.mu.Unlock()
	for _, ch := range clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

var _ application.SnapshotNotifier = (*SSEBroker)(nil)

// StreamHandler serves the SSE graph stream.
type StreamHandler struct {
	broker *SSEBroker
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *SSEBroker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

// ServeHTTP handles GET /api/v1/graph/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.broker.Subscribe()
	if ch == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	defer h.broker.Unsubscribe(ch)

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case payload := <-ch:
			_, _ = w.Write([]byte("event: graph\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
