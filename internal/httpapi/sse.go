package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/otel"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

const (
	sseKeepalive = 30 * time.Second
	sseRetryMs   = 3000
)

// SSEHub fans events out to every /stream subscriber. A subscriber whose
// buffer is full misses the event; publishers never block.
type SSEHub struct {
	mu        sync.RWMutex
	subs      map[chan []byte]struct{}
	closed    bool
	keepalive time.Duration
}

func NewSSEHub() *SSEHub {
	return &SSEHub{subs: make(map[chan []byte]struct{}), keepalive: sseKeepalive}
}

// Subscribe registers a new subscriber. After Close it returns an already
// closed channel.
func (h *SSEHub) Subscribe() chan []byte {
	ch := make(chan []byte, models.DefaultSSEChannelBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	otel.AddSSEConnection()
	return ch
}

func (h *SSEHub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
	otel.RemoveSSEConnection()
}

// Close disconnects every subscriber so open streams return.
func (h *SSEHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
		otel.RemoveSSEConnection()
	}
}

func (h *SSEHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishJSON marshals v and queues it for every subscriber.
func (h *SSEHub) PublishJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	otel.RecordSSEEvent(context.Background())
	for ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
}

func writeEvent(w io.Writer, data []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// Handler streams hub events as text/event-stream until the client goes
// away or the hub is closed.
func (h *SSEHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		// Streams outlive the server's WriteTimeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		hdr := w.Header()
		hdr.Set("Content-Type", "text/event-stream")
		hdr.Set("Cache-Control", "no-cache")
		hdr.Set("Connection", "keep-alive")
		hdr.Set("X-Accel-Buffering", "no")

		ch := h.Subscribe()
		defer h.Unsubscribe(ch)

		_, _ = fmt.Fprintf(w, "retry: %d\n", sseRetryMs)
		if writeEvent(w, []byte(`{"type":"connected"}`)) != nil {
			return
		}
		flusher.Flush()

		tick := time.NewTicker(h.keepalive)
		defer tick.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-tick.C:
				if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
					return
				}
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if writeEvent(w, msg) != nil {
					return
				}
			}
			flusher.Flush()
		}
	}
}
