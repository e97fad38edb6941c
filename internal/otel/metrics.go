package otel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	cardOps      metric.Int64Counter
	storageErrs  metric.Int64Counter
	chatMessages metric.Int64Counter
	sseEvents    metric.Int64Counter
	render       metric.Float64Histogram
}

var (
	initOnce  sync.Once
	initErr   error
	active    atomic.Pointer[instruments]
	sseActive atomic.Int64
)

// InitMetrics creates jet's instruments on the global meter. Only the first
// call does anything. Until it succeeds the Record functions are no-ops.
func InitMetrics(ctx context.Context) error {
	initOnce.Do(func() { initErr = initInstruments() })
	return initErr
}

func initInstruments() error {
	m := Meter()
	var in instruments
	var err error
	counters := []struct {
		dest *metric.Int64Counter
		name string
		desc string
	}{
		{&in.cardOps, "jet_card_operations_total", "Kanban card operations by operation and status column"},
		{&in.storageErrs, "jet_storage_errors_total", "Write-through flushes that failed"},
		{&in.chatMessages, "jet_chat_messages_total", "Chat messages sent per session"},
		{&in.sseEvents, "jet_sse_events_total", "Events published to /stream subscribers"},
	}
	for _, c := range counters {
		if *c.dest, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return err
		}
	}
	in.render, err = m.Float64Histogram("jet_doc_render_duration_seconds",
		metric.WithDescription("Markdown render time for cache misses"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}
	_, err = m.Int64ObservableGauge("jet_sse_connections",
		metric.WithDescription("Open /stream connections"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(sseActive.Load())
			return nil
		}))
	if err != nil {
		return err
	}
	active.Store(&in)
	return nil
}

func RecordCardOp(ctx context.Context, op, status string) {
	if in := active.Load(); in != nil {
		in.cardOps.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op), AttrStatus.String(status)))
	}
}

// RecordStorageError counts a failed write-through flush for collection.
func RecordStorageError(ctx context.Context, collection string) {
	if in := active.Load(); in != nil {
		in.storageErrs.Add(ctx, 1, metric.WithAttributes(AttrCollection.String(collection)))
	}
}

func RecordChatMessage(ctx context.Context, session string) {
	if in := active.Load(); in != nil {
		in.chatMessages.Add(ctx, 1, metric.WithAttributes(AttrSession.String(session)))
	}
}

func RecordRender(ctx context.Context, d time.Duration) {
	if in := active.Load(); in != nil {
		in.render.Record(ctx, d.Seconds())
	}
}

func RecordSSEEvent(ctx context.Context) {
	if in := active.Load(); in != nil {
		in.sseEvents.Add(ctx, 1)
	}
}

// AddSSEConnection and RemoveSSEConnection track open streams for the
// jet_sse_connections gauge. The count never goes below zero.
func AddSSEConnection() { sseActive.Add(1) }

func RemoveSSEConnection() {
	for {
		n := sseActive.Load()
		if n <= 0 || sseActive.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// CardCountFunc reports the number of kanban cards per status.
type CardCountFunc func() map[string]int64

// InitMetricsWithCardCount is InitMetrics plus a jet_cards_total gauge fed
// by cardCount. A nil cardCount skips the gauge.
func InitMetricsWithCardCount(ctx context.Context, cardCount CardCountFunc) error {
	if err := InitMetrics(ctx); err != nil || cardCount == nil {
		return err
	}
	_, err := Meter().Int64ObservableGauge("jet_cards_total",
		metric.WithDescription("Kanban cards by status"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for status, n := range cardCount() {
				o.Observe(n, metric.WithAttributes(AttrStatus.String(status)))
			}
			return nil
		}))
	return err
}
