package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitMetrics_RecordCardOp(t *testing.T) {
	ctx := context.Background()
	_, err := Setup(ctx, "metrics-test", "")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordCardOp(ctx, "create", "backlog")
	RecordCardOp(ctx, "move", "in_progress")
	RecordStorageError(ctx, "kanban_cards")
}

func TestAddSSEConnection_RemoveSSEConnection(t *testing.T) {
	AddSSEConnection()
	AddSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection() // should not go negative
	if n := sseActive.Load(); n != 0 {
		t.Fatalf("sseActive = %d, want 0", n)
	}
}

func TestRecordChatRenderSSE(t *testing.T) {
	ctx := context.Background()
	_, _ = Setup(ctx, "record-test", "")
	_ = InitMetrics(ctx)
	RecordChatMessage(ctx, "general")
	RecordRender(ctx, 3*time.Millisecond)
	RecordSSEEvent(ctx)
}

func TestInitMetricsWithCardCount(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, "cardcount-test", "")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	err = InitMetricsWithCardCount(ctx, func() map[string]int64 {
		return map[string]int64{"backlog": 2, "done": 1}
	})
	if err != nil {
		t.Fatalf("InitMetricsWithCardCount: %v", err)
	}
	rec := httptest.NewRecorder()
	p.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics: status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jet_cards_total") {
		t.Fatalf("expected jet_cards_total in output, got:\n%s", rec.Body.String())
	}
}

func TestInitMetricsWithCardCount_nilFunc(t *testing.T) {
	ctx := context.Background()
	_, _ = Setup(ctx, "cardcount-nil-test", "")
	err := InitMetricsWithCardCount(ctx, nil)
	if err != nil {
		t.Fatalf("InitMetricsWithCardCount(nil): %v", err)
	}
}
