package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

func openOrSkip(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping postgres test")
	}
	st, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return st
}

func TestOpen_skipIfNoDatabaseURL(t *testing.T) {
	st := openOrSkip(t)
	if st.Driver() != "postgres" {
		t.Fatalf("Driver = %q", st.Driver())
	}
	cards, err := st.LoadKanbanCards(context.Background())
	if err != nil {
		t.Fatalf("LoadKanbanCards: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected empty board after reset, got %d", len(cards))
	}
}

func TestKanbanBatchAndActivity(t *testing.T) {
	st := openOrSkip(t)
	ctx := context.Background()

	desc := "d"
	cards := []models.KanbanCard{
		{ID: 1, Title: "a", Status: models.StatusBacklog, Priority: models.PriorityMedium, Order: 0, CreatedDate: 1, UpdatedDate: 1},
		{ID: 2, Title: "b", Description: &desc, Status: models.StatusBacklog, Priority: models.PriorityUrgent, AutoPickup: true, Order: 1, CreatedDate: 2, UpdatedDate: 2},
	}
	if err := st.SaveKanbanCards(ctx, cards...); err != nil {
		t.Fatalf("SaveKanbanCards: %v", err)
	}
	got, err := st.LoadKanbanCards(ctx)
	if err != nil || len(got) != 2 {
		t.Fatalf("LoadKanbanCards = %+v, %v", got, err)
	}
	if got[1].Description == nil || *got[1].Description != "d" || !got[1].AutoPickup {
		t.Fatalf("card 2 = %+v", got[1])
	}

	meta := json.RawMessage(`{"k":"v"}`)
	if err := st.AppendActivity(ctx, models.ActivityEntry{ID: 1, Timestamp: 1, ActionType: "t", Description: "d", Metadata: meta}); err != nil {
		t.Fatalf("AppendActivity: %v", err)
	}
	entries, err := st.LoadActivity(ctx)
	if err != nil || len(entries) != 1 || string(entries[0].Metadata) != `{"k":"v"}` {
		t.Fatalf("LoadActivity = %+v, %v", entries, err)
	}

	if ok, err := st.DeleteKanbanCard(ctx, 42); err != nil || ok {
		t.Fatalf("DeleteKanbanCard(42) = %v, %v", ok, err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := store.LoadMigrations(migrationsFS, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	if len(migs) == 0 || migs[0].Version != 1 {
		t.Fatalf("migrations = %+v", migs)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Open(""); err == nil {
		t.Fatal("Open without DSN should fail")
	}
	if _, err := Open("://not a url"); err == nil {
		t.Fatal("Open with a bad DSN should fail")
	}
}
