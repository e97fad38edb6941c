package dashboard

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

func TestDefaultSeed(t *testing.T) {
	t.Parallel()
	b, st, _ := newTestBoard(t)
	ctx := context.Background()

	// Existing cards are replaced.
	mustCreate(t, b, CardInput{Title: "old"})

	data, err := DefaultSeed()
	if err != nil {
		t.Fatal(err)
	}
	res, err := b.Seed(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cards != 14 || res.BrainCards != 5 {
		t.Fatalf("Seed = %+v", res)
	}

	cards := b.ListCards(Filter{})
	if len(cards) != 14 {
		t.Fatalf("cards = %d", len(cards))
	}
	for _, status := range models.KanbanStatuses {
		for i, c := range b.Column(status) {
			if c.Order != i {
				t.Fatalf("%s[%d] order = %d", status, i, c.Order)
			}
		}
	}
	if got := len(b.Column(models.StatusInProgress)); got != 4 {
		t.Fatalf("in_progress = %d, want 4", got)
	}
	first, ok := b.GetCard(1)
	if !ok || first.Tags == nil || !json.Valid([]byte(*first.Tags)) {
		t.Fatalf("card 1 = %+v", first)
	}

	stored, err := st.LoadKanbanCards(ctx)
	if err != nil || len(stored) != 14 {
		t.Fatalf("stored cards = %d, %v", len(stored), err)
	}
	brain, err := st.LoadBrainCards(ctx)
	if err != nil || len(brain) != 5 {
		t.Fatalf("stored brain = %d, %v", len(brain), err)
	}

	latest := b.PageActivity(PageRequest{Limit: 1}).Logs[0]
	if latest.ActionType != models.ActionSeedData {
		t.Fatalf("latest action = %q", latest.ActionType)
	}

	// Ids restart after a seed, new cards continue from the seeded ones.
	next := mustCreate(t, b, CardInput{Title: "after seed"})
	if next.ID != 15 {
		t.Fatalf("next id = %d, want 15", next.ID)
	}
}

func TestSeedRejectsInvalidData(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBoard(t)
	keep := mustCreate(t, b, CardInput{Title: "keep"})

	bad, err := ParseSeed([]byte("tasks:\n  - title: x\n    status: blocked\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Seed(context.Background(), bad); err == nil {
		t.Fatal("invalid status should be rejected")
	}
	if _, ok := b.GetCard(keep.ID); !ok {
		t.Fatal("rejected seed must not touch existing cards")
	}
	if _, err := ParseSeed([]byte("tasks: [")); err == nil {
		t.Fatal("malformed YAML should fail")
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	mustCreate(t, b, CardInput{Title: "card"})
	if _, err := b.CreateNote(ctx, "note"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.CreateDoc(ctx, DocInput{Title: "doc", Content: "body"}); err != nil {
		t.Fatal(err)
	}

	s := b.Snapshot()
	if s.Driver != "sqlite" || len(s.Kanban) != 1 || len(s.Notes) != 1 || len(s.Docs) != 1 || len(s.Activity) != 3 {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.Activity[0].ActionType != models.ActionCardCreated || s.Activity[0].Metadata == "" {
		t.Fatalf("first entry = %+v", s.Activity[0])
	}
}

func TestParseFilter(t *testing.T) {
	t.Parallel()
	f := ParseFilter(url.Values{
		"status":      {" review "},
		"q":           {"deploy"},
		"auto_pickup": {"maybe"},
		"seen":        {"true"},
		"unknown":     {"x"},
	})
	if f.Status != "review" || f.Search != "deploy" || f.AutoPickup != nil || f.Seen == nil || !*f.Seen {
		t.Fatalf("ParseFilter = %+v", f)
	}
	if got := ParseFilter(url.Values{"search": {"a"}, "q": {"b"}}).Search; got != "a" {
		t.Fatalf("search should win over q, got %q", got)
	}
}

func TestFilterIsConjunction(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBoard(t)
	mustCreate(t, b, CardInput{Title: "alpha", Priority: models.PriorityHigh})
	mustCreate(t, b, CardInput{Title: "alpha two", Priority: models.PriorityLow})
	mustCreate(t, b, CardInput{Title: "beta", Priority: models.PriorityHigh})

	got := b.ListCards(Filter{Search: "ALPHA", Priority: models.PriorityHigh})
	if len(got) != 1 || got[0].Title != "alpha" {
		t.Fatalf("ListCards = %+v", got)
	}
}
