package dashboard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func openStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestBoard(t *testing.T) (*Board, store.Store, *testClock) {
	t.Helper()
	st := openStore(t)
	clock := &testClock{t: time.UnixMilli(1_700_000_000_000)}
	b, err := New(context.Background(), st, Options{Clock: clock.Now})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b, st, clock
}

func ptr[T any](v T) *T { return &v }

// failingStore fails every kanban write and delegates everything else.
type failingStore struct {
	store.Store
}

var errDiskFull = errors.New("disk full")

func (f failingStore) SaveKanbanCards(context.Context, ...models.KanbanCard) error { return errDiskFull }

func (f failingStore) DeleteKanbanCard(context.Context, int64) (bool, error) { return false, errDiskFull }

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestReloadFromStore(t *testing.T) {
	t.Parallel()
	b, st, _ := newTestBoard(t)
	ctx := context.Background()

	card, err := b.CreateCard(ctx, CardInput{Title: "persist me", Tags: ptr("a,b")})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if _, err := b.CreateNote(ctx, "hello"); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if _, err := b.SetStatus(ctx, models.StateWorking); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	b2, err := New(ctx, st, Options{})
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	got, ok := b2.GetCard(card.ID)
	if !ok || !reflect.DeepEqual(got, card) {
		t.Fatalf("reloaded card = %+v, %v; want %+v", got, ok, card)
	}
	if len(b2.ListNotes(Filter{})) != 1 {
		t.Fatal("note not reloaded")
	}
	if b2.GetStatus().Status != models.StateWorking {
		t.Fatalf("status = %q", b2.GetStatus().Status)
	}
	// card_created + note_created + status_changed
	if n := b2.ActivityCount(); n != 3 {
		t.Fatalf("ActivityCount = %d, want 3", n)
	}
}

func TestStorageErrorKeepsMemoryState(t *testing.T) {
	t.Parallel()
	st := failingStore{Store: openStore(t)}
	b, err := New(context.Background(), st, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	card, err := b.CreateCard(ctx, CardInput{Title: "volatile"})
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *StorageError", err)
	}
	if !errors.Is(err, errDiskFull) {
		t.Fatal("StorageError should unwrap to the backend error")
	}
	if serr.Collection != store.CollectionKanban {
		t.Fatalf("Collection = %q", serr.Collection)
	}
	if card.ID != 1 {
		t.Fatalf("card.ID = %d, want 1", card.ID)
	}
	if _, ok := b.GetCard(card.ID); !ok {
		t.Fatal("card should stay in memory after a failed flush")
	}

	ok, err := b.DeleteCard(ctx, card.ID)
	if !ok || !errors.As(err, &serr) {
		t.Fatalf("DeleteCard = %v, %v", ok, err)
	}
	if _, ok := b.GetCard(card.ID); ok {
		t.Fatal("card should be gone from memory")
	}
}

func TestPublishReceivesEvents(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var events []string
	b, err := New(context.Background(), openStore(t), Options{Publish: func(event string, _ any) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.CreateCard(context.Background(), CardInput{Title: "x"}); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != EventCard || events[1] != EventLog {
		t.Fatalf("events = %v", events)
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	} {
		got, err := ParseID(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseID(%q) = %d, %v", tc.in, got, err)
		}
		var verr *ValidationError
		if err != nil && (!errors.As(err, &verr) || verr.Msg != "Invalid ID") {
			t.Errorf("ParseID(%q) error = %v, want ValidationError Invalid ID", tc.in, err)
		}
	}
}
