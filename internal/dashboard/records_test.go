package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

func TestBrainLifecycle(t *testing.T) {
	t.Parallel()
	b, _, clock := newTestBoard(t)
	ctx := context.Background()

	older, err := b.CreateBrain(ctx, BrainInput{Title: "Routing", Content: ptr("Haiku for simple tasks"), Category: ptr("strategy")})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	newer, err := b.CreateBrain(ctx, BrainInput{Title: "Avatar", Tags: ptr(`["ui"]`), Category: ptr("design")})
	if err != nil {
		t.Fatal(err)
	}

	list := b.ListBrain(Filter{})
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("ListBrain should be newest first: %+v", list)
	}
	if got := b.ListBrain(Filter{Category: "STRATEGY"}); len(got) != 1 || got[0].ID != older.ID {
		t.Fatalf("category filter = %+v", got)
	}
	if got := b.ListBrain(Filter{Search: "haiku"}); len(got) != 1 {
		t.Fatalf("search = %+v", got)
	}

	updated, ok, err := b.UpdateBrain(ctx, older.ID, BrainPatch{Content: ptr("Opus for critical decisions")})
	if err != nil || !ok || updated.Title != "Routing" || *updated.Content != "Opus for critical decisions" {
		t.Fatalf("UpdateBrain = %+v, %v, %v", updated, ok, err)
	}
	if _, _, err := b.UpdateBrain(ctx, older.ID, BrainPatch{Title: ptr(" ")}); err == nil {
		t.Fatal("blank title should be rejected")
	}

	if _, err := b.CreateBrain(ctx, BrainInput{}); err == nil {
		t.Fatal("CreateBrain without title should fail")
	}
}

func TestDeleteMissingBrainCard(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	if _, err := b.CreateBrain(ctx, BrainInput{Title: "keep"}); err != nil {
		t.Fatal(err)
	}
	before := b.ActivityCount()

	ok, err := b.DeleteBrain(ctx, 5)
	if ok || err != nil {
		t.Fatalf("DeleteBrain(5) = %v, %v; want false, nil", ok, err)
	}
	if len(b.ListBrain(Filter{})) != 1 || b.ActivityCount() != before {
		t.Fatal("deleting a missing card must not change state")
	}
}

func TestDocsLifecycle(t *testing.T) {
	t.Parallel()
	b, _, clock := newTestBoard(t)
	ctx := context.Background()

	_, err := b.CreateDoc(ctx, DocInput{Title: "no content"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Msg != "Missing required fields" {
		t.Fatalf("CreateDoc without content err = %v", err)
	}

	a, err := b.CreateDoc(ctx, DocInput{Title: "A", Content: "# A"})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	d, err := b.CreateDoc(ctx, DocInput{Title: "B", Content: "# B", Category: ptr("guides")})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if _, _, err := b.UpdateDoc(ctx, a.ID, DocPatch{Content: ptr("# A v2")}); err != nil {
		t.Fatal(err)
	}

	list := b.ListDocs(Filter{})
	if len(list) != 2 || list[0].ID != a.ID {
		t.Fatalf("ListDocs should put the last updated first: %+v", list)
	}
	if got := b.ListDocs(Filter{Category: "guides"}); len(got) != 1 || got[0].ID != d.ID {
		t.Fatalf("category filter = %+v", got)
	}

	docs, err := b.ImportDocs(ctx, "/tmp/notes", []DocInput{{Title: "x", Content: "1"}, {Title: "y", Content: "2"}})
	if err != nil || len(docs) != 2 {
		t.Fatalf("ImportDocs = %+v, %v", docs, err)
	}
	if latest := b.PageActivity(PageRequest{Limit: 1}).Logs[0]; latest.ActionType != models.ActionDocsImported {
		t.Fatalf("latest action = %q", latest.ActionType)
	}
	if _, err := b.ImportDocs(ctx, "bad", []DocInput{{Title: "ok", Content: "1"}, {Title: "", Content: "2"}}); err == nil {
		t.Fatal("ImportDocs with an invalid doc should fail")
	}
	if n := len(b.ListDocs(Filter{})); n != 4 {
		t.Fatalf("docs = %d, want 4 (rejected import must not create any)", n)
	}

	if ok, err := b.DeleteDoc(ctx, d.ID); !ok || err != nil {
		t.Fatalf("DeleteDoc = %v, %v", ok, err)
	}
	if _, ok := b.GetDoc(d.ID); ok {
		t.Fatal("doc still present")
	}
}

func TestNotesSeen(t *testing.T) {
	t.Parallel()
	b, _, clock := newTestBoard(t)
	ctx := context.Background()

	if _, err := b.CreateNote(ctx, ""); err == nil {
		t.Fatal("empty note should be rejected")
	}
	n, err := b.CreateNote(ctx, "call the broker")
	if err != nil {
		t.Fatal(err)
	}
	if n.Seen || n.ProcessedAt != nil {
		t.Fatalf("new note = %+v", n)
	}

	clock.Advance(time.Minute)
	seen, ok, err := b.SetNoteSeen(ctx, n.ID, true)
	if err != nil || !ok || !seen.Seen || seen.ProcessedAt == nil {
		t.Fatalf("SetNoteSeen(true) = %+v, %v, %v", seen, ok, err)
	}
	stamp := *seen.ProcessedAt

	clock.Advance(time.Minute)
	again, _, _ := b.SetNoteSeen(ctx, n.ID, true)
	if *again.ProcessedAt != stamp {
		t.Fatal("processed_at must only be set on the false->true transition")
	}
	unseen, _, _ := b.SetNoteSeen(ctx, n.ID, false)
	if unseen.Seen {
		t.Fatal("note should be unseen")
	}

	if got := b.ListNotes(Filter{Seen: ptr(false)}); len(got) != 1 {
		t.Fatalf("unseen notes = %+v", got)
	}
	if _, ok, _ := b.SetNoteSeen(ctx, 99, true); ok {
		t.Fatal("SetNoteSeen(99) should report false")
	}
	if ok, _ := b.DeleteNote(ctx, n.ID); !ok {
		t.Fatal("DeleteNote should report true")
	}
	if ok, _ := b.DeleteNote(ctx, n.ID); ok {
		t.Fatal("second DeleteNote should report false")
	}
}
