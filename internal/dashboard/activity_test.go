package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
)

func TestAppendActivityValidation(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBoard(t)
	for _, in := range []ActivityInput{
		{ActionType: "x"},
		{Description: "y"},
		{ActionType: " ", Description: "y"},
	} {
		_, err := b.AppendActivity(context.Background(), in)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Msg != "Missing required fields" {
			t.Errorf("AppendActivity(%+v) err = %v", in, err)
		}
	}
	if b.ActivityCount() != 0 {
		t.Fatal("rejected entries must not be stored")
	}
}

func TestAppendActivityMetadataVerbatim(t *testing.T) {
	t.Parallel()
	b, st, clock := newTestBoard(t)
	ctx := context.Background()

	meta := json.RawMessage(`{"nested":{"list":[1,"two",null]},"flag":true}`)
	e, err := b.AppendActivity(ctx, ActivityInput{ActionType: "deploy", Description: "Shipped", Metadata: meta})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != 1 || e.Timestamp != clock.Now().UnixMilli() || string(e.Metadata) != string(meta) {
		t.Fatalf("entry = %+v", e)
	}

	plain, err := b.AppendActivity(ctx, ActivityInput{ActionType: "note", Description: "x", Metadata: json.RawMessage("not json")})
	if err != nil {
		t.Fatal(err)
	}
	if string(plain.Metadata) != `"not json"` {
		t.Fatalf("non-JSON metadata = %s", plain.Metadata)
	}
	none, _ := b.AppendActivity(ctx, ActivityInput{ActionType: "note", Description: "x", Metadata: json.RawMessage("null")})
	if none.Metadata != nil {
		t.Fatalf("null metadata should be dropped, got %s", none.Metadata)
	}

	stored, err := st.LoadActivity(ctx)
	if err != nil || len(stored) != 3 || string(stored[0].Metadata) != string(meta) {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
}

func TestPageActivity(t *testing.T) {
	t.Parallel()
	b, _, clock := newTestBoard(t)
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		if _, err := b.AppendActivity(ctx, ActivityInput{ActionType: "tick", Description: fmt.Sprintf("e%d", i)}); err != nil {
			t.Fatal(err)
		}
		// Every third entry shares its timestamp with the previous one.
		if i%3 != 0 {
			clock.Advance(time.Millisecond)
		}
	}

	const limit = 5
	seen := map[int64]bool{}
	var prev *int64
	for offset := 0; offset < 23; offset += limit {
		page := b.PageActivity(PageRequest{Limit: limit, Offset: offset})
		if page.Pagination.Total != 23 || page.Pagination.TotalPages != 5 {
			t.Fatalf("pagination = %+v", page.Pagination)
		}
		for _, e := range page.Logs {
			if seen[e.ID] {
				t.Fatalf("entry %d returned twice", e.ID)
			}
			seen[e.ID] = true
			if prev != nil && e.ID > *prev {
				t.Fatalf("entries not newest first: %d after %d", e.ID, *prev)
			}
			id := e.ID
			prev = &id
		}
	}
	if len(seen) != 23 {
		t.Fatalf("pages covered %d entries, want 23", len(seen))
	}

	byPage := b.PageActivity(PageRequest{Limit: limit, Page: 3})
	byOffset := b.PageActivity(PageRequest{Limit: limit, Offset: 10})
	if byPage.Pagination.Offset != 10 || byPage.Pagination.Page != 3 || len(byPage.Logs) != len(byOffset.Logs) || byPage.Logs[0].ID != byOffset.Logs[0].ID {
		t.Fatalf("page 3 = %+v, offset 10 = %+v", byPage.Pagination, byOffset.Pagination)
	}

	last := b.PageActivity(PageRequest{Limit: limit, Page: 5})
	if len(last.Logs) != 3 {
		t.Fatalf("last page has %d entries, want 3", len(last.Logs))
	}
	beyond := b.PageActivity(PageRequest{Limit: limit, Page: 9})
	if beyond.Logs == nil || len(beyond.Logs) != 0 {
		t.Fatalf("page past the end should be empty, got %#v", beyond.Logs)
	}

	// Pure read: same arguments, same result.
	again := b.PageActivity(PageRequest{Limit: limit, Page: 3})
	for i := range again.Logs {
		if again.Logs[i].ID != byPage.Logs[i].ID {
			t.Fatal("repeated page read differs")
		}
	}
}

func TestPageRequestDefaults(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in               PageRequest
		limit, off, page int
	}{
		{PageRequest{}, 50, 0, 1},
		{PageRequest{Limit: 10000}, 500, 0, 1},
		{PageRequest{Limit: 10, Offset: -4}, 10, 0, 1},
		{PageRequest{Limit: 10, Offset: 25}, 10, 25, 3},
		{PageRequest{Limit: 10, Offset: 99, Page: 2}, 10, 10, 2},
	} {
		got := tc.in.normalize()
		if got.Limit != tc.limit || got.Offset != tc.off || got.Page != tc.page {
			t.Errorf("normalize(%+v) = %+v", tc.in, got)
		}
	}

	r := ParsePageRequest(url.Values{"limit": {"20"}, "page": {"2"}, "offset": {"abc"}})
	if r.Limit != 20 || r.Page != 2 || r.Offset != 0 {
		t.Fatalf("ParsePageRequest = %+v", r)
	}
}

func TestEmptyLogPage(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBoard(t)
	page := b.PageActivity(PageRequest{})
	if page.Logs == nil || page.Pagination.Total != 0 || page.Pagination.TotalPages != 0 {
		t.Fatalf("empty page = %+v", page)
	}
}
