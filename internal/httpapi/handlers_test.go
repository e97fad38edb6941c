package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

func TestKanbanRoutes(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, ServerOptions{})

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban", `{"title":"  "}`, &e); code != 400 || e.Error != "Title is required" {
		t.Fatalf("blank title: %d %q", code, e.Error)
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban", `{"title":"x","status":"someday"}`, &e); code != 400 {
		t.Fatalf("bad status: %d", code)
	}

	var a, b models.KanbanCard
	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban", `{"title":"A","tags":["ui","go"],"auto_pickup":true}`, &a); code != http.StatusCreated {
		t.Fatalf("POST /kanban status=%d", code)
	}
	if a.Status != models.StatusBacklog || a.Priority != models.PriorityMedium || a.Order != 0 || !a.AutoPickup {
		t.Fatalf("defaults: %+v", a)
	}
	if a.Tags == nil || *a.Tags != `["ui","go"]` {
		t.Fatalf("tags = %v", a.Tags)
	}
	doJSON(t, http.MethodPost, ts.URL+"/kanban", `{"title":"B","priority":"high"}`, &b)
	if b.Order != 1 {
		t.Fatalf("second card order = %d", b.Order)
	}

	var got models.KanbanCard
	if code := doJSON(t, http.MethodGet, fmt.Sprintf("%s/kanban/%d", ts.URL, a.ID), "", &got); code != 200 || got.Title != "A" {
		t.Fatalf("GET card: %d %+v", code, got)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/kanban/999", "", &e); code != 404 || e.Error != "Card not found" {
		t.Fatalf("missing card: %d %q", code, e.Error)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/kanban/abc", "", &e); code != 400 || e.Error != "Invalid ID" {
		t.Fatalf("bad id: %d %q", code, e.Error)
	}

	var list []models.KanbanCard
	doJSON(t, http.MethodGet, ts.URL+"/kanban?priority=high", "", &list)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("filtered list = %+v", list)
	}

	// PUT requires a title; PATCH is partial.
	url := fmt.Sprintf("%s/kanban/%d", ts.URL, a.ID)
	if code := doJSON(t, http.MethodPut, url, `{"description":"d"}`, &e); code != 400 || e.Error != "Title is required" {
		t.Fatalf("PUT without title: %d %q", code, e.Error)
	}
	var patched models.KanbanCard
	if code := doJSON(t, http.MethodPatch, url, `{"description":"details","tags":null}`, &patched); code != 200 {
		t.Fatalf("PATCH status=%d", code)
	}
	if patched.Title != "A" || patched.Description == nil || *patched.Description != "details" || patched.Tags == nil {
		t.Fatalf("PATCH result = %+v", patched)
	}
	var put models.KanbanCard
	if code := doJSON(t, http.MethodPut, url, `{"title":"A2","priority":"urgent"}`, &put); code != 200 || put.Title != "A2" || put.Priority != "urgent" {
		t.Fatalf("PUT: %d %+v", code, put)
	}
	if code := doJSON(t, http.MethodPatch, ts.URL+"/kanban/999", `{"title":"z"}`, &e); code != 404 {
		t.Fatalf("PATCH missing: %d", code)
	}

	var del map[string]any
	if code := doJSON(t, http.MethodDelete, url, "", &del); code != 200 || del["success"] != true {
		t.Fatalf("DELETE: %d %v", code, del)
	}
	if code := doJSON(t, http.MethodDelete, url, "", &e); code != 404 || e.Error != "Card not found" {
		t.Fatalf("second DELETE: %d %q", code, e.Error)
	}
}

func TestKanbanMoveAndReorder(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, ServerOptions{})

	ids := make([]int64, 3)
	for i, title := range []string{"one", "two", "three"} {
		var c models.KanbanCard
		doJSON(t, http.MethodPost, ts.URL+"/kanban", fmt.Sprintf(`{"title":%q}`, title), &c)
		ids[i] = c.ID
	}

	var res models.MoveResult
	if code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/kanban/%d/move", ts.URL, ids[0]), `{"status":"in_progress"}`, &res); code != 200 {
		t.Fatalf("move status=%d", code)
	}
	if res.Card.Status != models.StatusInProgress || res.Card.Order != 0 || len(res.Changed) != 1 {
		t.Fatalf("move result = %+v", res)
	}

	// Insert at the head of in_progress: the existing card shifts.
	if code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/kanban/%d/move", ts.URL, ids[1]), `{"status":"in_progress","order":0}`, &res); code != 200 {
		t.Fatalf("targeted move status=%d", code)
	}
	if res.Card.Order != 0 || len(res.Changed) != 2 {
		t.Fatalf("targeted move = %+v", res)
	}

	var e errBody
	if code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/kanban/%d/move", ts.URL, ids[2]), `{"status":"nowhere"}`, &e); code != 400 {
		t.Fatalf("invalid move status=%d", code)
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban/999/move", `{"status":"done"}`, &e); code != 404 {
		t.Fatalf("move missing status=%d", code)
	}

	var column []models.KanbanCard
	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban/reorder", `{"status":"in_progress","from":0,"to":1}`, &column); code != 200 {
		t.Fatalf("reorder status=%d", code)
	}
	if len(column) != 2 || column[0].ID != ids[0] || column[1].ID != ids[1] || column[0].Order != 0 || column[1].Order != 1 {
		t.Fatalf("reordered column = %+v", column)
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban/reorder", `{"status":"in_progress","from":0,"to":5}`, &e); code != 400 {
		t.Fatalf("out of range reorder status=%d", code)
	}

	if code := doJSON(t, http.MethodPost, ts.URL+"/kanban/normalize", `{"status":"backlog"}`, &column); code != 200 {
		t.Fatalf("normalize status=%d", code)
	}
	if len(column) != 1 || column[0].Order != 0 {
		t.Fatalf("normalized backlog = %+v", column)
	}
}

func TestBrainRoutes(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, ServerOptions{})

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/brain", `{"content":"no title"}`, &e); code != 400 || e.Error != "Title is required" {
		t.Fatalf("missing title: %d %q", code, e.Error)
	}
	var card models.BrainCard
	if code := doJSON(t, http.MethodPost, ts.URL+"/brain", `{"title":"Routing","content":"cheap models first","tags":"cost,models","category":"Efficiency"}`, &card); code != http.StatusCreated {
		t.Fatalf("POST /brain status=%d", code)
	}
	if card.Tags == nil || *card.Tags != "cost,models" {
		t.Fatalf("tags = %v", card.Tags)
	}
	var list []models.BrainCard
	doJSON(t, http.MethodGet, ts.URL+"/brain?category=efficiency", "", &list)
	if len(list) != 1 {
		t.Fatalf("category filter = %+v", list)
	}

	url := fmt.Sprintf("%s/brain/%d", ts.URL, card.ID)
	if code := doJSON(t, http.MethodPut, url, `{"title":""}`, &e); code != 400 {
		t.Fatalf("PUT blank title status=%d", code)
	}
	var updated models.BrainCard
	if code := doJSON(t, http.MethodPut, url, `{"title":"Model routing"}`, &updated); code != 200 || updated.Title != "Model routing" {
		t.Fatalf("PUT: %d %+v", code, updated)
	}
	if code := doJSON(t, http.MethodPut, ts.URL+"/brain/42", `{"title":"x"}`, &e); code != 404 || e.Error != "Card not found" {
		t.Fatalf("PUT missing: %d %q", code, e.Error)
	}
	var del map[string]any
	if code := doJSON(t, http.MethodDelete, url, "", &del); code != 200 || del["success"] != true {
		t.Fatalf("DELETE: %d %v", code, del)
	}
	if code := doJSON(t, http.MethodGet, url, "", &e); code != 404 {
		t.Fatalf("GET deleted status=%d", code)
	}
}

func TestDocRoutes(t *testing.T) {
	t.Parallel()
	app, ts := newTestServer(t, ServerOptions{})

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/docs", `{"title":"only title"}`, &e); code != 400 || e.Error != "Missing required fields" {
		t.Fatalf("missing content: %d %q", code, e.Error)
	}
	var doc models.Doc
	if code := doJSON(t, http.MethodPost, ts.URL+"/docs", `{"title":"Guide","content":"# Hello\n\n| a | b |\n|---|---|\n| 1 | 2 |","category":"notes"}`, &doc); code != 200 {
		t.Fatalf("POST /docs status=%d", code)
	}

	url := fmt.Sprintf("%s/docs/%d", ts.URL, doc.ID)
	var html map[string]any
	if code := doJSON(t, http.MethodGet, url+"/html", "", &html); code != 200 {
		t.Fatalf("GET html status=%d", code)
	}
	if s, _ := html["html"].(string); !strings.Contains(s, `<h1 id="hello">Hello</h1>`) || !strings.Contains(s, "<table>") {
		t.Fatalf("html = %v", html["html"])
	}
	if app.Renderer.Cached() != 1 {
		t.Fatalf("rendered docs cached = %d", app.Renderer.Cached())
	}

	if code := doJSON(t, http.MethodPut, url, `{"title":"Guide"}`, &e); code != 400 || e.Error != "Missing required fields" {
		t.Fatalf("PUT without content: %d %q", code, e.Error)
	}
	var updated models.Doc
	if code := doJSON(t, http.MethodPatch, url, `{"content":"changed"}`, &updated); code != 200 || updated.Content != "changed" || updated.Title != "Guide" {
		t.Fatalf("PATCH: %d %+v", code, updated)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/docs/0", "", &e); code != 400 || e.Error != "Invalid ID" {
		t.Fatalf("id 0: %d %q", code, e.Error)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/docs/77/html", "", &e); code != 404 || e.Error != "Doc not found" {
		t.Fatalf("missing html: %d %q", code, e.Error)
	}
	if code := doJSON(t, http.MethodDelete, url, "", nil); code != 200 {
		t.Fatalf("DELETE status=%d", code)
	}
	if code := doJSON(t, http.MethodDelete, url, "", &e); code != 404 || e.Error != "Doc not found" {
		t.Fatalf("second DELETE: %d %q", code, e.Error)
	}
}

func TestNoteRoutes(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, ServerOptions{})

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/notes", `{"content":""}`, &e); code != 400 || e.Error != "Missing content" {
		t.Fatalf("empty note: %d %q", code, e.Error)
	}
	var note models.Note
	if code := doJSON(t, http.MethodPost, ts.URL+"/notes", `{"content":"call the dentist"}`, &note); code != 200 || note.Seen {
		t.Fatalf("POST /notes: %d %+v", code, note)
	}

	url := fmt.Sprintf("%s/notes/%d", ts.URL, note.ID)
	for _, body := range []string{`{"seen":"yes"}`, `{}`, `{"seen":null}`} {
		if code := doJSON(t, http.MethodPatch, url, body, &e); code != 400 || e.Error != "Invalid seen value" {
			t.Fatalf("PATCH %s: %d %q", body, code, e.Error)
		}
	}
	var seen models.Note
	if code := doJSON(t, http.MethodPatch, url, `{"seen":true}`, &seen); code != 200 || !seen.Seen || seen.ProcessedAt == nil {
		t.Fatalf("PATCH seen: %d %+v", code, seen)
	}
	var unseen []models.Note
	doJSON(t, http.MethodGet, ts.URL+"/notes?seen=false", "", &unseen)
	if len(unseen) != 0 {
		t.Fatalf("unseen notes = %+v", unseen)
	}
	if code := doJSON(t, http.MethodPatch, ts.URL+"/notes/50", `{"seen":true}`, &e); code != 404 || e.Error != "Note not found" {
		t.Fatalf("PATCH missing: %d %q", code, e.Error)
	}
	if code := doJSON(t, http.MethodDelete, url, "", nil); code != 200 {
		t.Fatalf("DELETE status=%d", code)
	}
	if code := doJSON(t, http.MethodDelete, url, "", &e); code != 404 {
		t.Fatalf("second DELETE status=%d", code)
	}
}

func TestLogRoutes(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, ServerOptions{})

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/log", `{"action_type":"deploy"}`, &e); code != 400 || e.Error != "Missing required fields" {
		t.Fatalf("missing description: %d %q", code, e.Error)
	}
	for i := 0; i < 12; i++ {
		var entry models.ActivityEntry
		body := fmt.Sprintf(`{"action_type":"deploy","description":"deploy %d","metadata":{"n":%d}}`, i, i)
		if code := doJSON(t, http.MethodPost, ts.URL+"/log", body, &entry); code != http.StatusCreated {
			t.Fatalf("POST /log status=%d", code)
		}
		if string(entry.Metadata) != fmt.Sprintf(`{"n":%d}`, i) {
			t.Fatalf("metadata = %s", entry.Metadata)
		}
	}

	var page models.LogPage
	if code := doJSON(t, http.MethodGet, ts.URL+"/log?limit=5&page=3", "", &page); code != 200 {
		t.Fatalf("GET /log status=%d", code)
	}
	if len(page.Logs) != 2 || page.Pagination.Total != 12 || page.Pagination.TotalPages != 3 || page.Pagination.Offset != 10 {
		t.Fatalf("page 3 = %+v", page.Pagination)
	}
	if page.Logs[1].Description != "deploy 0" {
		t.Fatalf("oldest entry should be last, got %q", page.Logs[1].Description)
	}

	var empty models.LogPage
	doJSON(t, http.MethodGet, ts.URL+"/log?offset=100", "", &empty)
	if empty.Logs == nil || len(empty.Logs) != 0 {
		t.Fatalf("past-the-end page = %+v", empty)
	}
}

func TestStatusRoutes(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, ServerOptions{})

	var st models.Status
	if code := doJSON(t, http.MethodGet, ts.URL+"/status", "", &st); code != 200 || st.Status != models.StateIdle {
		t.Fatalf("GET /status: %d %+v", code, st)
	}
	var e errBody
	if code := doJSON(t, http.MethodPut, ts.URL+"/status", `{"status":"Dancing"}`, &e); code != 400 || e.Error != "Invalid status" {
		t.Fatalf("invalid status: %d %q", code, e.Error)
	}
	if code := doJSON(t, http.MethodPut, ts.URL+"/status", `{"status":"Working"}`, &st); code != 200 || st.Status != "Working" {
		t.Fatalf("PUT /status: %d %+v", code, st)
	}
	doJSON(t, http.MethodGet, ts.URL+"/status", "", &st)
	if st.Status != "Working" {
		t.Fatalf("status after PUT = %q", st.Status)
	}
}

func TestChatRoutes(t *testing.T) {
	t.Parallel()
	app, ts := newTestServer(t, ServerOptions{ChatLimit: rate.Every(time.Hour), ChatBurst: 2})

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/chat/send", `{"sessionId":"tech"}`, &e); code != 400 || e.Error != "Missing sessionId or message" {
		t.Fatalf("missing message: %d %q", code, e.Error)
	}
	var sent struct {
		Success bool               `json:"success"`
		Reply   models.ChatMessage `json:"reply"`
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/chat/send", `{"sessionId":"tech","message":"status?"}`, &sent); code != 200 {
		t.Fatalf("send status=%d", code)
	}
	if !sent.Success || sent.Reply.Role != models.RoleAssistant || sent.Reply.SessionID != "tech" {
		t.Fatalf("reply = %+v", sent)
	}
	doJSON(t, http.MethodPost, ts.URL+"/chat/send", `{"sessionId":"tech","message":"again"}`, nil)
	if code := doJSON(t, http.MethodPost, ts.URL+"/chat/send", `{"sessionId":"tech","message":"third"}`, &e); code != http.StatusTooManyRequests || e.Error != "Too many messages, slow down" {
		t.Fatalf("rate limit: %d %q", code, e.Error)
	}

	var msgs []models.ChatMessage
	doJSON(t, http.MethodGet, ts.URL+"/chat/messages/tech", "", &msgs)
	if len(msgs) != 4 || msgs[0].Role != models.RoleUser || msgs[0].Content != "status?" {
		t.Fatalf("messages = %+v", msgs)
	}
	if app.Board.PageActivity(dashboard.PageRequest{}).Logs[0].ActionType != models.ActionChatInteraction {
		t.Fatal("chat exchange should be logged")
	}

	var activity map[string]models.SessionActivity
	doJSON(t, http.MethodGet, ts.URL+"/chat/activity", "", &activity)
	if activity["tech"].Unread != 2 {
		t.Fatalf("tech unread = %d", activity["tech"].Unread)
	}
	if _, ok := activity["medicare"]; !ok {
		t.Fatal("known sessions should always be listed")
	}
	var marked struct {
		Success  bool                   `json:"success"`
		Activity models.SessionActivity `json:"activity"`
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/chat/activity", `{"sessionId":"tech","action":"markRead"}`, &marked); code != 200 || marked.Activity.Unread != 0 {
		t.Fatalf("markRead: %d %+v", code, marked)
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/chat/activity", `{"action":"markRead"}`, &e); code != 400 || e.Error != "Missing sessionId" {
		t.Fatalf("activity without session: %d %q", code, e.Error)
	}

	var sessions []string
	doJSON(t, http.MethodGet, ts.URL+"/chat/sessions", "", &sessions)
	if len(sessions) != 1 || sessions[0] != "tech" {
		t.Fatalf("sessions = %v", sessions)
	}

	if code := doJSON(t, http.MethodDelete, ts.URL+"/chat/messages/tech", "", nil); code != 200 {
		t.Fatalf("clear status=%d", code)
	}
	doJSON(t, http.MethodGet, ts.URL+"/chat/messages/tech", "", &msgs)
	if len(msgs) != 0 {
		t.Fatalf("messages after clear = %+v", msgs)
	}
}

func TestSeedRoutes(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	app, ts := newTestServer(t, ServerOptions{Home: home})

	var seeded map[string]any
	if code := doJSON(t, http.MethodPost, ts.URL+"/seed", "", &seeded); code != 200 || seeded["success"] != true {
		t.Fatalf("POST /seed: %d %v", code, seeded)
	}
	if seeded["cards"] != float64(14) || seeded["brain_cards"] != float64(5) {
		t.Fatalf("seed counts = %v", seeded)
	}
	if got := len(app.Board.ListCards(dashboard.Filter{})); got != 14 {
		t.Fatalf("cards after seed = %d", got)
	}

	ws := filepath.Join(home, "workspace")
	if err := os.MkdirAll(filepath.Join(ws, "memory"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws, "AGENTS.md"), []byte("# Agents"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws, "memory", "today.md"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	var imported struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Documents []struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Category string `json:"category"`
		} `json:"documents"`
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/seed/documents", "", &imported); code != 200 {
		t.Fatalf("POST /seed/documents status=%d", code)
	}
	if imported.Message != "Imported 2 documents" || len(imported.Documents) != 2 {
		t.Fatalf("import = %+v", imported)
	}

	var sub struct {
		Message string `json:"message"`
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/seed/documents", `{"dir":"memory"}`, &sub); code != 200 || sub.Message != "Imported 1 document" {
		t.Fatalf("workspace subdir: %d %+v", code, sub)
	}

	var e errBody
	if code := doJSON(t, http.MethodPost, ts.URL+"/seed/documents", `{"dir":"missing"}`, &e); code != 400 || e.Error == "" {
		t.Fatalf("missing dir: %d %q", code, e.Error)
	}
}

func TestSeedDocumentsStaysInWorkspace(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	app, ts := newTestServer(t, ServerOptions{Home: home})

	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.md"), []byte("do not import"), 0o644); err != nil {
		t.Fatal(err)
	}
	ws := filepath.Join(home, "workspace")
	if err := os.MkdirAll(ws, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(ws, "link")); err != nil {
		t.Fatal(err)
	}

	for _, dir := range []string{outside, "../", "../../" + filepath.Base(outside), "link"} {
		var e errBody
		body := fmt.Sprintf(`{"dir":%q}`, dir)
		if code := doJSON(t, http.MethodPost, ts.URL+"/seed/documents", body, &e); code != 400 || e.Error == "" {
			t.Fatalf("dir %q: %d %q", dir, code, e.Error)
		}
	}
	if docs := app.Board.ListDocs(dashboard.Filter{}); len(docs) != 0 {
		t.Fatalf("docs imported from outside the workspace: %+v", docs)
	}
}
