package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/chat"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/docimport"
)

var deleted = map[string]any{"success": true}

// splitPath returns the segments of path after prefix, without empty trailing segments.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// parseIDParam writes 400 Invalid ID and returns false when s is not a record id.
func parseIDParam(w http.ResponseWriter, s string) (int64, bool) {
	id, err := dashboard.ParseID(s)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

// tagsField accepts tags as a string (stored as given) or a list (stored as a JSON array).
// Absent and null both mean "not provided".
func tagsField(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.New("tags must be a string or a list of strings")
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s = string(b)
	return &s, nil
}

// --- Kanban ---

type cardBody struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Tags        json.RawMessage `json:"tags"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	AutoPickup  *bool           `json:"auto_pickup"`
	Order       *int            `json:"order"`
}

func (b cardBody) patch() (dashboard.KanbanPatch, error) {
	tags, err := tagsField(b.Tags)
	if err != nil {
		return dashboard.KanbanPatch{}, err
	}
	return dashboard.KanbanPatch{
		Title:       b.Title,
		Description: b.Description,
		Tags:        tags,
		Status:      b.Status,
		Priority:    b.Priority,
		AutoPickup:  b.AutoPickup,
		Order:       b.Order,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (a *App) handleKanban(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Board.ListCards(dashboard.ParseFilter(r.URL.Query())))
	case http.MethodPost:
		var body cardBody
		if !decodeJSON(w, r, &body) {
			return
		}
		p, err := body.patch()
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		in := dashboard.CardInput{
			Title:       deref(p.Title),
			Description: p.Description,
			Tags:        p.Tags,
			Status:      deref(p.Status),
			Priority:    deref(p.Priority),
			Order:       p.Order,
		}
		if p.AutoPickup != nil {
			in.AutoPickup = *p.AutoPickup
		}
		card, err := a.Board.CreateCard(r.Context(), in)
		writeResult(w, http.StatusCreated, card, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleKanbanItem(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/kanban/")
	if len(parts) == 0 {
		a.handleKanban(w, r)
		return
	}
	switch parts[0] {
	case "reorder":
		a.handleReorder(w, r)
		return
	case "normalize":
		a.handleNormalize(w, r)
		return
	}
	id, ok := parseIDParam(w, parts[0])
	if !ok {
		return
	}
	if len(parts) == 2 && parts[1] == "move" {
		a.handleMove(w, r, id)
		return
	}
	if len(parts) > 1 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		card, found := a.Board.GetCard(id)
		if !found {
			writeJSONError(w, http.StatusNotFound, "Card not found")
			return
		}
		writeJSON(w, card)
	case http.MethodPut, http.MethodPatch:
		var body cardBody
		if !decodeJSON(w, r, &body) {
			return
		}
		if r.Method == http.MethodPut && strings.TrimSpace(deref(body.Title)) == "" {
			writeJSONError(w, http.StatusBadRequest, "Title is required")
			return
		}
		p, err := body.patch()
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		card, found, err := a.Board.UpdateCard(r.Context(), id, p)
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Card not found")
			return
		}
		writeResult(w, http.StatusOK, card, err)
	case http.MethodDelete:
		found, err := a.Board.DeleteCard(r.Context(), id)
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Card not found")
			return
		}
		writeResult(w, http.StatusOK, deleted, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleMove(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Status string `json:"status"`
		Order  *int   `json:"order"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, found, err := a.Board.MoveCard(r.Context(), id, body.Status, body.Order)
	if err == nil && !found {
		writeJSONError(w, http.StatusNotFound, "Card not found")
		return
	}
	writeResult(w, http.StatusOK, res, err)
}

func (a *App) handleReorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Status string `json:"status"`
		From   int    `json:"from"`
		To     int    `json:"to"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	column, err := a.Board.ReorderColumn(r.Context(), body.Status, body.From, body.To)
	writeResult(w, http.StatusOK, column, err)
}

func (a *App) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	column, err := a.Board.NormalizeColumn(r.Context(), body.Status)
	writeResult(w, http.StatusOK, column, err)
}

// --- Brain ---

type brainBody struct {
	Title    *string         `json:"title"`
	Content  *string         `json:"content"`
	Tags     json.RawMessage `json:"tags"`
	Category *string         `json:"category"`
}

func (a *App) handleBrain(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Board.ListBrain(dashboard.ParseFilter(r.URL.Query())))
	case http.MethodPost:
		var body brainBody
		if !decodeJSON(w, r, &body) {
			return
		}
		tags, err := tagsField(body.Tags)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		card, err := a.Board.CreateBrain(r.Context(), dashboard.BrainInput{
			Title:    deref(body.Title),
			Content:  body.Content,
			Tags:     tags,
			Category: body.Category,
		})
		writeResult(w, http.StatusCreated, card, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleBrainItem(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/brain/")
	if len(parts) == 0 {
		a.handleBrain(w, r)
		return
	}
	if len(parts) > 1 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	id, ok := parseIDParam(w, parts[0])
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		card, found := a.Board.GetBrain(id)
		if !found {
			writeJSONError(w, http.StatusNotFound, "Card not found")
			return
		}
		writeJSON(w, card)
	case http.MethodPut, http.MethodPatch:
		var body brainBody
		if !decodeJSON(w, r, &body) {
			return
		}
		if r.Method == http.MethodPut && strings.TrimSpace(deref(body.Title)) == "" {
			writeJSONError(w, http.StatusBadRequest, "Title is required")
			return
		}
		tags, err := tagsField(body.Tags)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		card, found, err := a.Board.UpdateBrain(r.Context(), id, dashboard.BrainPatch{
			Title:    body.Title,
			Content:  body.Content,
			Tags:     tags,
			Category: body.Category,
		})
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Card not found")
			return
		}
		writeResult(w, http.StatusOK, card, err)
	case http.MethodDelete:
		found, err := a.Board.DeleteBrain(r.Context(), id)
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Card not found")
			return
		}
		writeResult(w, http.StatusOK, deleted, err)
	default:
		methodNotAllowed(w)
	}
}

// --- Docs ---

type docBody struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

func (a *App) handleDocs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Board.ListDocs(dashboard.ParseFilter(r.URL.Query())))
	case http.MethodPost:
		var body docBody
		if !decodeJSON(w, r, &body) {
			return
		}
		doc, err := a.Board.CreateDoc(r.Context(), dashboard.DocInput{
			Title:    deref(body.Title),
			Content:  deref(body.Content),
			Category: body.Category,
		})
		writeResult(w, http.StatusOK, doc, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleDocItem(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/docs/")
	if len(parts) == 0 {
		a.handleDocs(w, r)
		return
	}
	id, ok := parseIDParam(w, parts[0])
	if !ok {
		return
	}
	if len(parts) == 2 && parts[1] == "html" {
		a.handleDocHTML(w, r, id)
		return
	}
	if len(parts) > 1 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		doc, found := a.Board.GetDoc(id)
		if !found {
			writeJSONError(w, http.StatusNotFound, "Doc not found")
			return
		}
		writeJSON(w, doc)
	case http.MethodPut, http.MethodPatch:
		var body docBody
		if !decodeJSON(w, r, &body) {
			return
		}
		if r.Method == http.MethodPut && (strings.TrimSpace(deref(body.Title)) == "" || deref(body.Content) == "") {
			writeJSONError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		doc, found, err := a.Board.UpdateDoc(r.Context(), id, dashboard.DocPatch{
			Title:    body.Title,
			Content:  body.Content,
			Category: body.Category,
		})
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Doc not found")
			return
		}
		writeResult(w, http.StatusOK, doc, err)
	case http.MethodDelete:
		found, err := a.Board.DeleteDoc(r.Context(), id)
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Doc not found")
			return
		}
		writeResult(w, http.StatusOK, deleted, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleDocHTML(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	doc, found := a.Board.GetDoc(id)
	if !found {
		writeJSONError(w, http.StatusNotFound, "Doc not found")
		return
	}
	html, err := a.Renderer.HTML(r.Context(), doc)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"id": doc.ID, "title": doc.Title, "html": html})
}

// --- Notes ---

func (a *App) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Board.ListNotes(dashboard.ParseFilter(r.URL.Query())))
	case http.MethodPost:
		var body struct {
			Content string `json:"content"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		note, err := a.Board.CreateNote(r.Context(), body.Content)
		writeResult(w, http.StatusOK, note, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleNoteItem(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/notes/")
	if len(parts) == 0 {
		a.handleNotes(w, r)
		return
	}
	if len(parts) > 1 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	id, ok := parseIDParam(w, parts[0])
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		note, found := a.Board.GetNote(id)
		if !found {
			writeJSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeJSON(w, note)
	case http.MethodPatch:
		var body struct {
			Seen json.RawMessage `json:"seen"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		var seen bool
		if err := json.Unmarshal(body.Seen, &seen); err != nil || string(body.Seen) == "null" {
			writeJSONError(w, http.StatusBadRequest, "Invalid seen value")
			return
		}
		note, found, err := a.Board.SetNoteSeen(r.Context(), id, seen)
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeResult(w, http.StatusOK, note, err)
	case http.MethodDelete:
		found, err := a.Board.DeleteNote(r.Context(), id)
		if err == nil && !found {
			writeJSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeResult(w, http.StatusOK, deleted, err)
	default:
		methodNotAllowed(w)
	}
}

// --- Activity log and status ---

func (a *App) handleLog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Board.PageActivity(dashboard.ParsePageRequest(r.URL.Query())))
	case http.MethodPost:
		var body struct {
			ActionType  string          `json:"action_type"`
			Description string          `json:"description"`
			Metadata    json.RawMessage `json:"metadata"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		entry, err := a.Board.AppendActivity(r.Context(), dashboard.ActivityInput{
			ActionType:  body.ActionType,
			Description: body.Description,
			Metadata:    body.Metadata,
		})
		writeResult(w, http.StatusCreated, entry, err)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Board.GetStatus())
	case http.MethodPut:
		var body struct {
			Status string `json:"status"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		st, err := a.Board.SetStatus(r.Context(), body.Status)
		writeResult(w, http.StatusOK, st, err)
	default:
		methodNotAllowed(w)
	}
}

// --- Chat ---

func (a *App) handleChat(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/chat/")
	if len(parts) == 0 {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case parts[0] == "send" && len(parts) == 1:
		a.handleChatSend(w, r)
	case parts[0] == "activity" && len(parts) == 1:
		a.handleChatActivity(w, r)
	case parts[0] == "messages" && len(parts) == 2:
		a.handleChatMessages(w, r, parts[1])
	case parts[0] == "sessions" && len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, a.Chat.Sessions())
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
	}
}

func (a *App) handleChatSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	reply, err := a.Chat.Send(r.Context(), body.SessionID, body.Message)
	switch {
	case errors.Is(err, chat.ErrMissingFields):
		writeJSONError(w, http.StatusBadRequest, chatErrorMessage(err))
		return
	case errors.Is(err, chat.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, chatErrorMessage(err))
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"success": true, "reply": reply}, err)
}

// chatErrorMessage maps chat errors to the text clients display.
func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrMissingFields):
		return "Missing sessionId or message"
	case errors.Is(err, chat.ErrMissingSession):
		return "Missing sessionId"
	case errors.Is(err, chat.ErrRateLimited):
		return "Too many messages, slow down"
	}
	return err.Error()
}

func (a *App) handleChatMessages(w http.ResponseWriter, r *http.Request, sessionID string) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Chat.Messages(sessionID))
	case http.MethodDelete:
		if err := a.Chat.Clear(sessionID); err != nil {
			writeJSONError(w, http.StatusBadRequest, chatErrorMessage(err))
			return
		}
		writeJSON(w, deleted)
	default:
		methodNotAllowed(w)
	}
}

func (a *App) handleChatActivity(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.Chat.Activity())
	case http.MethodPost:
		var body struct {
			SessionID string `json:"sessionId"`
			Action    string `json:"action"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		act, err := a.Chat.UpdateActivity(body.SessionID, body.Action)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, chatErrorMessage(err))
			return
		}
		writeJSON(w, map[string]any{"success": true, "activity": act})
	default:
		methodNotAllowed(w)
	}
}

// --- Seeding ---

func (a *App) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	data, err := dashboard.DefaultSeed()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := a.Board.Seed(r.Context(), data)
	writeResult(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     res.Message,
		"cards":       res.Cards,
		"brain_cards": res.BrainCards,
	}, err)
}

type importedDoc struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Category *string `json:"category,omitempty"`
}

// handleSeedDocuments imports text documents from <home>/workspace or a
// subdirectory of it. Paths outside the workspace are only importable
// through the CLI.
func (a *App) handleSeedDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Dir string `json:"dir"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}
	dir, err := workspaceDir(a.Home, body.Dir)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	docs, err := docimport.Import(r.Context(), a.Board, dir)
	var verr *dashboard.ValidationError
	var serr *dashboard.StorageError
	if err != nil && !errors.As(err, &verr) && !errors.As(err, &serr) {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]importedDoc, 0, len(docs))
	for _, d := range docs {
		out = append(out, importedDoc{ID: d.ID, Title: d.Title, Category: d.Category})
	}
	writeResult(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   importMessage(len(out)),
		"documents": out,
	}, err)
}

var errOutsideWorkspace = errors.New("dir must be a relative path inside the workspace")

// workspaceDir resolves a request-supplied directory under <home>/workspace.
func workspaceDir(home, dir string) (string, error) {
	root := config.WorkspaceDir(home)
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return root, nil
	}
	if !filepath.IsLocal(dir) {
		return "", errOutsideWorkspace
	}
	// A symlink inside the workspace can still point outside it.
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("workspace: %w", err)
	}
	target, err := filepath.EvalSymlinks(filepath.Join(root, dir))
	if err != nil {
		return "", fmt.Errorf("dir %s: %w", dir, err)
	}
	rel, err := filepath.Rel(realRoot, target)
	if err != nil || !filepath.IsLocal(rel) {
		return "", errOutsideWorkspace
	}
	return target, nil
}

func importMessage(n int) string {
	if n == 1 {
		return "Imported 1 document"
	}
	return fmt.Sprintf("Imported %d documents", n)
}
