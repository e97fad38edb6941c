// Package client provides a Go SDK for the jet-dashboard HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// Client calls the jet-dashboard HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:3548"
	APIKey     string       // optional; sent as X-API-Key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:3548").
// APIKey is optional; when set, requests carry the X-API-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

// APIError is a non-2xx response.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string // the server's "error" field, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.Status)
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errBody.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func idPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// Filter narrows list calls. Empty members are not sent.
type Filter struct {
	Status     string
	Priority   string
	Category   string
	Search     string
	AutoPickup *bool
	Seen       *bool
}

func (f Filter) query() string {
	q := url.Values{}
	for k, v := range map[string]string{"status": f.Status, "priority": f.Priority, "category": f.Category, "search": f.Search} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if f.AutoPickup != nil {
		q.Set("auto_pickup", strconv.FormatBool(*f.AutoPickup))
	}
	if f.Seen != nil {
		q.Set("seen", strconv.FormatBool(*f.Seen))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Config returns the /config response.
func (c *Client) Config(ctx context.Context) (*models.Config, error) {
	var out models.Config
	err := c.doJSON(ctx, http.MethodGet, "/config", nil, &out)
	return &out, err
}

// Bootstrap returns the full /bootstrap payload.
func (c *Client) Bootstrap(ctx context.Context) (*models.Bootstrap, error) {
	var out models.Bootstrap
	err := c.doJSON(ctx, http.MethodGet, "/bootstrap", nil, &out)
	return &out, err
}

// CardRequest creates a card. Zero Status and Priority use the server defaults; nil Order appends.
type CardRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Tags        *string `json:"tags,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	AutoPickup  bool    `json:"auto_pickup,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// CardPatch changes only the non-nil fields of a card.
type CardPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Tags        *string `json:"tags,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	AutoPickup  *bool   `json:"auto_pickup,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// ListCards returns cards in board order.
func (c *Client) ListCards(ctx context.Context, f Filter) ([]models.KanbanCard, error) {
	var out []models.KanbanCard
	err := c.doJSON(ctx, http.MethodGet, "/kanban"+f.query(), nil, &out)
	return out, err
}

// CreateCard creates a card and returns it.
func (c *Client) CreateCard(ctx context.Context, req CardRequest) (*models.KanbanCard, error) {
	var out models.KanbanCard
	err := c.doJSON(ctx, http.MethodPost, "/kanban", req, &out)
	return &out, err
}

// GetCard returns a card by ID.
func (c *Client) GetCard(ctx context.Context, id int64) (*models.KanbanCard, error) {
	var out models.KanbanCard
	err := c.doJSON(ctx, http.MethodGet, idPath("/kanban/", id), nil, &out)
	return &out, err
}

// UpdateCard applies a partial update.
func (c *Client) UpdateCard(ctx context.Context, id int64, p CardPatch) (*models.KanbanCard, error) {
	var out models.KanbanCard
	err := c.doJSON(ctx, http.MethodPatch, idPath("/kanban/", id), p, &out)
	return &out, err
}

// MoveCard moves a card to status at order (nil appends) and returns every card that changed.
func (c *Client) MoveCard(ctx context.Context, id int64, status string, order *int) (*models.MoveResult, error) {
	body := struct {
		Status string `json:"status"`
		Order  *int   `json:"order,omitempty"`
	}{status, order}
	var out models.MoveResult
	err := c.doJSON(ctx, http.MethodPost, idPath("/kanban/", id)+"/move", body, &out)
	return &out, err
}

// ReorderColumn moves the card at index from to index to and returns the renumbered column.
func (c *Client) ReorderColumn(ctx context.Context, status string, from, to int) ([]models.KanbanCard, error) {
	body := map[string]any{"status": status, "from": from, "to": to}
	var out []models.KanbanCard
	err := c.doJSON(ctx, http.MethodPost, "/kanban/reorder", body, &out)
	return out, err
}

// NormalizeColumn renumbers a column 0..n-1 in display order.
func (c *Client) NormalizeColumn(ctx context.Context, status string) ([]models.KanbanCard, error) {
	var out []models.KanbanCard
	err := c.doJSON(ctx, http.MethodPost, "/kanban/normalize", map[string]string{"status": status}, &out)
	return out, err
}

// DeleteCard deletes a card.
func (c *Client) DeleteCard(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/kanban/", id), nil, nil)
}

// BrainRequest creates or replaces a brain card.
type BrainRequest struct {
	Title    string  `json:"title"`
	Content  *string `json:"content,omitempty"`
	Tags     *string `json:"tags,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (c *Client) ListBrain(ctx context.Context, f Filter) ([]models.BrainCard, error) {
	var out []models.BrainCard
	err := c.doJSON(ctx, http.MethodGet, "/brain"+f.query(), nil, &out)
	return out, err
}

func (c *Client) CreateBrain(ctx context.Context, req BrainRequest) (*models.BrainCard, error) {
	var out models.BrainCard
	err := c.doJSON(ctx, http.MethodPost, "/brain", req, &out)
	return &out, err
}

func (c *Client) GetBrain(ctx context.Context, id int64) (*models.BrainCard, error) {
	var out models.BrainCard
	err := c.doJSON(ctx, http.MethodGet, idPath("/brain/", id), nil, &out)
	return &out, err
}

// UpdateBrain replaces a brain card's fields; nil members are left as they are.
func (c *Client) UpdateBrain(ctx context.Context, id int64, req BrainRequest) (*models.BrainCard, error) {
	var out models.BrainCard
	err := c.doJSON(ctx, http.MethodPut, idPath("/brain/", id), req, &out)
	return &out, err
}

func (c *Client) DeleteBrain(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/brain/", id), nil, nil)
}

// DocRequest creates or replaces a document. Title and Content are required.
type DocRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category *string `json:"category,omitempty"`
}

// ListDocs returns documents, most recently updated first.
func (c *Client) ListDocs(ctx context.Context, f Filter) ([]models.Doc, error) {
	var out []models.Doc
	err := c.doJSON(ctx, http.MethodGet, "/docs"+f.query(), nil, &out)
	return out, err
}

func (c *Client) CreateDoc(ctx context.Context, req DocRequest) (*models.Doc, error) {
	var out models.Doc
	err := c.doJSON(ctx, http.MethodPost, "/docs", req, &out)
	return &out, err
}

func (c *Client) GetDoc(ctx context.Context, id int64) (*models.Doc, error) {
	var out models.Doc
	err := c.doJSON(ctx, http.MethodGet, idPath("/docs/", id), nil, &out)
	return &out, err
}

func (c *Client) UpdateDoc(ctx context.Context, id int64, req DocRequest) (*models.Doc, error) {
	var out models.Doc
	err := c.doJSON(ctx, http.MethodPut, idPath("/docs/", id), req, &out)
	return &out, err
}

func (c *Client) DeleteDoc(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/docs/", id), nil, nil)
}

// DocHTML returns the document rendered from markdown to HTML.
func (c *Client) DocHTML(ctx context.Context, id int64) (string, error) {
	var out struct {
		HTML string `json:"html"`
	}
	err := c.doJSON(ctx, http.MethodGet, idPath("/docs/", id)+"/html", nil, &out)
	return out.HTML, err
}

// ImportDocuments imports text files from dir, a path relative to the server's
// <home>/workspace (empty dir imports the whole workspace), and returns how many
// documents were created.
func (c *Client) ImportDocuments(ctx context.Context, dir string) (int, error) {
	var body any
	if dir != "" {
		body = map[string]string{"dir": dir}
	}
	var out struct {
		Documents []json.RawMessage `json:"documents"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/seed/documents", body, &out)
	return len(out.Documents), err
}

// ListNotes returns notes, newest first.
func (c *Client) ListNotes(ctx context.Context, f Filter) ([]models.Note, error) {
	var out []models.Note
	err := c.doJSON(ctx, http.MethodGet, "/notes"+f.query(), nil, &out)
	return out, err
}

func (c *Client) CreateNote(ctx context.Context, content string) (*models.Note, error) {
	var out models.Note
	err := c.doJSON(ctx, http.MethodPost, "/notes", map[string]string{"content": content}, &out)
	return &out, err
}

// SetNoteSeen marks a note processed or not.
func (c *Client) SetNoteSeen(ctx context.Context, id int64, seen bool) (*models.Note, error) {
	var out models.Note
	err := c.doJSON(ctx, http.MethodPatch, idPath("/notes/", id), map[string]bool{"seen": seen}, &out)
	return &out, err
}

func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/notes/", id), nil, nil)
}

// Activity returns one page of the activity log (page and limit 0 use the server defaults).
func (c *Client) Activity(ctx context.Context, page, limit int) (*models.LogPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/log"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out models.LogPage
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return &out, err
}

// AppendActivity adds an entry to the log. metadata may be nil.
func (c *Client) AppendActivity(ctx context.Context, action, description string, metadata any) (*models.ActivityEntry, error) {
	body := map[string]any{"action_type": action, "description": description}
	if metadata != nil {
		body["metadata"] = metadata
	}
	var out models.ActivityEntry
	err := c.doJSON(ctx, http.MethodPost, "/log", body, &out)
	return &out, err
}

// Status returns the assistant status record.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var out models.Status
	err := c.doJSON(ctx, http.MethodGet, "/status", nil, &out)
	return &out, err
}

// SetStatus changes the assistant state (e.g. models.StateWorking).
func (c *Client) SetStatus(ctx context.Context, state string) (*models.Status, error) {
	var out models.Status
	err := c.doJSON(ctx, http.MethodPut, "/status", map[string]string{"status": state}, &out)
	return &out, err
}

// SendChat posts a user message and returns the assistant's reply.
func (c *Client) SendChat(ctx context.Context, sessionID, message string) (*models.ChatMessage, error) {
	var out struct {
		Reply models.ChatMessage `json:"reply"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/chat/send", map[string]string{"sessionId": sessionID, "message": message}, &out)
	return &out.Reply, err
}

// ChatMessages returns a session's history, oldest first.
func (c *Client) ChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := c.doJSON(ctx, http.MethodGet, "/chat/messages/"+url.PathEscape(sessionID), nil, &out)
	return out, err
}

// ClearChat drops a session's history.
func (c *Client) ClearChat(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chat/messages/"+url.PathEscape(sessionID), nil, nil)
}

// ChatActivity returns unread counts and last activity per session.
func (c *Client) ChatActivity(ctx context.Context) (map[string]models.SessionActivity, error) {
	var out map[string]models.SessionActivity
	err := c.doJSON(ctx, http.MethodGet, "/chat/activity", nil, &out)
	return out, err
}

// MarkChatRead clears a session's unread count.
func (c *Client) MarkChatRead(ctx context.Context, sessionID string) (*models.SessionActivity, error) {
	var out struct {
		Activity models.SessionActivity `json:"activity"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/chat/activity", map[string]string{"sessionId": sessionID, "action": "markRead"}, &out)
	return &out.Activity, err
}

// SeedResult is the /seed response.
type SeedResult struct {
	Message    string `json:"message"`
	Cards      int    `json:"cards"`
	BrainCards int    `json:"brain_cards"`
}

// Seed replaces all kanban and brain cards with the built-in seed data.
func (c *Client) Seed(ctx context.Context) (*SeedResult, error) {
	var out SeedResult
	err := c.doJSON(ctx, http.MethodPost, "/seed", nil, &out)
	return &out, err
}
