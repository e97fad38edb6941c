package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// ActivityInput is one entry to append. A zero Timestamp means now.
// Metadata is stored as given; text that is not JSON is kept as a JSON string.
type ActivityInput struct {
	ActionType  string
	Description string
	Metadata    json.RawMessage
	Timestamp   int64
}

// PageRequest selects a page of the activity log. Page, when >= 1, overrides Offset.
type PageRequest struct {
	Limit  int
	Offset int
	Page   int
}

// normalize applies the default and maximum limit and resolves Page into Offset.
func (r PageRequest) normalize() PageRequest {
	if r.Limit <= 0 {
		r.Limit = models.DefaultLogPageLimit
	}
	if r.Limit > models.MaxLogPageLimit {
		r.Limit = models.MaxLogPageLimit
	}
	if r.Page >= 1 {
		r.Offset = (r.Page - 1) * r.Limit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	r.Page = r.Offset/r.Limit + 1
	return r
}

// AppendActivity adds an entry to the log. Entries are never updated or removed.
func (b *Board) AppendActivity(ctx context.Context, in ActivityInput) (models.ActivityEntry, error) {
	if strings.TrimSpace(in.ActionType) == "" || strings.TrimSpace(in.Description) == "" {
		return models.ActivityEntry{}, invalid("", "Missing required fields")
	}
	meta := bytes.TrimSpace(in.Metadata)
	if bytes.Equal(meta, []byte("null")) {
		meta = nil
	}
	if len(meta) > 0 && !json.Valid(meta) {
		meta, _ = json.Marshal(string(in.Metadata))
	}

	b.activity.mu.Lock()
	entry := models.ActivityEntry{
		ID:          b.activity.nextID(),
		Timestamp:   in.Timestamp,
		ActionType:  in.ActionType,
		Description: in.Description,
		Metadata:    json.RawMessage(meta),
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = b.nowMillis()
	}
	b.activity.put(entry)
	err := b.flushed(ctx, "append", store.CollectionActivity, b.st.AppendActivity(ctx, entry))
	b.activity.mu.Unlock()

	b.publish(EventLog, entry)
	return entry, err
}

// PageActivity returns one page of the log, newest first (timestamp desc, then id desc).
// It never mutates anything.
func (b *Board) PageActivity(req PageRequest) models.LogPage {
	req = req.normalize()

	b.activity.mu.RLock()
	all := b.activity.all()
	b.activity.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Timestamp != all[j].Timestamp {
			return all[i].Timestamp > all[j].Timestamp
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	logs := []models.ActivityEntry{}
	if req.Offset < total {
		end := req.Offset + req.Limit
		if end > total {
			end = total
		}
		logs = all[req.Offset:end]
	}
	return models.LogPage{
		Logs: logs,
		Pagination: models.Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Offset:     req.Offset,
			Total:      total,
			TotalPages: (total + req.Limit - 1) / req.Limit,
		},
	}
}

// ActivityCount returns the number of log entries.
func (b *Board) ActivityCount() int {
	b.activity.mu.RLock()
	defer b.activity.mu.RUnlock()
	return b.activity.size()
}
