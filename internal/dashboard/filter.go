package dashboard

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// Filter is a set of AND-combined predicates. Empty members match everything, and members that do
// not apply to a collection are ignored by it.
type Filter struct {
	Status     string
	Priority   string
	Category   string
	Search     string
	AutoPickup *bool
	Seen       *bool
}

// ParseFilter reads a filter from query parameters. Unknown keys and malformed booleans are ignored.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		Status:   strings.TrimSpace(q.Get("status")),
		Priority: strings.TrimSpace(q.Get("priority")),
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if f.Search == "" {
		f.Search = strings.TrimSpace(q.Get("q"))
	}
	f.AutoPickup = parseBoolParam(q.Get("auto_pickup"))
	f.Seen = parseBoolParam(q.Get("seen"))
	return f
}

// ParsePageRequest reads limit, offset and page. Malformed values are ignored.
func ParsePageRequest(q url.Values) PageRequest {
	var r PageRequest
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		r.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		r.Offset = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		r.Page = v
	}
	return r
}

func parseBoolParam(s string) *bool {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

// containsFold reports whether any of fields contains needle, ignoring case.
func containsFold(needle string, fields ...*string) bool {
	n := strings.ToLower(needle)
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), n) {
			return true
		}
	}
	return false
}

func (f Filter) matchCard(c models.KanbanCard) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Priority != "" && c.Priority != f.Priority {
		return false
	}
	if f.AutoPickup != nil && c.AutoPickup != *f.AutoPickup {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, &c.Title, c.Description, c.Tags) {
		return false
	}
	return true
}

func (f Filter) matchBrain(c models.BrainCard) bool {
	if f.Category != "" && (c.Category == nil || !strings.EqualFold(*c.Category, f.Category)) {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, &c.Title, c.Content, c.Tags) {
		return false
	}
	return true
}

func (f Filter) matchDoc(d models.Doc) bool {
	if f.Category != "" && (d.Category == nil || !strings.EqualFold(*d.Category, f.Category)) {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, &d.Title, &d.Content) {
		return false
	}
	return true
}

func (f Filter) matchNote(n models.Note) bool {
	if f.Seen != nil && n.Seen != *f.Seen {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, &n.Content) {
		return false
	}
	return true
}
