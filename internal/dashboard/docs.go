package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// DocInput is the input to CreateDoc and ImportDocs. Title and Content are required.
type DocInput struct {
	Title    string
	Content  string
	Category *string
}

// DocPatch carries only the fields to change.
type DocPatch struct {
	Title    *string
	Content  *string
	Category *string
}

func (in DocInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return invalid("", "Missing required fields")
	}
	return nil
}

// CreateDoc stores a new doc. Title and content are both required.
func (b *Board) CreateDoc(ctx context.Context, in DocInput) (models.Doc, error) {
	if err := in.validate(); err != nil {
		return models.Doc{}, err
	}

	b.docs.mu.Lock()
	doc := b.newDocLocked(in)
	err := b.flushed(ctx, "create", store.CollectionDocs, b.st.SaveDoc(ctx, doc))
	b.docs.mu.Unlock()

	b.publish(EventDoc, Change{Action: "created", ID: doc.ID, Data: doc})
	logErr := b.record(ctx, models.ActionDocCreated, fmt.Sprintf("Created doc %q", doc.Title),
		map[string]any{"doc_id": doc.ID})
	return doc, firstErr(err, logErr)
}

// ImportDocs creates every doc of ins and records a single docs_imported entry naming source.
// All inputs are validated before anything is created.
func (b *Board) ImportDocs(ctx context.Context, source string, ins []DocInput) ([]models.Doc, error) {
	for i, in := range ins {
		if err := in.validate(); err != nil {
			return nil, invalid(fmt.Sprintf("docs[%d]", i), "Missing required fields")
		}
	}
	if len(ins) == 0 {
		return []models.Doc{}, nil
	}

	b.docs.mu.Lock()
	out := make([]models.Doc, 0, len(ins))
	var errs []error
	for _, in := range ins {
		doc := b.newDocLocked(in)
		out = append(out, doc)
		errs = append(errs, b.flushed(ctx, "import", store.CollectionDocs, b.st.SaveDoc(ctx, doc)))
	}
	b.docs.mu.Unlock()

	b.publish(EventDoc, Change{Action: "imported", Data: len(out)})
	errs = append(errs, b.record(ctx, models.ActionDocsImported,
		fmt.Sprintf("Imported %d documents from %s", len(out), source),
		map[string]any{"source": source, "count": len(out)}))
	return out, firstErr(errs...)
}

func (b *Board) newDocLocked(in DocInput) models.Doc {
	now := b.nowMillis()
	doc := models.Doc{
		ID:        b.docs.nextID(),
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.docs.put(doc)
	return doc
}

// GetDoc returns the doc with id.
func (b *Board) GetDoc(id int64) (models.Doc, bool) {
	b.docs.mu.RLock()
	defer b.docs.mu.RUnlock()
	return b.docs.get(id)
}

// ListDocs returns the docs matching f, most recently updated first.
func (b *Board) ListDocs(f Filter) []models.Doc {
	b.docs.mu.RLock()
	all := b.docs.all()
	b.docs.mu.RUnlock()

	out := make([]models.Doc, 0, len(all))
	for _, d := range all {
		if f.matchDoc(d) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// UpdateDoc applies the non-nil fields of p; title and content cannot be blanked.
// It reports false when id is unknown.
func (b *Board) UpdateDoc(ctx context.Context, id int64, p DocPatch) (models.Doc, bool, error) {
	if (p.Title != nil && strings.TrimSpace(*p.Title) == "") || (p.Content != nil && strings.TrimSpace(*p.Content) == "") {
		return models.Doc{}, false, invalid("", "Missing required fields")
	}

	b.docs.mu.Lock()
	doc, ok := b.docs.get(id)
	if !ok {
		b.docs.mu.Unlock()
		return models.Doc{}, false, nil
	}
	if p.Title != nil {
		doc.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		doc.Content = *p.Content
	}
	if p.Category != nil {
		doc.Category = p.Category
	}
	doc.UpdatedAt = b.advance(doc.UpdatedAt)
	b.docs.put(doc)
	err := b.flushed(ctx, "update", store.CollectionDocs, b.st.SaveDoc(ctx, doc))
	b.docs.mu.Unlock()

	b.publish(EventDoc, Change{Action: "updated", ID: doc.ID, Data: doc})
	logErr := b.record(ctx, models.ActionDocUpdated, fmt.Sprintf("Updated doc %q", doc.Title),
		map[string]any{"doc_id": doc.ID})
	return doc, true, firstErr(err, logErr)
}

// DeleteDoc removes a doc, reporting false when id is unknown.
func (b *Board) DeleteDoc(ctx context.Context, id int64) (bool, error) {
	b.docs.mu.Lock()
	doc, ok := b.docs.get(id)
	if !ok {
		b.docs.mu.Unlock()
		return false, nil
	}
	b.docs.remove(id)
	_, stErr := b.st.DeleteDoc(ctx, id)
	err := b.flushed(ctx, "delete", store.CollectionDocs, stErr)
	b.docs.mu.Unlock()

	b.publish(EventDoc, Change{Action: "deleted", ID: id})
	logErr := b.record(ctx, models.ActionDocDeleted, fmt.Sprintf("Deleted doc %q", doc.Title),
		map[string]any{"doc_id": id})
	return true, firstErr(err, logErr)
}
