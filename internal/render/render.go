// Package render turns doc markdown into HTML and caches the result per doc revision.
package render

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/otel"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

const (
	DefaultTTL      = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// Renderer converts docs to HTML. Raw HTML in the markdown is not passed through.
type Renderer struct {
	md    goldmark.Markdown
	cache *cache.Cache
}

// New returns a Renderer whose entries expire after ttl (DefaultTTL when zero).
func New(ttl time.Duration) *Renderer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		cache: cache.New(ttl, cleanupInterval),
	}
}

// key changes whenever the doc is edited, so stale entries are never served.
func key(doc models.Doc) string {
	return fmt.Sprintf("%d:%d", doc.ID, doc.UpdatedAt)
}

// HTML returns the rendered body of doc.
func (r *Renderer) HTML(ctx context.Context, doc models.Doc) (string, error) {
	k := key(doc)
	if v, ok := r.cache.Get(k); ok {
		return v.(string), nil
	}
	html, err := r.Markdown(ctx, doc.Content)
	if err != nil {
		return "", fmt.Errorf("render doc %d: %w", doc.ID, err)
	}
	r.cache.Set(k, html, cache.DefaultExpiration)
	return html, nil
}

// Markdown renders src without caching.
func (r *Renderer) Markdown(ctx context.Context, src string) (string, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	otel.RecordRender(ctx, time.Since(start))
	return buf.String(), nil
}

// Forget drops every cached rendering.
func (r *Renderer) Forget() { r.cache.Flush() }

// Cached reports how many renderings are cached.
func (r *Renderer) Cached() int { return r.cache.ItemCount() }
