// Package catalog is the application layer over the store: it assigns ids
// and slugs, validates entities, filters listings and edits page content.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cactusfleur/afrispiration/api"
	"github.com/cactusfleur/afrispiration/internal/logging"
	"github.com/cactusfleur/afrispiration/internal/slug"
	"github.com/cactusfleur/afrispiration/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalid = errors.New("catalog: invalid entity")

type options struct {
	log             *zap.Logger
	now             func() time.Time
	newID           func() string
	slugMaxAttempts int
}

// Option configures a Catalog.
type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = logging.OrNop(l)
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDs replaces uuid generation, for tests.
func WithIDs(next func() string) Option {
	return func(o *options) { o.newID = next }
}

// WithSlugMaxAttempts caps slug collision resolution. n <= 0 keeps the
// default.
func WithSlugMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.slugMaxAttempts = n
		}
	}
}

// Catalog bundles every collection and the page editor over one store.
type Catalog struct {
	Designers  *Collection[*api.Designer]
	Events     *Collection[*api.Event]
	Posts      *Collection[*api.BlogPost]
	Categories *Collection[*api.Category]
	Pages      *Pages

	store store.Store
	log   *zap.Logger
}

func New(s store.Store, opts ...Option) *Catalog {
	o := &options{
		log:             zap.NewNop(),
		now:             time.Now,
		newID:           uuid.NewString,
		slugMaxAttempts: slug.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Catalog{store: s, log: o.log}
	c.Designers = newCollection(api.KindDesigners, s, o, func() *api.Designer { return new(api.Designer) })
	c.Designers.prepare = prepareDesigner
	c.Events = newCollection(api.KindEvents, s, o, func() *api.Event { return new(api.Event) })
	c.Events.prepare = prepareEvent
	c.Posts = newCollection(api.KindPosts, s, o, func() *api.BlogPost { return new(api.BlogPost) })
	c.Posts.prepare = preparePost
	c.Categories = newCollection(api.KindCategories, s, o, func() *api.Category { return new(api.Category) })
	c.Categories.prepare = c.prepareCategory
	c.Pages = &Pages{store: s, log: o.log.With(zap.String("kind", "pages")), now: o.now}
	return c
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func prepareDesigner(_ context.Context, d *api.Designer, _ time.Time) error {
	if d.Name == "" {
		return invalid("designer name is required")
	}
	return nil
}

// prepareEvent also stores times in UTC at whole seconds, so their JSON
// encodings have one width and sort in time order.
func prepareEvent(_ context.Context, e *api.Event, _ time.Time) error {
	e.StartsAt = canonicalTime(e.StartsAt)
	e.EndsAt = canonicalTime(e.EndsAt)
	switch {
	case e.Title == "":
		return invalid("event title is required")
	case e.StartsAt.IsZero():
		return invalid("event %q has no start time", e.Title)
	case !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt):
		return invalid("event %q ends before it starts", e.Title)
	}
	return nil
}

func canonicalTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}

// preparePost stamps PublishedAt the first time a post is published.
func preparePost(_ context.Context, p *api.BlogPost, now time.Time) error {
	if p.Title == "" {
		return invalid("post title is required")
	}
	if p.Published && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
	return nil
}

// prepareCategory checks the scope and the parent chain. cat.Slug is the
// stored slug on update and empty on create.
func (c *Catalog) prepareCategory(ctx context.Context, cat *api.Category, _ time.Time) error {
	switch cat.Scope {
	case api.ScopeDesigner, api.ScopeEvent, api.ScopePost:
	default:
		return invalid("category %q has unknown scope %q", cat.Name, cat.Scope)
	}
	if cat.Name == "" {
		return invalid("category name is required")
	}
	if cat.Parent == "" {
		return nil
	}
	if cat.Parent == cat.Slug {
		return invalid("category %q cannot be its own parent", cat.Name)
	}
	parent, err := c.Categories.BySlug(ctx, cat.Parent)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("parent category %q does not exist", cat.Parent)
	}
	if err != nil {
		return err
	}
	if parent.Scope != cat.Scope {
		return invalid("parent category %q has scope %q, not %q", cat.Parent, parent.Scope, cat.Scope)
	}
	if cat.Slug == "" {
		// Not stored yet, so nothing can descend from it.
		return nil
	}
	seen := map[string]bool{cat.Slug: true, parent.Slug: true}
	for up := parent.Parent; up != ""; {
		if seen[up] {
			return invalid("category %q cannot descend from itself via %q", cat.Name, cat.Parent)
		}
		seen[up] = true
		next, err := c.Categories.BySlug(ctx, up)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		up = next.Parent
	}
	return nil
}
