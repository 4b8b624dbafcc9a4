package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cactusfleur/afrispiration/api"
	"github.com/cactusfleur/afrispiration/internal/filter"
	"github.com/cactusfleur/afrispiration/internal/slug"
	"github.com/cactusfleur/afrispiration/internal/store"
	"go.uber.org/zap"
)

// insertRetries bounds how often Create regenerates a slug after losing an
// insert race to a concurrent writer.
const insertRetries = 3

// Item is a stored entity that can also be filtered.
type Item interface {
	api.Entity
	filter.Record
}

// UpdateOptions controls Update.
type UpdateOptions struct {
	// RegenerateSlug derives a fresh slug from the current display name.
	RegenerateSlug bool
}

// Collection manages one kind of entity.
type Collection[T Item] struct {
	kind  api.Kind
	store store.Store
	slugs *slug.Generator
	log   *zap.Logger
	opts  *options
	newT  func() T
	// prepare validates and normalizes an item before it is written.
	prepare func(ctx context.Context, item T, now time.Time) error
}

func newCollection[T Item](kind api.Kind, s store.Store, o *options, newT func() T) *Collection[T] {
	c := &Collection[T]{
		kind:  kind,
		store: s,
		log:   o.log.With(zap.String("kind", string(kind))),
		opts:  o,
		newT:  newT,
	}
	c.slugs = slug.New(c.slugExists, slug.WithMaxAttempts(o.slugMaxAttempts))
	return c
}

func (c *Collection[T]) slugExists(ctx context.Context, s string) (bool, error) {
	return c.store.SlugExists(ctx, c.kind, s)
}

// Kind returns the collection's kind.
func (c *Collection[T]) Kind() api.Kind { return c.kind }

func (c *Collection[T]) decode(rec store.Record) (T, error) {
	item := c.newT()
	if err := json.Unmarshal(rec.Data, item); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s %s: %w", c.kind, rec.ID, err)
	}
	m := item.Base()
	m.ID = rec.ID
	m.Slug = rec.Slug
	m.CreatedAt = rec.CreatedAt
	m.UpdatedAt = rec.UpdatedAt
	return item, nil
}

func (c *Collection[T]) encode(item T) (store.Record, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return store.Record{}, fmt.Errorf("encode %s: %w", c.kind, err)
	}
	m := item.Base()
	return store.Record{
		ID:        m.ID,
		Slug:      m.Slug,
		Data:      data,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// Create assigns an id, timestamps and a unique slug derived from the
// item's display name, then stores it. item is updated in place.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	now := c.opts.now().UTC()
	m := item.Base()
	m.Slug = ""
	if c.prepare != nil {
		if err := c.prepare(ctx, item, now); err != nil {
			return item, err
		}
	}
	m.ID = c.opts.newID()
	m.CreatedAt = now
	m.UpdatedAt = now

	for attempt := 1; ; attempt++ {
		s, err := c.slugs.Generate(ctx, item.DisplayName())
		if err != nil {
			return item, fmt.Errorf("create %s: %w", c.kind, err)
		}
		m.Slug = s

		rec, err := c.encode(item)
		if err != nil {
			return item, err
		}
		err = c.store.Insert(ctx, c.kind, rec)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrSlugTaken) || attempt >= insertRetries {
			m.Slug = ""
			return item, fmt.Errorf("create %s: %w", c.kind, err)
		}
		c.log.Warn("slug claimed concurrently, retrying",
			zap.String("slug", s), zap.Int("attempt", attempt))
	}

	c.log.Info("created", zap.String("id", m.ID), zap.String("slug", m.Slug))
	return item, nil
}

// Update stores item's fields. The slug and creation time are kept from the
// stored record unless opts.RegenerateSlug is set.
func (c *Collection[T]) Update(ctx context.Context, item T, opts UpdateOptions) (T, error) {
	m := item.Base()
	cur, err := c.store.Get(ctx, c.kind, m.ID)
	if err != nil {
		return item, fmt.Errorf("update %s: %w", c.kind, err)
	}
	now := c.opts.now().UTC()
	m.Slug = cur.Slug
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = now
	if c.prepare != nil {
		if err := c.prepare(ctx, item, now); err != nil {
			return item, err
		}
	}
	if opts.RegenerateSlug {
		own := cur.Slug
		gen := slug.New(func(ctx context.Context, s string) (bool, error) {
			if s == own {
				return false, nil
			}
			return c.store.SlugExists(ctx, c.kind, s)
		}, slug.WithMaxAttempts(c.opts.slugMaxAttempts))
		s, err := gen.Generate(ctx, item.DisplayName())
		if err != nil {
			return item, fmt.Errorf("update %s: %w", c.kind, err)
		}
		m.Slug = s
	}

	rec, err := c.encode(item)
	if err != nil {
		return item, err
	}
	if err := c.store.Update(ctx, c.kind, rec); err != nil {
		return item, fmt.Errorf("update %s: %w", c.kind, err)
	}
	if m.Slug != cur.Slug {
		c.log.Info("slug changed", zap.String("id", m.ID),
			zap.String("from", cur.Slug), zap.String("to", m.Slug))
	}
	c.log.Debug("updated", zap.String("id", m.ID))
	return item, nil
}

// Delete removes the entity with the given id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", c.kind, err)
	}
	c.log.Info("deleted", zap.String("id", id))
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := c.store.Get(ctx, c.kind, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.decode(rec)
}

func (c *Collection[T]) BySlug(ctx context.Context, s string) (T, error) {
	rec, err := c.store.GetBySlug(ctx, c.kind, s)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.decode(rec)
}

// Resolve finds an entity by slug, falling back to id.
func (c *Collection[T]) Resolve(ctx context.Context, ref string) (T, error) {
	item, err := c.BySlug(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return c.Get(ctx, ref)
	}
	return item, err
}

func (c *Collection[T]) List(ctx context.Context, q store.Query) ([]T, error) {
	recs, err := c.store.List(ctx, c.kind, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind, err)
	}
	items := make([]T, 0, len(recs))
	for _, rec := range recs {
		item, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Filter lists the entities selected by q and keeps those matching every
// active facet, preserving store order.
func (c *Collection[T]) Filter(ctx context.Context, q store.Query, facets ...filter.Facet) ([]T, error) {
	items, err := c.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := filter.Apply(items, facets...)
	c.log.Debug("filtered", zap.Int("listed", len(items)), zap.Int("kept", len(out)))
	return out, nil
}
