package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cactusfleur/afrispiration/api"
	"github.com/cactusfleur/afrispiration/internal/content"
	"github.com/cactusfleur/afrispiration/internal/store"
	"github.com/cactusfleur/afrispiration/internal/writeback"
	"go.uber.org/zap"
)

// EditFunc derives a new content tree from the current one. It must not
// mutate its argument; the content package's editors never do.
type EditFunc func(tree any) (any, error)

// Edit is the outcome of a page edit.
type Edit struct {
	Before  any
	After   any
	Changed bool
}

// Pages edits named content trees.
type Pages struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func (p *Pages) Get(ctx context.Context, name string) (api.Page, error) {
	return p.store.Page(ctx, name)
}

// Names lists stored pages in name order.
func (p *Pages) Names(ctx context.Context) ([]string, error) {
	return p.store.Pages(ctx)
}

// Edit loads the page (a missing page is a nil tree), applies fn and saves
// the result as a new revision. Nothing is written when fn fails or leaves
// the tree unchanged.
func (p *Pages) Edit(ctx context.Context, name string, fn EditFunc) (Edit, error) {
	if err := writeback.CheckName(name); err != nil {
		return Edit{}, err
	}
	var before any
	page, err := p.store.Page(ctx, name)
	switch {
	case err == nil:
		before = page.Content
	case errors.Is(err, store.ErrNotFound):
	default:
		return Edit{}, fmt.Errorf("load page %s: %w", name, err)
	}

	after, err := fn(before)
	if err != nil {
		return Edit{Before: before, After: before}, fmt.Errorf("edit page %s: %w", name, err)
	}
	if content.Equal(before, after) {
		p.log.Debug("page unchanged", zap.String("page", name))
		return Edit{Before: before, After: before}, nil
	}

	if err := p.store.PutPage(ctx, api.Page{Name: name, Content: after, UpdatedAt: p.now().UTC()}); err != nil {
		return Edit{Before: before, After: before}, fmt.Errorf("save page %s: %w", name, err)
	}
	p.log.Info("page saved", zap.String("page", name))
	return Edit{Before: before, After: after, Changed: true}, nil
}

// Put replaces a page's whole tree.
func (p *Pages) Put(ctx context.Context, name string, tree any) (Edit, error) {
	return p.Edit(ctx, name, func(any) (any, error) { return tree, nil })
}

// History lists a page's revisions, oldest first.
func (p *Pages) History(ctx context.Context, name string) ([]store.Revision, error) {
	return p.store.PageHistory(ctx, name)
}

// Revert saves revision rev's tree as the page's newest revision.
func (p *Pages) Revert(ctx context.Context, name string, rev int) (Edit, error) {
	old, err := p.store.PageRevision(ctx, name, rev)
	if err != nil {
		return Edit{}, fmt.Errorf("revert page %s: %w", name, err)
	}
	return p.Edit(ctx, name, func(any) (any, error) { return old.Content, nil })
}
