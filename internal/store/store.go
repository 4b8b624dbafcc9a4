// Package store persists entity records and page content.
//
// Records are opaque JSON documents keyed by id and slug; the store knows
// nothing about entity shapes beyond top-level JSON fields used in equality
// lookups and ordering.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cactusfleur/afrispiration/api"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrExists       = errors.New("store: record already exists")
	ErrSlugTaken    = errors.New("store: slug already taken")
	ErrUnavailable  = errors.New("store: unavailable")
	ErrInvalidField = errors.New("store: invalid field name")
	ErrInvalidKind  = errors.New("store: invalid kind")
)

// Record is one stored entity.
type Record struct {
	ID        string
	Slug      string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Eq matches records whose top-level JSON field equals Value.
// Value may be a string, bool or number.
type Eq struct {
	Field string
	Value any
}

// Query selects and orders records. The zero Query returns every record,
// oldest first.
type Query struct {
	Where []Eq
	// OrderBy names created_at, updated_at, slug, id or a top-level JSON
	// field. Empty means created_at.
	OrderBy string
	Desc    bool
	// Limit caps the result size when positive.
	Limit int
}

// Revision is one saved version of a page.
type Revision struct {
	Rev       int
	Content   any
	CreatedAt time.Time
}

// Store is the persistence collaborator used by the catalog.
type Store interface {
	List(ctx context.Context, kind api.Kind, q Query) ([]Record, error)
	Get(ctx context.Context, kind api.Kind, id string) (Record, error)
	GetBySlug(ctx context.Context, kind api.Kind, slug string) (Record, error)
	SlugExists(ctx context.Context, kind api.Kind, slug string) (bool, error)
	Insert(ctx context.Context, kind api.Kind, rec Record) error
	Update(ctx context.Context, kind api.Kind, rec Record) error
	Delete(ctx context.Context, kind api.Kind, id string) error

	Page(ctx context.Context, name string) (api.Page, error)
	// PutPage saves the page and appends a revision.
	PutPage(ctx context.Context, page api.Page) error
	Pages(ctx context.Context) ([]string, error)
	PageHistory(ctx context.Context, name string) ([]Revision, error)
	PageRevision(ctx context.Context, name string, rev int) (Revision, error)

	Close() error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

func checkKind(kind api.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

func checkQuery(q Query) error {
	for _, eq := range q.Where {
		if err := checkField(eq.Field); err != nil {
			return err
		}
	}
	if q.OrderBy != "" {
		return checkField(q.OrderBy)
	}
	return nil
}

// column reports whether field is a table column rather than a JSON field.
func column(field string) bool {
	switch field {
	case "id", "slug", "created_at", "updated_at":
		return true
	}
	return false
}
