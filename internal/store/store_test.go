package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/cactusfleur/afrispiration/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "afri.db"))
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		fn(t, s)
	})
	t.Run("sqlite-memory", func(t *testing.T) {
		s, err := OpenSQLite(":memory:")
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func designer(id, slug, name string, featured bool, age time.Duration) Record {
	data, _ := json.Marshal(map[string]any{
		"name":     name,
		"featured": featured,
		"location": []string{"Ghana"},
	})
	return Record{
		ID:        id,
		Slug:      slug,
		Data:      data,
		CreatedAt: epoch.Add(age),
		UpdatedAt: epoch.Add(age),
	}
}

func seed(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, rec := range []Record{
		designer("d1", "kofi", "Kofi", false, 0),
		designer("d2", "amara", "Amara", true, time.Hour),
		designer("d3", "zuri", "Zuri", true, 2*time.Hour),
	} {
		require.NoError(t, s.Insert(ctx, api.KindDesigners, rec))
	}
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestStoreCRUD(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seed(t, s)

		got, err := s.Get(ctx, api.KindDesigners, "d2")
		require.NoError(t, err)
		assert.Equal(t, "amara", got.Slug)
		assert.Equal(t, epoch.Add(time.Hour), got.CreatedAt)
		assert.JSONEq(t, `{"name":"Amara","featured":true,"location":["Ghana"]}`, string(got.Data))

		got, err = s.GetBySlug(ctx, api.KindDesigners, "zuri")
		require.NoError(t, err)
		assert.Equal(t, "d3", got.ID)

		ok, err := s.SlugExists(ctx, api.KindDesigners, "kofi")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.SlugExists(ctx, api.KindDesigners, "kofi-1")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.SlugExists(ctx, api.KindEvents, "kofi")
		require.NoError(t, err)
		assert.False(t, ok, "slugs are scoped to their collection")

		upd := designer("d1", "kofi-mensah", "Kofi Mensah", false, 0)
		upd.UpdatedAt = epoch.Add(24 * time.Hour)
		require.NoError(t, s.Update(ctx, api.KindDesigners, upd))
		got, err = s.Get(ctx, api.KindDesigners, "d1")
		require.NoError(t, err)
		assert.Equal(t, "kofi-mensah", got.Slug)
		assert.Equal(t, epoch, got.CreatedAt)
		assert.Equal(t, epoch.Add(24*time.Hour), got.UpdatedAt)

		require.NoError(t, s.Delete(ctx, api.KindDesigners, "d1"))
		_, err = s.Get(ctx, api.KindDesigners, "d1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreConflicts(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seed(t, s)

		err := s.Insert(ctx, api.KindDesigners, designer("d9", "amara", "Amara", false, 0))
		assert.ErrorIs(t, err, ErrSlugTaken)

		err = s.Insert(ctx, api.KindDesigners, designer("d1", "other", "Other", false, 0))
		assert.ErrorIs(t, err, ErrExists)

		err = s.Update(ctx, api.KindDesigners, designer("d1", "zuri", "Kofi", false, 0))
		assert.ErrorIs(t, err, ErrSlugTaken)

		// Keeping one's own slug is not a conflict.
		require.NoError(t, s.Update(ctx, api.KindDesigners, designer("d1", "kofi", "Kofi K.", false, 0)))
	})
}

func TestStoreMissing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.Get(ctx, api.KindDesigners, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetBySlug(ctx, api.KindDesigners, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, api.KindDesigners, designer("nope", "nope", "x", false, 0)), ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, api.KindDesigners, "nope"), ErrNotFound)
		_, err = s.Page(ctx, "home")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.PageRevision(ctx, "home", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreList(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seed(t, s)

		tests := []struct {
			name string
			q    Query
			want []string
		}{
			{"zero query is oldest first", Query{}, []string{"d1", "d2", "d3"}},
			{"newest first", Query{Desc: true}, []string{"d3", "d2", "d1"}},
			{"where bool", Query{Where: []Eq{{"featured", true}}}, []string{"d2", "d3"}},
			{"where string", Query{Where: []Eq{{"name", "Kofi"}}}, []string{"d1"}},
			{"where column", Query{Where: []Eq{{"slug", "zuri"}}}, []string{"d3"}},
			{"and", Query{Where: []Eq{{"featured", true}, {"name", "Zuri"}}}, []string{"d3"}},
			{"order by json field", Query{OrderBy: "name"}, []string{"d2", "d1", "d3"}},
			{"limit", Query{Desc: true, Limit: 2}, []string{"d3", "d2"}},
			{"no match", Query{Where: []Eq{{"name", "Nobody"}}}, []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(ctx, api.KindDesigners, tt.q)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(got))
			})
		}
	})
}

func TestStoreRejectsBadInput(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.List(ctx, api.KindDesigners, Query{Where: []Eq{{"name') OR 1=1 --", "x"}}})
		assert.ErrorIs(t, err, ErrInvalidField)
		_, err = s.List(ctx, api.KindDesigners, Query{OrderBy: "name desc"})
		assert.ErrorIs(t, err, ErrInvalidField)
		_, err = s.List(ctx, api.Kind("users"), Query{})
		assert.ErrorIs(t, err, ErrInvalidKind)
	})
}

func TestStorePages(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		v1 := map[string]any{"hero": map[string]any{"title": "Welcome"}}
		v2 := map[string]any{
			"hero":  map[string]any{"title": "Welcome home"},
			"items": []any{int64(1), "two", true, nil},
		}
		require.NoError(t, s.PutPage(ctx, api.Page{Name: "home", Content: v1, UpdatedAt: epoch}))
		require.NoError(t, s.PutPage(ctx, api.Page{Name: "home", Content: v2, UpdatedAt: epoch.Add(time.Minute)}))
		require.NoError(t, s.PutPage(ctx, api.Page{Name: "about", Content: "plain", UpdatedAt: epoch}))

		page, err := s.Page(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, v2, page.Content)
		assert.Equal(t, epoch.Add(time.Minute), page.UpdatedAt)

		names, err := s.Pages(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"about", "home"}, names)

		revs, err := s.PageHistory(ctx, "home")
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, 1, revs[0].Rev)
		assert.Equal(t, v1, revs[0].Content)
		assert.Equal(t, 2, revs[1].Rev)

		rev, err := s.PageRevision(ctx, "home", 1)
		require.NoError(t, err)
		assert.Equal(t, v1, rev.Content)
		assert.Equal(t, epoch, rev.CreatedAt)
	})
}

func TestStorePageContentNotAliased(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		content := map[string]any{"title": "Before"}
		require.NoError(t, s.PutPage(ctx, api.Page{Name: "home", Content: content, UpdatedAt: epoch}))
		content["title"] = "Mutated"

		page, err := s.Page(ctx, "home")
		require.NoError(t, err)
		page.Content.(map[string]any)["title"] = "Mutated again"

		page, err = s.Page(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "Before"}, page.Content)
	})
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.SlugExists(ctx, api.KindDesigners, "amara")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afri.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	seed(t, s)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.List(context.Background(), api.KindDesigners, Query{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
