package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/cactusfleur/afrispiration/api"
)

// Memory is an in-process Store with the same semantics as SQLite.
// Safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	records   map[api.Kind]map[string]Record // kind -> id -> record
	pages     map[string]api.Page
	revisions map[string][]Revision
}

func NewMemory() *Memory {
	m := &Memory{
		records:   make(map[api.Kind]map[string]Record),
		pages:     make(map[string]api.Page),
		revisions: make(map[string][]Revision),
	}
	for _, kind := range api.Kinds {
		m.records[kind] = make(map[string]Record)
	}
	return m
}

func (m *Memory) Close() error { return nil }

func (m *Memory) List(ctx context.Context, kind api.Kind, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type row struct {
		rec    Record
		fields map[string]any
	}
	var rows []row
	for _, rec := range m.records[kind] {
		fields, err := recordFields(rec)
		if err != nil {
			return nil, err
		}
		if matchWhere(fields, q.Where) {
			rows = append(rows, row{rec: rec, fields: fields})
		}
	}

	order := q.OrderBy
	if order == "" {
		order = "created_at"
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i].fields[order], rows[j].fields[order])
		if c == 0 {
			c = cmp.Compare(rows[i].rec.ID, rows[j].rec.ID)
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = copyRecord(r.rec)
	}
	return out, nil
}

// recordFields flattens a record's JSON fields and columns into one map.
func recordFields(rec Record) (map[string]any, error) {
	fields := make(map[string]any)
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &fields); err != nil {
			return nil, fmt.Errorf("%w: decode record %s: %w", ErrUnavailable, rec.ID, err)
		}
	}
	fields["id"] = rec.ID
	fields["slug"] = rec.Slug
	fields["created_at"] = rec.CreatedAt.UnixNano()
	fields["updated_at"] = rec.UpdatedAt.UnixNano()
	return fields, nil
}

func matchWhere(fields map[string]any, where []Eq) bool {
	for _, eq := range where {
		if compareValues(fields[eq.Field], eq.Value) != 0 {
			return false
		}
	}
	return true
}

// compareValues orders JSON scalars: null < bool < number < string.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case string:
		return cmp.Compare(x, b.(string))
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	}
	if fa, ok := number(a); ok {
		fb, _ := number(b)
		return cmp.Compare(fa, fb)
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	}
	if _, ok := number(v); ok {
		return 2
	}
	return 4
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func copyRecord(rec Record) Record {
	rec.Data = slices.Clone(rec.Data)
	return rec
}

func (m *Memory) getBy(ctx context.Context, kind api.Kind, match func(Record) bool, what string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := checkKind(kind); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records[kind] {
		if match(rec) {
			return copyRecord(rec), nil
		}
	}
	return Record{}, fmt.Errorf("%w: get %s %s", ErrNotFound, kind, what)
}

func (m *Memory) Get(ctx context.Context, kind api.Kind, id string) (Record, error) {
	return m.getBy(ctx, kind, func(r Record) bool { return r.ID == id }, "id="+id)
}

func (m *Memory) GetBySlug(ctx context.Context, kind api.Kind, slug string) (Record, error) {
	return m.getBy(ctx, kind, func(r Record) bool { return r.Slug == slug }, "slug="+slug)
}

func (m *Memory) SlugExists(ctx context.Context, kind api.Kind, slug string) (bool, error) {
	_, err := m.GetBySlug(ctx, kind, slug)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	}
	return false, err
}

// slugOwner returns the id holding slug, if any. Callers hold m.mu.
func (m *Memory) slugOwner(kind api.Kind, slug string) (string, bool) {
	for id, rec := range m.records[kind] {
		if rec.Slug == slug {
			return id, true
		}
	}
	return "", false
}

func (m *Memory) Insert(ctx context.Context, kind api.Kind, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[kind][rec.ID]; ok {
		return fmt.Errorf("%w: insert %s %s", ErrExists, kind, rec.ID)
	}
	if _, ok := m.slugOwner(kind, rec.Slug); ok {
		return fmt.Errorf("%w: insert %s %s", ErrSlugTaken, kind, rec.Slug)
	}
	m.records[kind][rec.ID] = copyRecord(rec)
	return nil
}

func (m *Memory) Update(ctx context.Context, kind api.Kind, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[kind][rec.ID]
	if !ok {
		return fmt.Errorf("%w: update %s %s", ErrNotFound, kind, rec.ID)
	}
	if owner, taken := m.slugOwner(kind, rec.Slug); taken && owner != rec.ID {
		return fmt.Errorf("%w: update %s %s", ErrSlugTaken, kind, rec.Slug)
	}
	rec.CreatedAt = cur.CreatedAt
	m.records[kind][rec.ID] = copyRecord(rec)
	return nil
}

func (m *Memory) Delete(ctx context.Context, kind api.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[kind][id]; !ok {
		return fmt.Errorf("%w: delete %s %s", ErrNotFound, kind, id)
	}
	delete(m.records[kind], id)
	return nil
}

// roundTrip gives stored page content the same shape SQLite would return.
func roundTrip(v any) (any, error) {
	raw, err := encodeContent(v)
	if err != nil {
		return nil, err
	}
	return decodeContent(raw)
}

func (m *Memory) Page(ctx context.Context, name string) (api.Page, error) {
	if err := ctx.Err(); err != nil {
		return api.Page{}, err
	}
	m.mu.RLock()
	page, ok := m.pages[name]
	m.mu.RUnlock()
	if !ok {
		return api.Page{}, fmt.Errorf("%w: get page %s", ErrNotFound, name)
	}
	content, err := roundTrip(page.Content)
	if err != nil {
		return api.Page{}, err
	}
	page.Content = content
	return page, nil
}

func (m *Memory) PutPage(ctx context.Context, page api.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := roundTrip(page.Content)
	if err != nil {
		return err
	}
	page.Content = content
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page.Name] = page
	revs := m.revisions[page.Name]
	m.revisions[page.Name] = append(revs, Revision{
		Rev:       len(revs) + 1,
		Content:   content,
		CreatedAt: page.UpdatedAt,
	})
	return nil
}

func (m *Memory) Pages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.pages))
	for name := range m.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) PageHistory(ctx context.Context, name string) ([]Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	revs := make([]Revision, len(m.revisions[name]))
	for i, rev := range m.revisions[name] {
		content, err := roundTrip(rev.Content)
		if err != nil {
			return nil, err
		}
		rev.Content = content
		revs[i] = rev
	}
	return revs, nil
}

func (m *Memory) PageRevision(ctx context.Context, name string, rev int) (Revision, error) {
	if err := ctx.Err(); err != nil {
		return Revision{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	revs := m.revisions[name]
	if rev < 1 || rev > len(revs) {
		return Revision{}, fmt.Errorf("%w: page %s revision %d", ErrNotFound, name, rev)
	}
	out := revs[rev-1]
	content, err := roundTrip(out.Content)
	if err != nil {
		return Revision{}, err
	}
	out.Content = content
	return out, nil
}

var _ Store = (*Memory)(nil)
