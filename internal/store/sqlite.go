package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cactusfleur/afrispiration/api"
	"github.com/ohler55/ojg/oj"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const entitySchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	record JSON NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(created_at);
`

const pageSchema = `
CREATE TABLE IF NOT EXISTS pages (
	name TEXT PRIMARY KEY,
	content JSON,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS page_revisions (
	name TEXT NOT NULL,
	rev INTEGER NOT NULL,
	content JSON,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (name, rev)
) WITHOUT ROWID;
`

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists. ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each pool connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	for _, kind := range api.Kinds {
		if _, err := db.Exec(fmt.Sprintf(entitySchema, kind)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create %s schema: %w", kind, err)
		}
	}
	if _, err := db.Exec(pageSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create page schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// wrap classifies a driver error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %s", ErrSlugTaken, op)
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrExists, op)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

const recordColumns = "id, slug, record, created_at, updated_at"

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var (
		rec              Record
		raw              string
		created, updated int64
	)
	if err := row.Scan(&rec.ID, &rec.Slug, &raw, &created, &updated); err != nil {
		return Record{}, err
	}
	rec.Data = json.RawMessage(raw)
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}

// sqlValue converts an Eq value to what json_extract yields for it.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func fieldExpr(field string) string {
	if column(field) {
		return field
	}
	return "json_extract(record, '$." + field + "')"
}

func buildList(kind api.Kind, q Query) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT " + recordColumns + " FROM " + string(kind))
	for i, eq := range q.Where {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(fieldExpr(eq.Field) + " = ?")
		args = append(args, sqlValue(eq.Value))
	}

	order := q.OrderBy
	if order == "" {
		order = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	sb.WriteString(" ORDER BY " + fieldExpr(order) + " " + dir + ", id " + dir)
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sb.String(), args
}

func (s *SQLite) List(ctx context.Context, kind api.Kind, q Query) ([]Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	query, args := buildList(kind, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list "+string(kind), err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, wrap("scan "+string(kind), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate "+string(kind), err)
	}
	return out, nil
}

func (s *SQLite) getBy(ctx context.Context, kind api.Kind, col, value string) (Record, error) {
	if err := checkKind(kind); err != nil {
		return Record{}, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM "+string(kind)+" WHERE "+col+" = ?", value)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, wrap(fmt.Sprintf("get %s %s=%s", kind, col, value), err)
	}
	return rec, nil
}

func (s *SQLite) Get(ctx context.Context, kind api.Kind, id string) (Record, error) {
	return s.getBy(ctx, kind, "id", id)
}

func (s *SQLite) GetBySlug(ctx context.Context, kind api.Kind, slug string) (Record, error) {
	return s.getBy(ctx, kind, "slug", slug)
}

func (s *SQLite) SlugExists(ctx context.Context, kind api.Kind, slug string) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM "+string(kind)+" WHERE slug = ?", slug).Scan(&n)
	if err != nil {
		return false, wrap("check slug "+slug, err)
	}
	return n > 0, nil
}

func (s *SQLite) Insert(ctx context.Context, kind api.Kind, rec Record) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+string(kind)+" ("+recordColumns+") VALUES (?, ?, ?, ?, ?)",
		rec.ID, rec.Slug, string(rec.Data), rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	return wrap(fmt.Sprintf("insert %s %s", kind, rec.Slug), err)
}

func (s *SQLite) Update(ctx context.Context, kind api.Kind, rec Record) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE "+string(kind)+" SET slug = ?, record = ?, updated_at = ? WHERE id = ?",
		rec.Slug, string(rec.Data), rec.UpdatedAt.UnixNano(), rec.ID)
	if err != nil {
		return wrap(fmt.Sprintf("update %s %s", kind, rec.ID), err)
	}
	return affected(res, fmt.Sprintf("update %s %s", kind, rec.ID))
}

func (s *SQLite) Delete(ctx context.Context, kind api.Kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+string(kind)+" WHERE id = ?", id)
	if err != nil {
		return wrap(fmt.Sprintf("delete %s %s", kind, id), err)
	}
	return affected(res, fmt.Sprintf("delete %s %s", kind, id))
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return nil
}

func encodeContent(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode page content: %w", err)
	}
	return string(b), nil
}

func decodeContent(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := oj.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode page content: %w", err)
	}
	return v, nil
}

func (s *SQLite) Page(ctx context.Context, name string) (api.Page, error) {
	var (
		raw     sql.NullString
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT content, updated_at FROM pages WHERE name = ?", name).Scan(&raw, &updated)
	if err != nil {
		return api.Page{}, wrap("get page "+name, err)
	}
	content, err := decodeContent(raw.String)
	if err != nil {
		return api.Page{}, err
	}
	return api.Page{Name: name, Content: content, UpdatedAt: time.Unix(0, updated).UTC()}, nil
}

func (s *SQLite) PutPage(ctx context.Context, page api.Page) error {
	raw, err := encodeContent(page.Content)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin put page", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	ts := page.UpdatedAt.UnixNano()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (name, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		page.Name, raw, ts); err != nil {
		return wrap("put page "+page.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO page_revisions (name, rev, content, created_at)
		SELECT ?, COALESCE(MAX(rev), 0) + 1, ?, ? FROM page_revisions WHERE name = ?`,
		page.Name, raw, ts, page.Name); err != nil {
		return wrap("record revision "+page.Name, err)
	}
	return wrap("commit put page", tx.Commit())
}

func (s *SQLite) Pages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pages ORDER BY name")
	if err != nil {
		return nil, wrap("list pages", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrap("scan page", err)
		}
		names = append(names, name)
	}
	return names, wrap("iterate pages", rows.Err())
}

func (s *SQLite) PageHistory(ctx context.Context, name string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT rev, content, created_at FROM page_revisions WHERE name = ? ORDER BY rev", name)
	if err != nil {
		return nil, wrap("page history "+name, err)
	}
	defer func() { _ = rows.Close() }()

	var revs []Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	return revs, wrap("iterate revisions", rows.Err())
}

func (s *SQLite) PageRevision(ctx context.Context, name string, rev int) (Revision, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT rev, content, created_at FROM page_revisions WHERE name = ? AND rev = ?", name, rev)
	return scanRevision(row)
}

func scanRevision(row interface{ Scan(...any) error }) (Revision, error) {
	var (
		rev     Revision
		raw     sql.NullString
		created int64
	)
	if err := row.Scan(&rev.Rev, &raw, &created); err != nil {
		return Revision{}, wrap("scan revision", err)
	}
	content, err := decodeContent(raw.String)
	if err != nil {
		return Revision{}, err
	}
	rev.Content = content
	rev.CreatedAt = time.Unix(0, created).UTC()
	return rev, nil
}

var _ Store = (*SQLite)(nil)
