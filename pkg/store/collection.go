package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/agentstation/airsync/pkg/errors"
)

// Codec tells a Collection how to identify an entity.
type Codec[T any] interface {
	// NaturalKey returns the key a row is upserted by. It must be non-empty.
	NaturalKey(row T) string

	// SetID stores the canonical id on the row.
	SetID(row *T, id int)
}

// Collection is a typed table of the Local Store.
type Collection[T any] struct {
	db    *DB
	name  string
	codec Codec[T]
	now   func() time.Time
}

// NewCollection returns the collection called name, creating its table if
// needed.
func NewCollection[T any](ctx context.Context, db *DB, name string, codec Codec[T]) (*Collection[T], error) {
	if db == nil {
		return nil, &errors.ValidationError{Field: "db", Message: "cannot be nil"}
	}
	if codec == nil {
		return nil, &errors.ValidationError{Field: "codec", Message: "cannot be nil"}
	}
	if err := db.migrate(ctx, name); err != nil {
		return nil, err
	}
	return &Collection[T]{db: db, name: name, codec: codec, now: time.Now}, nil
}

// Name returns the table name.
func (c *Collection[T]) Name() string {
	return c.name
}

// List returns every row ordered by id.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.db.db.QueryContext(ctx, "SELECT id, payload FROM "+c.name+" ORDER BY id")
	if err != nil {
		return nil, errors.WrapResource("list", c.name, "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		row, err := c.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", c.name, "", err)
	}
	return out, nil
}

// Get returns the row with the given id.
func (c *Collection[T]) Get(ctx context.Context, id int) (T, error) {
	row := c.db.db.QueryRowContext(ctx, c.db.rebind("SELECT id, payload FROM "+c.name+" WHERE id = ?"), id)
	v, err := c.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return v, errors.NewNotFoundError(c.name, strconv.Itoa(id))
	}
	return v, err
}

// GetByKey returns the row with the given natural key.
func (c *Collection[T]) GetByKey(ctx context.Context, key string) (T, error) {
	row := c.db.db.QueryRowContext(ctx, c.db.rebind("SELECT id, payload FROM "+c.name+" WHERE natural_key = ?"), key)
	v, err := c.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return v, errors.NewNotFoundError(c.name, key)
	}
	return v, err
}

// Upsert inserts row, or replaces the row sharing its natural key. The
// returned row carries the canonical id, which is kept on replace.
func (c *Collection[T]) Upsert(ctx context.Context, row T) (T, error) {
	key := c.codec.NaturalKey(row)
	if key == "" {
		return row, &errors.ValidationError{Field: "natural_key", Message: "cannot be empty"}
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return row, errors.WrapParse("json", c.name, err)
	}

	query := c.db.rebind("INSERT INTO " + c.name + " (natural_key, payload, updated_at) VALUES (?, ?, ?) " +
		"ON CONFLICT (natural_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at " +
		"RETURNING id")
	var id int
	if err := c.db.db.QueryRowContext(ctx, query, key, string(payload), c.now().UTC()).Scan(&id); err != nil {
		return row, errors.WrapResource("upsert", c.name, key, err)
	}
	c.codec.SetID(&row, id)
	return row, nil
}

// Count returns the number of rows.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.name).Scan(&n); err != nil {
		return 0, errors.WrapResource("count", c.name, "", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (c *Collection[T]) scan(s scanner) (T, error) {
	var (
		row     T
		id      int
		payload []byte
	)
	if err := s.Scan(&id, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, err
		}
		return row, errors.WrapResource("scan", c.name, "", err)
	}
	if err := json.Unmarshal(payload, &row); err != nil {
		return row, errors.WrapParse("json", c.name+"/"+strconv.Itoa(id), err)
	}
	c.codec.SetID(&row, id)
	return row, nil
}
