// Package memory provides an in-memory mirror.Mirror with Airtable's
// semantics: opaque "rec" ids, offset pagination, batch limits and partial
// updates. It backs dry runs and tests.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Op describes a single call made against the mirror.
type Op struct {
	Kind   string // "list", "create" or "update"
	Table  string
	Offset string
	Record mirror.Record
}

// FailFunc lets tests inject failures. Returning a non-nil error aborts the
// call for that op.
type FailFunc func(op Op) error

// Mirror is an in-memory remote store. The zero value is not usable; call New.
type Mirror struct {
	mu       sync.Mutex
	tables   map[string][]mirror.Record
	pageSize int
	now      func() time.Time
	fail     FailFunc
	calls    map[string]int
}

var _ mirror.Mirror = (*Mirror)(nil)

// Option configures a Mirror.
type Option func(*Mirror)

// WithPageSize sets how many records each internal page holds.
func WithPageSize(n int) Option {
	return func(m *Mirror) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// WithClock sets the clock used for CreatedTime.
func WithClock(now func() time.Time) Option {
	return func(m *Mirror) {
		m.now = now
	}
}

// WithFailure installs a failure injector.
func WithFailure(fn FailFunc) Option {
	return func(m *Mirror) {
		m.fail = fn
	}
}

// New creates an empty in-memory mirror.
func New(opts ...Option) *Mirror {
	m := &Mirror{
		tables:   make(map[string][]mirror.Record),
		pageSize: constants.DefaultPageSize,
		now:      time.Now,
		calls:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed inserts records as-is. Records without an id get one.
func (m *Mirror) Seed(table string, records ...mirror.Record) []mirror.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mirror.Record, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = newID()
		}
		if r.CreatedTime.IsZero() {
			r.CreatedTime = m.now()
		}
		r.Fields = r.Fields.Clone()
		m.tables[table] = append(m.tables[table], r)
		out = append(out, r)
	}
	return out
}

// Records returns a copy of every record in table, in creation order.
func (m *Mirror) Records(table string) []mirror.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.tables[table])
}

// Calls returns how many calls of kind ("list", "create", "update") were made.
// List counts pages.
func (m *Mirror) Calls(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind]
}

// ListRecords implements mirror.Mirror.
func (m *Mirror) ListRecords(ctx context.Context, table string, opts mirror.ListOptions) ([]mirror.Record, error) {
	pageSize := m.pageSize
	if opts.PageSize > 0 && opts.PageSize < pageSize {
		pageSize = opts.PageSize
	}
	return mirror.CollectPages(ctx, table, func(ctx context.Context, offset string) ([]mirror.Record, string, error) {
		return m.page(ctx, table, offset, pageSize, opts.Fields)
	})
}

func (m *Mirror) page(ctx context.Context, table, offset string, size int, fields []string) ([]mirror.Record, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["list"]++
	if err := m.injected(Op{Kind: "list", Table: table, Offset: offset}); err != nil {
		return nil, "", err
	}

	start := 0
	if offset != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(offset, "itr"))
		if err != nil || n < 0 {
			return nil, "", errors.NewAPIError("memory", 422, "LIST_RECORDS_ITERATOR_NOT_AVAILABLE")
		}
		start = n
	}
	rows := m.tables[table]
	if start > len(rows) {
		start = len(rows)
	}
	end := min(start+size, len(rows))

	page := cloneAll(rows[start:end])
	if len(fields) > 0 {
		for i := range page {
			page[i].Fields = project(page[i].Fields, fields)
		}
	}
	next := ""
	if end < len(rows) {
		next = "itr" + strconv.Itoa(end)
	}
	return page, next, nil
}

// CreateRecords implements mirror.Mirror.
func (m *Mirror) CreateRecords(ctx context.Context, table string, records []mirror.Record) ([]mirror.Record, error) {
	if err := checkBatch(ctx, records); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["create"]++
	for _, r := range records {
		if err := m.injected(Op{Kind: "create", Table: table, Record: r}); err != nil {
			return nil, err
		}
	}

	created := make([]mirror.Record, 0, len(records))
	for _, r := range records {
		rec := mirror.Record{ID: newID(), CreatedTime: m.now(), Fields: dropNil(r.Fields)}
		m.tables[table] = append(m.tables[table], rec)
		created = append(created, clone(rec))
	}
	return created, nil
}

// UpdateRecords implements mirror.Mirror. Only the fields present in each
// payload change; a nil value clears the field.
func (m *Mirror) UpdateRecords(ctx context.Context, table string, records []mirror.Record) ([]mirror.Record, error) {
	if err := checkBatch(ctx, records); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["update"]++
	rows := m.tables[table]
	idx := make([]int, len(records))
	for i, r := range records {
		if err := m.injected(Op{Kind: "update", Table: table, Record: r}); err != nil {
			return nil, err
		}
		idx[i] = indexOf(rows, r.ID)
		if idx[i] < 0 {
			return nil, errors.NewAPIError("memory", 404, "record "+r.ID+" not found")
		}
	}

	updated := make([]mirror.Record, 0, len(records))
	for i, r := range records {
		row := &rows[idx[i]]
		if row.Fields == nil {
			row.Fields = mirror.Fields{}
		}
		for k, v := range r.Fields.Clone() {
			if v == nil {
				delete(row.Fields, k)
				continue
			}
			row.Fields[k] = v
		}
		updated = append(updated, clone(*row))
	}
	return updated, nil
}

func (m *Mirror) injected(op Op) error {
	if m.fail == nil {
		return nil
	}
	return m.fail(op)
}

func checkBatch(ctx context.Context, records []mirror.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.NewValidationError("records", 0, "at least one record is required")
	}
	if len(records) > constants.MaxBatchSize {
		return errors.NewAPIError("memory", 422,
			"INVALID_RECORDS: at most "+strconv.Itoa(constants.MaxBatchSize)+" records per request")
	}
	return nil
}

func newID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

func indexOf(rows []mirror.Record, id string) int {
	for i := range rows {
		if rows[i].ID == id {
			return i
		}
	}
	return -1
}

func project(f mirror.Fields, keys []string) mirror.Fields {
	out := make(mirror.Fields, len(keys))
	for _, k := range keys {
		if v, ok := f[k]; ok {
			out[k] = v
		}
	}
	return out
}

func dropNil(f mirror.Fields) mirror.Fields {
	out := f.Clone()
	if out == nil {
		out = mirror.Fields{}
	}
	for k, v := range out {
		if v == nil {
			delete(out, k)
		}
	}
	return out
}

func clone(r mirror.Record) mirror.Record {
	r.Fields = r.Fields.Clone()
	return r
}

func cloneAll(rows []mirror.Record) []mirror.Record {
	out := make([]mirror.Record, len(rows))
	for i := range rows {
		out[i] = clone(rows[i])
	}
	return out
}
