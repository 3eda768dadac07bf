// Package store is the Local Store: the relational database holding the
// canonical copy of every synced collection.
//
// Each collection is one table with an auto-increment integer id, a unique
// natural key and the entity itself as a JSON document. The id is assigned
// on first insert and never changes; it is the join key with the remote
// mirror.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Collection names.
const (
	Meetings    = "meetings"
	Papers      = "papers"
	RFDs        = "rfds"
	Subscribers = "subscribers"
	Applicants  = "applicants"
)

// Config selects and locates the database.
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// DB is an open Local Store.
type DB struct {
	db      *sql.DB
	dialect dialect
}

type dialect struct {
	name       string
	sqlDriver  string
	createStmt string
	numbered   bool
}

var dialects = map[string]dialect{
	DriverPostgres: {
		name:      DriverPostgres,
		sqlDriver: "pgx",
		createStmt: `CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			natural_key TEXT NOT NULL UNIQUE,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		numbered: true,
	},
	DriverSQLite: {
		name:      DriverSQLite,
		sqlDriver: "sqlite",
		createStmt: `CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			natural_key TEXT NOT NULL UNIQUE,
			payload BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	},
}

var sqlOpen = sql.Open

// Open connects to the database described by cfg and verifies the
// connection. A postgres DSN with an empty driver selects postgres;
// anything else defaults to sqlite.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = DriverSQLite
		if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
			driver = DriverPostgres
		}
	}
	d, ok := dialects[driver]
	if !ok {
		return nil, &errors.ValidationError{Field: "driver", Value: cfg.Driver, Message: "must be postgres or sqlite"}
	}

	dsn := cfg.DSN
	if d.name == DriverSQLite {
		if dsn == "" {
			dsn = "airsync.db"
		}
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
				return nil, errors.WrapIO("create", dir, err)
			}
		}
	} else if dsn == "" {
		return nil, errors.NewConfigError("store", "postgres requires a DSN", nil)
	}

	db, err := sqlOpen(d.sqlDriver, dsn)
	if err != nil {
		return nil, errors.WrapResource("open", "database", d.name, err)
	}
	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("ping", "database", d.name, err)
	}

	logging.FromContext(ctx).Debug().Str("driver", d.name).Msg("Opened local store")
	return &DB{db: db, dialect: d}, nil
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Driver returns the name of the driver in use.
func (d *DB) Driver() string {
	return d.dialect.name
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func (d *DB) migrate(ctx context.Context, table string) error {
	if !tableName.MatchString(table) {
		return &errors.ValidationError{Field: "collection", Value: table, Message: "must be a lower-case identifier"}
	}
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(d.dialect.createStmt, table)); err != nil {
		return errors.WrapResource("migrate", "collection", table, err)
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (d *DB) rebind(query string) string {
	if !d.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
