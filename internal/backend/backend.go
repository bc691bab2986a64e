package backend

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrationsFS embed.FS

const defaultQueryTimeout = 5 * time.Second

// Config describes how to reach the store.
type Config struct {
	Driver string // "postgres" or "sqlite3"
	DSN    string
	// Prime drops and recreates the schema from the bundled DDL. Only for
	// ephemeral instances; nothing sets it implicitly.
	Prime        bool
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Backend is the single point through which every query or insert reaches
// the store. It owns the connection pool and a prepared-statement cache
// keyed by exact query text. Callers serialize access through Shared.
type Backend struct {
	db      *sql.DB
	driver  string
	dsn     string
	schema  *schemaDef
	log     *slog.Logger
	timeout time.Duration

	cacheMu  sync.Mutex
	stmts    map[string]*sql.Stmt
	prepares atomic.Int64

	// OnPrepare, if set before the backend is used, is called once per
	// statement actually prepared against the store.
	OnPrepare func(query string)
}

// New opens the pool, proves the store is reachable and optionally primes
// the schema. An unreachable store is a fatal construction error.
func New(cfg Config) (*Backend, error) {
	if cfg.Driver != "postgres" && cfg.Driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}

	ddl, err := migrationsFS.ReadFile("migrations/" + cfg.Driver + "/000001_init.up.sql")
	if err != nil {
		return nil, fmt.Errorf("read bundled schema: %w", err)
	}
	schema, err := parseSchema(string(ddl))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	b := &Backend{
		db:      db,
		driver:  cfg.Driver,
		dsn:     cfg.DSN,
		schema:  schema,
		log:     cfg.Logger,
		timeout: cfg.QueryTimeout,
		stmts:   make(map[string]*sql.Stmt),
	}

	switch cfg.Driver {
	case "sqlite3":
		// One writer at a time; the busy timeout covers the rest.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
			db.Close()
			return nil, &ConnectionError{Err: err}
		}
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Err: err}
	}

	if cfg.Prime {
		b.log.Debug("priming database schema", "driver", cfg.Driver)
		if err := b.prime(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return b, nil
}

// Close releases cached statements and the pool.
func (b *Backend) Close() error {
	b.cacheMu.Lock()
	for _, st := range b.stmts {
		st.Close()
	}
	b.stmts = make(map[string]*sql.Stmt)
	b.cacheMu.Unlock()
	return b.db.Close()
}

// PrepareCount reports how many statements have been prepared against the
// store so far.
func (b *Backend) PrepareCount() int64 {
	return b.prepares.Load()
}

func (b *Backend) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}

// stmt returns the cached handle for query, preparing it on first use.
func (b *Backend) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	if st, ok := b.stmts[query]; ok {
		return st, nil
	}
	st, err := b.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, wrapQueryErr(query, err)
	}
	b.stmts[query] = st
	b.prepares.Add(1)
	if b.OnPrepare != nil {
		b.OnPrepare(query)
	}
	return st, nil
}

func (b *Backend) evict(query string) {
	b.cacheMu.Lock()
	if st, ok := b.stmts[query]; ok {
		st.Close()
		delete(b.stmts, query)
	}
	b.cacheMu.Unlock()
}

// Query executes a read through the statement cache and materializes every
// row. A handle that went stale underneath is re-prepared once; a second
// failure surfaces as StatementInvalid.
func (b *Backend) Query(query string, params ...Value) ([]Row, error) {
	ctx, cancel := b.opCtx()
	defer cancel()

	st, err := b.stmt(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := st.QueryContext(ctx, args(params)...)
	if err != nil {
		if !isStmtClosed(err) {
			return nil, wrapQueryErr(query, err)
		}
		b.evict(query)
		if st, err = b.stmt(ctx, query); err != nil {
			return nil, &StatementInvalid{Query: query, Err: err}
		}
		if rows, err = st.QueryContext(ctx, args(params)...); err != nil {
			return nil, &StatementInvalid{Query: query, Err: err}
		}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapQueryErr(query, err)
	}

	var out []Row
	for rows.Next() {
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, wrapQueryErr(query, err)
		}
		row := make(Row, len(cols))
		for i, d := range dest {
			v, err := fromColumn(*(d.(*any)))
			if err != nil {
				return nil, &QueryError{Query: query, Err: err}
			}
			row[i] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr(query, err)
	}

	b.log.Debug("executed query", "query", query, "rows", len(out))
	return out, nil
}

// Exec executes a statement that returns no rows, through the same cache
// and staleness handling as Query.
func (b *Backend) Exec(query string, params ...Value) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	st, err := b.stmt(ctx, query)
	if err != nil {
		return err
	}

	if _, err := st.ExecContext(ctx, args(params)...); err != nil {
		if !isStmtClosed(err) {
			return wrapQueryErr(query, err)
		}
		b.evict(query)
		if st, err = b.stmt(ctx, query); err != nil {
			return &StatementInvalid{Query: query, Err: err}
		}
		if _, err = st.ExecContext(ctx, args(params)...); err != nil {
			return &StatementInvalid{Query: query, Err: err}
		}
	}

	b.log.Debug("executed statement", "query", query)
	return nil
}

// Insert writes one full row. Duplicate keys fail with a QueryError.
func (b *Backend) Insert(table string, vals ...Value) error {
	query, err := b.writeQuery(table, len(vals), false)
	if err != nil {
		return err
	}
	return b.Exec(query, vals...)
}

// Replace writes one full row, overwriting an existing row with the same
// primary key.
func (b *Backend) Replace(table string, vals ...Value) error {
	query, err := b.writeQuery(table, len(vals), true)
	if err != nil {
		return err
	}
	return b.Exec(query, vals...)
}

func (b *Backend) writeQuery(table string, n int, replace bool) (string, error) {
	def, err := b.schema.table(table)
	if err != nil {
		return "", err
	}
	if n != len(def.cols) {
		return "", fmt.Errorf("table %s has %d columns, got %d values", def.name, len(def.cols), n)
	}

	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var sb strings.Builder
	if replace && b.driver == "sqlite3" {
		sb.WriteString("INSERT OR REPLACE INTO ")
	} else {
		sb.WriteString("INSERT INTO ")
	}
	sb.WriteString(def.name)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(def.cols, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(placeholders, ", "))
	sb.WriteString(")")

	if replace && b.driver == "postgres" {
		if len(def.pk) == 0 {
			return "", fmt.Errorf("table %s has no primary key to replace on", def.name)
		}
		sb.WriteString(" ON CONFLICT (")
		sb.WriteString(strings.Join(def.pk, ", "))
		sb.WriteString(")")
		var sets []string
		for _, c := range def.cols {
			if !def.isKey(c) {
				sets = append(sets, c+" = EXCLUDED."+c)
			}
		}
		if len(sets) == 0 {
			sb.WriteString(" DO NOTHING")
		} else {
			sb.WriteString(" DO UPDATE SET ")
			sb.WriteString(strings.Join(sets, ", "))
		}
	}

	return sb.String(), nil
}
