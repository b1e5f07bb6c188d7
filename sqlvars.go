package sqlvars

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Engine identifies the SQL engine for DSN construction and a few
// engine-specific statements (charset set, existence checks).
type Engine int

const (
	Postgres Engine = iota
	MySQL
	SQLite
)

const defaultStmtCacheSize = 256

// String returns the wire identifier of the engine.
func (e Engine) String() string {
	switch e {
	case Postgres:
		return "pgsql"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseEngine maps a wire identifier back to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(s) {
	case "pgsql", "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEngine, s)
}

// DefaultPort returns the conventional port for the engine. SQLite is
// file-backed and has no port.
func (e Engine) DefaultPort() int {
	switch e {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	default:
		return 0
	}
}

// driverName returns the database/sql driver registered for the engine.
func (e Engine) driverName() string {
	switch e {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return "sqlite3"
	}
}

// Config describes how to reach a database instance and how the
// convenience helpers behave.
type Config struct {
	Engine   Engine
	Host     string
	Port     int    // 0 = engine default
	Database string // database name, or file path for SQLite ("" = in-memory)
	Username string
	Password string
	Charset  string // applied via SET NAMES on pgsql/mysql

	// AlwaysParse forces the Query-Vars scanner to run even when no
	// vars were supplied and the SQL carries no {$ marker.
	AlwaysParse bool

	// StmtCacheSize bounds the prepared-statement cache.
	// If = 0, a default of 256 is used. If < 0, caching is disabled.
	StmtCacheSize int

	// Logger receives a Debug entry per executed statement.
	// Nil means no logging.
	Logger *zap.Logger
}

// DB is a connection to one database instance. It owns a *sql.DB and
// forwards to it; composition keeps the driver type out of the API.
// A DB is safe for concurrent use to the same extent *sql.DB is.
type DB struct {
	cfg   Config
	sdb   *sql.DB
	stmts *stmtCache
	log   *zap.Logger
}

// Open connects to the database described by cfg, verifies the
// connection, and applies the configured charset. Every construction
// failure, charset included, is reported as a *ConnError.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dsn, err := driverDSN(cfg)
	if err != nil {
		return nil, &ConnError{Settings: settingsOf(cfg), Err: err}
	}

	sdb, err := sql.Open(cfg.Engine.driverName(), dsn)
	if err != nil {
		return nil, &ConnError{Settings: settingsOf(cfg), Err: err}
	}
	if err := sdb.PingContext(ctx); err != nil {
		sdb.Close()
		return nil, &ConnError{Settings: settingsOf(cfg), Err: err}
	}

	db := NewFromDB(sdb, cfg)
	if err := db.setCharset(ctx); err != nil {
		sdb.Close()
		return nil, &ConnError{Settings: db.Settings(), Err: err}
	}

	db.log.Debug("connected",
		zap.String("engine", cfg.Engine.String()),
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.Database))
	return db, nil
}

// NewFromDB wraps an already-open *sql.DB. Open is the normal path;
// this exists for pools constructed elsewhere and for tests.
func NewFromDB(sdb *sql.DB, cfg Config) *DB {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	db := &DB{cfg: cfg, sdb: sdb, log: log}

	size := cfg.StmtCacheSize
	if size == 0 {
		size = defaultStmtCacheSize
	}
	if size > 0 {
		db.stmts = newStmtCache(size)
	}
	return db
}

// Close releases the statement cache and the underlying pool.
func (db *DB) Close() error {
	if db.stmts != nil {
		db.stmts.close()
	}
	return db.sdb.Close()
}

// Engine returns the connection's engine.
func (db *DB) Engine() Engine { return db.cfg.Engine }

// DSN returns the canonical DSN for this connection (see WireDSN).
func (db *DB) DSN() string { return WireDSN(db.cfg) }

// Port returns the configured port, falling back to the engine
// default (pgsql 5432, mysql 3306, sqlite 0).
func (db *DB) Port() int {
	if db.cfg.Port > 0 {
		return db.cfg.Port
	}
	return db.cfg.Engine.DefaultPort()
}

// Settings returns the redacted settings attached to errors raised by
// this connection.
func (db *DB) Settings() Settings { return settingsOf(db.cfg) }

// setCharset issues the engine-specific charset statement. SQLite has
// none; an empty charset is a no-op.
func (db *DB) setCharset(ctx context.Context) error {
	cs := db.cfg.Charset
	if cs == "" || db.cfg.Engine == SQLite {
		return nil
	}
	if !validCharset(cs) {
		return fmt.Errorf("invalid charset %q", cs)
	}
	_, err := db.sdb.ExecContext(ctx, "SET NAMES '"+cs+"'")
	return err
}

// validCharset limits charset names to [A-Za-z0-9_-]; the name is
// spliced into the SET NAMES statement.
func validCharset(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if !(b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' ||
			b >= '0' && b <= '9' || b == '_' || b == '-') {
			return false
		}
	}
	return true
}

// rewrite runs the Query-Vars substitutor over query. The scan is
// skipped when no vars were supplied, AlwaysParse is off, and the SQL
// carries no {$ marker, so template defaults still apply with an
// empty vars map.
func (db *DB) rewrite(query string, vars Vars) (string, error) {
	if !db.cfg.AlwaysParse && len(vars) == 0 && !strings.Contains(query, "{$") {
		return query, nil
	}
	out, err := Substitute(query, vars)
	if err != nil {
		var ve *VarError
		if errors.As(err, &ve) {
			ve.Settings = db.Settings()
		}
		return "", err
	}
	return out, nil
}

// Query substitutes vars into query and executes it, prepared (via the
// statement cache) when bind args are present, direct otherwise.
// Driver failures come back as *QueryError.
func (db *DB) Query(ctx context.Context, query string, vars Vars, args ...any) (*sql.Rows, error) {
	q, err := db.rewrite(query, vars)
	if err != nil {
		return nil, err
	}
	db.log.Debug("query", zap.String("sql", q), zap.Int("args", len(args)))

	if len(args) > 0 && db.stmts != nil {
		stmt, err := db.stmts.getOrPrepare(ctx, db.sdb, q)
		if err != nil {
			return nil, db.queryErr(q, err)
		}
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return nil, db.queryErr(q, err)
		}
		return rows, nil
	}

	rows, err := db.sdb.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, db.queryErr(q, err)
	}
	return rows, nil
}

// Exec is the statement counterpart of Query for SQL that returns no
// rows.
func (db *DB) Exec(ctx context.Context, query string, vars Vars, args ...any) (sql.Result, error) {
	q, err := db.rewrite(query, vars)
	if err != nil {
		return nil, err
	}
	db.log.Debug("exec", zap.String("sql", q), zap.Int("args", len(args)))

	if len(args) > 0 && db.stmts != nil {
		stmt, err := db.stmts.getOrPrepare(ctx, db.sdb, q)
		if err != nil {
			return nil, db.queryErr(q, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, db.queryErr(q, err)
		}
		return res, nil
	}

	res, err := db.sdb.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, db.queryErr(q, err)
	}
	return res, nil
}

func (db *DB) queryErr(q string, err error) error {
	return &QueryError{SQL: q, Settings: db.Settings(), Err: err}
}

// TableExists reports whether a table with the given name exists,
// using the engine's catalog.
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	var probe string
	switch db.cfg.Engine {
	case Postgres:
		probe = "SELECT 1 FROM information_schema.tables WHERE table_name = $1"
	case MySQL:
		probe = "SELECT 1 FROM information_schema.tables WHERE table_name = ?"
	default:
		probe = "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?"
	}

	rows, err := db.Query(ctx, probe, nil, name)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if rows.Next() {
		return true, nil
	}
	return false, rows.Err()
}

// ParamType optionally declares how a condition value is rendered by
// QuoteTyped.
type ParamType int

const (
	ParamString ParamType = iota
	ParamInt
)

// Quote returns s as a SQL string literal for the connection's engine:
// embedded quotes are doubled, and MySQL additionally gets backslash
// escaping.
func (db *DB) Quote(s string) string {
	return quoteLiteral(db.cfg.Engine, s)
}

// QuoteTyped quotes honoring an explicit declared type. ParamInt
// renders a sanitized bare integer literal (0 when s is not an
// integer).
func (db *DB) QuoteTyped(s string, t ParamType) string {
	if t == ParamInt {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return "0"
		}
		return strconv.FormatInt(n, 10)
	}
	return quoteLiteral(db.cfg.Engine, s)
}

func quoteLiteral(e Engine, s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\'':
			b.WriteString("''")
		case '\\':
			if e == MySQL {
				b.WriteString(`\\`)
			} else {
				b.WriteByte(c)
			}
		case 0:
			if e == MySQL {
				b.WriteString(`\0`)
			}
			// NUL cannot appear in a pgsql/sqlite literal; dropped.
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// --------------------------------
// Default-connection registry
// --------------------------------

var (
	defaultMu sync.Mutex
	defaultDB *DB
)

// SetDefault installs db as the process-wide default connection.
// It is set-once: a second call returns ErrDefaultSet until
// ResetDefault tears the registry down.
func SetDefault(db *DB) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDB != nil {
		return ErrDefaultSet
	}
	defaultDB = db
	return nil
}

// Default returns the connection installed via SetDefault.
func Default() (*DB, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDB == nil {
		return nil, ErrNoDefault
	}
	return defaultDB, nil
}

// ResetDefault clears the default connection. The owner of the
// registry calls this on teardown; the connection itself is not
// closed.
func ResetDefault() {
	defaultMu.Lock()
	defaultDB = nil
	defaultMu.Unlock()
}
