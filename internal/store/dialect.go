package store

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect captures the SQL differences between the supported backends.
type dialect struct {
	name       string
	driverName string // database/sql driver registration name
	schema     []string

	// lockClause is appended to the candidate SELECT. Empty when the backend
	// has no row locks and relies on an IMMEDIATE transaction instead.
	lockClause string

	numbered bool // $1, $2 placeholders instead of ?
}

var sqliteDialect = dialect{
	name:       DriverSQLite,
	driverName: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS words (
    id TEXT PRIMARY KEY,
    word TEXT NOT NULL UNIQUE,
    translation TEXT NOT NULL,
    word_type TEXT NOT NULL,
    serve_count INTEGER NOT NULL DEFAULT 0 CHECK (serve_count >= 0)
)`,
		`CREATE INDEX IF NOT EXISTS idx_words_rotation ON words(serve_count, id)`,
		`CREATE INDEX IF NOT EXISTS idx_words_type ON words(word_type)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    subscribed_at INTEGER NOT NULL
)`,
	},
}

var postgresDialect = dialect{
	name:       DriverPostgres,
	driverName: "pgx",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS words (
    id TEXT PRIMARY KEY,
    word TEXT NOT NULL UNIQUE,
    translation TEXT NOT NULL,
    word_type TEXT NOT NULL,
    serve_count BIGINT NOT NULL DEFAULT 0 CHECK (serve_count >= 0)
)`,
		`CREATE INDEX IF NOT EXISTS idx_words_rotation ON words(serve_count, id)`,
		`CREATE INDEX IF NOT EXISTS idx_words_type ON words(word_type)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    subscribed_at BIGINT NOT NULL
)`,
	},
	lockClause: "FOR UPDATE SKIP LOCKED",
	numbered:   true,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite3", "":
		return sqliteDialect, nil
	case DriverPostgres, "pgx", "postgresql":
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// rebind rewrites ? placeholders into the dialect's form.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

// inList returns "?, ?, ?" for n values.
func inList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// SQLiteDSN builds an ncruces driver DSN for a database file or a "file:" URI.
// Transactions are opened as BEGIN IMMEDIATE so a picker takes the write lock
// before it reads its candidates. Parameters already present in a URI are
// kept; missing ones are added. A URI asking for another _txlock is rejected.
func SQLiteDSN(path string, busyTimeout time.Duration) (string, error) {
	if busyTimeout <= 0 {
		busyTimeout = 10 * time.Second
	}

	name, rawQuery := path, ""
	if strings.HasPrefix(path, "file:") {
		name, rawQuery, _ = strings.Cut(strings.TrimPrefix(path, "file:"), "?")
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn: %w", err)
	}

	var params []string
	if rawQuery != "" {
		params = append(params, rawQuery)
	}
	switch lock := query.Get("_txlock"); lock {
	case "":
		params = append(params, "_txlock=immediate")
	case "immediate":
	default:
		return "", fmt.Errorf("sqlite dsn: _txlock=%s is not supported, pickers need immediate", lock)
	}
	if !hasPragma(query, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout("+strconv.FormatInt(busyTimeout.Milliseconds(), 10)+")")
	}
	inMemory := name == ":memory:" || query.Get("mode") == "memory"
	if !inMemory && !hasPragma(query, "journal_mode") {
		params = append(params, "_pragma=journal_mode(wal)")
	}
	return "file:" + name + "?" + strings.Join(params, "&"), nil
}

func hasPragma(query url.Values, name string) bool {
	for _, p := range query["_pragma"] {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(p)), name) {
			return true
		}
	}
	return false
}
