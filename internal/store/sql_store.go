package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Options configures Open.
type Options struct {
	Driver       string        // "sqlite" (default) or "postgres"
	DSN          string        // file path for sqlite, connection string for postgres
	MaxOpenConns int           // 0 keeps the database/sql default
	BusyTimeout  time.Duration // sqlite only
}

// SQLStore is the database/sql backed data store.
// It holds no item state of its own; every call reads committed rows.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	// beforeCommit runs inside PickLeastServed after the counters were
	// incremented and before COMMIT. Tests use it to inject failures.
	beforeCommit func(ctx context.Context, picked []Item) error
}

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a SQLite store for a database file path.
// Use ":memory:" for in-memory.
func NewSQLiteStoreWithDSN(path string) (*SQLStore, error) {
	return Open(context.Background(), Options{Driver: DriverSQLite, DSN: path})
}

// Open connects to the configured backend, verifies the connection and
// creates the schema if it does not exist yet.
func Open(ctx context.Context, opts Options) (*SQLStore, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	dsn := opts.DSN
	if d.name == DriverSQLite {
		if dsn == "" {
			dsn = ":memory:"
		}
		if dsn, err = SQLiteDSN(dsn, opts.BusyTimeout); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, unavailable("open", err)
	}
	switch {
	case d.name == DriverSQLite && (strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")):
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	case opts.MaxOpenConns > 0:
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping", err)
	}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLStore{db: db, dialect: d}, nil
}

// Driver reports the backend name ("sqlite" or "postgres").
func (s *SQLStore) Driver() string {
	return s.dialect.name
}

// Ping checks that the backend is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Items
// =============================================================================

const itemColumns = `id, word, translation, word_type, serve_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.Word, &it.Translation, &it.WordType, &it.ServeCount); err != nil {
		return nil, err
	}
	return &it, nil
}

// InsertItems bulk-loads items in one transaction. Items without an ID get a
// fresh UUID and every item starts with a serve count of 0. Words that already
// exist are skipped. Returns the number of rows inserted.
func (s *SQLStore) InsertItems(ctx context.Context, items []*Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	for _, it := range items {
		if strings.TrimSpace(it.Word) == "" {
			return 0, fmt.Errorf("%w: empty word", ErrInvalidItem)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO words (id, word, translation, word_type, serve_count)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT (word) DO NOTHING
	`))
	if err != nil {
		return 0, &Error{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	inserted := 0
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.ServeCount = 0
		res, err := stmt.ExecContext(ctx, it.ID, it.Word, it.Translation, it.WordType)
		if err != nil {
			return 0, &Error{Op: "insert word " + it.Word, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &Error{Op: "insert word " + it.Word, Err: err}
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, &Error{Op: "commit", Err: err}
	}
	return inserted, nil
}

// GetItemByKey retrieves an item by its word.
func (s *SQLStore) GetItemByKey(ctx context.Context, word string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT `+itemColumns+` FROM words WHERE word = ?`), word)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get word %q: %w", word, err)
	}
	return it, nil
}

// ListItems lists items least served first. An empty wordType lists all.
func (s *SQLStore) ListItems(ctx context.Context, wordType string) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM words`
	var args []any
	if wordType != "" {
		query += ` WHERE word_type = ?`
		args = append(args, wordType)
	}
	query += ` ORDER BY serve_count ASC, word ASC`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItems returns the total number of items.
func (s *SQLStore) CountItems(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return count, nil
}

// =============================================================================
// Subscriptions
// =============================================================================

// AddSubscription stores a new subscriber. Returns ErrDuplicate when the email
// is already subscribed.
func (s *SQLStore) AddSubscription(ctx context.Context, sub *Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubscribedAt == 0 {
		sub.SubscribedAt = time.Now().UTC().UnixMilli()
	}

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO subscriptions (id, email, name, subscribed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`), sub.ID, sub.Email, sub.Name, sub.SubscribedAt)
	if err != nil {
		return &Error{Op: "insert subscription", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &Error{Op: "insert subscription", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("%w: email %q", ErrDuplicate, sub.Email)
	}
	return nil
}

// GetSubscriptionByEmail retrieves a subscriber by email.
func (s *SQLStore) GetSubscriptionByEmail(ctx context.Context, email string) (*Subscription, error) {
	var sub Subscription
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT id, email, name, subscribed_at FROM subscriptions WHERE email = ?
	`), email).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.SubscribedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// =============================================================================
// Export / Import
// =============================================================================

// exportData is the portable word list document.
type exportData struct {
	Words []*Item `json:"words"`
}

// Export serializes all words to JSON bytes.
func (s *SQLStore) Export(ctx context.Context) ([]byte, error) {
	items, err := s.ListItems(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("export words: %w", err)
	}
	if items == nil {
		items = []*Item{}
	}
	return json.Marshal(exportData{Words: items})
}

// Import loads words from an exported JSON document. Serve counts are not
// restored; imported words enter the rotation unserved.
func (s *SQLStore) Import(ctx context.Context, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	var in exportData
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, fmt.Errorf("import unmarshal: %w", err)
	}
	return s.InsertItems(ctx, in.Words)
}

// Compile-time interface check
var _ Storer = (*SQLStore)(nil)
