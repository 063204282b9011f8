package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PickLeastServed selects up to n words with the lowest serve count, counts
// them as served and returns them, all inside one transaction.
//
// The candidate ids are read once and the UPDATE targets exactly those ids.
// On Postgres the candidate read skips rows locked by concurrent pickers, so
// callers get disjoint batches and never wait on each other's rows. SQLite has
// no row locks; transactions there are BEGIN IMMEDIATE and pickers serialize
// on the database write lock.
//
// Fewer than n items (or none) is a valid result. Any failure rolls the whole
// transaction back, including a cancelled ctx.
func (s *SQLStore) PickLeastServed(ctx context.Context, n int) ([]Item, error) {
	if n <= 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	defer tx.Rollback()

	picked, err := s.selectCandidatesTx(ctx, tx, n)
	if err != nil {
		return nil, &Error{Op: "select candidates", Err: err}
	}
	if len(picked) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, &Error{Op: "commit", Err: err}
		}
		return picked, nil
	}

	if err := s.incrementServedTx(ctx, tx, picked); err != nil {
		return nil, &Error{Op: "increment serve count", Err: err}
	}

	if s.beforeCommit != nil {
		if err := s.beforeCommit(ctx, picked); err != nil {
			return nil, &Error{Op: "pick", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &Error{Op: "commit", Err: err}
	}

	for i := range picked {
		picked[i].ServeCount++
	}
	return picked, nil
}

// selectCandidatesTx reads the n least served rows, lowest count first.
func (s *SQLStore) selectCandidatesTx(ctx context.Context, tx *sql.Tx, n int) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM words ORDER BY serve_count ASC, id ASC LIMIT ?`
	if s.dialect.lockClause != "" {
		query += ` ` + s.dialect.lockClause
	}

	rows, err := tx.QueryContext(ctx, s.dialect.rebind(query), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	picked := make([]Item, 0, n)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		picked = append(picked, *it)
	}
	return picked, rows.Err()
}

// incrementServedTx bumps serve_count for exactly the picked ids.
func (s *SQLStore) incrementServedTx(ctx context.Context, tx *sql.Tx, picked []Item) error {
	args := make([]any, len(picked))
	for i := range picked {
		args[i] = picked[i].ID
	}

	res, err := tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE words SET serve_count = serve_count + 1 WHERE id IN (`+inList(len(args))+`)`), args...)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(updated) != len(picked) {
		return fmt.Errorf("updated %d rows, picked %d", updated, len(picked))
	}
	return nil
}
