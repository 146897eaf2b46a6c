package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/htol/bookshelf/book"
	"github.com/htol/bookshelf/logger"
)

// BulkInserter is implemented by stores that can insert many books in one
// atomic step. Identifiers are returned in input order.
type BulkInserter interface {
	InsertMany(ctx context.Context, fields []book.Fields) ([]string, error)
}

// insertChunk is the number of rows per INSERT; 4 parameters per row stays
// under SQLite's default limit of 999
const insertChunk = 200

func (m *Memory) InsertMany(_ context.Context, fields []book.Fields) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = m.newID()
		m.records = append(m.records, f.WithID(ids[i]))
	}
	return ids, nil
}

func (s *SQLite) InsertMany(ctx context.Context, fields []book.Fields) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Warn("Failed to rollback transaction", "error", err)
		}
	}()

	ids := make([]string, 0, len(fields))
	for start := 0; start < len(fields); start += insertChunk {
		end := min(start+insertChunk, len(fields))

		rows := make([]any, 0, end-start)
		for _, f := range fields[start:end] {
			id := s.newID()
			ids = append(ids, id)
			rows = append(rows, goqu.Record{
				"id":     id,
				"title":  f.Title,
				"author": f.Author,
				"read":   f.Read,
			})
		}

		query, args, err := dialect.Insert(booksTable).Prepared(true).Rows(rows...).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build bulk insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("bulk insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	logger.Debug("Bulk insert committed", "books", len(ids))
	return ids, nil
}
