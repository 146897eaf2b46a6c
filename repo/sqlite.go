package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/htol/bookshelf/book"
	"github.com/htol/bookshelf/config"
	"github.com/htol/bookshelf/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	booksTable = "books"
	// keeps IN lists under SQLite's bound parameter limit
	batchChunk = 500
)

const schema = `
	CREATE TABLE IF NOT EXISTS books (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		read BOOLEAN NOT NULL DEFAULT 0
	);
`

var dialect = goqu.Dialect("sqlite3")

// SQLite is a record store backed by a SQLite database. The seq column keeps
// insertion order.
type SQLite struct {
	db    *sqlx.DB
	path  string
	newID IDFunc
}

// NewSQLite opens (or creates) the database at cfg.Path. ":memory:" gives a
// private database bound to a single connection.
func NewSQLite(cfg config.StoreConfig, opts ...Option) (*SQLite, error) {
	o := buildOptions(opts)

	inMemory := cfg.Path == ":memory:"
	dsn := cfg.Path
	if !inMemory {
		dsn = "file:" + cfg.Path + "?cache=shared&mode=rwc&_journal_mode=WAL"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}

	if inMemory {
		// every new connection would see an empty database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Debug("SQLite store opened", "path", cfg.Path)
	return &SQLite{db: db, path: cfg.Path, newID: o.newID}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		logger.Info("Closing database connection", "path", s.path)
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Ping() error {
	if s.db != nil {
		return s.db.Ping()
	}
	return sql.ErrConnDone
}

func (s *SQLite) Insert(ctx context.Context, f book.Fields) (string, error) {
	id := s.newID()
	query, args, err := dialect.Insert(booksTable).Prepared(true).Rows(goqu.Record{
		"id":     id,
		"title":  f.Title,
		"author": f.Author,
		"read":   f.Read,
	}).ToSQL()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert book: %w", err)
	}
	return id, nil
}

func (s *SQLite) Find(ctx context.Context, id string) (book.Book, error) {
	query, args, err := s.selectBooks().Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return book.Book{}, fmt.Errorf("build select: %w", err)
	}

	var b book.Book
	if err := s.db.GetContext(ctx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return book.Book{}, ErrNotFound
		}
		return book.Book{}, fmt.Errorf("find book %s: %w", id, err)
	}
	return b, nil
}

func (s *SQLite) Update(ctx context.Context, b book.Book) (bool, error) {
	query, args, err := dialect.Update(booksTable).Prepared(true).Set(goqu.Record{
		"title":  b.Title,
		"author": b.Author,
		"read":   b.Read,
	}).Where(goqu.C("id").Eq(b.ID)).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update book %s: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) Remove(ctx context.Context, id string) (bool, error) {
	n, err := s.RemoveMany(ctx, []string{id})
	return n > 0, err
}

func (s *SQLite) RemoveMany(ctx context.Context, ids []string) (int, error) {
	return s.inChunks(ctx, ids, func(chunk []string) (string, []any, error) {
		return dialect.Delete(booksTable).Prepared(true).Where(goqu.C("id").In(chunk)).ToSQL()
	})
}

func (s *SQLite) SetRead(ctx context.Context, ids []string, read bool) (int, error) {
	return s.inChunks(ctx, ids, func(chunk []string) (string, []any, error) {
		return dialect.Update(booksTable).Prepared(true).
			Set(goqu.Record{"read": read}).
			Where(goqu.C("id").In(chunk)).
			ToSQL()
	})
}

func (s *SQLite) Snapshot(ctx context.Context) ([]book.Book, error) {
	query, args, err := s.selectBooks().ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	books := make([]book.Book, 0)
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	return books, nil
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	query, args, err := dialect.From(booksTable).Prepared(true).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (s *SQLite) selectBooks() *goqu.SelectDataset {
	return dialect.From(booksTable).Prepared(true).
		Select("id", "title", "author", "read").
		Order(goqu.C("seq").Asc())
}

// inChunks runs one statement per chunk of de-duplicated ids inside a single
// transaction and sums the affected rows
func (s *SQLite) inChunks(ctx context.Context, ids []string, build func([]string) (string, []any, error)) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	unique := make([]string, 0, len(ids))
	for id := range idSet(ids) {
		unique = append(unique, id)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Warn("Failed to rollback transaction", "error", err)
		}
	}()

	total := 0
	for start := 0; start < len(unique); start += batchChunk {
		end := min(start+batchChunk, len(unique))
		query, args, err := build(unique[start:end])
		if err != nil {
			return 0, fmt.Errorf("build statement: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("exec batch: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}
