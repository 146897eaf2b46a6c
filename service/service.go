// Package service provides business logic layer between HTTP handlers and repository
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/htol/bookshelf/book"
	"github.com/htol/bookshelf/history"
	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/metrics"
	"github.com/htol/bookshelf/query"
	"github.com/htol/bookshelf/repo"
)

// ErrInvalidRequest is returned for structurally invalid batch requests
var ErrInvalidRequest = errors.New("invalid request")

// Service provides business logic for the application
type Service struct {
	repo    repo.Repository
	history *history.History
}

// New creates a new Service with the given repository and search history
func New(repo repo.Repository, h *history.History) *Service {
	return &Service{
		repo:    repo,
		history: h,
	}
}

// Queries

// Query runs spec against a snapshot of the store. A non-empty search term
// is recorded into the search history.
func (s *Service) Query(ctx context.Context, spec query.Spec) (query.Result, error) {
	started := time.Now()

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("snapshot: %w", err)
	}

	res := query.Execute(snapshot, spec)
	if spec.Search != "" && s.history != nil {
		s.history.Record(spec.Search)
	}

	metrics.ObserveQuery(started, res.Total)
	logger.Debug("Query executed", "search", spec.Search, "total", res.Total, "page", res.Page)
	return res, nil
}

// GetBook retrieves a single book by ID
func (s *Service) GetBook(ctx context.Context, id string) (book.Book, error) {
	b, err := s.repo.Find(ctx, id)
	if err != nil {
		return book.Book{}, fmt.Errorf("get book %q: %w", id, err)
	}
	return b, nil
}

// Single book mutations

// CreateBook adds a new book and returns its identifier
func (s *Service) CreateBook(ctx context.Context, f book.Fields) (string, error) {
	id, err := s.repo.Insert(ctx, f)
	if err != nil {
		return "", fmt.Errorf("create book: %w", err)
	}
	metrics.ObserveMutation("create", 1)
	logger.Info("Book created", "id", id, "title", f.Title)
	return id, nil
}

// ReplaceBook overwrites the fields of the book with the given identifier.
// The identifier and position are kept. An unknown identifier changes
// nothing and is reported as false.
func (s *Service) ReplaceBook(ctx context.Context, id string, f book.Fields) (string, bool, error) {
	ok, err := s.repo.Update(ctx, f.WithID(id))
	if err != nil {
		return "", false, fmt.Errorf("replace book %q: %w", id, err)
	}
	metrics.ObserveMutation("replace", countOf(ok))
	if !ok {
		logger.Debug("Replace skipped, book not found", "id", id)
		return id, false, nil
	}
	return id, true, nil
}

// DeleteBook removes a book. Removing an unknown identifier is not an error.
func (s *Service) DeleteBook(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete book %q: %w", id, err)
	}
	metrics.ObserveMutation("delete", countOf(ok))
	return ok, nil
}

// Search history

// SearchHistory returns the most recent distinct search terms
func (s *Service) SearchHistory(ctx context.Context) []string {
	if s.history == nil {
		return []string{}
	}
	return s.history.Recent()
}

// ClearSearchHistory forgets every recorded search term
func (s *Service) ClearSearchHistory(ctx context.Context) {
	if s.history != nil {
		s.history.Clear()
	}
}

// Health

// Ping checks the health of the service and its dependencies
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(); err != nil {
		return fmt.Errorf("repository ping: %w", err)
	}
	return nil
}

func countOf(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
