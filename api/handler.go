package api

import (
	"net/http"

	"github.com/htol/bookshelf/metrics"
	"github.com/htol/bookshelf/middleware"
	"github.com/htol/bookshelf/query"
	"github.com/htol/bookshelf/service"
)

// Options bounds the pagination parameters accepted by the API
type Options struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{DefaultPerPage: query.DefaultPerPage, MaxPerPage: 100}
}

// NewHandler creates and returns the main HTTP handler (router) for the application
func NewHandler(svc *service.Service, opts Options) http.Handler {
	mux := http.NewServeMux()

	// Sanity and operations
	mux.Handle("GET /ping", pingHandler())
	mux.HandleFunc("GET /health", healthCheckHandler(svc))
	mux.Handle("GET /metrics", metrics.Handler())

	// Books
	mux.Handle("GET /books", listBooksHandler(svc, opts))
	mux.Handle("POST /books", createBookHandler(svc))
	mux.Handle("GET /books/{id}", getBookHandler(svc))
	mux.Handle("PUT /books/{id}", replaceBookHandler(svc))
	mux.Handle("DELETE /books/{id}", deleteBookHandler(svc))

	// Batch operations
	mux.Handle("POST /books/batch", batchHandler(svc))
	mux.Handle("DELETE /books/batch", batchDeleteHandler(svc))
	mux.Handle("PUT /books/batch", batchMarkHandler(svc))
	mux.Handle("PUT /books/batch/mark", batchMarkHandler(svc))

	// Search history
	mux.Handle("GET /books/search/history", searchHistoryHandler(svc))
	mux.Handle("DELETE /books/search/history", clearSearchHistoryHandler(svc))

	// RequestID runs first so Recovery and Logger see the ID in the context
	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS,
	)

	return chain(mux)
}
