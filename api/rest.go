package api

import (
	"fmt"
	"net/http"

	"github.com/htol/bookshelf/book"
	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/service"
)

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type booksResponse struct {
	Status     string      `json:"status"`
	Books      []book.Book `json:"books"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

type replaceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id"`
	Updated bool   `json:"updated"`
}

type deleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Removed bool   `json:"removed"`
}

type batchResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Action    string `json:"action"`
	Requested int    `json:"requested_count"`
	Removed   *int   `json:"removed_count,omitempty"`
	Updated   *int   `json:"updated_count,omitempty"`
}

type bookResponse struct {
	Status string    `json:"status"`
	Book   book.Book `json:"book"`
}

type historyResponse struct {
	Status  string   `json:"status"`
	History []string `json:"history"`
}

type batchPayload struct {
	BookIDs []string `json:"book_ids"`
	Action  string   `json:"action"`
}

type batchMarkPayload struct {
	BookIDs []string `json:"book_ids"`
	Read    *bool    `json:"read"`
}

func pingHandler() http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, "pong!")
	}
	return http.HandlerFunc(hf)
}

func healthCheckHandler(svc *service.Service) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			respondWithError(w, "store unavailable", err, http.StatusServiceUnavailable)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func listBooksHandler(svc *service.Service, opts Options) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		spec, err := parseQuerySpec(r.URL.Query(), opts)
		if err != nil {
			respondWithValidationError(w, "list_books", err.Error())
			return
		}

		res, err := svc.Query(r.Context(), spec)
		if err != nil {
			respondWithServiceError(w, "list_books", "Failed to query books", err)
			return
		}

		respondWithJSON(w, http.StatusOK, booksResponse{
			Status:     statusSuccess,
			Books:      res.Books,
			Total:      res.Total,
			Page:       res.Page,
			PerPage:    res.PerPage,
			TotalPages: res.TotalPages,
		})
	}
	return http.HandlerFunc(hf)
}

func createBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var f book.Fields
		if err := decodeBody(w, r, &f); err != nil {
			respondWithValidationError(w, "create_book", err.Error())
			return
		}

		id, err := svc.CreateBook(r.Context(), f)
		if err != nil {
			respondWithServiceError(w, "create_book", "Failed to create book", err)
			return
		}

		respondWithJSON(w, http.StatusCreated, messageResponse{
			Status:  statusSuccess,
			Message: "Book added!",
			ID:      id,
		})
	}
	return http.HandlerFunc(hf)
}

func getBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.GetBook(r.Context(), r.PathValue("id"))
		if err != nil {
			respondWithServiceError(w, "get_book", "Failed to get book", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bookResponse{Status: statusSuccess, Book: b})
	}
	return http.HandlerFunc(hf)
}

func replaceBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var f book.Fields
		if err := decodeBody(w, r, &f); err != nil {
			respondWithValidationError(w, "replace_book", err.Error())
			return
		}

		id, ok, err := svc.ReplaceBook(r.Context(), id, f)
		if err != nil {
			respondWithServiceError(w, "replace_book", "Failed to update book", err)
			return
		}

		msg := "Book updated!"
		if !ok {
			msg = "Book not found"
		}
		respondWithJSON(w, http.StatusOK, replaceResponse{
			Status:  statusSuccess,
			Message: msg,
			ID:      id,
			Updated: ok,
		})
	}
	return http.HandlerFunc(hf)
}

func deleteBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		ok, err := svc.DeleteBook(r.Context(), r.PathValue("id"))
		if err != nil {
			respondWithServiceError(w, "delete_book", "Failed to delete book", err)
			return
		}

		msg := "Book removed!"
		if !ok {
			msg = "Book not found"
		}
		respondWithJSON(w, http.StatusOK, deleteResponse{
			Status:  statusSuccess,
			Message: msg,
			Removed: ok,
		})
	}
	return http.HandlerFunc(hf)
}

func batchHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var p batchPayload
		if err := decodeBody(w, r, &p); err != nil {
			respondWithValidationError(w, "batch", err.Error())
			return
		}

		res, err := svc.Batch(r.Context(), service.BatchRequest{IDs: p.BookIDs, Action: p.Action})
		if err != nil {
			respondWithServiceError(w, "batch", "Failed to apply batch", err)
			return
		}
		respondWithJSON(w, http.StatusOK, newBatchResponse(res))
	}
	return http.HandlerFunc(hf)
}

func batchDeleteHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var p batchPayload
		if err := decodeBody(w, r, &p); err != nil {
			respondWithValidationError(w, "batch_delete", err.Error())
			return
		}

		res, err := svc.BatchDelete(r.Context(), p.BookIDs)
		if err != nil {
			respondWithServiceError(w, "batch_delete", "Failed to delete books", err)
			return
		}
		respondWithJSON(w, http.StatusOK, newBatchResponse(res))
	}
	return http.HandlerFunc(hf)
}

func batchMarkHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var p batchMarkPayload
		if err := decodeBody(w, r, &p); err != nil {
			respondWithValidationError(w, "batch_mark", err.Error())
			return
		}
		if p.Read == nil {
			respondWithValidationError(w, "batch_mark", "missing 'read' field")
			return
		}

		res, err := svc.BatchMark(r.Context(), p.BookIDs, *p.Read)
		if err != nil {
			respondWithServiceError(w, "batch_mark", "Failed to update books", err)
			return
		}
		respondWithJSON(w, http.StatusOK, newBatchResponse(res))
	}
	return http.HandlerFunc(hf)
}

func searchHistoryHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, historyResponse{
			Status:  statusSuccess,
			History: svc.SearchHistory(r.Context()),
		})
	}
	return http.HandlerFunc(hf)
}

func clearSearchHistoryHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		svc.ClearSearchHistory(r.Context())
		logger.Info("Search history cleared")
		respondWithJSON(w, http.StatusOK, messageResponse{
			Status:  statusSuccess,
			Message: "Search history cleared!",
		})
	}
	return http.HandlerFunc(hf)
}

func newBatchResponse(res service.BatchResult) batchResponse {
	affected := res.Affected
	resp := batchResponse{
		Status:    statusSuccess,
		Action:    string(res.Action),
		Requested: res.Requested,
	}
	if res.Action == service.ActionDelete {
		resp.Message = fmt.Sprintf("Deleted %d out of %d books", affected, res.Requested)
		resp.Removed = &affected
	} else {
		resp.Message = fmt.Sprintf("Updated %d out of %d books", affected, res.Requested)
		resp.Updated = &affected
	}
	return resp
}
