package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/htol/bookshelf/book"
	"github.com/htol/bookshelf/history"
	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/repo"
	"github.com/htol/bookshelf/service"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("error")
}

type testServer struct {
	handler http.Handler
	store   *repo.Memory
}

// newTestServer returns a router over a memory store holding
// Animal Farm (book-1) and 1984 (book-2)
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	n := 0
	store := repo.NewMemory(repo.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("book-%d", n)
	}))
	ctx := context.Background()
	_, err := store.Insert(ctx, book.Fields{Title: "Animal Farm", Author: "George Orwell", Read: true})
	require.NoError(t, err)
	_, err = store.Insert(ctx, book.Fields{Title: "1984", Author: "George Orwell", Read: false})
	require.NoError(t, err)

	h, err := history.New(history.DefaultSize)
	require.NoError(t, err)

	return &testServer{
		handler: NewHandler(service.New(store, h), DefaultOptions()),
		store:   store,
	}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func titles(books []book.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestListBooks_PageTwoGolden(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/books?per_page=1&page=2", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "books_page_two", w.Body.Bytes())
}

func TestListBooks_Scenario(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/books?sort_by=title&sort_order=asc", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[booksResponse](t, w)
	assert.Equal(t, []string{"1984", "Animal Farm"}, titles(resp.Books))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)

	w = s.do(t, http.MethodGet, "/books?read=true", "")
	resp = decode[booksResponse](t, w)
	assert.Equal(t, []string{"Animal Farm"}, titles(resp.Books))

	w = s.do(t, http.MethodGet, "/books?read_status=false", "")
	resp = decode[booksResponse](t, w)
	assert.Equal(t, []string{"1984"}, titles(resp.Books))

	w = s.do(t, http.MethodGet, "/books?query=ANIMAL", "")
	resp = decode[booksResponse](t, w)
	assert.Equal(t, []string{"Animal Farm"}, titles(resp.Books))

	w = s.do(t, http.MethodGet, "/books?sort_by=read,title&sort_order=desc", "")
	resp = decode[booksResponse](t, w)
	assert.Equal(t, []string{"Animal Farm", "1984"}, titles(resp.Books))
}

func TestListBooks_OutOfRangePage(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/books?page=50", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[booksResponse](t, w)
	assert.NotNil(t, resp.Books)
	assert.Empty(t, resp.Books)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 50, resp.Page)
}

func TestListBooks_InvalidParameters(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"page zero", "/books?page=0"},
		{"page not a number", "/books?page=two"},
		{"per_page too large", "/books?per_page=1000"},
		{"per_page zero", "/books?per_page=0"},
		{"read not a bool", "/books?read=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[errorResponse](t, w)
			assert.Equal(t, statusError, resp.Status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateBook(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert","read":false}`)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[messageResponse](t, w)
	assert.Equal(t, "book-3", resp.ID)

	b, err := s.store.Find(context.Background(), "book-3")
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", b.Author)

	w = s.do(t, http.MethodPost, "/books", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceBook(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/books/book-1", `{"title":"Animal Farm","author":"Orwell","read":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[replaceResponse](t, w)
	assert.True(t, resp.Updated)
	assert.Equal(t, "book-1", resp.ID)

	snap, err := s.store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, book.Book{ID: "book-1", Title: "Animal Farm", Author: "Orwell"}, snap[0])

	w = s.do(t, http.MethodPut, "/books/missing", `{"title":"Ghost"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[replaceResponse](t, w)
	assert.False(t, resp.Updated)

	n, err := s.store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteBook(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodDelete, "/books/book-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[deleteResponse](t, w).Removed)

	w = s.do(t, http.MethodDelete, "/books/book-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[deleteResponse](t, w).Removed)
}

func TestBatch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/books/batch", `{"book_ids":["book-1","book-2"],"action":"mark_as_unread"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[batchResponse](t, w)
	assert.Equal(t, "Updated 2 out of 2 books", resp.Message)
	require.NotNil(t, resp.Updated)
	assert.Equal(t, 2, *resp.Updated)
	assert.Nil(t, resp.Removed)

	w = s.do(t, http.MethodPost, "/books/batch", `{"book_ids":["book-1","nope"],"action":"delete"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[batchResponse](t, w)
	assert.Equal(t, "Deleted 1 out of 2 books", resp.Message)
	require.NotNil(t, resp.Removed)
	assert.Equal(t, 1, *resp.Removed)
}

func TestBatch_InvalidRequestLeavesStoreUnchanged(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty ids", `{"book_ids":[],"action":"delete"}`},
		{"missing ids", `{"action":"delete"}`},
		{"missing action", `{"book_ids":["book-1"]}`},
		{"unknown action", `{"book_ids":["book-1"],"action":"burn"}`},
		{"malformed", `[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/books/batch", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, statusError, decode[errorResponse](t, w).Status)
		})
	}

	n, err := s.store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBatchDeleteRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodDelete, "/books/batch", `{"book_ids":["book-1","book-2","book-9"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Deleted 2 out of 3 books", decode[batchResponse](t, w).Message)

	w = s.do(t, http.MethodDelete, "/books/batch", `{"book_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchMarkRoute(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/books/batch/mark", "/books/batch"} {
		w := s.do(t, http.MethodPut, target, `{"book_ids":["book-1","book-2"],"read":true}`)
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.Equal(t, "Updated 2 out of 2 books", decode[batchResponse](t, w).Message)
	}

	w := s.do(t, http.MethodPut, "/books/batch/mark", `{"book_ids":["book-1"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/books/batch/mark", `{"book_ids":[],"read":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHistory(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/books?search=Orwell", "")
	s.do(t, http.MethodGet, "/books?search=farm", "")
	s.do(t, http.MethodGet, "/books?search=orwell", "")

	w := s.do(t, http.MethodGet, "/books/search/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"orwell", "farm"}, decode[historyResponse](t, w).History)
	assert.Contains(t, w.Body.String(), `"history":["orwell","farm"]`)

	w = s.do(t, http.MethodDelete, "/books/search/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/books/search/history", "")
	assert.Empty(t, decode[historyResponse](t, w).History)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"pong!"`, w.Body.String())

	w = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	s.do(t, http.MethodGet, "/books", "")
	w = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bookshelf_queries_total")

	w = s.do(t, http.MethodOptions, "/books/book-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetBook(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/books/book-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"status":"success","book":{"id":"book-2","title":"1984","author":"George Orwell","read":false}}`,
		w.Body.String())

	w = s.do(t, http.MethodGet, "/books/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, statusError, decode[errorResponse](t, w).Status)

	// the fixed history route wins over the id pattern
	w = s.do(t, http.MethodGet, "/books/search/history", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccessLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithFormat("info", "json", &buf)
	t.Cleanup(func() { logger.Init("error") })

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"msg":"HTTP request"`)
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
}
