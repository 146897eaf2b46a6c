package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObserveMutation(t *testing.T) {
	before := MutationCount("batch_delete")

	ObserveMutation("batch_delete", 3)
	ObserveMutation("batch_delete", 0)

	assert.Equal(t, before+2, MutationCount("batch_delete"))
}

func TestObserveQuery(t *testing.T) {
	before := QueryCount()

	ObserveQuery(time.Now(), 4)
	ObserveQuery(time.Now(), 0)

	assert.Equal(t, before+2, QueryCount())
}

func TestHandler_ExposesCounters(t *testing.T) {
	ObserveQuery(time.Now(), 4)
	ObserveInvalidRequest("batch")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "bookshelf_queries_total")
	assert.Contains(t, body, `bookshelf_invalid_requests_total{route="batch"}`)
	assert.Contains(t, body, "go_goroutines")
}
