// Package metrics exposes request and store counters in Prometheus text format
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

const prefix = "bookshelf_"

// ObserveQuery records one executed query
func ObserveQuery(started time.Time, matched int) {
	vm.GetOrCreateCounter(prefix + "queries_total").Inc()
	vm.GetOrCreateCounter(prefix + "query_matched_books_total").Add(matched)
	vm.GetOrCreateHistogram(prefix + "query_duration_seconds").UpdateDuration(started)
}

// ObserveMutation records a single or batch mutation and the number of
// records it affected
func ObserveMutation(op string, affected int) {
	vm.GetOrCreateCounter(fmt.Sprintf(prefix+`mutations_total{op=%q}`, op)).Inc()
	vm.GetOrCreateCounter(fmt.Sprintf(prefix+`mutation_affected_books_total{op=%q}`, op)).Add(affected)
}

// ObserveInvalidRequest records a request rejected by validation
func ObserveInvalidRequest(route string) {
	vm.GetOrCreateCounter(fmt.Sprintf(prefix+`invalid_requests_total{route=%q}`, route)).Inc()
}

// MutationCount returns the current value of the mutation counter for op
func MutationCount(op string) uint64 {
	return vm.GetOrCreateCounter(fmt.Sprintf(prefix+`mutations_total{op=%q}`, op)).Get()
}

// QueryCount returns the number of executed queries
func QueryCount() uint64 {
	return vm.GetOrCreateCounter(prefix + "queries_total").Get()
}

// WritePrometheus writes all metrics, including Go runtime metrics
func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}

// Handler serves the metrics endpoint
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		WritePrometheus(w)
	})
}
