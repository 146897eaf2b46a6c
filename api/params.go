package api

import (
	"math"
	"net/url"
	"strings"

	"github.com/htol/bookshelf/query"
	"github.com/htol/bookshelf/validator"
)

// firstOf returns the first non-empty value among the given parameter names
func firstOf(v url.Values, names ...string) string {
	for _, name := range names {
		if s := strings.TrimSpace(v.Get(name)); s != "" {
			return s
		}
	}
	return ""
}

// parseQuerySpec builds a query.Spec from URL parameters.
// Repeated sort_by/sort_order parameters are joined like a comma list.
func parseQuerySpec(v url.Values, opts Options) (query.Spec, error) {
	read, err := validator.OptionalBool("read", firstOf(v, "read", "read_status"))
	if err != nil {
		return query.Spec{}, err
	}

	page, err := validator.IntInRange("page", v.Get("page"), query.DefaultPage, 1, math.MaxInt)
	if err != nil {
		return query.Spec{}, err
	}

	perPage, err := validator.IntInRange("per_page", v.Get("per_page"), opts.DefaultPerPage, 1, opts.MaxPerPage)
	if err != nil {
		return query.Spec{}, err
	}

	fields := validator.SplitList(strings.Join(v["sort_by"], ","))
	orders := validator.SplitList(strings.Join(v["sort_order"], ","))

	return query.Spec{
		Search:  firstOf(v, "search", "query"),
		Read:    read,
		Sort:    query.ParseSortKeys(fields, orders),
		Page:    page,
		PerPage: perPage,
	}, nil
}
