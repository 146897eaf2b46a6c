package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/htol/bookshelf/book"
	"golang.org/x/text/cases"
)

// Result is one page of a query plus pagination metadata
type Result struct {
	Books      []book.Book
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// candidate carries the case-folded text of a book so that sorting folds
// each record once
type candidate struct {
	book   book.Book
	title  string
	author string
}

// Execute runs search, read filter, sort and pagination over snapshot.
// snapshot is not modified.
func Execute(snapshot []book.Book, spec Spec) Result {
	spec = spec.Normalize()

	// a Caser keeps state and must not be shared between goroutines
	fold := cases.Fold()
	term := fold.String(spec.Search)

	matched := make([]candidate, 0, len(snapshot))
	for _, b := range snapshot {
		if spec.Read != nil && b.Read != *spec.Read {
			continue
		}
		c := candidate{book: b, title: fold.String(b.Title), author: fold.String(b.Author)}
		if term != "" && !strings.Contains(c.title, term) && !strings.Contains(c.author, term) {
			continue
		}
		matched = append(matched, c)
	}

	slices.SortStableFunc(matched, func(a, b candidate) int {
		for _, key := range spec.Sort {
			c := compareBy(key.Field, a, b)
			if c == 0 {
				continue
			}
			if key.Direction == Desc {
				return -c
			}
			return c
		}
		return 0
	})

	total := len(matched)
	res := Result{
		Books:      make([]book.Book, 0, min(spec.PerPage, total)),
		Total:      total,
		Page:       spec.Page,
		PerPage:    spec.PerPage,
		TotalPages: pageCount(total, spec.PerPage),
	}

	// checked before multiplying so huge page numbers cannot overflow
	if spec.Page-1 > total/spec.PerPage {
		return res
	}
	start := (spec.Page - 1) * spec.PerPage
	end := min(start+spec.PerPage, total)
	for _, c := range matched[start:end] {
		res.Books = append(res.Books, c.book)
	}
	return res
}

// pageCount is ceil(total/perPage) without the overflow of total+perPage-1
func pageCount(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total-1)/perPage + 1
}

func compareBy(f Field, a, b candidate) int {
	switch f {
	case FieldAuthor:
		return cmp.Compare(a.author, b.author)
	case FieldRead:
		return compareBool(a.book.Read, b.book.Read)
	default:
		return cmp.Compare(a.title, b.title)
	}
}

// compareBool orders false before true
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
