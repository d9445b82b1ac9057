package app

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const maxPerPage = 100

// Default page sizes per collection, matching the portal's list views.
const (
	TopicsPerPage    = 9
	ResourcesPerPage = 12
	DatasetsPerPage  = 9
	EquipmentPerPage = 8
	CareersPerPage   = 10
)

// ListParams carries pagination and sorting for a single list request.
// Zero values select the per-collection defaults.
type ListParams struct {
	Page      int
	PerPage   int
	SortBy    string
	SortOrder SortOrder
}

// Page is one slice of a filtered, sorted collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// paginate slices items for the requested page. A page past the end falls
// back to the first page, as the list views do after a filter change.
func paginate[T any](items []T, p ListParams, defaultPerPage int) Page[T] {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	page := p.Page
	if page < 1 || page > totalPages {
		page = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return Page[T]{
		Items:      out,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// comparators maps a sort field to a three-way comparison.
type comparators[T any] map[string]func(a, b T) int

// sortItems stable-sorts a copy of items. Unknown fields fall back to def;
// an empty def keeps the input order.
func sortItems[T any](items []T, p ListParams, cmps comparators[T], def string, defOrder SortOrder) []T {
	out := append([]T(nil), items...)

	field := p.SortBy
	compare, ok := cmps[field]
	if !ok {
		field = def
		compare, ok = cmps[field]
	}
	if !ok {
		return out
	}

	order := p.SortOrder
	if order != SortAsc && order != SortDesc {
		if p.SortBy == field {
			order = SortAsc
		} else {
			order = defOrder
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if order == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func filterItems[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// containsFold is a case-insensitive substring match; an empty needle matches.
func containsFold(needle string, haystacks ...string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// anyOf reports whether value is selected; an empty selection matches everything.
func anyOf[T comparable](selected []T, value T) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

// intersects reports whether values share an element with selected; empty selected matches.
func intersects(selected, values []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		for _, v := range values {
			if strings.EqualFold(s, v) {
				return true
			}
		}
	}
	return false
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// leadingInt parses the integer prefix of sizes like "850 MB"; no digits yields 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// parseDay accepts YYYY-MM-DD or RFC3339 and returns the UTC day.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func compareDay(a, b string) int {
	ta, _ := parseDay(a)
	tb, _ := parseDay(b)
	return ta.Compare(tb)
}
