package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTopicNotFound),
		errors.Is(err, domain.ErrResourceNotFound),
		errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrEquipmentNotFound),
		errors.Is(err, domain.ErrCareerNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrInvalidReservation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnresolvedAnswers):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEquipmentUnavailable),
		errors.Is(err, domain.ErrReservationConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCatalogNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// listParams reads page, perPage, sortBy and sortOrder. Malformed numbers
// fall back to the collection defaults.
func listParams(r *http.Request) app.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	return app.ListParams{
		Page:      page,
		PerPage:   perPage,
		SortBy:    q.Get("sortBy"),
		SortOrder: app.SortOrder(strings.ToLower(q.Get("sortOrder"))),
	}
}

// values returns the non-empty values of a repeatable query parameter,
// also splitting comma-separated lists.
func values(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func difficulties(r *http.Request, key string) []domain.Difficulty {
	raw := values(r, key)
	out := make([]domain.Difficulty, 0, len(raw))
	for _, v := range raw {
		out = append(out, domain.Difficulty(titleCase(v)))
	}
	return out
}

func availabilities(r *http.Request, key string) []domain.AvailabilityStatus {
	raw := values(r, key)
	out := make([]domain.AvailabilityStatus, 0, len(raw))
	for _, v := range raw {
		out = append(out, domain.AvailabilityStatus(titleCase(v)))
	}
	return out
}

// titleCase maps "high" and "HIGH" onto the catalog's "High".
func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func optionalBool(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// search reads the q parameter, accepting search as an alias.
func search(r *http.Request) string {
	q := r.URL.Query()
	if s := q.Get("q"); s != "" {
		return s
	}
	return q.Get("search")
}
