// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Repositories and services wrap
// these; RespondError translates them at the edge.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

var problemMap = []struct {
	sentinel error
	status   int
	title    string
}{
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ErrDuplicate, http.StatusConflict, "Duplicate"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrForbidden, http.StatusForbidden, "Forbidden"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
}

// RespondError maps domain errors to RFC7807 problem responses. Errors
// outside the sentinel set become an opaque 500 so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	for _, entry := range problemMap {
		if errors.Is(err, entry.sentinel) {
			Problem(w, entry.status, entry.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
