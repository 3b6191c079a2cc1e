package query

import (
	"errors"
	"fmt"
)

const (
	// DefaultPage is the page used when the caller omits one.
	DefaultPage = 1
	// DefaultLimit is the page size used when the caller omits one.
	DefaultLimit = 20
	// MaxLimit bounds how many rows one page may request.
	MaxLimit = 100
)

// ErrInvalidPagination indicates page or limit is out of range.
var ErrInvalidPagination = errors.New("invalid pagination")

// Window is a validated row count and offset for one page fetch.
type Window struct {
	Limit  int
	Offset int
}

// NormalizePage resolves page and limit into a row window. Zero values mean
// unset and take the defaults; out-of-range values fail with
// ErrInvalidPagination.
func NormalizePage(page, limit int) (Window, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		return Window{}, fmt.Errorf("%w: page %d is below 1", ErrInvalidPagination, page)
	}
	if limit < 1 {
		return Window{}, fmt.Errorf("%w: limit %d is below 1", ErrInvalidPagination, limit)
	}
	if limit > MaxLimit {
		return Window{}, fmt.Errorf("%w: limit %d exceeds %d", ErrInvalidPagination, limit, MaxLimit)
	}
	return Window{Limit: limit, Offset: (page - 1) * limit}, nil
}
