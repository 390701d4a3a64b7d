package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

// Page is one slice of a listing
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

func parsePageParams(r *http.Request) (page, size int, err error) {
	page, err = intParam(r, "page", defaultPage)
	if err != nil {
		return 0, 0, err
	}
	size, err = intParam(r, "size", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("page must be greater than or equal to 1")
	}
	if size < 1 || size > maxPageSize {
		return 0, 0, fmt.Errorf("size must be between 1 and %d", maxPageSize)
	}
	return page, size, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// paginate slices items for the requested page. A page past the end is empty.
func paginate[T any](items []T, page, size int) Page[T] {
	total := len(items)
	pages := (total + size - 1) / size

	// compare before multiplying so huge page numbers can't overflow
	start := total
	if page-1 < (total+size-1)/size {
		start = (page - 1) * size
	}
	end := total
	if total-start > size {
		end = start + size
	}

	return Page[T]{
		Items: append([]T{}, items[start:end]...),
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
}
