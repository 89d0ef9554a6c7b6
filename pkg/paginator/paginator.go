// Package paginator implements limit/offset pagination over a Queryset.
package paginator

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// Queryset is the lazily evaluated collection being paginated.
type Queryset[T any] interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]T, error)
}

// Meta is the pagination block returned alongside list results.
type Meta struct {
	Count        int     `json:"count"`
	OverallCount int     `json:"overall_count"`
	NextURL      *string `json:"next_url"`
	PreviousURL  *string `json:"previous_url"`
	Offset       int     `json:"offset"`
	Limit        int     `json:"limit"`
}

// Paginator slices a Queryset according to the request's offset and limit.
// Invalid parameters are collected in Errors and replaced by defaults, so
// callers decide whether to reject the request.
type Paginator[T any] struct {
	Offset int
	Limit  int
	Errors map[string]string

	request  *http.Request
	queryset Queryset[T]
	items    []T
}

// New builds a paginator for r. defaultLimit is used when limit is absent
// or invalid.
func New[T any](r *http.Request, qs Queryset[T], defaultLimit int) *Paginator[T] {
	form, errs := ParseForm(r.URL.Query())

	p := &Paginator[T]{
		Offset:   0,
		Limit:    defaultLimit,
		Errors:   errs,
		request:  r,
		queryset: qs,
	}
	if form.Offset != nil {
		p.Offset = *form.Offset
	}
	if form.Limit != nil {
		p.Limit = *form.Limit
	}
	return p
}

// Valid reports whether no parameter failed validation.
func (p *Paginator[T]) Valid() bool {
	return len(p.Errors) == 0
}

// Items returns the slice loaded by the last call to Meta.
func (p *Paginator[T]) Items() []T {
	return p.items
}

// Meta loads the current page and the overall count and builds the
// navigation URLs.
func (p *Paginator[T]) Meta(ctx context.Context) (Meta, error) {
	items, err := p.queryset.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return Meta{}, fmt.Errorf("paginator: list: %w", err)
	}
	p.items = items

	overall, err := p.queryset.Count(ctx)
	if err != nil {
		return Meta{}, fmt.Errorf("paginator: count: %w", err)
	}

	meta := Meta{
		Count:        len(items),
		OverallCount: overall,
		Offset:       p.Offset,
		Limit:        p.Limit,
	}

	if end := p.end(); overall > end {
		next := p.buildURL(end)
		meta.NextURL = &next
	}

	if p.Offset > 0 {
		prev := p.buildURL(max(0, p.Offset-p.Limit))
		meta.PreviousURL = &prev
	}

	return meta, nil
}

// end is offset+limit, saturated at math.MaxInt.
func (p *Paginator[T]) end() int {
	if p.Limit > math.MaxInt-p.Offset {
		return math.MaxInt
	}
	return p.Offset + p.Limit
}

// buildURL keeps every incoming query parameter (last value wins) and
// replaces offset and limit.
func (p *Paginator[T]) buildURL(offset int) string {
	params := url.Values{}
	for key, vals := range p.request.URL.Query() {
		if len(vals) > 0 {
			params.Set(key, vals[len(vals)-1])
		}
	}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(p.Limit))

	return p.request.URL.Path + "?" + params.Encode()
}
