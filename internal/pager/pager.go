// Package pager turns page-numbered list endpoints into lazy sequences.
package pager

import (
	"context"
	"fmt"
	"iter"
)

// FetchFunc returns the items of one page. Pages are numbered from 1.
type FetchFunc[T any] func(ctx context.Context, page int) ([]T, error)

// DoneFunc reports whether a freshly fetched page ends the sequence.
// A page that ends the sequence is not yielded.
type DoneFunc[T any] func(items []T) bool

// PageError wraps the failure of a single page fetch.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// EmptyPage ends a sequence at the first page without items.
func EmptyPage[T any](items []T) bool {
	return len(items) == 0
}

// Pages yields pages 1, 2, ... from fetch until done reports true. A failed
// fetch yields one *PageError and ends the sequence; so does a cancelled ctx.
// A nil done defaults to EmptyPage.
func Pages[T any](ctx context.Context, fetch FetchFunc[T], done DoneFunc[T]) iter.Seq2[[]T, error] {
	if done == nil {
		done = EmptyPage[T]
	}
	return func(yield func([]T, error) bool) {
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			items, err := fetch(ctx, page)
			if err != nil {
				yield(nil, &PageError{Page: page, Err: err})
				return
			}
			if done(items) {
				return
			}
			if !yield(items, nil) {
				return
			}
		}
	}
}

// Collect drains seq. The items gathered before a failure are returned
// together with the error that ended the sequence.
func Collect[T any](seq iter.Seq2[[]T, error]) ([]T, error) {
	var all []T
	for items, err := range seq {
		if err != nil {
			return all, err
		}
		all = append(all, items...)
	}
	return all, nil
}
