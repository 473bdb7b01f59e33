// Package cursor walks a paginated store query to exhaustion.
//
// The store hands back an opaque bookmark with every page. Passing it back
// fetches the next page. The walk ends when a page comes back empty or the
// store returns the bookmark it was given; there is no other "has more"
// signal. Bookmarks are never inspected here.
package cursor

import (
	"context"
	"iter"
)

// Page is one batch of documents plus the bookmark that continues after it.
type Page[T any] struct {
	Docs     []T
	Bookmark string
}

// PageFunc fetches the page that follows bookmark. The empty bookmark
// requests the first page.
type PageFunc[T any] func(ctx context.Context, bookmark string) (Page[T], error)

// Pages lazily yields every non-empty page reachable from the first one.
// A fetch error is yielded once and ends the sequence. Each call starts a
// fresh walk.
func Pages[T any](ctx context.Context, fetch PageFunc[T]) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		bookmark := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(Page[T]{}, err)
				return
			}
			page, err := fetch(ctx, bookmark)
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			if len(page.Docs) == 0 {
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.Bookmark == bookmark {
				return
			}
			bookmark = page.Bookmark
		}
	}
}

// Documents lazily yields every document of every page, in page order.
func Documents[T any](ctx context.Context, fetch PageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range Pages(ctx, fetch) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, doc := range page.Docs {
				if !yield(doc, nil) {
					return
				}
			}
		}
	}
}
