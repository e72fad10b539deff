// Package fetcher retrieves rendered HTML through a shared headless
// browser session.
package fetcher

import (
	"context"
	"fmt"
)

// Fetcher returns the rendered HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Func adapts a plain function to the Fetcher interface, mainly for tests.
type Func func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// FetchError wraps a navigation or network failure for one URL. Retrying is
// the caller's decision, at job granularity only.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
