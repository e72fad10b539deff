package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/fetcher"
)

func listingPage(hrefs ...string) string {
	page := "<html><body>"
	for _, href := range hrefs {
		page += fmt.Sprintf(`<h3 class="entry-title"><a href="%s">book</a></h3>`, href)
	}
	return page + "</body></html>"
}

func TestGenreLinksPaginates(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://site/the-loai/tl-tien-hiep/":        listingPage("https://site/book-a/", "https://site/book-b/"),
		"https://site/the-loai/tl-tien-hiep/page/2/": listingPage("https://site/book-b/", "https://site/book-c/"),
		"https://site/the-loai/tl-tien-hiep/page/3/": listingPage(),
	}
	var fetched []string
	f := fetcher.Func(func(_ context.Context, url string) (string, error) {
		fetched = append(fetched, url)
		page, ok := pages[url]
		if !ok {
			return "", errors.New("unexpected url " + url)
		}
		return page, nil
	})

	links, err := New(f, zap.NewNop()).GenreLinks(context.Background(), "https://site/the-loai/tl-tien-hiep/", 5)
	require.NoError(t, err)
	require.Equal(t, []string{"https://site/book-a/", "https://site/book-b/", "https://site/book-c/"}, links)
	// Page 3 is empty, so pages 4 and 5 are never requested.
	require.Len(t, fetched, 3)
}

func TestGenreLinksStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://site/g/":        listingPage("https://site/book-a/"),
		"https://site/g/page/2/": listingPage(),
		"https://site/g/page/3/": listingPage("https://site/never-seen/"),
	}
	var fetched []string
	f := fetcher.Func(func(_ context.Context, url string) (string, error) {
		fetched = append(fetched, url)
		return pages[url], nil
	})

	links, err := New(f, zap.NewNop()).GenreLinks(context.Background(), "https://site/g/", 3)
	require.NoError(t, err)
	require.Equal(t, []string{"https://site/book-a/"}, links)
	require.Equal(t, []string{"https://site/g/", "https://site/g/page/2/"}, fetched)
}

func TestGenreLinksPartialOnFetchFailure(t *testing.T) {
	t.Parallel()

	f := fetcher.Func(func(_ context.Context, url string) (string, error) {
		if url == "https://site/g/" {
			return listingPage("https://site/book-a/"), nil
		}
		return "", &fetcher.FetchError{URL: url, Err: errors.New("timeout")}
	})

	links, err := New(f, zap.NewNop()).GenreLinks(context.Background(), "https://site/g/", 3)
	require.Error(t, err)
	require.Equal(t, []string{"https://site/book-a/"}, links)

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestGenreLinksMaxPagesBound(t *testing.T) {
	t.Parallel()

	var fetched int
	f := fetcher.Func(func(_ context.Context, _ string) (string, error) {
		fetched++
		return listingPage(fmt.Sprintf("https://site/book-%d/", fetched)), nil
	})

	links, err := New(f, zap.NewNop()).GenreLinks(context.Background(), "https://site/g/", 2)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, 2, fetched)
}
