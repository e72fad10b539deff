package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestChromedpFetchRendersScriptContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<!doctype html><html><body><script>document.body.innerHTML = '<div id="late">late content</div>';</script></body></html>`)
	}))
	defer srv.Close()

	f := NewChromedp(Config{
		UserAgent:   "TestAgent",
		Delay:       10 * time.Millisecond,
		NavTimeout:  10 * time.Second,
		SettleDelay: 100 * time.Millisecond,
	}, zap.NewNop())
	defer func() { _ = f.Close() }()

	html, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Skipf("chromedp unavailable: %v", err)
	}
	if !strings.Contains(html, "late content") {
		t.Fatal("rendered HTML missing script-populated content")
	}
}

func TestFetchAfterCloseFails(t *testing.T) {
	t.Parallel()

	f := NewChromedp(Config{UserAgent: "TestAgent"}, zap.NewNop())
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close tolerates repeated calls.
	if err := f.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	_, err := f.Fetch(context.Background(), "https://example.com")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.URL != "https://example.com" {
		t.Fatalf("unexpected URL in error: %s", fetchErr.URL)
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("net::ERR_CONNECTION_REFUSED")
	err := &FetchError{URL: "https://example.com/x", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("FetchError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "https://example.com/x") {
		t.Fatalf("error text should mention the URL: %s", err)
	}
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	var got string
	f := Func(func(_ context.Context, url string) (string, error) {
		got = url
		return "<html></html>", nil
	})

	html, err := f.Fetch(context.Background(), "https://example.com/a")
	if err != nil || html != "<html></html>" || got != "https://example.com/a" {
		t.Fatalf("unexpected adapter behavior: %q %v", html, err)
	}
}
