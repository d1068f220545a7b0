package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsrag/internal/config"
)

func testConfig() config.FetchConfig {
	return config.FetchConfig{
		TimeoutSeconds: 5,
		UserAgent:      "newsrag-test/0.1",
		RatePerSecond:  100,
		Burst:          100,
		Parallelism:    2,
		PageCacheSize:  16,
		PageTTLMinutes: 5,
	}
}

func TestFetchHTMLPrefersArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><script>var x = 1;</script></head>
<body><nav>site menu</nav><article><h1>Title</h1><p>body   text</p></article></body></html>`))
	}))
	defer srv.Close()

	f := New(testConfig())
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Title body text", text)
	require.NotContains(t, text, "site menu")
	require.NotContains(t, text, "var x")
}

func TestFetchMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Release 1.2\n\nFixed the *parser* bug.\n"))
	}))
	defer srv.Close()

	f := New(testConfig())
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, text, "Release 1.2")
	require.Contains(t, text, "Fixed the parser bug.")
	require.NotContains(t, text, "#")
	require.NotContains(t, text, "*")
}

func TestFetchCachesPages(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("same content"))
	}))
	defer srv.Close()

	f := New(testConfig())
	ctx := context.Background()
	first, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt64(&hits))
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "newsrag-test/0.1", gotUA)
}

func TestIsMarkdownByExtension(t *testing.T) {
	require.True(t, isMarkdown("https://example.com/CHANGELOG.md", "text/html"))
	require.True(t, isMarkdown("https://example.com/notes.markdown?v=2", "application/octet-stream"))
	require.False(t, isMarkdown("https://example.com/post", "text/html"))
}
