package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xxxsen/newsrag/internal/config"
)

const maxBodyBytes = 8 << 20

// Fetcher downloads a URL and reduces it to plain text. Results are kept
// in a read-through page cache so re-ingesting a batch does not re-fetch
// unchanged pages.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	cache     *expirable.LRU[string, string]
	userAgent string
}

func New(cfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cache:     expirable.NewLRU[string, string](cfg.PageCacheSize, nil, time.Duration(cfg.PageTTLMinutes)*time.Minute),
		userAgent: cfg.UserAgent,
	}
}

// Fetch returns the extracted plain text of a page. Failures are per-URL
// and the ingest layer skips them.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if cached, ok := f.cache.Get(url); ok {
		logutil.GetLogger(ctx).Debug("page cache hit", zap.String("url", url))
		return cached, nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,text/markdown")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	text := extract(url, resp.Header.Get("Content-Type"), body)
	if text == "" {
		return "", fmt.Errorf("fetch %s: no extractable text", url)
	}
	f.cache.Add(url, text)
	return text, nil
}

func extract(url, contentType string, body []byte) string {
	switch {
	case isMarkdown(url, contentType):
		return markdownToText(body)
	case strings.Contains(contentType, "text/plain"):
		return collapseWhitespace(string(body))
	default:
		return htmlToText(body)
	}
}

func isMarkdown(url, contentType string) bool {
	if strings.Contains(contentType, "text/markdown") {
		return true
	}
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(trimmed, ".md") || strings.HasSuffix(trimmed, ".markdown")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
