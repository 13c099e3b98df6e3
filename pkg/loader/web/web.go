package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/util"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"
)

const fetchRetries = 3

// WebContentLoader fetches paper content from URLs. HTML pages are reduced
// to their readable article text; other content types are returned raw.
type WebContentLoader struct {
	client *http.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebContentLoader creates a web loader using the default HTTP client.
func NewWebContentLoader() *WebContentLoader {
	return &WebContentLoader{
		client: http.DefaultClient,
		cache:  make(map[string][]byte),
	}
}

// FetchText downloads the paper file's URL. For HTML responses the main
// article text is extracted; anything else comes back unchanged, leaving
// PDF decoding to the wrapping loader.
func (l *WebContentLoader) FetchText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := util.RetryWithContext(ctx, fetchRetries, func(ctx context.Context) ([]byte, error) {
			return l.download(ctx, file.Path)
		})
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = content
		l.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (l *WebContentLoader) download(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, pageURL)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return extractArticle(resp.Body, pageURL)
	}
	return io.ReadAll(resp.Body)
}

func extractArticle(body io.Reader, pageURL string) ([]byte, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return nil, fmt.Errorf("failed to render article text: %w", err)
	}
	return []byte(builder.String()), nil
}
