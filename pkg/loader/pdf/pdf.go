package pdf

import (
	"context"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// PDFContentLoader wraps a raw content loader and converts fetched PDF
// bytes to plain text. Extraction results are cached per paper file.
type PDFContentLoader struct {
	inner loader.ContentLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFContentLoader creates a PDF loader over the given raw loader.
func NewPDFContentLoader(inner loader.ContentLoader) *PDFContentLoader {
	return &PDFContentLoader{
		inner: inner,
		cache: make(map[string][]byte),
	}
}

// FetchText fetches the PDF via the inner loader and extracts its text.
func (l *PDFContentLoader) FetchText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
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

		content, err := l.inner.FetchText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := extractPDFText(ctx, content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
