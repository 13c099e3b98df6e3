package doc

import (
	"context"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// DocContentLoader wraps a raw content loader and decodes Word documents
// into plain text.
type DocContentLoader struct {
	inner loader.ContentLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewDocContentLoader creates a document loader over the given raw loader.
func NewDocContentLoader(inner loader.ContentLoader) *DocContentLoader {
	return &DocContentLoader{
		inner: inner,
		cache: make(map[string][]byte),
	}
}

// FetchText fetches the document via the inner loader and extracts its text
// from the docx XML.
func (l *DocContentLoader) FetchText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
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

		text, err := parseDocx(content)
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
