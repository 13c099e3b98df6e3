package s3

import (
	"context"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// Archive is the object-storage dependency of the loader. Satisfied by
// internal/storage.PaperArchive.
type Archive interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ArchiveContentLoader loads paper content from an S3-compatible archive,
// with caching and request collapsing.
type ArchiveContentLoader struct {
	archive Archive

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewArchiveContentLoader creates a content loader over the given archive.
func NewArchiveContentLoader(archive Archive) *ArchiveContentLoader {
	return &ArchiveContentLoader{
		archive: archive,
		cache:   make(map[string][]byte),
	}
}

// FetchText downloads the object the paper file points at. Path is the
// object key. Results are cached.
func (l *ArchiveContentLoader) FetchText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
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

		content, err := l.archive.Get(ctx, file.Path)
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
