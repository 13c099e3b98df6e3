package io

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// FileContentLoader reads paper content from the local filesystem with
// caching. Concurrent fetches of the same file are collapsed.
type FileContentLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewFileContentLoader creates a filesystem-backed content loader.
func NewFileContentLoader() *FileContentLoader {
	return &FileContentLoader{
		cache: make(map[string][]byte),
	}
}

// FetchText reads the file content from disk. Results are cached.
func (l *FileContentLoader) FetchText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
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

		content, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read paper file: %w", err)
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
