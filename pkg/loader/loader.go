package loader

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// SourceKind classifies where a paper's raw content comes from and how it
// must be decoded.
type SourceKind string

const (
	SourceKindPDF  SourceKind = "pdf"
	SourceKindDoc  SourceKind = "doc"
	SourceKindWeb  SourceKind = "web"
	SourceKindText SourceKind = "text"
)

// PaperFile points at the raw content of one paper. Path is a local file
// path, an object key or a URL depending on the ContentLoader used.
type PaperFile struct {
	PaperID string
	Path    string
	Kind    SourceKind
}

// ContentLoader fetches the raw text of a paper file. Implementations may
// read from disk, object storage or the web; binary formats are decoded by
// the wrapping format loaders.
type ContentLoader interface {
	FetchText(ctx context.Context, file PaperFile) ([]byte, error)
}

// CacheKey identifies a paper file across loader caches.
func CacheKey(file PaperFile) string {
	return file.PaperID + ":" + file.Path
}

// KindForPath guesses the source kind from a path or URL.
func KindForPath(p string) SourceKind {
	if u, err := url.Parse(p); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if kind := kindForExtension(path.Ext(u.Path)); kind != SourceKindText {
			return kind
		}
		return SourceKindWeb
	}
	return kindForExtension(path.Ext(p))
}

func kindForExtension(ext string) SourceKind {
	switch strings.ToLower(ext) {
	case ".pdf":
		return SourceKindPDF
	case ".doc", ".docx":
		return SourceKindDoc
	default:
		return SourceKindText
	}
}
