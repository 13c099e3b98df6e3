package loader

import "testing"

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		want SourceKind
	}{
		{"/data/papers/attention.pdf", SourceKindPDF},
		{"/data/papers/notes.docx", SourceKindDoc},
		{"/data/papers/notes.DOC", SourceKindDoc},
		{"/data/papers/readme.txt", SourceKindText},
		{"https://arxiv.org/pdf/1706.03762.pdf", SourceKindPDF},
		{"https://example.org/blog/post", SourceKindWeb},
		{"papers/key-without-extension", SourceKindText},
	}
	for _, tt := range tests {
		if got := KindForPath(tt.path); got != tt.want {
			t.Errorf("KindForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCacheKeyDistinguishesPapers(t *testing.T) {
	a := PaperFile{PaperID: "a", Path: "x.pdf"}
	b := PaperFile{PaperID: "b", Path: "x.pdf"}
	if CacheKey(a) == CacheKey(b) {
		t.Error("cache keys must differ for different papers")
	}
}
