package doc

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestParseDocx(t *testing.T) {
	docx := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:tab/><w:t>column.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := parseDocx(docx)
	if err != nil {
		t.Fatalf("parseDocx: %v", err)
	}

	got := string(text)
	if !strings.Contains(got, "First paragraph.\n") {
		t.Errorf("missing first paragraph: %q", got)
	}
	if !strings.Contains(got, "Second\tcolumn.") {
		t.Errorf("tab not preserved: %q", got)
	}
}

func TestParseDocxSkipsDeletions(t *testing.T) {
	docx := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:r><w:t>kept</w:t></w:r>
      <w:del><w:r><w:t>removed</w:t></w:r></w:del>
    </w:p>
  </w:body>
</w:document>`)

	text, err := parseDocx(docx)
	if err != nil {
		t.Fatalf("parseDocx: %v", err)
	}
	if strings.Contains(string(text), "removed") {
		t.Errorf("deleted run leaked into output: %q", text)
	}
	if !strings.Contains(string(text), "kept") {
		t.Errorf("kept run missing: %q", text)
	}
}

func TestParseDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	if _, err := parseDocx(buf.Bytes()); err == nil {
		t.Fatal("expected error for docx without document.xml")
	}
}

func TestParseDocxNotAZip(t *testing.T) {
	if _, err := parseDocx([]byte("plain text")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}
