package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

// buildDocx assembles a minimal OOXML container around the given
// word/document.xml payload.
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   documentXML,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func TestFromDocx(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Col A</w:t><w:tab/><w:t>Col B</w:t></w:r></w:p>
    <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := FromDocx(buildDocx(t, doc))
	if err != nil {
		t.Fatalf("FromDocx: %v", err)
	}

	want := "First paragraph.\nCol A\tCol B\nLine one\nline two"
	if got := Normalize(text); got != want {
		t.Errorf("extracted text = %q, want %q", got, want)
	}
}

func TestFromDocxSplitTextRuns(t *testing.T) {
	// Word frequently splits a sentence across adjacent runs; the pieces
	// must concatenate without injected whitespace.
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hel</w:t></w:r><w:r><w:t>lo</w:t></w:r></w:p></w:body>
</w:document>`

	text, err := FromDocx(buildDocx(t, doc))
	if err != nil {
		t.Fatalf("FromDocx: %v", err)
	}
	if got := Normalize(text); got != "Hello" {
		t.Errorf("extracted text = %q, want %q", got, "Hello")
	}
}

func TestFromDocxMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("<styles/>")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := FromDocx(buf.Bytes()); !errors.Is(err, ErrNoDocumentPart) {
		t.Errorf("FromDocx error = %v, want ErrNoDocumentPart", err)
	}
}

func TestFromDocxNotAnArchive(t *testing.T) {
	if _, err := FromDocx([]byte("not a zip file")); err == nil {
		t.Error("FromDocx accepted non-archive bytes")
	}
}
