package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxDocumentPath is the WordprocessingML main document part inside the
// OOXML zip container.
const docxDocumentPath = "word/document.xml"

// ErrNoDocumentPart is returned when a docx archive lacks its main
// document part.
var ErrNoDocumentPart = errors.New("docx: missing word/document.xml")

// FromDocx extracts the text of a word-processor OOXML document.
//
// The container is a zip archive; all text lives in w:t runs inside
// word/document.xml. Paragraph ends and explicit breaks become newlines,
// tabs become tab characters. Formatting, tables structure, headers and
// footers are not preserved.
func FromDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == docxDocumentPath {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", ErrNoDocumentPart
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("opening document part: %w", err)
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return "", fmt.Errorf("parsing document part: %w", err)
	}
	return text, nil
}

// docxText walks the WordprocessingML token stream and collects character
// data from w:t elements, inserting the structural whitespace the markup
// implies.
func docxText(r io.Reader) (string, error) {
	var (
		builder strings.Builder
		inText  bool
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				builder.WriteByte('\t')
			case "br", "cr":
				builder.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}

	return builder.String(), nil
}
