package unstructured

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfTextLayer pulls the embedded text layer out of a PDF, if it has one.
// Scanned PDFs without a layer return "" and fall through to remote OCR.
// The pdf package panics on some malformed files, so the whole read is
// fenced off.
func pdfTextLayer(raw []byte) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return ""
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return ""
	}
	return strings.TrimSpace(b.String())
}
