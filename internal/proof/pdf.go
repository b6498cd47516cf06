package proof

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// pdfToText extracts the plain text of a PDF certificate. The issuer
// distributes certificates as PDFs; everything the verifier needs is in the
// text layer.
func pdfToText(document []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", err
	}

	text, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(text)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
