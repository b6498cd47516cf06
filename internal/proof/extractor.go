// Package proof parses timestamp proof certificates into verifiable claims.
// A certificate carries the timestamped document hash, the anchoring Bitcoin
// transaction id, and the Merkle tree that ties the two together. Supported
// inputs are the issued PDF and its extracted text; both reduce to the same
// certificate-text layout.
package proof

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/veristamp/veristamp/internal/model"
)

var (
	// ErrNotCertificate means the document matches no supported format.
	ErrNotCertificate = errors.New("not a recognized proof certificate")
	// ErrMissingDocumentHash means the certificate carries no document hash field.
	ErrMissingDocumentHash = errors.New("certificate is missing the document hash")
	// ErrMissingTransaction means the certificate carries no transaction id field.
	ErrMissingTransaction = errors.New("certificate is missing the transaction id")
	// ErrMissingTree means the certificate carries no Merkle tree.
	ErrMissingTree = errors.New("certificate is missing the merkle tree")
	// ErrMalformedTree means the embedded Merkle tree cannot be decoded.
	ErrMalformedTree = errors.New("malformed merkle tree")
	// ErrLeafNotInTree means the document hash appears nowhere in the tree.
	ErrLeafNotInTree = errors.New("document hash not present in the merkle tree")
)

var pdfMagic = []byte("%PDF")

// Extractor turns proof certificate bytes into a TimestampClaim.
type Extractor struct{}

// NewExtractor creates a certificate extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract detects the certificate format and parses it into a claim.
func (e *Extractor) Extract(document []byte) (*model.TimestampClaim, error) {
	if len(document) == 0 {
		return nil, ErrNotCertificate
	}

	text := string(document)
	if bytes.HasPrefix(document, pdfMagic) {
		extracted, err := pdfToText(document)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf text extraction failed: %v", ErrNotCertificate, err)
		}
		text = extracted
	}

	return parseCertificate(text)
}

// ExtractFile reads a certificate from disk and extracts its claim.
func (e *Extractor) ExtractFile(path string) (*model.TimestampClaim, error) {
	document, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(document)
}
