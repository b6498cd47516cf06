package proof

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

// Certificates label their fields as "Hash:" and "Transaction:" with the hex
// value on the same or the following line. PDF text extraction is lossy
// about line breaks, so matching stays whitespace-tolerant.
var (
	hashFieldRe = regexp.MustCompile(`(?i)Hash:\s*([0-9a-fA-F]{64})`)
	txFieldRe   = regexp.MustCompile(`(?i)Transaction:\s*([0-9a-fA-F]{64})`)
)

const rootFieldLabel = "root "

// parseCertificate pulls the document hash, transaction id, and Merkle path
// out of extracted certificate text.
func parseCertificate(text string) (*model.TimestampClaim, error) {
	docHex, ok := documentHashField(text)
	if !ok {
		return nil, ErrMissingDocumentHash
	}
	docHash, err := digest.ParseHash(docHex)
	if err != nil {
		return nil, fmt.Errorf("%w: document hash: %v", ErrMissingDocumentHash, err)
	}

	txMatch := txFieldRe.FindStringSubmatch(text)
	if txMatch == nil {
		return nil, ErrMissingTransaction
	}
	// Certificates and explorers render transaction ids in display order.
	txid, err := digest.ParseDisplayHash(txMatch[1])
	if err != nil {
		return nil, fmt.Errorf("%w: transaction id: %v", ErrMissingTransaction, err)
	}

	tree, err := extractTree(text)
	if err != nil {
		return nil, err
	}

	path, err := derivePath(tree, docHex)
	if err != nil {
		return nil, err
	}

	return &model.TimestampClaim{
		DocumentHash:  docHash,
		TransactionID: txid,
		MerklePath:    path,
	}, nil
}

// documentHashField finds the "Hash:" field while skipping the separate
// "Root Hash:" field certificates also carry.
func documentHashField(text string) (string, bool) {
	for _, idx := range hashFieldRe.FindAllStringSubmatchIndex(text, -1) {
		start := idx[0]
		prefix := text[maxInt(0, start-len(rootFieldLabel)):start]
		if strings.EqualFold(prefix, rootFieldLabel) {
			continue
		}
		return text[idx[2]:idx[3]], true
	}
	return "", false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
