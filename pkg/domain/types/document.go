package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/m-mizutani/goerr/v2"
)

// DocumentID is a deterministic identifier for a corpus document, derived
// from its source URL so that re-ingesting the same page keeps the same ID.
type DocumentID string

// NewDocumentID derives a DocumentID from a source URL.
func NewDocumentID(sourceURL string) DocumentID {
	sum := sha256.Sum256([]byte(sourceURL))
	return DocumentID(hex.EncodeToString(sum[:8]))
}

// Validate checks if the DocumentID is valid
func (d DocumentID) Validate() error {
	if d == "" {
		return goerr.New("document ID cannot be empty")
	}
	return nil
}

// String returns the string representation of DocumentID
func (d DocumentID) String() string {
	return string(d)
}
