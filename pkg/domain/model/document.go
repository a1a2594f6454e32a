package model

import (
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// Document is one entry of a corpus snapshot. Documents are produced by the
// ingestion pipeline and are read-only here; a snapshot is replaced
// wholesale when the corpus cache expires, never mutated in place.
type Document struct {
	ID        types.DocumentID
	Title     string
	Body      string
	SourceURL string
	SizeChars int
	Embedding []float64
}

// NewDocument builds a Document from ingested fields, deriving the ID from
// the source URL.
func NewDocument(title, body, sourceURL string) Document {
	return Document{
		ID:        types.NewDocumentID(sourceURL),
		Title:     title,
		Body:      body,
		SourceURL: sourceURL,
		SizeChars: len(body),
	}
}

// ScoredDocument is a Document with its per-query similarity score.
// It is transient: produced per retrieval call, never persisted.
type ScoredDocument struct {
	Document
	Score float64
}
