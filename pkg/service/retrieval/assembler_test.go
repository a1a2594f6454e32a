package retrieval_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/retrieval"
)

func scoredDoc(title, body, url string, score float64) model.ScoredDocument {
	return model.ScoredDocument{
		Document: model.NewDocument(title, body, url),
		Score:    score,
	}
}

func TestAssembleEmptyReturnsSentinel(t *testing.T) {
	gt.Equal(t, retrieval.Assemble(nil, 3000), retrieval.NoDocuments)
	gt.Equal(t, retrieval.Assemble([]model.ScoredDocument{}, 0), retrieval.NoDocuments)
	gt.Equal(t, retrieval.Assemble([]model.ScoredDocument{}, -1), retrieval.NoDocuments)
}

func TestAssembleIncludesTitleAndSource(t *testing.T) {
	docs := []model.ScoredDocument{
		scoredDoc("La TVA", "La taxe sur la valeur ajoutée s'applique aux ventes.", "https://example.com/tva", 0.9),
	}

	out := retrieval.Assemble(docs, 3000)
	gt.True(t, strings.Contains(out, "La TVA"))
	gt.True(t, strings.Contains(out, "https://example.com/tva"))
	gt.True(t, strings.Contains(out, "valeur ajoutée"))
}

func TestAssembleCleansBody(t *testing.T) {
	body := "Voir [le guide](https://example.com/guide) et https://example.com/raw pour   plus  de détails."
	docs := []model.ScoredDocument{
		scoredDoc("Guide", body, "https://example.com/doc", 0.8),
	}

	out := retrieval.Assemble(docs, 3000)
	gt.True(t, strings.Contains(out, "le guide"))
	gt.True(t, !strings.Contains(out, "https://example.com/guide"))
	gt.True(t, !strings.Contains(out, "https://example.com/raw"))
	gt.True(t, !strings.Contains(out, "plus  de"))
	// The source line keeps its URL.
	gt.True(t, strings.Contains(out, "https://example.com/doc"))
}

func TestAssembleTruncatesAtSentenceBoundary(t *testing.T) {
	// A sentence boundary sits past 70% of the 800-char budget.
	body := strings.Repeat("a", 700) + ". " + strings.Repeat("b", 500)
	docs := []model.ScoredDocument{
		scoredDoc("Doc", body, "https://example.com/doc", 0.8),
	}

	out := retrieval.Assemble(docs, 3000)
	gt.True(t, strings.Contains(out, strings.Repeat("a", 700)+"."))
	gt.True(t, !strings.Contains(out, strings.Repeat("b", 100)))
	gt.True(t, !strings.Contains(out, "..."))
}

func TestAssembleTruncatesWithEllipsis(t *testing.T) {
	// No usable sentence boundary: the cut appends an ellipsis.
	body := strings.Repeat("c", 1200)
	docs := []model.ScoredDocument{
		scoredDoc("Doc", body, "https://example.com/doc", 0.8),
	}

	out := retrieval.Assemble(docs, 3000)
	gt.True(t, strings.Contains(out, "..."))
	gt.True(t, !strings.Contains(out, strings.Repeat("c", 900)))
}

func TestAssembleStopsAtTotalBudget(t *testing.T) {
	body := strings.Repeat("x", 900)
	docs := []model.ScoredDocument{
		scoredDoc("Doc 1", body, "https://example.com/1", 0.9),
		scoredDoc("Doc 2", body, "https://example.com/2", 0.8),
		scoredDoc("Doc 3", body, "https://example.com/3", 0.7),
		scoredDoc("Doc 4", body, "https://example.com/4", 0.6),
	}

	out := retrieval.Assemble(docs, 2000)
	gt.True(t, len(out) <= 2100)
	gt.True(t, strings.Contains(out, "Doc 1"))
	gt.True(t, !strings.Contains(out, "Doc 4"))
}
