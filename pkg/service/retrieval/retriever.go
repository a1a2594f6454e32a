package retrieval

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/embedding"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

const (
	// DefaultTopK is the number of documents returned per query
	DefaultTopK = 3

	// DefaultMinScore is the similarity floor below which a document is
	// considered off-topic
	DefaultMinScore = 0.3

	// titleWeight repeats the title in the embedded representation. Titles
	// are short, high-signal strings; repeating them biases the combined
	// embedding toward topical identity instead of body prose.
	titleWeight = 3

	// bodyPrefixChars bounds how much body text joins the representation
	bodyPrefixChars = 1000
)

// Embedder computes an embedding for a text, memoized by the implementation
type Embedder interface {
	GetOrCompute(ctx context.Context, text string) ([]float64, error)
}

// Corpus provides the current document snapshot
type Corpus interface {
	Snapshot(ctx context.Context) ([]model.Document, error)
}

// Retriever ranks corpus documents against a query by embedding similarity
type Retriever struct {
	embedder Embedder
	corpus   Corpus
	topK     int
	minScore float64
}

// Option is a functional option for Retriever configuration
type Option func(*Retriever)

// WithTopK overrides the result count limit
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinScore overrides the similarity floor
func WithMinScore(score float64) Option {
	return func(r *Retriever) {
		r.minScore = score
	}
}

// New creates a Retriever over the given embedder and corpus
func New(embedder Embedder, corpus Corpus, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if corpus == nil {
		return nil, goerr.New("corpus is required")
	}

	r := &Retriever{
		embedder: embedder,
		corpus:   corpus,
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// representation builds the text embedded for a document: the title
// repeated titleWeight times followed by the first bodyPrefixChars of body.
func representation(doc *model.Document) string {
	var sb strings.Builder
	title := strings.TrimSpace(doc.Title)
	for i := 0; i < titleWeight; i++ {
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	body := doc.Body
	if runes := []rune(body); len(runes) > bodyPrefixChars {
		body = string(runes[:bodyPrefixChars])
	}
	sb.WriteString(body)
	return sb.String()
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||), defined as 0 when
// either norm is 0 or the dimensions differ. Opposing vectors clamp to 0:
// a score is a relevance measure in [0,1], and anti-similar is just as
// irrelevant as orthogonal.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	return score
}

// Retrieve returns up to topK documents scoring at least minScore against
// the query, sorted by descending score. Ties keep corpus order. A document
// whose embedding fails is skipped, never aborting the whole retrieval.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]model.ScoredDocument, error) {
	logger := logging.From(ctx)

	docs, err := r.corpus.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	qVec, err := r.embedder.GetOrCompute(ctx, query)
	if err != nil {
		if errors.Is(err, embedding.ErrProvider) {
			// A provider outage means no score contribution, so the caller
			// gets the "no documents" branch instead of a failed request.
			logger.Warn("query embedding failed, returning no documents", "error", err)
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	scored := make([]model.ScoredDocument, 0, len(docs))
	for i := range docs {
		doc := docs[i]

		docVec := doc.Embedding
		if len(docVec) == 0 {
			docVec, err = r.embedder.GetOrCompute(ctx, representation(&doc))
			if err != nil {
				logger.Warn("skipping document, embedding failed",
					"document", doc.ID, "error", err)
				continue
			}
		}

		score := CosineSimilarity(qVec, docVec)
		if score < r.minScore {
			continue
		}

		scored = append(scored, model.ScoredDocument{
			Document: doc,
			Score:    score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}

	return scored, nil
}
