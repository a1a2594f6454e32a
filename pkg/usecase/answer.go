package usecase

import (
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/retrieval"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

//go:embed prompt/answer_system.md
var answerSystemPromptTmpl string

var answerSystemPrompt = template.Must(template.New("answer_system").Parse(answerSystemPromptTmpl))

// noAnswerText is returned when retrieval found nothing usable
const noAnswerText = "Je n'ai pas trouvé d'information sur ce sujet dans ma base de connaissances. Reformulez votre question ou consultez directement les sites officiels."

// LocalAgentID identifies the in-process retrieval-grounded responder
const LocalAgentID = "local"

// Retriever ranks corpus documents against a query
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]model.ScoredDocument, error)
}

// AnswerUseCase grounds an LLM answer on retrieved corpus documents. It is
// the in-process equivalent of a downstream responder agent.
type AnswerUseCase struct {
	retriever     Retriever
	llmClient     gollem.LLMClient
	maxTotalChars int
}

// NewAnswerUseCase creates an AnswerUseCase instance
func NewAnswerUseCase(retriever Retriever, llmClient gollem.LLMClient) *AnswerUseCase {
	return &AnswerUseCase{
		retriever:     retriever,
		llmClient:     llmClient,
		maxTotalChars: retrieval.DefaultMaxTotalChars,
	}
}

// Answer retrieves documents for the query and synthesizes a grounded
// answer. An empty retrieval short-circuits to the "no answer" branch
// without calling the generator.
func (uc *AnswerUseCase) Answer(ctx context.Context, query string) (*model.Answer, error) {
	logger := logging.From(ctx)

	docs, err := uc.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "retrieval failed")
	}

	assembled := retrieval.Assemble(docs, uc.maxTotalChars)
	if assembled == retrieval.NoDocuments {
		return &model.Answer{
			Question: query,
			Agent:    LocalAgentID,
			Text:     noAnswerText,
			Method:   types.RouteMethodNone,
		}, nil
	}

	logger.Info("answering from corpus", "documents", len(docs), "context_chars", len(assembled))

	var prompt strings.Builder
	if err := answerSystemPrompt.Execute(&prompt, map[string]string{"Context": assembled}); err != nil {
		return nil, goerr.Wrap(err, "failed to render system prompt")
	}

	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(prompt.String()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create answer session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(query))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty answer from generator")
	}

	// No routing happened here, so Method stays empty. The no-answer branch
	// reports "none" to mirror the orchestrator's not-understood envelope.
	answer := &model.Answer{
		Question:   query,
		Agent:      LocalAgentID,
		Text:       strings.TrimSpace(resp.Texts[0]),
		Confidence: docs[0].Score,
	}
	for _, d := range docs {
		answer.Sources = append(answer.Sources, model.SourceRef{
			Title: d.Title,
			URL:   d.SourceURL,
		})
	}

	return answer, nil
}
