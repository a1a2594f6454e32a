package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/usecase"
)

type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"Réponse générée."}}, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	newSessionFn    func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	newSessionCalls int
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	c.newSessionCalls++
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

type mockRetriever struct {
	docs []model.ScoredDocument
	err  error
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) ([]model.ScoredDocument, error) {
	return m.docs, m.err
}

func TestAnswerGroundsOnRetrievedDocuments(t *testing.T) {
	retriever := &mockRetriever{docs: []model.ScoredDocument{
		{
			Document: model.NewDocument("La TVA", "Le taux normal est de 20%.", "https://example.com/tva"),
			Score:    0.92,
		},
	}}
	llm := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{"Le taux normal de TVA est de 20%."}}, nil
				},
			}, nil
		},
	}

	uc := usecase.NewAnswerUseCase(retriever, llm)
	answer := gt.R1(uc.Answer(context.Background(), "C'est quoi la TVA ?")).NoError(t)

	gt.Equal(t, answer.Agent, usecase.LocalAgentID)
	gt.True(t, strings.Contains(answer.Text, "20%"))
	gt.Equal(t, len(answer.Sources), 1)
	gt.Equal(t, answer.Sources[0].URL, "https://example.com/tva")
	gt.Equal(t, answer.Confidence, 0.92)
}

func TestAnswerEmptyRetrievalSkipsGeneration(t *testing.T) {
	llm := &mockLLMClient{}

	uc := usecase.NewAnswerUseCase(&mockRetriever{}, llm)
	answer := gt.R1(uc.Answer(context.Background(), "question hors sujet")).NoError(t)

	gt.Equal(t, answer.Method, types.RouteMethodNone)
	gt.True(t, answer.Text != "")
	gt.Equal(t, llm.newSessionCalls, 0)
}

func TestAnswerPropagatesRetrievalFailure(t *testing.T) {
	uc := usecase.NewAnswerUseCase(&mockRetriever{err: context.DeadlineExceeded}, &mockLLMClient{})
	_, err := uc.Answer(context.Background(), "q")
	gt.Error(t, err)
}
