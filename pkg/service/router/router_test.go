package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/router"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{`{"agent":"none","confidence":0,"reason":"default"}`}}, nil
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

// mockLLMClient is a mock gollem LLMClient for testing
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

func classifierClient(agent string, confidence float64) *mockLLMClient {
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					body, _ := json.Marshal(map[string]any{
						"agent":      agent,
						"confidence": confidence,
						"reason":     "classification test",
					})
					return &gollem.Response{Texts: []string{string(body)}}, nil
				},
			}, nil
		},
	}
}

func testRegistry() *model.AgentRegistry {
	return model.NewAgentRegistry([]*model.AgentDescriptor{
		{
			ID:          "fiscalite",
			Description: "Fiscalité et TVA des PME",
			EndpointURL: "https://example.com/fiscalite",
			Family:      model.AgentFamilyFunctions,
			Keywords:    []string{"tva", "impôt", "fiscal"},
			Enabled:     true,
		},
		{
			ID:          "social",
			Description: "Droit du travail",
			EndpointURL: "https://example.com/social",
			Family:      model.AgentFamilyFunctions,
			Keywords:    []string{"préavis", "salarié", "contrat de travail"},
			Enabled:     true,
		},
	})
}

func TestRouteRulesShortCircuitSkipsClassifier(t *testing.T) {
	llm := classifierClient("social", 0.99)
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	// Two keyword hits clear the good threshold.
	decision := r.Route(context.Background(), "Quel taux de TVA et quel régime fiscal pour ma PME ?")

	gt.Equal(t, decision.Method, types.RouteMethodRules)
	gt.NotNil(t, decision.Agent)
	gt.Equal(t, *decision.Agent, types.AgentID("fiscalite"))
	gt.True(t, decision.Confidence >= router.DefaultGoodThreshold)
	gt.Equal(t, llm.newSessionCalls, 0)
}

func TestRouteSingleKeywordConsultsClassifier(t *testing.T) {
	llm := classifierClient("fiscalite", 0.9)
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	decision := r.Route(context.Background(), "C'est quoi la TVA ?")

	gt.Equal(t, llm.newSessionCalls, 1)
	gt.NotNil(t, decision.Agent)
	gt.Equal(t, *decision.Agent, types.AgentID("fiscalite"))
	// Rules and classifier agree: method is fused with the higher confidence.
	gt.Equal(t, decision.Method, types.RouteMethodFused)
	gt.Equal(t, decision.Confidence, 0.9)
}

func TestRouteDisagreementPicksHigherConfidence(t *testing.T) {
	llm := classifierClient("social", 0.95)
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	decision := r.Route(context.Background(), "tva sur les indemnités")

	gt.NotNil(t, decision.Agent)
	gt.Equal(t, *decision.Agent, types.AgentID("social"))
	gt.Equal(t, decision.Method, types.RouteMethodLLM)
}

func TestRouteUnknownClassifierLabelDiscarded(t *testing.T) {
	llm := classifierClient("agent-invente", 0.99)
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	decision := r.Route(context.Background(), "question sans aucun mot-clé connu")

	gt.Equal(t, decision.Method, types.RouteMethodNone)
	gt.Nil(t, decision.Agent)
	gt.Equal(t, decision.Confidence, 0.0)
}

func TestRouteNoSignalReturnsNone(t *testing.T) {
	llm := classifierClient("none", 0)
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	decision := r.Route(context.Background(), "bonjour, comment ça va ?")

	gt.Equal(t, decision.Method, types.RouteMethodNone)
	gt.Nil(t, decision.Agent)
	gt.NoError(t, decision.Validate())
}

func TestRouteClassifierErrorFallsBackToRules(t *testing.T) {
	llm := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return nil, fmt.Errorf("provider down")
		},
	}
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	decision := r.Route(context.Background(), "C'est quoi la TVA ?")

	gt.Equal(t, decision.Method, types.RouteMethodRules)
	gt.NotNil(t, decision.Agent)
	gt.Equal(t, *decision.Agent, types.AgentID("fiscalite"))
}

func TestRouteWithoutClassifier(t *testing.T) {
	r := gt.R1(router.New(testRegistry(), nil)).NoError(t)

	decision := r.Route(context.Background(), "Combien de préavis pour un salarié ?")

	gt.Equal(t, decision.Method, types.RouteMethodRules)
	gt.NotNil(t, decision.Agent)
	gt.Equal(t, *decision.Agent, types.AgentID("social"))
}

func TestRouteNonStrictJSONClassifierOutput(t *testing.T) {
	llm := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{
						"Voici ma réponse:\n{\"agent\":\"fiscalite\",\"confidence\":0.7,\"reason\":\"sujet fiscal\"}\nmerci",
					}}, nil
				},
			}, nil
		},
	}
	r := gt.R1(router.New(testRegistry(), llm)).NoError(t)

	decision := r.Route(context.Background(), "question sur les acomptes")

	gt.Equal(t, decision.Method, types.RouteMethodLLM)
	gt.NotNil(t, decision.Agent)
	gt.Equal(t, *decision.Agent, types.AgentID("fiscalite"))
	gt.Equal(t, decision.Confidence, 0.7)
}
