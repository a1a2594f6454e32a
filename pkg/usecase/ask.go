package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/invoke"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// notUnderstoodAnswer is returned when no agent can take the query
const notUnderstoodAnswer = "Je n'ai pas compris votre demande. Pouvez-vous la reformuler en précisant le sujet (fiscalité, social, réglementation...) ?"

// Router produces a routing decision for a query
type Router interface {
	Route(ctx context.Context, query string) model.RoutingDecision
}

// Invoker calls a downstream agent endpoint
type Invoker interface {
	Invoke(ctx context.Context, agent *model.AgentDescriptor, payload map[string]any) ([]byte, error)
}

// PayloadBuilder shapes the outbound body for an agent
type PayloadBuilder func(agent *model.AgentDescriptor, query, extraContext string) map[string]any

// AskUseCase sequences routing, invocation and normalization for one
// question and builds the final answer envelope.
type AskUseCase struct {
	registry     *model.AgentRegistry
	router       Router
	invoker      Invoker
	buildPayload PayloadBuilder
}

// NewAskUseCase creates an AskUseCase instance
func NewAskUseCase(registry *model.AgentRegistry, rt Router, inv Invoker) *AskUseCase {
	return &AskUseCase{
		registry:     registry,
		router:       rt,
		invoker:      inv,
		buildPayload: invoke.BuildPayload,
	}
}

// WithPayloadBuilder overrides how outbound payloads are shaped
func (uc *AskUseCase) WithPayloadBuilder(b PayloadBuilder) *AskUseCase {
	uc.buildPayload = b
	return uc
}

// Ask answers one question. A query no agent can take yields a "not
// understood" answer, not an error; only the outbound call can fail.
func (uc *AskUseCase) Ask(ctx context.Context, question string) (*model.Answer, error) {
	return uc.AskWithContext(ctx, question, "")
}

// AskWithContext is Ask with extra caller context (e.g. a company profile)
// forwarded to agents that want it.
func (uc *AskUseCase) AskWithContext(ctx context.Context, question, extraContext string) (*model.Answer, error) {
	logger := logging.From(ctx)

	decision := uc.router.Route(ctx, question)
	if err := decision.Validate(); err != nil {
		return nil, goerr.Wrap(err, "router produced an invalid decision")
	}

	logger.Info("routing decision",
		"method", decision.Method.String(),
		"confidence", decision.Confidence,
		"rationale", decision.Rationale)

	if decision.Agent == nil {
		return &model.Answer{
			Question:   question,
			Text:       notUnderstoodAnswer,
			Confidence: 0,
			Method:     decision.Method,
		}, nil
	}

	agent := uc.registry.Get(*decision.Agent)
	if agent == nil {
		// The router only hands out registry IDs; a miss here means the
		// registry changed mid-request.
		return nil, goerr.New("routed agent is not registered", goerr.V("agent", *decision.Agent))
	}

	raw, err := uc.invoker.Invoke(ctx, agent, uc.buildPayload(agent, question, extraContext))
	if err != nil {
		return nil, goerr.Wrap(err, "agent invocation failed", goerr.V("agent", agent.ID))
	}

	normalized := Normalize(raw)

	return &model.Answer{
		Question:   question,
		Agent:      string(agent.ID),
		Text:       normalized.AnswerText,
		Sources:    normalized.Sources,
		Confidence: decision.Confidence,
		Method:     decision.Method,
	}, nil
}
