package usecase

import (
	"errors"

	"github.com/m-mizutani/gollem"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/interfaces"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/invoke"
)

type UseCases struct {
	repo      interfaces.Repository
	registry  *model.AgentRegistry
	llmClient gollem.LLMClient

	Ask    *AskUseCase
	Answer *AnswerUseCase
	Veille *VeilleUseCase
}

type Option func(*UseCases)

// WithAnswer enables the local retrieval-grounded responder
func WithAnswer(answer *AnswerUseCase) Option {
	return func(uc *UseCases) {
		uc.Answer = answer
	}
}

// WithVeille enables the regulatory-watch run use case
func WithVeille(veille *VeilleUseCase) Option {
	return func(uc *UseCases) {
		uc.Veille = veille
	}
}

func New(repo interfaces.Repository, registry *model.AgentRegistry, rt Router, inv Invoker, llmClient gollem.LLMClient, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		registry:  registry,
		llmClient: llmClient,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Ask = NewAskUseCase(registry, rt, inv)

	return uc
}

// EnvelopeFromError maps a terminal failure to the user-visible error
// envelope: a machine-readable kind and a friendly message, no stack trace.
func EnvelopeFromError(err error) *model.ErrorEnvelope {
	switch {
	case errors.Is(err, invoke.ErrAuth):
		return &model.ErrorEnvelope{
			Kind:    "agent_auth",
			Message: "L'agent sélectionné a refusé la demande. Vérifiez la configuration des accès.",
		}
	case errors.Is(err, invoke.ErrUnreachable):
		return &model.ErrorEnvelope{
			Kind:    "agent_injoignable",
			Message: "L'agent sélectionné est injoignable pour le moment. Réessayez dans quelques instants.",
		}
	case errors.Is(err, invoke.ErrAgentFailed):
		return &model.ErrorEnvelope{
			Kind:    "agent_erreur",
			Message: "L'agent sélectionné a rencontré une erreur. Réessayez dans quelques instants.",
		}
	default:
		return &model.ErrorEnvelope{
			Kind:    "erreur_interne",
			Message: "Une erreur interne est survenue. Réessayez dans quelques instants.",
		}
	}
}
