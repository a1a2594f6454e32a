package model

import (
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// SourceRef is one citation attached to an answer.
type SourceRef struct {
	Title string `json:"titre"`
	URL   string `json:"url"`
}

// NormalizedResponse is the canonical form of a responder payload after
// stripping control metadata (inert handoff blocks, code fences) and
// collapsing source-list field variants.
type NormalizedResponse struct {
	AnswerText  string
	Sources     []SourceRef
	ExtraFields map[string]any
}

// Answer is the final envelope returned to the caller of the orchestrator.
type Answer struct {
	Question   string            `json:"question"`
	Agent      string            `json:"agent_utilise"`
	Text       string            `json:"reponse"`
	Sources    []SourceRef       `json:"sources,omitempty"`
	Confidence float64           `json:"confiance"`
	Method     types.RouteMethod `json:"methode,omitempty"`
}

// ErrorEnvelope is the user-visible shape of a terminal failure: a
// machine-readable kind plus a friendly message, never a stack trace.
type ErrorEnvelope struct {
	Kind    string `json:"erreur"`
	Message string `json:"message"`
}
