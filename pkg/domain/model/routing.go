package model

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// RoutingDecision is the outcome of routing one query. Agent is nil if and
// only if Method is RouteMethodNone.
type RoutingDecision struct {
	Agent      *types.AgentID
	Confidence float64
	Method     types.RouteMethod
	Rationale  string
}

// NoRoute returns the decision for a query no signal could place.
func NoRoute(rationale string) RoutingDecision {
	return RoutingDecision{
		Confidence: 0,
		Method:     types.RouteMethodNone,
		Rationale:  rationale,
	}
}

// Validate checks the decision invariants
func (d *RoutingDecision) Validate() error {
	if !d.Method.IsValid() {
		return goerr.New("invalid route method", goerr.V("method", d.Method))
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return goerr.New("confidence out of range", goerr.V("confidence", d.Confidence))
	}
	if (d.Agent == nil) != (d.Method == types.RouteMethodNone) {
		return goerr.New("agent must be set exactly when method is not none",
			goerr.V("method", d.Method))
	}
	if d.Agent != nil {
		if err := d.Agent.Validate(); err != nil {
			return goerr.Wrap(err, "invalid target agent")
		}
	}
	return nil
}

// ClampConfidence bounds a confidence value to [0, 1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
