package router

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// ErrClassifierParse is returned when the classifier output cannot be used.
// Routing degrades to rules or "none"; this error never aborts a request.
var ErrClassifierParse = goerr.New("classifier output unusable")

const (
	// DefaultGoodThreshold is the rule confidence above which the
	// classifier call is skipped entirely
	DefaultGoodThreshold = 0.8

	// DefaultRuleHitWeight is the confidence contributed by one keyword
	// hit. Two hits clear DefaultGoodThreshold.
	DefaultRuleHitWeight = 0.4
)

// Router fuses keyword-rule scoring with an LLM classification into one
// routing decision. Stateless per call.
type Router struct {
	registry      *model.AgentRegistry
	llmClient     gollem.LLMClient
	goodThreshold float64
	ruleHitWeight float64
}

// Option is a functional option for Router configuration
type Option func(*Router)

// WithGoodThreshold overrides the rule short-circuit threshold
func WithGoodThreshold(v float64) Option {
	return func(r *Router) {
		r.goodThreshold = model.ClampConfidence(v)
	}
}

// WithRuleHitWeight overrides the per-keyword-hit confidence weight
func WithRuleHitWeight(v float64) Option {
	return func(r *Router) {
		if v > 0 {
			r.ruleHitWeight = v
		}
	}
}

// New creates a Router. The LLM client may be nil, in which case routing
// relies on rules alone.
func New(registry *model.AgentRegistry, llmClient gollem.LLMClient, opts ...Option) (*Router, error) {
	if registry == nil {
		return nil, goerr.New("agent registry is required")
	}

	r := &Router{
		registry:      registry,
		llmClient:     llmClient,
		goodThreshold: DefaultGoodThreshold,
		ruleHitWeight: DefaultRuleHitWeight,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// scoreRules counts keyword hits per agent against the lower-cased query
// and returns the best candidate, or nil when no keyword matched.
func (r *Router) scoreRules(query string) (*types.AgentID, float64, string) {
	lowered := strings.ToLower(query)

	var bestAgent *types.AgentID
	var bestScore float64
	var bestHits []string

	for _, agent := range r.registry.List() {
		if !agent.Enabled {
			continue
		}

		var hits []string
		for _, kw := range agent.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(kw)) {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}

		score := model.ClampConfidence(float64(len(hits)) * r.ruleHitWeight)
		if score > bestScore {
			id := agent.ID
			bestAgent = &id
			bestScore = score
			bestHits = hits
		}
	}

	if bestAgent == nil {
		return nil, 0, ""
	}
	return bestAgent, bestScore, "keywords: " + strings.Join(bestHits, ", ")
}

// classifierResult is the JSON shape requested from the LLM
type classifierResult struct {
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// classify asks the LLM to pick an agent from the known set. A result
// naming an unknown agent is discarded, never propagated.
func (r *Router) classify(ctx context.Context, query string) (*types.AgentID, float64, string, error) {
	session, err := r.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(r.buildResponseSchema()),
		gollem.WithSessionSystemPrompt(r.buildSystemPrompt()),
	)
	if err != nil {
		return nil, 0, "", goerr.Wrap(err, "failed to create classifier session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(query)))
	if err != nil {
		return nil, 0, "", goerr.Wrap(err, "failed to generate classification")
	}
	if len(resp.Texts) == 0 {
		return nil, 0, "", goerr.Wrap(ErrClassifierParse, "empty classifier response")
	}

	result, err := parseClassifierOutput(resp.Texts[0])
	if err != nil {
		return nil, 0, "", err
	}

	if result.Agent == "" || strings.EqualFold(result.Agent, "none") {
		return nil, 0, result.Reason, nil
	}

	id := types.AgentID(strings.ToLower(strings.TrimSpace(result.Agent)))
	if r.registry.Get(id) == nil {
		return nil, 0, "", goerr.Wrap(ErrClassifierParse, "classifier named unknown agent",
			goerr.V("agent", result.Agent))
	}

	return &id, model.ClampConfidence(result.Confidence), result.Reason, nil
}

// parseClassifierOutput parses classifier JSON, falling back to the first
// {...} span when the output is not strict JSON.
func parseClassifierOutput(raw string) (*classifierResult, error) {
	var result classifierResult
	if err := json.Unmarshal([]byte(raw), &result); err == nil {
		return &result, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, goerr.Wrap(ErrClassifierParse, "no JSON object in classifier output",
			goerr.V("output", raw))
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return nil, goerr.Wrap(ErrClassifierParse, "failed to parse classifier output",
			goerr.V("output", raw))
	}

	return &result, nil
}

func (r *Router) buildResponseSchema() *gollem.Parameter {
	ids := make([]string, 0)
	for _, a := range r.registry.List() {
		ids = append(ids, string(a.ID))
	}
	ids = append(ids, "none")

	return &gollem.Parameter{
		Title:       "IntentClassification",
		Description: "Which specialized agent should answer the user query",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"agent": {
				Type:        gollem.TypeString,
				Description: "The agent ID, or \"none\" when no agent fits",
				Enum:        ids,
				Required:    true,
			},
			"confidence": {
				Type:        gollem.TypeNumber,
				Description: "Confidence in the choice, between 0 and 1",
				Required:    true,
			},
			"reason": {
				Type:        gollem.TypeString,
				Description: "One short sentence explaining the choice",
				Required:    true,
			},
		},
	}
}

// Route produces a routing decision for one query.
func (r *Router) Route(ctx context.Context, query string) model.RoutingDecision {
	logger := logging.From(ctx)

	rulesAgent, rulesConfidence, rulesRationale := r.scoreRules(query)

	if rulesAgent != nil && rulesConfidence >= r.goodThreshold {
		return model.RoutingDecision{
			Agent:      rulesAgent,
			Confidence: rulesConfidence,
			Method:     types.RouteMethodRules,
			Rationale:  rulesRationale,
		}
	}

	var llmAgent *types.AgentID
	var llmConfidence float64
	var llmRationale string
	if r.llmClient != nil {
		var err error
		llmAgent, llmConfidence, llmRationale, err = r.classify(ctx, query)
		if err != nil {
			// Classification failures degrade routing, never abort it.
			logger.Warn("classifier unusable, falling back to rules", "error", err)
			llmAgent = nil
		}
	}

	switch {
	case rulesAgent != nil && llmAgent != nil:
		if *rulesAgent == *llmAgent {
			confidence := rulesConfidence
			if llmConfidence > confidence {
				confidence = llmConfidence
			}
			return model.RoutingDecision{
				Agent:      rulesAgent,
				Confidence: confidence,
				Method:     types.RouteMethodFused,
				Rationale:  rulesRationale + "; " + llmRationale,
			}
		}
		if rulesConfidence >= llmConfidence {
			return model.RoutingDecision{
				Agent:      rulesAgent,
				Confidence: rulesConfidence,
				Method:     types.RouteMethodRules,
				Rationale:  rulesRationale,
			}
		}
		return model.RoutingDecision{
			Agent:      llmAgent,
			Confidence: llmConfidence,
			Method:     types.RouteMethodLLM,
			Rationale:  llmRationale,
		}

	case rulesAgent != nil:
		return model.RoutingDecision{
			Agent:      rulesAgent,
			Confidence: rulesConfidence,
			Method:     types.RouteMethodRules,
			Rationale:  rulesRationale,
		}

	case llmAgent != nil:
		return model.RoutingDecision{
			Agent:      llmAgent,
			Confidence: llmConfidence,
			Method:     types.RouteMethodLLM,
			Rationale:  llmRationale,
		}

	default:
		return model.NoRoute("no rule matched and classifier produced no candidate")
	}
}
