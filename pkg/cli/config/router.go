package config

import (
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/router"
)

// Router holds CLI flags for routing thresholds. The defaults are
// empirically chosen; these flags exist so operators can tune them without
// a rebuild.
type Router struct {
	goodThreshold float64
	ruleHitWeight float64
}

// Flags returns CLI flags for router configuration
func (r *Router) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "router-good-threshold",
			Usage:       "Rule confidence above which the LLM classifier is skipped",
			Value:       router.DefaultGoodThreshold,
			Sources:     cli.EnvVars("AGV_ROUTER_GOOD_THRESHOLD"),
			Destination: &r.goodThreshold,
		},
		&cli.FloatFlag{
			Name:        "router-rule-hit-weight",
			Usage:       "Confidence contributed by one keyword hit",
			Value:       router.DefaultRuleHitWeight,
			Sources:     cli.EnvVars("AGV_ROUTER_RULE_HIT_WEIGHT"),
			Destination: &r.ruleHitWeight,
		},
	}
}

// Options returns the router options for the configured thresholds
func (r *Router) Options() []router.Option {
	return []router.Option{
		router.WithGoodThreshold(r.goodThreshold),
		router.WithRuleHitWeight(r.ruleHitWeight),
	}
}
